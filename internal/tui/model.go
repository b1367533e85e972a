// Package tui renders the operator console in the terminal. It is a pure
// consumer of console state: key handlers dispatch console operations as
// commands and re-read the snapshot when they complete.
package tui

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"ragops/internal/backend"
	"ragops/internal/console"
)

type inputMode int

const (
	modeChat inputMode = iota
	modeIngestOne
	modeUpload
	modeSettings
)

type (
	opDoneMsg struct{}
	probeMsg  backend.Status
)

// Model is the root Bubble Tea model.
type Model struct {
	console *console.Console

	input    textinput.Model
	spin     spinner.Model
	viewport viewport.Model

	renderer *glamour.TermRenderer

	mode   inputMode
	width  int
	height int
	ready  bool
}

func New(c *console.Console) Model {
	in := textinput.New()
	in.Placeholder = "Ask about the ingested documents"
	in.Prompt = "> "
	in.Focus()
	in.CharLimit = 0
	in.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{console: c, input: in, spin: s, mode: modeChat}
}

// Run starts the interactive console and blocks until the user quits.
func Run(c *console.Console) error {
	_, err := tea.NewProgram(New(c), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.probeCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		vpHeight := msg.Height - chromeHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		wrap := msg.Width - 2
		if wrap < 20 {
			wrap = 20
		}
		if renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = renderer
		}
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case probeMsg:
		return m, nil

	case opDoneMsg:
		if m.ready {
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoTop()
		}
		if m.mode == modeChat && m.console.QuestionDraft() == "" {
			m.input.SetValue("")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.console.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if _, ok := m.console.Notification(); ok {
			m.console.DismissNotification()
			return m, nil
		}
		if m.mode != modeChat {
			m.setMode(modeChat)
		}
		return m, nil

	case "enter":
		return m.submit()

	case "ctrl+p":
		if m.console.Busy() {
			return m, nil
		}
		return m, tea.Batch(m.opCmd((*console.Console).RunPathIngest), m.spin.Tick)

	case "ctrl+o":
		m.setMode(modeIngestOne)
		return m, nil

	case "ctrl+u":
		m.setMode(modeUpload)
		return m, nil

	case "ctrl+b":
		m.setMode(modeSettings)
		m.input.SetValue(m.console.BackendBase())
		return m, nil

	case "ctrl+r":
		return m, m.probeCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setMode(mode inputMode) {
	m.mode = mode
	m.input.SetValue("")
	switch mode {
	case modeChat:
		m.input.Placeholder = "Ask about the ingested documents"
	case modeIngestOne:
		m.input.Placeholder = "filename [max pages] [max chunks]"
	case modeUpload:
		m.input.Placeholder = "local file paths, space separated"
	case modeSettings:
		m.input.Placeholder = "backend base address"
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.console.Busy() {
		return m, nil
	}
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeSettings:
		if value != "" {
			if err := m.console.SetBackendBase(value); err != nil {
				m.console.Notify("Could not save settings: " + err.Error())
			}
		}
		m.setMode(modeChat)
		return m, m.probeCmd()

	case modeIngestOne:
		m.console.SetIngestOneParams(parseIngestOne(value))
		m.setMode(modeChat)
		return m, tea.Batch(m.opCmd((*console.Console).RunSingleIngest), m.spin.Tick)

	case modeUpload:
		uploads, err := readUploads(value)
		if err != nil {
			m.console.Notify("Could not read files: " + err.Error())
			return m, nil
		}
		m.console.SetUploads(uploads)
		m.setMode(modeChat)
		return m, tea.Batch(m.opCmd((*console.Console).RunFilesIngest), m.spin.Tick)

	default:
		m.console.SetQuestionDraft(value)
		return m, tea.Batch(m.opCmd((*console.Console).RunChat), m.spin.Tick)
	}
}

func (m Model) opCmd(op func(*console.Console, context.Context)) tea.Cmd {
	c := m.console
	return func() tea.Msg {
		op(c, context.Background())
		return opDoneMsg{}
	}
}

func (m Model) probeCmd() tea.Cmd {
	c := m.console
	return func() tea.Msg {
		return probeMsg(c.Probe(context.Background()))
	}
}

// parseIngestOne splits "filename [maxPages] [maxChunks]". Filenames with
// spaces can be the sole field.
func parseIngestOne(value string) backend.IngestOneParams {
	fields := strings.Fields(value)
	params := backend.IngestOneParams{Filename: value}
	if len(fields) < 2 {
		return params
	}
	if pages, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
		if len(fields) >= 3 {
			if first, err := strconv.Atoi(fields[len(fields)-2]); err == nil {
				params.Filename = strings.Join(fields[:len(fields)-2], " ")
				params.MaxPages = &first
				params.MaxChunks = &pages
				return params
			}
		}
		params.Filename = strings.Join(fields[:len(fields)-1], " ")
		params.MaxPages = &pages
	}
	return params
}

func readUploads(value string) ([]backend.Upload, error) {
	var uploads []backend.Upload
	for _, path := range strings.Fields(value) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, backend.Upload{Name: filepath.Base(path), Data: data})
	}
	return uploads, nil
}
