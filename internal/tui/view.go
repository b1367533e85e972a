package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragops/internal/backend"
)

// chromeHeight is the number of terminal rows taken by everything that is not
// the transcript viewport.
const chromeHeight = 6

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	unknownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m Model) View() string {
	if !m.ready {
		return "starting console..."
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("ragops console"))
	b.WriteString("  ")
	b.WriteString(healthBadge(m.console.Health()))
	b.WriteString("  ")
	b.WriteString(metaStyle.Render(m.console.BackendBase()))
	b.WriteString("\n")

	if m.console.Busy() {
		b.WriteString(m.spin.View())
		b.WriteString(" working...")
	}
	b.WriteString("\n")

	if note, ok := m.console.Notification(); ok {
		b.WriteString(noteStyle.Render(note))
		b.WriteString(metaStyle.Render("  (esc to dismiss)"))
	}
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	switch m.mode {
	case modeIngestOne:
		return "enter: ingest named file · esc: back"
	case modeUpload:
		return "enter: upload files · esc: back"
	case modeSettings:
		return "enter: save backend address · esc: back"
	default:
		return "enter: ask · ^p: ingest corpus · ^o: ingest one · ^u: upload · ^b: backend · ^r: health · ^c: quit"
	}
}

func healthBadge(status backend.Status) string {
	switch status {
	case backend.StatusOk:
		return okStyle.Render("● online")
	case backend.StatusOffline:
		return offlineStyle.Render("● offline")
	default:
		return unknownStyle.Render("● unknown")
	}
}

func (m Model) renderHistory() string {
	history := m.console.History()
	if len(history) == 0 {
		return metaStyle.Render("No exchanges yet. Ingest some documents, then ask a question.")
	}
	var b strings.Builder
	for i, entry := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("Q: " + entry.Question))
		b.WriteString("\n")
		b.WriteString(m.renderAnswer(entry.Answer))
		b.WriteString(metaStyle.Render(fmt.Sprintf("%d chunks used · %s", entry.UsedChunks, entry.At.Format("15:04:05"))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderAnswer(answer string) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(answer); err == nil {
			return out
		}
	}
	return answer + "\n"
}
