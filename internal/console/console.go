// Package console owns every piece of operator-facing state: the busy gate,
// the health badge, the single-slot notification, the conversation history
// and the transient inputs. All mutation flows through Console methods so the
// one-writer-per-field rule holds no matter which surface (TUI, web, one-shot
// CLI) drives it.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ragops/internal/backend"
	"ragops/internal/common"
	"ragops/internal/config"
)

// Entry is one completed question/answer exchange. Entries are immutable and
// ordered newest first.
type Entry struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	UsedChunks int       `json:"used_chunks"`
	At         time.Time `json:"at"`
}

// State is a point-in-time copy of everything a presentation layer needs.
type State struct {
	Busy         bool    `json:"busy"`
	Health       string  `json:"health"`
	Notification string  `json:"notification,omitempty"`
	HasNote      bool    `json:"has_notification"`
	BackendBase  string  `json:"backend_base"`
	History      []Entry `json:"history"`
	Uploads      int     `json:"pending_uploads"`
	Question     string  `json:"question_draft"`
}

// Console orchestrates backend operations for a single operator session.
type Console struct {
	settings *config.Store
	gateway  backend.Gateway
	now      func() time.Time

	mu           sync.Mutex
	busy         bool
	health       backend.Status
	notification string
	hasNote      bool
	history      []Entry

	questionDraft string
	ingestParams  backend.IngestOneParams
	uploads       []backend.Upload
}

// New builds a console around a settings store and a backend gateway.
func New(settings *config.Store, gateway backend.Gateway) *Console {
	return &Console{
		settings: settings,
		gateway:  gateway,
		now:      time.Now,
		health:   backend.StatusUnknown,
	}
}

// BackendBase reports the current backend address.
func (c *Console) BackendBase() string {
	return c.settings.Get().BackendBase
}

// SetBackendBase records and persists a new backend address. Requests already
// in flight keep the address they started with.
func (c *Console) SetBackendBase(base string) error {
	if err := c.settings.Set(base); err != nil {
		common.Logger().Error("console: settings persist failed", "error", err)
		return err
	}
	common.Logger().Info("console: backend base updated", "base", base)
	return nil
}

// Busy reports whether a mutating operation is in flight.
func (c *Console) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Health returns the last probed backend status.
func (c *Console) Health() backend.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// Probe refreshes the health badge. It bypasses the busy gate: the probe is
// read-only and may overlap an in-flight operation.
func (c *Console) Probe(ctx context.Context) backend.Status {
	status := c.gateway.Health(ctx)
	c.mu.Lock()
	c.health = status
	c.mu.Unlock()
	return status
}

// Notify replaces the current notification. Latest wins; nothing queues.
func (c *Console) Notify(message string) {
	c.mu.Lock()
	c.notification = message
	c.hasNote = true
	c.mu.Unlock()
}

// DismissNotification clears the notification slot.
func (c *Console) DismissNotification() {
	c.mu.Lock()
	c.notification = ""
	c.hasNote = false
	c.mu.Unlock()
}

// Notification returns the live notification, if any.
func (c *Console) Notification() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notification, c.hasNote
}

// History returns the conversation log, newest first.
func (c *Console) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// SetQuestionDraft stores the pending question text.
func (c *Console) SetQuestionDraft(question string) {
	c.mu.Lock()
	c.questionDraft = question
	c.mu.Unlock()
}

// QuestionDraft returns the pending question text.
func (c *Console) QuestionDraft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questionDraft
}

// SetUploads replaces the pending upload selection.
func (c *Console) SetUploads(files []backend.Upload) {
	c.mu.Lock()
	c.uploads = files
	c.mu.Unlock()
}

// PendingUploads reports how many files are queued for upload.
func (c *Console) PendingUploads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.uploads)
}

// SetIngestOneParams stores the single-file ingest inputs.
func (c *Console) SetIngestOneParams(params backend.IngestOneParams) {
	c.mu.Lock()
	c.ingestParams = params
	c.mu.Unlock()
}

// IngestOneParams returns the stored single-file ingest inputs.
func (c *Console) IngestOneParams() backend.IngestOneParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ingestParams
}

// Snapshot copies the full console state for presentation.
func (c *Console) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := make([]Entry, len(c.history))
	copy(history, c.history)
	return State{
		Busy:         c.busy,
		Health:       c.health.String(),
		Notification: c.notification,
		HasNote:      c.hasNote,
		BackendBase:  c.settings.Get().BackendBase,
		History:      history,
		Uploads:      len(c.uploads),
		Question:     c.questionDraft,
	}
}

// RunPathIngest triggers a bulk ingest of the backend's corpus directory.
// A silent no-op while another operation holds the gate.
func (c *Console) RunPathIngest(ctx context.Context) {
	logger := common.Logger()
	if !c.tryAcquire() {
		logger.Debug("console: path ingest skipped, gate busy")
		return
	}
	defer c.release()
	logger.Info("console: path ingest started")
	report, err := c.gateway.IngestPath(ctx)
	if err != nil {
		logger.Error("console: path ingest failed", "error", err)
		c.Notify(failureMessage("Path ingest", err, true))
		return
	}
	logger.Info("console: path ingest completed", "inserted", report.Inserted, "files", len(report.Files))
	c.Notify(fmt.Sprintf("Ingested %d chunks from %d files", report.Inserted, len(report.Files)))
}

// RunFilesIngest uploads the pending file selection in one request. A no-op
// when nothing is selected or the gate is busy. The selection is cleared only
// on success.
func (c *Console) RunFilesIngest(ctx context.Context) {
	logger := common.Logger()
	c.mu.Lock()
	files := c.uploads
	c.mu.Unlock()
	if len(files) == 0 {
		return
	}
	if !c.tryAcquire() {
		logger.Debug("console: files ingest skipped, gate busy")
		return
	}
	defer c.release()
	logger.Info("console: files ingest started", "count", len(files))
	report, err := c.gateway.IngestFiles(ctx, files)
	if err != nil {
		logger.Error("console: files ingest failed", "error", err)
		c.Notify(failureMessage("File upload", err, false))
		return
	}
	c.mu.Lock()
	c.uploads = nil
	c.mu.Unlock()
	logger.Info("console: files ingest completed", "inserted", report.Inserted)
	c.Notify(fmt.Sprintf("Ingested %d chunks from: %s", report.Inserted, strings.Join(report.Files, ", ")))
}

// RunSingleIngest ingests one named server-side file. A blank filename is a
// local validation failure: the backend is never contacted and the gate never
// engages.
func (c *Console) RunSingleIngest(ctx context.Context) {
	logger := common.Logger()
	c.mu.Lock()
	params := c.ingestParams
	c.mu.Unlock()
	params.Filename = strings.TrimSpace(params.Filename)
	if params.Filename == "" {
		c.Notify("Filename is required for single-file ingest")
		return
	}
	if !c.tryAcquire() {
		logger.Debug("console: single ingest skipped, gate busy")
		return
	}
	defer c.release()
	logger.Info("console: single ingest started", "filename", params.Filename)
	report, err := c.gateway.IngestOne(ctx, params)
	if err != nil {
		logger.Error("console: single ingest failed", "filename", params.Filename, "error", err)
		c.Notify(failureMessage("Single-file ingest", err, true))
		return
	}
	name := params.Filename
	if len(report.Files) > 0 {
		name = report.Files[0]
	}
	logger.Info("console: single ingest completed", "filename", name, "inserted", report.Inserted)
	c.Notify(fmt.Sprintf("Ingested %d chunks from %s", report.Inserted, name))
}

// RunChat submits the question draft. Blank questions are silent no-ops. On
// success the exchange is prepended to the history and the draft cleared; on
// failure only a notification is raised.
func (c *Console) RunChat(ctx context.Context) {
	logger := common.Logger()
	c.mu.Lock()
	question := strings.TrimSpace(c.questionDraft)
	c.mu.Unlock()
	if question == "" {
		return
	}
	if !c.tryAcquire() {
		logger.Debug("console: chat skipped, gate busy")
		return
	}
	defer c.release()
	logger.Info("console: chat started", "question_length", len(question))
	result, err := c.gateway.Chat(ctx, question)
	if err != nil {
		logger.Error("console: chat failed", "error", err)
		c.Notify(failureMessage("Chat", err, true))
		return
	}
	entry := Entry{
		Question:   question,
		Answer:     result.Answer,
		UsedChunks: result.UsedDocs,
		At:         c.now(),
	}
	c.mu.Lock()
	c.history = append([]Entry{entry}, c.history...)
	c.questionDraft = ""
	c.mu.Unlock()
	logger.Info("console: chat completed", "used_chunks", result.UsedDocs)
}

func (c *Console) tryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Console) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// failureMessage flattens an operation failure into one human-readable line.
// Backend-reported failures keep the HTTP status; the response body is
// included where the endpoint returns one worth reading (uploads do not).
func failureMessage(label string, err error, includeBody bool) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		if includeBody && strings.TrimSpace(statusErr.Body) != "" {
			return fmt.Sprintf("%s failed: HTTP %s: %s", label, statusErr.Status, statusErr.Body)
		}
		return fmt.Sprintf("%s failed: HTTP %s", label, statusErr.Status)
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return fmt.Sprintf("%s failed: %s", label, msg)
	}
	return fmt.Sprintf("%s failed", label)
}
