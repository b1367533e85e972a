package webui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ragops/internal/backend"
	"ragops/internal/config"
	"ragops/internal/console"
)

// fakeRAG is a minimal stand-in for the real backend API.
type fakeRAG struct {
	mu          sync.Mutex
	ingestCode  int
	ingestBody  string
	report      backend.IngestReport
	answer      string
	usedDocs    int
	chatStarted chan struct{}
	chatRelease chan struct{}
	uploads     []string
}

func newFakeRAG() *fakeRAG {
	return &fakeRAG{
		ingestCode: http.StatusOK,
		report:     backend.IngestReport{Inserted: 4, Files: []string{"a.pdf"}},
		answer:     "A",
		usedDocs:   3,
	}
}

func (f *fakeRAG) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	case "/ingest_path", "/ingest_one":
		f.mu.Lock()
		code := f.ingestCode
		body := f.ingestBody
		report := f.report
		f.mu.Unlock()
		if code != http.StatusOK {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(body))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	case "/ingest_files":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var names []string
		for _, header := range r.MultipartForm.File["files"] {
			names = append(names, header.Filename)
		}
		f.mu.Lock()
		f.uploads = names
		report := backend.IngestReport{Inserted: len(names), Files: names}
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	case "/chat":
		f.mu.Lock()
		started := f.chatStarted
		release := f.chatRelease
		answer := f.answer
		used := f.usedDocs
		f.mu.Unlock()
		if started != nil {
			close(started)
			f.mu.Lock()
			f.chatStarted = nil
			f.mu.Unlock()
		}
		if release != nil {
			<-release
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"answer": answer, "used_docs": used})
	default:
		http.NotFound(w, r)
	}
}

func newTestConsole(t *testing.T, ragURL string) *console.Console {
	t.Helper()
	store := config.NewStore(filepath.Join(t.TempDir(), "settings.json"), ragURL)
	client := backend.New(func() string { return store.Get().BackendBase }, backend.Options{Timeout: 5 * time.Second})
	t.Cleanup(func() { client.Close() })
	return console.New(store, client)
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeState(t *testing.T, resp *http.Response) console.State {
	t.Helper()
	defer resp.Body.Close()
	var state console.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestServesConsolePage(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	resp, err := http.Get(ui.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	page, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(page), "ragops console") {
		t.Fatal("page missing console markup")
	}
}

func TestHealthEndpointProbes(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	resp, err := http.Get(ui.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status: %+v", body)
	}
}

func TestChatEndpointAppendsHistory(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	state := decodeState(t, postJSON(t, ui.URL+"/api/chat", map[string]string{"question": "Q"}))
	if len(state.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(state.History))
	}
	head := state.History[0]
	if head.Question != "Q" || head.Answer != "A" || head.UsedChunks != 3 {
		t.Fatalf("unexpected head entry: %+v", head)
	}
	if state.Question != "" {
		t.Fatal("question draft should clear on success")
	}
}

func TestChatEndpointRejectsBlankQuestion(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	resp := postJSON(t, ui.URL+"/api/chat", map[string]string{"question": "  "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIngestPathFailureBecomesNotification(t *testing.T) {
	rag := newFakeRAG()
	rag.ingestCode = http.StatusInternalServerError
	rag.ingestBody = "boom"
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	state := decodeState(t, postJSON(t, ui.URL+"/api/ingest/path", nil))
	if !state.HasNote {
		t.Fatal("expected a notification")
	}
	if !strings.Contains(state.Notification, "500") || !strings.Contains(state.Notification, "boom") {
		t.Fatalf("notification missing status or body: %q", state.Notification)
	}
	if state.Busy {
		t.Fatal("gate should be released")
	}
}

func TestUploadEndpointForwardsFiles(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for i, name := range []string{"one.txt", "two.md"} {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fmt.Fprintf(part, "content-%d", i)
	}
	writer.Close()

	resp, err := http.Post(ui.URL+"/api/ingest/upload", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	state := decodeState(t, resp)
	if state.Uploads != 0 {
		t.Fatal("selection should clear after a successful upload")
	}
	rag.mu.Lock()
	uploads := rag.uploads
	rag.mu.Unlock()
	if len(uploads) != 2 || uploads[0] != "one.txt" || uploads[1] != "two.md" {
		t.Fatalf("backend did not receive uploads: %+v", uploads)
	}
}

func TestBusyGateReturnsConflict(t *testing.T) {
	rag := newFakeRAG()
	rag.chatStarted = make(chan struct{})
	rag.chatRelease = make(chan struct{})
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := http.Post(ui.URL+"/api/chat", "application/json", strings.NewReader(`{"question":"slow"}`))
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-rag.chatStarted

	resp := postJSON(t, ui.URL+"/api/ingest/path", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while busy, got %d", resp.StatusCode)
	}

	close(rag.chatRelease)
	<-done
}

func TestSettingsUpdatePersists(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	c := newTestConsole(t, ragServer.URL)
	ui := httptest.NewServer(NewServer(c))
	defer ui.Close()

	req, err := http.NewRequest(http.MethodPut, ui.URL+"/api/settings", strings.NewReader(`{"backend_base":"http://host:9000"}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if c.BackendBase() != "http://host:9000" {
		t.Fatalf("settings not applied: %q", c.BackendBase())
	}
}

func TestLogsEndpoint(t *testing.T) {
	rag := newFakeRAG()
	ragServer := httptest.NewServer(rag)
	defer ragServer.Close()
	ui := httptest.NewServer(NewServer(newTestConsole(t, ragServer.URL)))
	defer ui.Close()

	resp, err := http.Get(ui.URL + "/api/logs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
