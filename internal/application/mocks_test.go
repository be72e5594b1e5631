package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

const waitTimeout = 2 * time.Second

type mockRecognizer struct {
	mu           sync.Mutex
	starts       int
	stops        int
	startErr     error
	availableErr error
}

func (m *mockRecognizer) Start(_ application.RecognitionListener) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return m.startErr
}

func (m *mockRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockRecognizer) Available() error { return m.availableErr }
func (m *mockRecognizer) Name() string     { return "mock" }

func (m *mockRecognizer) counts() (starts, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops
}

type mockCompleter struct {
	mu       sync.Mutex
	requests []application.CompletionRequest
	reply    func(req application.CompletionRequest) (string, error)
}

func (m *mockCompleter) Complete(_ context.Context, req application.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	reply := m.reply
	m.mu.Unlock()

	if reply == nil {
		return "", errors.New("no reply configured")
	}
	return reply(req)
}

func (m *mockCompleter) requestsFor(model string) []application.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []application.CompletionRequest
	for _, req := range m.requests {
		if req.Model == model {
			out = append(out, req)
		}
	}
	return out
}

type mockCredentials struct {
	mu         sync.Mutex
	credential string
}

func (m *mockCredentials) Credential() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, m.credential != ""
}

func (m *mockCredentials) SetCredential(credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credential = credential
	return nil
}

type memStore struct {
	mu       sync.Mutex
	projects []domain.Project
	current  int
	saveErr  error
	saves    int
}

func (m *memStore) LoadProjects(_ context.Context) ([]domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Project(nil), m.projects...), nil
}

func (m *memStore) SaveProjects(_ context.Context, projects []domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.projects = append([]domain.Project(nil), projects...)
	return nil
}

func (m *memStore) CurrentIndex(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *memStore) SetCurrentIndex(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = index
	return nil
}

func (m *memStore) snapshot() []domain.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Project(nil), m.projects...)
}

type notice struct {
	level   domain.NotifyLevel
	message string
}

// recordingSurface keeps every call. Renders, notices and project lists are
// also streamed on channels so tests can wait for the session loop.
type recordingSurface struct {
	mu             sync.Mutex
	transcriptions []string
	hidden         int
	listening      []bool
	busy           []bool
	notices        []notice
	prompts        int

	renders  chan string
	notified chan notice
	projects chan []application.ProjectSummary
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		renders:  make(chan string, 64),
		notified: make(chan notice, 64),
		projects: make(chan []application.ProjectSummary, 64),
	}
}

func (s *recordingSurface) Render(document string) {
	select {
	case s.renders <- document:
	default:
	}
}

func (s *recordingSurface) ShowTranscription(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptions = append(s.transcriptions, text)
}

func (s *recordingSurface) HideTranscription() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden++
}

func (s *recordingSurface) ListeningChanged(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = append(s.listening, active)
}

func (s *recordingSurface) BusyChanged(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = append(s.busy, busy)
}

func (s *recordingSurface) Notify(level domain.NotifyLevel, message string) {
	s.mu.Lock()
	s.notices = append(s.notices, notice{level, message})
	s.mu.Unlock()
	select {
	case s.notified <- notice{level, message}:
	default:
	}
}

func (s *recordingSurface) PromptCredential() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts++
}

func (s *recordingSurface) ProjectsChanged(projects []application.ProjectSummary, _ int) {
	select {
	case s.projects <- projects:
	default:
	}
}

func (s *recordingSurface) lastTranscription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.transcriptions) == 0 {
		return ""
	}
	return s.transcriptions[len(s.transcriptions)-1]
}

func (s *recordingSurface) noticeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func (s *recordingSurface) promptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts
}

func waitRender(t *testing.T, s *recordingSurface, document string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-s.renders:
			if got == document {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for render of %q", document)
		}
	}
}

func waitNotice(t *testing.T, s *recordingSurface, contains string) notice {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-s.notified:
			if strings.Contains(got.message, contains) {
				return got
			}
		case <-deadline:
			t.Fatalf("timed out waiting for notice containing %q", contains)
		}
	}
}
