package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voice-editor/internal/domain"
)

var ErrSessionClosed = errors.New("editing session closed")

type SessionConfig struct {
	// RequestTimeout bounds a single language model call.
	RequestTimeout time.Duration
	// TitleAfterPrompts is the number of commands after which an untitled
	// project gets a generated name. Values below one disable title generation.
	TitleAfterPrompts int
}

// Snapshot is a consistent copy of what the user is currently editing.
type Snapshot struct {
	ProjectName string
	Document    string
	UndoDepth   int
	Listening   bool
	Busy        bool
}

// Session is the editing context. Every piece of mutable state is owned by the
// goroutine running Run; other goroutines talk to it by posting closures.
type Session struct {
	events chan func()
	done   chan struct{}

	recognition *RecognitionController
	recognizer  Recognizer
	dispatcher  *Dispatcher
	titles      *TitleGenerator
	editor      *Editor
	projects    *Projects
	credentials CredentialStore
	surface     Surface
	cfg         SessionConfig
	logger      zerolog.Logger

	ctx            context.Context
	workers        sync.WaitGroup
	inFlight       bool
	promptCount    int
	titleGenerated bool
}

func NewSession(
	recognizer Recognizer,
	dispatcher *Dispatcher,
	titles *TitleGenerator,
	validator DocumentValidator,
	projects *Projects,
	credentials CredentialStore,
	surface Surface,
	cfg SessionConfig,
	logger zerolog.Logger,
) *Session {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Session{
		events:      make(chan func(), 64),
		done:        make(chan struct{}),
		recognizer:  recognizer,
		dispatcher:  dispatcher,
		titles:      titles,
		editor:      NewEditor(validator, domain.WelcomeDocument),
		projects:    projects,
		credentials: credentials,
		surface:     surface,
		cfg:         cfg,
		logger:      logger.With().Str("component", "session").Logger(),
	}
	s.recognition = NewRecognitionController(recognizer, s, surface, s.handleCommand, logger)
	return s
}

// Run processes events until ctx is canceled.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer s.workers.Wait()
	defer close(s.done)

	if err := s.open(); err != nil {
		return err
	}

	if err := s.recognizer.Available(); err != nil {
		s.recognition.MarkUnsupported()
	}
	if _, ok := s.credentials.Credential(); !ok {
		s.surface.PromptCredential()
	}

	s.logger.Info().Str("recognizer", s.recognizer.Name()).Msg("editing session ready")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.events:
			fn()
		}
	}
}

func (s *Session) open() error {
	if err := s.projects.Load(s.ctx); err != nil {
		return err
	}
	if s.projects.Len() == 0 {
		if _, err := s.projects.Create(s.ctx, domain.DefaultProjectName); err != nil {
			return fmt.Errorf("creating first project: %w", err)
		}
	}

	index := s.projects.CurrentIndex()
	if index < 0 {
		index = 0
	}
	project, err := s.projects.Open(s.ctx, index)
	if err != nil {
		return err
	}
	s.install(project)
	return nil
}

func (s *Session) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !s.post(func() {
		fn()
		close(finished)
	}) {
		return ErrSessionClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Press starts listening (button down, Space down).
func (s *Session) Press() { s.post(s.recognition.Start) }

// Release stops listening; the transcript is dispatched once the platform confirms.
func (s *Session) Release() { s.post(s.recognition.Stop) }

// Submit dispatches a typed command exactly like a committed transcript.
func (s *Session) Submit(command string) {
	s.post(func() { s.handleCommand(command) })
}

func (s *Session) Undo() {
	s.post(func() {
		if _, err := s.editor.Undo(); err != nil {
			s.report(err)
			return
		}
		s.documentChanged()
	})
}

// Clear replaces the page with a blank one and forgets the undo history.
func (s *Session) Clear() {
	s.post(func() {
		s.editor.Reset(domain.BlankDocument)
		s.documentChanged()
		s.surface.Notify(domain.NotifyInfo, "All data has been cleared.")
	})
}

func (s *Session) SetCredential(input string) {
	s.post(func() {
		credential := domain.SanitizeCredential(input)
		if credential == "" {
			s.surface.Notify(domain.NotifyError, "Invalid API Key.")
			s.surface.PromptCredential()
			return
		}
		if err := s.credentials.SetCredential(credential); err != nil {
			s.logger.Error().Err(err).Msg("saving credential")
			s.surface.Notify(domain.NotifyError, "Could not save the API Key.")
			return
		}
		s.surface.Notify(domain.NotifySuccess, "API Key saved successfully.")
	})
}

func (s *Session) OpenProject(index int) {
	s.post(func() {
		project, err := s.projects.Open(s.ctx, index)
		if err != nil {
			s.report(err)
			return
		}
		s.install(project)
	})
}

func (s *Session) CreateProject(name string) {
	s.post(func() {
		index, err := s.projects.Create(s.ctx, name)
		if err != nil {
			s.report(err)
			return
		}
		project, err := s.projects.Open(s.ctx, index)
		if err != nil {
			s.report(err)
			return
		}
		s.install(project)
		s.surface.Notify(domain.NotifySuccess, fmt.Sprintf("Project %q created successfully!", project.Name))
	})
}

func (s *Session) DeleteProject(index int) {
	s.post(func() {
		before, _ := s.projects.Current()
		if err := s.projects.Delete(s.ctx, index); err != nil {
			s.report(err)
			return
		}

		after, ok := s.projects.Current()
		switch {
		case !ok:
			s.editor.Reset(domain.WelcomeDocument)
			s.surface.Render(s.editor.Current())
			s.surface.Notify(domain.NotifyInfo, "All projects have been deleted.")
		case after.ID != before.ID:
			s.install(after)
			return
		}
		s.surface.ProjectsChanged(s.projects.Summaries(), s.projects.CurrentIndex())
	})
}

func (s *Session) RenameProject(index int, name string) {
	s.post(func() {
		if err := s.projects.Rename(s.ctx, index, name); err != nil {
			s.report(err)
			return
		}
		s.surface.ProjectsChanged(s.projects.Summaries(), s.projects.CurrentIndex())
	})
}

// Refresh re-sends the full visible state, e.g. to a newly connected viewer.
func (s *Session) Refresh() {
	s.post(func() {
		s.surface.Render(s.editor.Current())
		s.surface.ProjectsChanged(s.projects.Summaries(), s.projects.CurrentIndex())
		s.surface.ListeningChanged(s.recognition.State() == domain.RecognitionListening)
		s.surface.BusyChanged(s.inFlight)
		if _, ok := s.credentials.Credential(); !ok {
			s.surface.PromptCredential()
		}
	})
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.call(ctx, func() {
		project, _ := s.projects.Current()
		snap = Snapshot{
			ProjectName: project.Name,
			Document:    s.editor.Current(),
			UndoDepth:   s.editor.UndoDepth(),
			Listening:   s.recognition.State() == domain.RecognitionListening,
			Busy:        s.inFlight,
		}
	})
	return snap, err
}

func (s *Session) OnRecognitionStart() { s.post(s.recognition.OnStart) }

func (s *Session) OnRecognitionResult(batch domain.RecognitionBatch) {
	s.post(func() { s.recognition.OnResult(batch) })
}

func (s *Session) OnRecognitionEnd() { s.post(s.recognition.OnEnd) }

func (s *Session) OnRecognitionError(code string) {
	s.post(func() { s.recognition.OnError(code) })
}

func (s *Session) OnRecognitionUnsupported() { s.post(s.recognition.OnUnsupported) }

func (s *Session) handleCommand(command string) {
	if s.inFlight {
		s.logger.Warn().Str("command", command).Msg("dropping command while a request is in flight")
		s.report(domain.ErrDispatchInFlight)
		return
	}

	project, _ := s.projects.Current()
	s.maybeGenerateTitle(project, command)

	s.inFlight = true
	s.surface.BusyChanged(true)
	document := s.editor.Current()

	s.spawn(func(ctx context.Context) {
		candidate, err := s.dispatcher.Dispatch(ctx, command, document)
		s.post(func() { s.finishDispatch(project.ID, candidate, err) })
	})
}

func (s *Session) finishDispatch(projectID, candidate string, err error) {
	s.inFlight = false
	s.surface.BusyChanged(false)

	if err != nil {
		s.report(err)
		return
	}

	if current, _ := s.projects.Current(); current.ID != projectID {
		s.logger.Warn().Str("project", projectID).Msg("project changed while waiting for the model, discarding reply")
		return
	}

	if err := s.editor.Apply(candidate); err != nil {
		s.report(err)
		return
	}
	s.logger.Info().Int("undo_depth", s.editor.UndoDepth()).Msg("applied change")
	s.documentChanged()
}

func (s *Session) maybeGenerateTitle(project domain.Project, command string) {
	if s.titles == nil || s.titleGenerated || s.cfg.TitleAfterPrompts <= 0 {
		return
	}
	if project.ID == "" || project.Name != domain.DefaultProjectName {
		return
	}

	s.promptCount++
	if s.promptCount < s.cfg.TitleAfterPrompts {
		return
	}
	s.titleGenerated = true

	s.spawn(func(ctx context.Context) {
		title, err := s.titles.Generate(ctx, command)
		if err != nil {
			s.logger.Warn().Err(err).Msg("title generation failed")
			return
		}
		if title == "" {
			return
		}
		s.post(func() { s.applyTitle(project.ID, title) })
	})
}

func (s *Session) applyTitle(projectID, title string) {
	index := s.projects.IndexOf(projectID)
	if index < 0 {
		return
	}
	if err := s.projects.Rename(s.ctx, index, title); err != nil {
		s.logger.Warn().Err(err).Msg("renaming project after title generation")
		return
	}
	s.surface.ProjectsChanged(s.projects.Summaries(), s.projects.CurrentIndex())
}

func (s *Session) spawn(fn func(ctx context.Context)) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Session) install(project domain.Project) {
	document := project.Document
	if document == "" {
		document = domain.WelcomeDocument
	}
	s.editor.Reset(document)
	s.promptCount = 0
	s.titleGenerated = false

	s.surface.Render(document)
	s.surface.ProjectsChanged(s.projects.Summaries(), s.projects.CurrentIndex())
}

func (s *Session) documentChanged() {
	document := s.editor.Current()
	s.surface.Render(document)
	if err := s.projects.UpdateDocument(s.ctx, document); err != nil && !errors.Is(err, domain.ErrNoProject) {
		s.logger.Error().Err(err).Msg("persisting document")
		s.surface.Notify(domain.NotifyError, "Could not save the project.")
	}
}

func (s *Session) report(err error) {
	var upstream *domain.UpstreamError
	var transport *domain.TransportError
	var recognition *domain.RecognitionError

	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		s.logger.Warn().Msg("no api key configured")
		s.surface.Notify(domain.NotifyError, "API Key is missing. Please enter your Groq API Key.")
		s.surface.PromptCredential()
	case errors.Is(err, domain.ErrInvalidCredential):
		s.logger.Warn().Msg("api key contains invalid characters")
		s.surface.Notify(domain.NotifyError, "API Key contains invalid characters. Please check your key and try again.")
		s.surface.PromptCredential()
	case errors.Is(err, domain.ErrInvalidDocument):
		s.logger.Warn().Err(err).Msg("model returned invalid html")
		s.surface.Notify(domain.NotifyError, "Received invalid HTML from the LLM. Please try a different command.")
	case errors.Is(err, domain.ErrEmptyUndoStack):
		s.surface.Notify(domain.NotifyInfo, "No more changes to undo.")
	case errors.Is(err, domain.ErrDispatchInFlight):
		s.surface.Notify(domain.NotifyInfo, "Still working on the previous command.")
	case errors.As(err, &upstream):
		s.logger.Error().Err(err).Int("status", upstream.Status).Msg("llm request rejected")
		s.surface.Notify(domain.NotifyError, "LLM Error: "+upstream.Detail())
	case errors.As(err, &transport):
		s.logger.Error().Err(err).Msg("llm request failed")
		s.surface.Notify(domain.NotifyError, "LLM Error: "+transport.Err.Error())
	case errors.As(err, &recognition):
		s.surface.Notify(domain.NotifyError, recognition.Error())
	default:
		s.logger.Error().Err(err).Msg("session error")
		s.surface.Notify(domain.NotifyError, err.Error())
	}
}
