// Package storage persists projects and the API key in a single JSON file,
// the on-disk counterpart of the browser's local storage.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"voice-editor/internal/domain"
)

type state struct {
	Projects     []domain.Project `json:"projects"`
	CurrentIndex int              `json:"current_index"`
	Credential   string           `json:"credential,omitempty"`
}

type FileStore struct {
	path     string
	fallback string

	mu    sync.Mutex
	state state
}

// NewFileStore opens (or lazily creates) the state file at path. fallback is
// returned as the credential while none has been saved, e.g. a key from the
// environment.
func NewFileStore(path, fallback string) (*FileStore, error) {
	s := &FileStore{path: path, fallback: fallback}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.state); err != nil {
			return nil, fmt.Errorf("parsing state file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) LoadProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := make([]domain.Project, len(s.state.Projects))
	copy(projects, s.state.Projects)
	return projects, nil
}

func (s *FileStore) SaveProjects(_ context.Context, projects []domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.Projects
	s.state.Projects = make([]domain.Project, len(projects))
	copy(s.state.Projects, projects)
	if err := s.flush(); err != nil {
		s.state.Projects = previous
		return err
	}
	return nil
}

func (s *FileStore) CurrentIndex(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentIndex, nil
}

func (s *FileStore) SetCurrentIndex(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentIndex = index
	return s.flush()
}

func (s *FileStore) Credential() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Credential != "" {
		return s.state.Credential, true
	}
	return s.fallback, s.fallback != ""
}

func (s *FileStore) SetCredential(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.Credential
	s.state.Credential = credential
	if err := s.flush(); err != nil {
		s.state.Credential = previous
		return err
	}
	return nil
}

// flush writes the state atomically. Callers hold s.mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("securing state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
