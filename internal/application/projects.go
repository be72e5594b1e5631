package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-editor/internal/domain"
)

// Projects is the in-memory view of the project list. Every change is written
// through to the store. It is not safe for concurrent use.
type Projects struct {
	store   ProjectStore
	list    []domain.Project
	current int
	now     func() time.Time
}

func NewProjects(store ProjectStore) *Projects {
	return &Projects{store: store, current: -1, now: time.Now}
}

func (p *Projects) Load(ctx context.Context) error {
	list, err := p.store.LoadProjects(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	index, err := p.store.CurrentIndex(ctx)
	if err != nil {
		return fmt.Errorf("loading current project: %w", err)
	}

	p.list = list
	p.current = index
	if p.current < 0 || p.current >= len(p.list) {
		p.current = -1
		if len(p.list) > 0 {
			p.current = 0
		}
	}
	return nil
}

func (p *Projects) Len() int {
	return len(p.list)
}

func (p *Projects) CurrentIndex() int {
	return p.current
}

func (p *Projects) Current() (domain.Project, bool) {
	if p.current < 0 || p.current >= len(p.list) {
		return domain.Project{}, false
	}
	return p.list[p.current], true
}

// IndexOf returns the position of the project with id, or -1.
func (p *Projects) IndexOf(id string) int {
	for i, project := range p.list {
		if project.ID == id {
			return i
		}
	}
	return -1
}

func (p *Projects) Summaries() []ProjectSummary {
	summaries := make([]ProjectSummary, 0, len(p.list))
	for _, project := range p.list {
		summaries = append(summaries, ProjectSummary{Name: project.Name})
	}
	return summaries
}

// Create appends a project holding the welcome page and returns its index.
func (p *Projects) Create(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultProjectName
	}

	now := p.now()
	p.list = append(p.list, domain.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  domain.WelcomeDocument,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := p.save(ctx); err != nil {
		p.list = p.list[:len(p.list)-1]
		return -1, err
	}
	return len(p.list) - 1, nil
}

func (p *Projects) Open(ctx context.Context, index int) (domain.Project, error) {
	if index < 0 || index >= len(p.list) {
		return domain.Project{}, fmt.Errorf("opening project %d: %w", index, domain.ErrNoProject)
	}

	p.current = index
	if err := p.store.SetCurrentIndex(ctx, index); err != nil {
		return domain.Project{}, fmt.Errorf("saving current project: %w", err)
	}
	return p.list[index], nil
}

func (p *Projects) Delete(ctx context.Context, index int) error {
	if index < 0 || index >= len(p.list) {
		return fmt.Errorf("deleting project %d: %w", index, domain.ErrNoProject)
	}

	p.list = append(p.list[:index], p.list[index+1:]...)
	switch {
	case len(p.list) == 0:
		p.current = -1
	case index == p.current:
		p.current = 0
	case index < p.current:
		p.current--
	}

	if err := p.save(ctx); err != nil {
		return err
	}
	if err := p.store.SetCurrentIndex(ctx, p.current); err != nil {
		return fmt.Errorf("saving current project: %w", err)
	}
	return nil
}

func (p *Projects) Rename(ctx context.Context, index int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidProjectName
	}
	if index < 0 || index >= len(p.list) {
		return fmt.Errorf("renaming project %d: %w", index, domain.ErrNoProject)
	}

	p.list[index].Name = name
	p.list[index].UpdatedAt = p.now()
	return p.save(ctx)
}

// UpdateDocument stores document in the current project.
func (p *Projects) UpdateDocument(ctx context.Context, document string) error {
	if p.current < 0 || p.current >= len(p.list) {
		return domain.ErrNoProject
	}

	p.list[p.current].Document = document
	p.list[p.current].UpdatedAt = p.now()
	return p.save(ctx)
}

func (p *Projects) save(ctx context.Context) error {
	if err := p.store.SaveProjects(ctx, p.list); err != nil {
		return fmt.Errorf("saving projects: %w", err)
	}
	return nil
}
