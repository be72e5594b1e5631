package application_test

import (
	"context"
	"errors"
	"testing"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

func loadedProjects(t *testing.T, store *memStore) *application.Projects {
	t.Helper()
	p := application.NewProjects(store)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return p
}

func TestProjects_CreateAndOpen(t *testing.T) {
	ctx := context.Background()
	store := &memStore{current: -1}
	p := loadedProjects(t, store)

	if p.Len() != 0 || p.CurrentIndex() != -1 {
		t.Fatalf("empty store: len=%d current=%d", p.Len(), p.CurrentIndex())
	}

	index, err := p.Create(ctx, "  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, _ := p.Create(ctx, "Landing page")

	project, err := p.Open(ctx, index)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if project.Name != domain.DefaultProjectName || project.Document != domain.WelcomeDocument || project.ID == "" {
		t.Errorf("new project: got %+v", project)
	}

	saved := store.snapshot()
	if len(saved) != 2 || saved[second].Name != "Landing page" || saved[0].ID == saved[1].ID {
		t.Errorf("saved projects: got %+v", saved)
	}

	if _, err := p.Open(ctx, 5); !errors.Is(err, domain.ErrNoProject) {
		t.Errorf("Open out of range: got %v", err)
	}
	if current, _ := store.CurrentIndex(ctx); current != index {
		t.Errorf("stored current index: got %d", current)
	}
}

func TestProjects_LoadClampsCurrentIndex(t *testing.T) {
	store := &memStore{projects: []domain.Project{{ID: "a", Name: "A"}}, current: 7}

	p := loadedProjects(t, store)

	if p.CurrentIndex() != 0 {
		t.Errorf("current: got %d, want 0", p.CurrentIndex())
	}
}

func TestProjects_DeleteAdjustsCurrent(t *testing.T) {
	ctx := context.Background()
	seed := func() *memStore {
		return &memStore{projects: []domain.Project{
			{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"},
		}}
	}

	tests := []struct {
		name        string
		open        int
		delete      int
		wantCurrent string
	}{
		{"before current", 2, 0, "c"},
		{"current", 2, 2, "a"},
		{"after current", 0, 1, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := loadedProjects(t, seed())
			if _, err := p.Open(ctx, tt.open); err != nil {
				t.Fatalf("Open: %v", err)
			}

			if err := p.Delete(ctx, tt.delete); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			current, ok := p.Current()
			if !ok || current.ID != tt.wantCurrent {
				t.Errorf("current: got %+v", current)
			}
		})
	}
}

func TestProjects_DeleteLast(t *testing.T) {
	ctx := context.Background()
	store := &memStore{projects: []domain.Project{{ID: "a", Name: "A"}}}
	p := loadedProjects(t, store)

	if err := p.Delete(ctx, 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := p.Current(); ok || p.CurrentIndex() != -1 {
		t.Errorf("current after deleting everything: %d", p.CurrentIndex())
	}
	if err := p.UpdateDocument(ctx, "<p></p>"); !errors.Is(err, domain.ErrNoProject) {
		t.Errorf("UpdateDocument: got %v", err)
	}
}

func TestProjects_RenameAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := &memStore{projects: []domain.Project{{ID: "a", Name: domain.DefaultProjectName}}}
	p := loadedProjects(t, store)

	if err := p.Rename(ctx, 0, " "); !errors.Is(err, domain.ErrInvalidProjectName) {
		t.Errorf("blank rename: got %v", err)
	}
	if err := p.Rename(ctx, 3, "X"); !errors.Is(err, domain.ErrNoProject) {
		t.Errorf("rename out of range: got %v", err)
	}
	if err := p.Rename(ctx, 0, "  Blue Page "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := p.UpdateDocument(ctx, "<p>blue</p>"); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	saved := store.snapshot()[0]
	if saved.Name != "Blue Page" || saved.Document != "<p>blue</p>" || saved.UpdatedAt.IsZero() {
		t.Errorf("saved: got %+v", saved)
	}
	if got := p.Summaries(); len(got) != 1 || got[0].Name != "Blue Page" {
		t.Errorf("summaries: got %+v", got)
	}
}

func TestProjects_CreateRollsBackOnSaveFailure(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	p := loadedProjects(t, store)

	if _, err := p.Create(context.Background(), "X"); err == nil {
		t.Fatal("expected error")
	}
	if p.Len() != 0 {
		t.Errorf("len after failed create: got %d", p.Len())
	}
}
