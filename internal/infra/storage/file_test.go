package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"voice-editor/internal/domain"
	"voice-editor/internal/infra/storage"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "editor.json")
	ctx := context.Background()

	store, err := storage.NewFileStore(path, "")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	projects := []domain.Project{
		{ID: "a", Name: "Landing", Document: "<p>a</p>"},
		{ID: "b", Name: "Blog", Document: "<p>b</p>"},
	}
	if err := store.SaveProjects(ctx, projects); err != nil {
		t.Fatalf("saving projects: %v", err)
	}
	if err := store.SetCurrentIndex(ctx, 1); err != nil {
		t.Fatalf("saving index: %v", err)
	}
	if err := store.SetCredential("gsk_test"); err != nil {
		t.Fatalf("saving credential: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions: got %v, want 0600", info.Mode().Perm())
	}

	reopened, err := storage.NewFileStore(path, "")
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}

	loaded, _ := reopened.LoadProjects(ctx)
	if len(loaded) != 2 || loaded[1].Document != "<p>b</p>" {
		t.Errorf("projects: got %+v", loaded)
	}
	if index, _ := reopened.CurrentIndex(ctx); index != 1 {
		t.Errorf("current index: got %d, want 1", index)
	}
	if credential, ok := reopened.Credential(); !ok || credential != "gsk_test" {
		t.Errorf("credential: got %q, %v", credential, ok)
	}
}

func TestFileStore_CredentialFallback(t *testing.T) {
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "editor.json"), "from-env")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	if credential, ok := store.Credential(); !ok || credential != "from-env" {
		t.Errorf("fallback: got %q, %v", credential, ok)
	}

	if err := store.SetCredential("saved"); err != nil {
		t.Fatalf("saving credential: %v", err)
	}
	if credential, _ := store.Credential(); credential != "saved" {
		t.Errorf("saved credential should win, got %q", credential)
	}
}

func TestFileStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "editor.json"), "")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	if err := store.SaveProjects(ctx, []domain.Project{{ID: "a", Name: "One"}}); err != nil {
		t.Fatalf("saving: %v", err)
	}

	loaded, _ := store.LoadProjects(ctx)
	loaded[0].Name = "changed"

	again, _ := store.LoadProjects(ctx)
	if again[0].Name != "One" {
		t.Errorf("store was mutated through a loaded slice: %q", again[0].Name)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := storage.NewFileStore(path, ""); err == nil {
		t.Error("expected parse error")
	}
}
