package application

import (
	"context"

	"voice-editor/internal/domain"
)

type ProjectStore interface {
	LoadProjects(ctx context.Context) ([]domain.Project, error)
	SaveProjects(ctx context.Context, projects []domain.Project) error
	CurrentIndex(ctx context.Context) (int, error)
	SetCurrentIndex(ctx context.Context, index int) error
}

type CredentialStore interface {
	Credential() (string, bool)
	SetCredential(credential string) error
}

// DocumentValidator checks that a candidate page parses as markup.
type DocumentValidator interface {
	Validate(document string) error
}
