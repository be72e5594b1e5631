package application

import "voice-editor/internal/domain"

// ProjectSummary is what the project menu shows.
type ProjectSummary struct {
	Name string `json:"name"`
}

// Surface is everything the user sees: the page viewer, the transcription
// overlay, notifications and the credential prompt.
type Surface interface {
	Render(document string)
	ShowTranscription(text string)
	HideTranscription()
	ListeningChanged(active bool)
	BusyChanged(busy bool)
	Notify(level domain.NotifyLevel, message string)
	PromptCredential()
	ProjectsChanged(projects []ProjectSummary, current int)
}
