package web

import (
	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

// Client to server message types.
const (
	msgPress                  = "press"
	msgRelease                = "release"
	msgUndo                   = "undo"
	msgClear                  = "clear"
	msgCredentialSet          = "credential.set"
	msgProjectOpen            = "project.open"
	msgProjectCreate          = "project.create"
	msgProjectDelete          = "project.delete"
	msgProjectRename          = "project.rename"
	msgRecognitionStarted     = "recognition.started"
	msgRecognitionResult      = "recognition.result"
	msgRecognitionEnded       = "recognition.ended"
	msgRecognitionError       = "recognition.error"
	msgRecognitionUnsupported = "recognition.unsupported"
)

// Server to client message types.
const (
	msgRecognitionStart = "recognition.start"
	msgRecognitionStop  = "recognition.stop"
	msgTranscription    = "transcription"
	msgListening        = "listening"
	msgBusy             = "busy"
	msgRender           = "render"
	msgNotify           = "notify"
	msgCredentialPrompt = "credential.prompt"
	msgProjects         = "projects"
)

type inbound struct {
	Type        string                     `json:"type"`
	Credential  string                     `json:"credential,omitempty"`
	Index       int                        `json:"index,omitempty"`
	Name        string                     `json:"name,omitempty"`
	ResultIndex int                        `json:"result_index,omitempty"`
	Results     []domain.RecognitionResult `json:"results,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

type outbound struct {
	Type     string                       `json:"type"`
	Document string                       `json:"document,omitempty"`
	Text     string                       `json:"text,omitempty"`
	Visible  *bool                        `json:"visible,omitempty"`
	Active   *bool                        `json:"active,omitempty"`
	Level    domain.NotifyLevel           `json:"level,omitempty"`
	Message  string                       `json:"message,omitempty"`
	Projects []application.ProjectSummary `json:"projects,omitempty"`
	Current  *int                         `json:"current,omitempty"`
}

func ptr[T any](v T) *T { return &v }
