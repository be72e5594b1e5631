package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingCredential      = errors.New("api key is missing")
	ErrInvalidCredential      = errors.New("api key contains invalid characters")
	ErrInvalidDocument        = errors.New("invalid html document")
	ErrEmptyUndoStack         = errors.New("no more changes to undo")
	ErrRecognitionUnsupported = errors.New("speech recognition is not supported")
	ErrDispatchInFlight       = errors.New("still working on the previous command")
	ErrNoProject              = errors.New("no project selected")
	ErrInvalidProjectName     = errors.New("project name cannot be empty")
)

// UpstreamError is a non-success response from the language model endpoint.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm error: status %d", e.Status)
	}
	return fmt.Sprintf("llm error %d: %s", e.Status, e.Message)
}

// Detail is the provider's message, or the status text when it sent none.
func (e *UpstreamError) Detail() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// TransportError is a network-level failure talking to the language model.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvalidDocumentError reports why a candidate document failed the markup check.
type InvalidDocumentError struct {
	Reason string
	Offset int
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("invalid html document: %s (offset %d)", e.Reason, e.Offset)
}

func (e *InvalidDocumentError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// RecognitionError is an error reported by the speech platform, e.g. "not-allowed".
type RecognitionError struct {
	Code string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition error: %s", e.Code)
}
