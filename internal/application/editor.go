package application

import (
	"fmt"

	"voice-editor/internal/domain"
)

// Editor holds the current document and its undo history.
type Editor struct {
	validator DocumentValidator
	current   string
	undo      []string
}

func NewEditor(validator DocumentValidator, document string) *Editor {
	return &Editor{validator: validator, current: document}
}

func (e *Editor) Current() string {
	return e.current
}

// UndoDepth is the number of snapshots that can be restored.
func (e *Editor) UndoDepth() int {
	return len(e.undo)
}

// Apply installs candidate as the current document after a markup check.
// An invalid candidate leaves the document and the undo stack untouched.
func (e *Editor) Apply(candidate string) error {
	if err := e.validator.Validate(candidate); err != nil {
		return fmt.Errorf("applying change: %w", err)
	}

	e.undo = append(e.undo, e.current)
	e.current = candidate
	return nil
}

// Undo restores the most recent snapshot. The replaced document is discarded.
func (e *Editor) Undo() (string, error) {
	if len(e.undo) == 0 {
		return "", domain.ErrEmptyUndoStack
	}

	last := len(e.undo) - 1
	e.current = e.undo[last]
	e.undo[last] = ""
	e.undo = e.undo[:last]
	return e.current, nil
}

// Reset installs document with an empty history, e.g. when switching projects.
func (e *Editor) Reset(document string) {
	e.current = document
	e.undo = nil
}
