package application

import (
	"strings"

	"voice-editor/internal/domain"
)

// Accumulator folds streamed recognition results into one command per session.
type Accumulator struct {
	final   strings.Builder
	interim string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add consumes the changed window of a result batch and returns the text to display.
func (a *Accumulator) Add(batch domain.RecognitionBatch) string {
	start := batch.ResultIndex
	if start < 0 {
		start = 0
	}

	var interim strings.Builder
	for i := start; i < len(batch.Results); i++ {
		result := batch.Results[i]
		if result.Final {
			a.final.WriteString(result.Text)
		} else {
			interim.WriteString(result.Text)
		}
	}
	a.interim = interim.String()

	return a.Display()
}

func (a *Accumulator) Display() string {
	return a.final.String() + " " + a.interim
}

// Final returns the trimmed finalized text without clearing it.
func (a *Accumulator) Final() string {
	return strings.TrimSpace(a.final.String())
}

// Commit returns the trimmed finalized text and clears the buffers.
// Interim text never survives a commit.
func (a *Accumulator) Commit() string {
	text := a.Final()
	a.Reset()
	return text
}

func (a *Accumulator) Reset() {
	a.final.Reset()
	a.interim = ""
}
