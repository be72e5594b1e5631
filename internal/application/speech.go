package application

import "context"

// SpeechToText turns a recorded utterance (WAV bytes) into text. Only the
// microphone recognizer needs it; the browser recognizes speech itself.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
