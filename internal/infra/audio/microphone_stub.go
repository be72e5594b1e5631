//go:build !portaudio
// +build !portaudio

package audio

import (
	"github.com/rs/zerolog"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

// MicrophoneRecognizer stub when portaudio is not available
type MicrophoneRecognizer struct {
	logger zerolog.Logger
}

func NewMicrophoneRecognizer(_ application.SpeechToText, _, _ int, logger zerolog.Logger) *MicrophoneRecognizer {
	return &MicrophoneRecognizer{logger: logger.With().Str("component", "microphone").Logger()}
}

func (m *MicrophoneRecognizer) Name() string {
	return "microphone"
}

func (m *MicrophoneRecognizer) Available() error {
	m.logger.Warn().Msg("microphone capture not compiled in: rebuild with -tags portaudio")
	return domain.ErrRecognitionUnsupported
}

func (m *MicrophoneRecognizer) Start(_ application.RecognitionListener) error {
	return domain.ErrRecognitionUnsupported
}

func (m *MicrophoneRecognizer) Stop() error {
	return nil
}
