//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

const sttTimeout = 30 * time.Second

// MicrophoneRecognizer captures the default input device and transcribes each
// utterance as a final result. The session ends once Stop is called and the
// last utterance has been transcribed.
type MicrophoneRecognizer struct {
	stt        application.SpeechToText
	sampleRate int
	maxSeconds int
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewMicrophoneRecognizer(stt application.SpeechToText, sampleRate, maxSeconds int, logger zerolog.Logger) *MicrophoneRecognizer {
	return &MicrophoneRecognizer{
		stt:        stt,
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		logger:     logger.With().Str("component", "microphone").Logger(),
	}
}

func (m *MicrophoneRecognizer) Name() string {
	return "microphone"
}

func (m *MicrophoneRecognizer) Available() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRecognitionUnsupported, err)
	}
	defer portaudio.Terminate()

	if _, err := portaudio.DefaultInputDevice(); err != nil {
		return fmt.Errorf("%w: no input device: %v", domain.ErrRecognitionUnsupported, err)
	}
	return nil
}

func (m *MicrophoneRecognizer) Start(listener application.RecognitionListener) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("microphone already capturing")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel

	go m.capture(ctx, stream, buffer, listener)

	m.logger.Info().Int("sample_rate", m.sampleRate).Msg("microphone started")
	return nil
}

func (m *MicrophoneRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func (m *MicrophoneRecognizer) capture(ctx context.Context, stream *portaudio.Stream, buffer []int16, listener application.RecognitionListener) {
	utterances := make(chan []int16, 4)
	transcribed := make(chan struct{})
	failed := false

	go func() {
		defer close(transcribed)
		m.transcribe(utterances, listener, &failed)
	}()

	listener.OnRecognitionStart()

	seg := newSegmenter(m.sampleRate, m.maxSeconds)
	var captureErr error

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		if err := stream.Read(); err != nil {
			captureErr = err
			break
		}
		if utterance := seg.Push(buffer); utterance != nil {
			utterances <- utterance
		}
	}

	if utterance := seg.Flush(); utterance != nil && captureErr == nil {
		utterances <- utterance
	}
	close(utterances)

	stream.Stop()
	stream.Close()
	portaudio.Terminate()

	<-transcribed

	m.mu.Lock()
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	switch {
	case captureErr != nil:
		m.logger.Error().Err(captureErr).Msg("reading from microphone")
		listener.OnRecognitionError("audio-capture")
	case failed:
		listener.OnRecognitionError("network")
	default:
		listener.OnRecognitionEnd()
	}
}

// transcribe runs utterances through speech-to-text in order. Every success
// is reported as the newest final result of the session.
func (m *MicrophoneRecognizer) transcribe(utterances <-chan []int16, listener application.RecognitionListener, failed *bool) {
	var session transcript

	for samples := range utterances {
		if *failed {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), sttTimeout)
		text, err := m.stt.Transcribe(ctx, samplesToWav(samples, m.sampleRate))
		cancel()
		if err != nil {
			m.logger.Error().Err(err).Msg("transcribing utterance")
			*failed = true
			continue
		}

		batch, ok := session.Add(text)
		if !ok {
			continue
		}
		m.logger.Debug().Str("text", text).Msg("utterance transcribed")
		listener.OnRecognitionResult(batch)
	}
}
