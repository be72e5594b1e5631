package application

import "voice-editor/internal/domain"

// Recognizer is the speech platform. Start/Stop are requests; the outcome is
// reported through the listener passed to Start.
type Recognizer interface {
	Start(listener RecognitionListener) error
	Stop() error
	// Available returns domain.ErrRecognitionUnsupported when the platform
	// cannot recognize speech at all.
	Available() error
	Name() string
}

// RecognitionListener receives platform notifications for one session, in order.
type RecognitionListener interface {
	OnRecognitionStart()
	OnRecognitionResult(batch domain.RecognitionBatch)
	OnRecognitionEnd()
	OnRecognitionError(code string)
	OnRecognitionUnsupported()
}
