package web

import (
	"errors"
	"sync"

	"voice-editor/internal/application"
	"voice-editor/internal/domain"
)

var errNoCaptureClient = errors.New("no browser is holding the talk button")

// BrowserRecognizer uses the Web Speech API of the browser that pressed the
// talk button. Start and Stop are relayed to that browser; its recognition
// events come back through the hub.
type BrowserRecognizer struct {
	hub *Hub

	mu       sync.Mutex
	listener application.RecognitionListener
}

func (b *BrowserRecognizer) Name() string {
	return "browser"
}

// Available is always nil. A browser without the Web Speech API answers
// recognition.start with recognition.unsupported, which ends that attempt only.
func (b *BrowserRecognizer) Available() error {
	return nil
}

func (b *BrowserRecognizer) Start(listener application.RecognitionListener) error {
	b.mu.Lock()
	b.listener = listener
	b.mu.Unlock()

	if !b.hub.sendCapture(outbound{Type: msgRecognitionStart}) {
		return errNoCaptureClient
	}
	return nil
}

func (b *BrowserRecognizer) Stop() error {
	if !b.hub.sendCapture(outbound{Type: msgRecognitionStop}) {
		// Nobody left to stop. Stop runs on the session loop, so the end
		// is delivered from outside it.
		go b.captureLost()
	}
	return nil
}

func (b *BrowserRecognizer) current() application.RecognitionListener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener
}

func (b *BrowserRecognizer) deliver(msg inbound) {
	listener := b.current()
	if listener == nil {
		return
	}

	switch msg.Type {
	case msgRecognitionStarted:
		listener.OnRecognitionStart()
	case msgRecognitionResult:
		listener.OnRecognitionResult(domain.RecognitionBatch{ResultIndex: msg.ResultIndex, Results: msg.Results})
	case msgRecognitionEnded:
		listener.OnRecognitionEnd()
	case msgRecognitionError:
		listener.OnRecognitionError(msg.Error)
	case msgRecognitionUnsupported:
		listener.OnRecognitionUnsupported()
	}
}

// captureLost ends the running session when its browser goes away.
func (b *BrowserRecognizer) captureLost() {
	if listener := b.current(); listener != nil {
		listener.OnRecognitionEnd()
	}
}
