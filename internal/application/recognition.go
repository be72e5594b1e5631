package application

import (
	"errors"

	"github.com/rs/zerolog"

	"voice-editor/internal/domain"
)

const unsupportedMessage = "Your browser does not support the SpeechRecognition API."

// RecognitionController owns the lifecycle of one continuous recognition
// session. It must only be driven from the session loop.
type RecognitionController struct {
	recognizer Recognizer
	listener   RecognitionListener
	transcript *Accumulator
	surface    Surface
	commit     func(text string)
	logger     zerolog.Logger

	state         domain.RecognitionState
	stopRequested bool
	restarting    bool
	unsupported   bool
}

func NewRecognitionController(
	recognizer Recognizer,
	listener RecognitionListener,
	surface Surface,
	commit func(text string),
	logger zerolog.Logger,
) *RecognitionController {
	return &RecognitionController{
		recognizer: recognizer,
		listener:   listener,
		transcript: NewAccumulator(),
		surface:    surface,
		commit:     commit,
		logger:     logger.With().Str("component", "recognition").Str("recognizer", recognizer.Name()).Logger(),
		state:      domain.RecognitionIdle,
	}
}

func (c *RecognitionController) State() domain.RecognitionState {
	return c.state
}

func (c *RecognitionController) Active() bool {
	return c.state != domain.RecognitionIdle
}

func (c *RecognitionController) Unsupported() bool {
	return c.unsupported
}

// Start asks the platform to begin listening. It is a no-op unless idle.
func (c *RecognitionController) Start() {
	if c.unsupported || c.state != domain.RecognitionIdle {
		return
	}

	c.state = domain.RecognitionStarting
	c.stopRequested = false
	c.restarting = false
	c.transcript.Reset()

	if err := c.recognizer.Start(c.listener); err != nil {
		c.state = domain.RecognitionIdle
		if errors.Is(err, domain.ErrRecognitionUnsupported) {
			c.MarkUnsupported()
			return
		}
		c.logger.Error().Err(err).Msg("recognition start failed")
		return
	}
	c.surface.ShowTranscription("Listening...")
}

// Stop requests the end of the session. The transition to idle happens when
// the platform confirms with an end notification.
func (c *RecognitionController) Stop() {
	if c.state == domain.RecognitionIdle || c.stopRequested {
		return
	}

	c.stopRequested = true
	if err := c.recognizer.Stop(); err != nil {
		c.logger.Error().Err(err).Msg("recognition stop failed")
	}
}

func (c *RecognitionController) OnStart() {
	if c.state == domain.RecognitionIdle {
		return
	}

	c.state = domain.RecognitionListening
	if c.restarting {
		c.restarting = false
		return
	}

	c.transcript.Reset()
	c.surface.ListeningChanged(true)
	c.surface.ShowTranscription("Listening...")
	c.logger.Debug().Msg("listening")
}

func (c *RecognitionController) OnResult(batch domain.RecognitionBatch) {
	if c.state == domain.RecognitionIdle {
		return
	}
	c.surface.ShowTranscription(c.transcript.Add(batch))
}

func (c *RecognitionController) OnEnd() {
	if c.state == domain.RecognitionIdle {
		return
	}

	if !c.stopRequested {
		// The platform ends continuous sessions on its own after silence.
		c.logger.Debug().Msg("recognition ended without stop request, restarting")
		c.state = domain.RecognitionStarting
		c.restarting = true
		if err := c.recognizer.Start(c.listener); err != nil {
			c.logger.Error().Err(err).Msg("recognition restart failed")
			c.reset()
		}
		return
	}

	text := c.transcript.Commit()
	c.reset()
	if text != "" {
		c.commit(text)
	}
}

func (c *RecognitionController) OnError(code string) {
	c.logger.Error().Str("error", code).Msg("speech recognition error")
	wasActive := c.state != domain.RecognitionIdle
	c.transcript.Reset()
	c.reset()
	if wasActive {
		c.surface.Notify(domain.NotifyError, (&domain.RecognitionError{Code: code}).Error())
	}
}

// OnUnsupported ends an attempt whose capturing client has no speech
// recognition. Later presses, possibly from another client, start normally.
func (c *RecognitionController) OnUnsupported() {
	if c.state == domain.RecognitionIdle {
		return
	}
	c.logger.Warn().Msg("capturing client cannot recognize speech")
	c.transcript.Reset()
	c.reset()
	c.surface.Notify(domain.NotifyError, unsupportedMessage)
}

// MarkUnsupported disables recognition for the rest of the process and tells
// the user once. It is used when the process itself has no speech platform.
func (c *RecognitionController) MarkUnsupported() {
	if c.unsupported {
		return
	}
	c.unsupported = true
	c.logger.Warn().Msg("speech recognition unsupported")
	c.surface.Notify(domain.NotifyError, unsupportedMessage)
}

func (c *RecognitionController) reset() {
	c.state = domain.RecognitionIdle
	c.stopRequested = false
	c.restarting = false
	c.surface.HideTranscription()
	c.surface.ListeningChanged(false)
}
