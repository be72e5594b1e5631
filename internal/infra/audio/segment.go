package audio

import (
	"bytes"
	"encoding/binary"
	"strings"

	"voice-editor/internal/domain"
)

const (
	silenceThreshold = int16(500)
	framesPerBuffer  = 1024
)

// segmenter splits a continuous sample stream into utterances. An utterance
// ends after a second of silence, or when it reaches maxSeconds.
type segmenter struct {
	sampleRate int
	maxSeconds int

	samples []int16
	voiced  bool
	silence int
}

func newSegmenter(sampleRate, maxSeconds int) *segmenter {
	return &segmenter{sampleRate: sampleRate, maxSeconds: maxSeconds}
}

// Push adds one buffer of samples and returns a finished utterance, if any.
func (s *segmenter) Push(frame []int16) []int16 {
	silent := isSilent(frame)
	if silent && !s.voiced {
		// leading silence is never sent for transcription
		return nil
	}

	s.samples = append(s.samples, frame...)
	if silent {
		s.silence += len(frame)
	} else {
		s.voiced = true
		s.silence = 0
	}

	if s.silence > s.sampleRate || len(s.samples) > s.sampleRate*s.maxSeconds {
		return s.Flush()
	}
	return nil
}

// Flush returns whatever speech is buffered and resets.
func (s *segmenter) Flush() []int16 {
	if !s.voiced {
		s.samples = s.samples[:0]
		return nil
	}
	out := s.samples
	s.samples = nil
	s.voiced = false
	s.silence = 0
	return out
}

// transcript holds the utterances of one capture session as final results.
// Utterances after the first carry a leading space so the listener's
// concatenation keeps words apart.
type transcript struct {
	results []domain.RecognitionResult
}

// Add records one transcribed utterance and returns the batch to report.
// Blank text records nothing.
func (t *transcript) Add(text string) (domain.RecognitionBatch, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.RecognitionBatch{}, false
	}
	if len(t.results) > 0 {
		text = " " + text
	}
	t.results = append(t.results, domain.RecognitionResult{Text: text, Final: true})
	return domain.RecognitionBatch{
		ResultIndex: len(t.results) - 1,
		Results:     append([]domain.RecognitionResult(nil), t.results...),
	}, true
}

func isSilent(frame []int16) bool {
	for _, sample := range frame {
		if sample > silenceThreshold || sample < -silenceThreshold {
			return false
		}
	}
	return true
}

func samplesToWav(samples []int16, sampleRate int) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
