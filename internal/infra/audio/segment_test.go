package audio

import (
	"encoding/binary"
	"testing"

	"voice-editor/internal/application"
)

func frame(value int16) []int16 {
	f := make([]int16, framesPerBuffer)
	for i := range f {
		f[i] = value
	}
	return f
}

func TestSegmenter_SkipsLeadingSilence(t *testing.T) {
	s := newSegmenter(4096, 10)

	for i := 0; i < 20; i++ {
		if out := s.Push(frame(0)); out != nil {
			t.Fatalf("silence produced an utterance of %d samples", len(out))
		}
	}
	if out := s.Flush(); out != nil {
		t.Errorf("flush after silence: got %d samples", len(out))
	}
}

func TestSegmenter_EndsOnSilence(t *testing.T) {
	s := newSegmenter(4096, 10)

	s.Push(frame(2000))
	s.Push(frame(2000))

	var out []int16
	for i := 0; i < 10 && out == nil; i++ {
		out = s.Push(frame(0))
	}
	if out == nil {
		t.Fatal("expected an utterance after a second of silence")
	}
	if out[0] != 2000 {
		t.Errorf("utterance should start with speech, got %d", out[0])
	}
	if rest := s.Flush(); rest != nil {
		t.Errorf("segmenter should be empty, got %d samples", len(rest))
	}
}

func TestSegmenter_CapsLength(t *testing.T) {
	s := newSegmenter(1024, 2)

	var out []int16
	for i := 0; i < 5 && out == nil; i++ {
		out = s.Push(frame(3000))
	}
	if out == nil {
		t.Fatal("expected the utterance to be cut at the maximum length")
	}
}

func TestSamplesToWav(t *testing.T) {
	wav := samplesToWav([]int16{1, -1, 2}, 16000)

	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatalf("bad header: %q", wav[:12])
	}
	if len(wav) != 44+6 {
		t.Errorf("length: got %d, want 50", len(wav))
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate: got %d", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != 6 {
		t.Errorf("data size: got %d", size)
	}
}

func TestTranscript_SeparatesUtterances(t *testing.T) {
	var tr transcript
	acc := application.NewAccumulator()

	for _, text := range []string{"make the background", "", " blue\n"} {
		if batch, ok := tr.Add(text); ok {
			acc.Add(batch)
		}
	}

	if got := acc.Commit(); got != "make the background blue" {
		t.Errorf("command: got %q", got)
	}
	if len(tr.results) != 2 || tr.results[1].Text != " blue" || !tr.results[1].Final {
		t.Errorf("results: got %+v", tr.results)
	}
}
