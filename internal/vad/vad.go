// Package vad turns a stream of 8kHz mono audio samples into a
// per-window voice-activity probability signal. It owns the chunking
// loop and a small, swappable classifier contract; everything about how
// a window is actually scored — Silero-backed or otherwise — lives
// behind that contract.
package vad

import (
	"errors"
	"fmt"
)

// ErrVadAnalysisFailed wraps any error raised by a classifier while
// scoring a window.
var ErrVadAnalysisFailed = errors.New("vad: analysis failed")

// ErrFailedToDecode wraps any error raised by the audio source while
// pulling the next window.
var ErrFailedToDecode = errors.New("vad: failed to decode audio")

// VADConfig configures the default Silero-backed classifier. Field
// names and defaults are carried over from internal/asr/vad.go's
// VADConfig almost unchanged, since it is the natural configuration
// surface for the same model.
type VADConfig struct {
	ModelPath          string
	Threshold          float32
	MinSpeechDuration  float32
	MinSilenceDuration float32
	WindowSize         int
	SampleRate         int
}

// DefaultVADConfig mirrors internal/asr/vad.go's DefaultVADConfig.
func DefaultVADConfig(modelPath string) *VADConfig {
	return &VADConfig{
		ModelPath:          modelPath,
		Threshold:          0.5,
		MinSpeechDuration:  0.25,
		MinSilenceDuration: 0.5,
		WindowSize:         512,
		SampleRate:         8000,
	}
}

// Classifier scores one window of samples, returning a voice-activity
// probability in [0,1]. This is the spec's pluggable opaque function:
// the chunking loop below never inspects how a classifier reaches its
// answer.
type Classifier func(window []int16) (float64, error)

// ProgressFunc reports how many source chunks have been consumed so
// far, out of the source's TotalSteps estimate, matching the teacher's
// ProgressCallback shape in internal/asr/vad.go.
type ProgressFunc func(windowsDone, windowsTotal int)

// Source is the minimal pull contract internal/vad needs from an audio
// backend: windows of 8kHz mono s16 samples plus a total-step estimate
// for progress reporting. internal/audiosrc's backends satisfy this
// without internal/vad importing that package directly.
type Source interface {
	Next() ([]int16, bool, error)
	TotalSteps() int
}

// Receiver is the push half of the front end: samples are pushed in
// arbitrary-length chunks, buffered into fixed-size windows, and each
// full window is scored immediately. Finish flushes the partial tail
// window, if any, and returns the probability timeline.
type Receiver struct {
	classifier Classifier
	window     []int16
	size       int
	probs      []float64
}

// NewReceiver builds a Receiver scoring windowSize-sample windows with
// classifier.
func NewReceiver(windowSize int, classifier Classifier) *Receiver {
	if windowSize <= 0 {
		panic("vad: window size must be positive")
	}
	return &Receiver{
		classifier: classifier,
		window:     make([]int16, 0, windowSize),
		size:       windowSize,
	}
}

// PushSamples buffers samples, scoring every window that fills. Chunk
// boundaries need not line up with window boundaries.
func (r *Receiver) PushSamples(samples []int16) error {
	for len(samples) > 0 {
		take := r.size - len(r.window)
		if take > len(samples) {
			take = len(samples)
		}
		r.window = append(r.window, samples[:take]...)
		samples = samples[take:]
		if len(r.window) == r.size {
			if err := r.score(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finish scores the buffered partial window, if any, and returns one
// probability per window in push order.
func (r *Receiver) Finish() ([]float64, error) {
	if len(r.window) > 0 {
		if err := r.score(); err != nil {
			return nil, err
		}
	}
	return r.probs, nil
}

func (r *Receiver) score() error {
	p, err := r.classifier(r.window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVadAnalysisFailed, err)
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	r.probs = append(r.probs, p)
	r.window = r.window[:0]
	return nil
}

// BuildProbabilities pulls every chunk src yields, pushes it through a
// Receiver, and returns one probability per window, in order. This is
// the chunking adapter spec.md §4.C describes: it owns iteration and
// progress reporting, and is agnostic to what classifier does
// internally. Progress is reported per source chunk consumed.
func BuildProbabilities(src Source, classifier Classifier, progress ProgressFunc) ([]float64, error) {
	recv := NewReceiver(DefaultVADConfig("").WindowSize, classifier)
	total := src.TotalSteps()
	done := 0
	for {
		chunk, ok, err := src.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToDecode, err)
		}
		if !ok {
			break
		}
		if err := recv.PushSamples(chunk); err != nil {
			return nil, err
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}
	return recv.Finish()
}
