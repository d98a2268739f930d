package vad

import (
	"fmt"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
)

// NewSherpaClassifier builds the default, model-backed Classifier. It
// wraps a single persistent sherpa.VoiceActivityDetector the same way
// internal/asr/vad.go does (AcceptWaveform per chunk, drain finished
// segments with Front/Pop), but adapts the detector's segment-at-a-time
// output into the spec's per-window probability contract: a window is
// "speech" from the moment a segment is popped until MinSilenceDuration
// worth of windows have passed without another one, approximating the
// detector's own hysteresis rather than re-deriving it.
//
// The returned cleanup function must be called once the classifier is
// no longer needed; it releases the underlying ONNX runtime state.
func NewSherpaClassifier(cfg *VADConfig) (classifier Classifier, cleanup func(), err error) {
	if _, statErr := os.Stat(cfg.ModelPath); os.IsNotExist(statErr) {
		return nil, nil, fmt.Errorf("vad: model not found: %s", cfg.ModelPath)
	}

	vadModelConfig := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              cfg.ModelPath,
			Threshold:          cfg.Threshold,
			MinSilenceDuration: cfg.MinSilenceDuration,
			MinSpeechDuration:  cfg.MinSpeechDuration,
			WindowSize:         cfg.WindowSize,
		},
		SampleRate: cfg.SampleRate,
		NumThreads: 1,
		Debug:      0,
	}

	detector := sherpa.NewVoiceActivityDetector(&vadModelConfig, 30)
	if detector == nil {
		return nil, nil, fmt.Errorf("vad: failed to create Silero VAD detector")
	}

	windowsPerSecond := float64(cfg.SampleRate) / float64(cfg.WindowSize)
	silenceWindows := int(float64(cfg.MinSilenceDuration) * windowsPerSecond)
	if silenceWindows < 1 {
		silenceWindows = 1
	}

	state := &sherpaClassifierState{
		detector:       detector,
		silenceWindows: silenceWindows,
	}

	cleanup = func() { sherpa.DeleteVoiceActivityDetector(detector) }
	return state.classify, cleanup, nil
}

type sherpaClassifierState struct {
	detector           *sherpa.VoiceActivityDetector
	silenceWindows     int
	windowsSinceSpeech int
	speaking           bool
}

func (s *sherpaClassifierState) classify(window []int16) (float64, error) {
	s.detector.AcceptWaveform(int16ToFloat32(window))

	sawSegment := false
	for !s.detector.IsEmpty() {
		s.detector.Front()
		s.detector.Pop()
		sawSegment = true
	}

	if sawSegment {
		s.speaking = true
		s.windowsSinceSpeech = 0
	} else if s.speaking {
		s.windowsSinceSpeech++
		if s.windowsSinceSpeech > s.silenceWindows {
			s.speaking = false
		}
	}

	if s.speaking {
		return 1.0, nil
	}
	return 0.0, nil
}

// int16ToFloat32 matches internal/asr/vad.go's bytesToFloat32 scaling,
// operating on already-decoded samples instead of raw little-endian
// bytes.
func int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
