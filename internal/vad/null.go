package vad

import "math"

// NullClassifier is a pure energy-threshold classifier: no ONNX model,
// no state beyond the threshold itself. It exists for tests and for
// environments without a Silero model file, grounded on the same
// window-in/probability-out shape the sherpa-backed classifier uses.
func NullClassifier(threshold float64) Classifier {
	return func(window []int16) (float64, error) {
		if len(window) == 0 {
			return 0, nil
		}
		var sumSquares float64
		for _, s := range window {
			v := float64(s) / 32768.0
			sumSquares += v * v
		}
		rms := math.Sqrt(sumSquares / float64(len(window)))
		if rms >= threshold {
			return 1.0, nil
		}
		return 0.0, nil
	}
}
