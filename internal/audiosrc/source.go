// Package audiosrc turns a video or audio file into the 8kHz mono s16
// sample stream internal/vad consumes, via two pluggable backends: a
// subprocess decoder (ffmpeg.go) that works with anything ffmpeg
// understands, and a library-backed decoder (opus.go) for the one
// container the retrieval pack carries a pure-Go codec for.
package audiosrc

import "errors"

// ErrUnsupportedContainer is returned by the library-backed backend
// when the input isn't an Ogg-Opus stream — the caller is expected to
// retry with the subprocess backend.
var ErrUnsupportedContainer = errors.New("audiosrc: unsupported container for library-backed decode")

// ErrNoAudioStream is returned when a file has no usable audio stream.
var ErrNoAudioStream = errors.New("audiosrc: no audio stream found")

// ErrDecodeFailed wraps any lower-level decode failure (subprocess
// exit, codec error, malformed container).
var ErrDecodeFailed = errors.New("audiosrc: decode failed")

// SampleRate and Channels are fixed for the whole pipeline: spec.md
// §4.G's contract is 8kHz mono s16, and internal/vad's default Silero
// classifier is built against that rate.
const (
	SampleRate = 8000
	Channels   = 1
)

// WindowSize is the default chunk size, in samples, yielded by a
// Source's Next call — matching internal/vad.DefaultVADConfig's
// Silero window size so a Source can be driven directly by
// internal/vad.BuildProbabilities without an intermediate buffer.
const WindowSize = 512

// Source is the pull contract spec.md §4.G describes: windows of
// 8kHz mono s16 samples, a best-effort total-step estimate for
// progress reporting, and an explicit release of the underlying
// resource. It is a strict superset of internal/vad.Source so either
// backend can be passed directly to internal/vad.BuildProbabilities.
type Source interface {
	Next() ([]int16, bool, error)
	TotalSteps() int
	Finish() error
}
