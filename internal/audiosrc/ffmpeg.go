package audiosrc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ffprobePath and ffmpegPath honor ALIGNSUB_FFPROBE_PATH /
// ALIGNSUB_FFMPEG_PATH, defaulting to the binaries on PATH — the same
// override shape as ilass-cli/src/video_decoder/ffmpeg_binary.rs's
// ILASS_FFPROBE_PATH/ILASS_FFMPEG_PATH, renamed for this project.
func ffprobePath() string {
	if p := os.Getenv("ALIGNSUB_FFPROBE_PATH"); p != "" {
		return p
	}
	return "ffprobe"
}

func ffmpegPath() string {
	if p := os.Getenv("ALIGNSUB_FFMPEG_PATH"); p != "" {
		return p
	}
	return "ffmpeg"
}

type ffprobeStream struct {
	Index     int    `json:"index"`
	Channels  *int   `json:"channels"`
	Duration  string `json:"duration"`
	CodecType string `json:"codec_type"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeMetadata struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// FFmpegSource decodes anything ffmpeg understands into 8kHz mono s16
// by spawning ffprobe to read stream/format metadata and ffmpeg to
// stream raw samples on stdout. Grounded on
// ilass-cli/src/video_decoder/ffmpeg_binary.rs's two-subprocess shape
// and internal/asr/vad.go's ffmpeg invocation style.
type FFmpegSource struct {
	*pcmWindowReader
}

// NewFFmpegSource probes filePath's audio streams and starts
// streaming raw s16le samples from the chosen one. audioStream
// selects a stream by ffprobe index; pass -1 to auto-select the
// stream with fewest channels, ties broken by index, matching
// spec.md §4.G.
func NewFFmpegSource(ctx context.Context, filePath string, audioStream int) (*FFmpegSource, error) {
	meta, err := probeMetadata(ctx, filePath)
	if err != nil {
		return nil, err
	}

	stream, err := selectAudioStream(meta, audioStream)
	if err != nil {
		return nil, err
	}

	duration := stream.Duration
	if duration == "" {
		duration = meta.Format.Duration
	}
	var durationSec float64
	if duration != "" {
		durationSec, _ = strconv.ParseFloat(duration, 64)
	}
	total := int(durationSec*float64(SampleRate)) / WindowSize

	cmd := exec.CommandContext(ctx, ffmpegPath(),
		"-v", "error",
		"-y",
		"-i", filePath,
		"-map", fmt.Sprintf("0:%d", stream.Index),
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-f", "s16le",
		"-",
	)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: opening ffmpeg stdout pipe: %v", ErrDecodeFailed, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: spawning %s: %v", ErrDecodeFailed, ffmpegPath(), err)
	}

	closeFn := func() error { return waitProcess(cmd, &stderr) }

	return &FFmpegSource{pcmWindowReader: newPCMWindowReader(stdout, WindowSize, total, closeFn)}, nil
}

// waitProcess reaps a finished decode process, turning a non-zero exit
// into an error that carries whatever the process said on stderr, or
// its bare exit code when it said nothing.
func waitProcess(cmd *exec.Cmd, stderr *bytes.Buffer) error {
	waitErr := cmd.Wait()
	if waitErr == nil {
		return nil
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: process error message: %s", ErrDecodeFailed, msg)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return fmt.Errorf("%w: process error code %d", ErrDecodeFailed, exitErr.ExitCode())
	}
	return fmt.Errorf("%w: waiting for process: %v", ErrDecodeFailed, waitErr)
}

func probeMetadata(ctx context.Context, filePath string) (*ffprobeMetadata, error) {
	cmd := exec.CommandContext(ctx, ffprobePath(),
		"-v", "error",
		"-show_entries", "format=duration:stream=index,channels,duration,codec_type",
		"-of", "json",
		filePath,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return nil, fmt.Errorf("%w: probing %s: process error message: %s", ErrDecodeFailed, filePath, msg)
			}
			return nil, fmt.Errorf("%w: probing %s: process error code %d", ErrDecodeFailed, filePath, exitErr.ExitCode())
		}
		return nil, fmt.Errorf("%w: probing %s with %s: %v", ErrDecodeFailed, filePath, ffprobePath(), err)
	}

	var meta ffprobeMetadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing ffprobe metadata for %s: %v", ErrDecodeFailed, filePath, err)
	}
	return &meta, nil
}

func selectAudioStream(meta *ffprobeMetadata, want int) (ffprobeStream, error) {
	var best *ffprobeStream
	for i := range meta.Streams {
		s := meta.Streams[i]
		if s.CodecType != "audio" || s.Channels == nil {
			continue
		}
		if want >= 0 {
			if s.Index == want {
				return s, nil
			}
			continue
		}
		if best == nil || *s.Channels < *best.Channels || (*s.Channels == *best.Channels && s.Index < best.Index) {
			best = &s
		}
	}
	if best == nil {
		return ffprobeStream{}, ErrNoAudioStream
	}
	return *best, nil
}
