// alignsub shifts a subtitle file's timestamps to match a video's
// actual speech, using voice-activity detection and the alignment
// engine in internal/align.
//
// Usage:
//
//	alignsub -video movie.mkv -subtitle movie.srt -output movie.aligned.srt -vad-model models/silero_vad.onnx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"alignsub/internal/align"
	"alignsub/internal/audiosrc"
	"alignsub/internal/rating"
	"alignsub/internal/subtitle"
	"alignsub/internal/timing"
	"alignsub/internal/vad"

	"github.com/joho/godotenv"
)

func main() {
	videoPath := flag.String("video", "", "Input video or audio file")
	subtitlePath := flag.String("subtitle", "", "Input SRT subtitle file")
	outputPath := flag.String("output", "", "Output SRT subtitle file")
	audioStream := flag.Int("audio-stream", -1, "ffprobe stream index to decode (-1 picks automatically)")
	split := flag.Bool("split", false, "allow a different shift per subtitle line")
	splitPenalty := flag.Int64("split-penalty", 500, "rating cost charged per distinct shift in split mode")
	epsilon := flag.Int64("epsilon", 0, "aggressive simplification tolerance for the VAD rating signal (0 disables)")
	maxShiftSec := flag.Float64("max-shift", 60, "largest shift, in seconds, considered in either direction")
	subtitleWeight := flag.Int64("subtitle-weight", 10, "rating reward for a candidate offset landing inside a subtitle line")
	subtitleGapPenalty := flag.Int64("subtitle-gap-penalty", 1, "rating cost for a candidate offset landing in silence between subtitle lines")
	subtitleRampMs := flag.Int64("subtitle-ramp-ms", 200, "transition width, in milliseconds, between a subtitle line's rating and the surrounding gap's")
	progress := flag.Bool("progress", false, "print VAD progress to stderr")
	vadModel := flag.String("vad-model", "models/silero_vad.onnx", "path to the Silero VAD ONNX model")
	vadThreshold := flag.Float64("vad-threshold", 0.5, "VAD speech probability threshold")
	flag.Parse()

	// .env is optional; ignore its absence exactly as cmd/server does.
	_ = godotenv.Load()

	if *videoPath == "" || *subtitlePath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: alignsub -video <file> -subtitle <file> -output <file> -vad-model <path>")
		os.Exit(2)
	}

	subtitleRatingCfg := rating.SubtitleRatingConfig{
		RampWidth:  timing.TimeDelta(*subtitleRampMs),
		Weight:     timing.RatingDelta(*subtitleWeight),
		GapPenalty: timing.RatingDelta(*subtitleGapPenalty),
	}

	if err := run(*videoPath, *subtitlePath, *outputPath, *audioStream, *split,
		timing.RatingDelta(*splitPenalty), timing.RatingDelta(*epsilon), *maxShiftSec,
		*progress, *vadModel, *vadThreshold, subtitleRatingCfg); err != nil {
		log.Fatalf("alignsub: %v", err)
	}
}

func run(videoPath, subtitlePath, outputPath string, audioStream int, split bool,
	splitPenalty, epsilon timing.RatingDelta, maxShiftSec float64, showProgress bool,
	vadModelPath string, vadThreshold float64, subtitleRatingCfg rating.SubtitleRatingConfig) error {

	if maxShiftSec <= 0 {
		return fmt.Errorf("argument -max-shift: expected a positive value, got %v", maxShiftSec)
	}
	if epsilon < 0 {
		return fmt.Errorf("argument -epsilon: expected a non-negative value, got %d", epsilon)
	}
	if splitPenalty < 0 {
		return fmt.Errorf("argument -split-penalty: expected a non-negative value, got %d", splitPenalty)
	}

	if ext := filepath.Ext(outputPath); !strings.EqualFold(ext, filepath.Ext(subtitlePath)) {
		return fmt.Errorf("%w: input %q, output %q", subtitle.ErrFormatMismatch, subtitlePath, outputPath)
	}

	subtitleFile, err := os.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("opening subtitle file: %w", err)
	}
	defer subtitleFile.Close()

	lines, err := subtitle.Parse(subtitleFile)
	if err != nil {
		return fmt.Errorf("parsing subtitle file: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: no cues in %s", subtitle.ErrFailedToGenerateSubtitleData, subtitlePath)
	}

	ctx := context.Background()
	src, err := openAudioSource(ctx, videoPath, audioStream)
	if err != nil {
		return fmt.Errorf("opening audio source: %w", err)
	}
	defer src.Finish()

	vadCfg := vad.DefaultVADConfig(vadModelPath)
	vadCfg.Threshold = float32(vadThreshold)
	classifier, cleanup, err := vad.NewSherpaClassifier(vadCfg)
	if err != nil {
		return fmt.Errorf("initializing VAD: %w", err)
	}
	defer cleanup()

	var progressFn vad.ProgressFunc
	if showProgress {
		progressFn = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rVAD: %d/%d windows", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	probs, err := vad.BuildProbabilities(src, classifier, progressFn)
	if err != nil {
		return fmt.Errorf("running VAD: %w", err)
	}
	if len(probs) == 0 {
		return fmt.Errorf("%w: no audio decoded from %s", subtitle.ErrFailedToGenerateSubtitleData, videoPath)
	}

	frameMs := timing.TimeDelta(1000 * audiosrc.WindowSize / audiosrc.SampleRate)
	videoRating := rating.BuildVadRating(probs, frameMs, rating.VadRatingConfig{
		Threshold:     vadThreshold,
		VoiceRating:   10,
		SilenceRating: -1,
	}, epsilon)

	maxShift := timing.TimeDelta(maxShiftSec * 1000)
	offsets, err := align.Align(subtitle.Lines(lines).Spans(), videoRating, align.Options{
		TauMin:         -maxShift,
		TauMax:         maxShift,
		Split:          split,
		SplitPenalty:   splitPenalty,
		SubtitleRating: subtitleRatingCfg,
	})
	if err != nil {
		if errors.Is(err, align.ErrNoLines) {
			return fmt.Errorf("%w: %v", subtitle.ErrFailedToUpdateSubtitle, err)
		}
		return fmt.Errorf("aligning subtitle: %w", err)
	}

	shifted, err := subtitle.ApplyOffsets(subtitle.Lines(lines), offsets)
	if err != nil {
		return err
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", subtitle.ErrFailedToInstantiateSubtitleFile, err)
	}
	defer outFile.Close()

	if err := shifted.Write(outFile); err != nil {
		return err
	}
	return nil
}

// openAudioSource tries the library-backed Ogg-Opus decoder first
// (cheaper: no subprocess) and falls back to the ffmpeg subprocess
// backend for anything it doesn't recognize, per spec.md §4.G's "two
// pluggable backends".
func openAudioSource(ctx context.Context, path string, audioStream int) (audiosrc.Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".opus") || strings.EqualFold(filepath.Ext(path), ".ogg") {
		f, err := os.Open(path)
		if err == nil {
			opusSrc, opusErr := audiosrc.NewOpusSource(f, 0)
			if opusErr == nil {
				return opusSrc, nil
			}
			if !errors.Is(opusErr, audiosrc.ErrUnsupportedContainer) {
				return nil, opusErr
			}
		}
	}
	return audiosrc.NewFFmpegSource(ctx, path, audioStream)
}
