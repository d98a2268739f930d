// Package subtitle is the CLI's SRT collaborator: a minimal
// reader/writer so cmd/alignsub has something real to read lines from
// and write aligned lines back to. It is out of the alignment
// engine's own scope (spec.md §1) but is needed end to end, so it
// speaks exactly one format rather than attempting conversion — per
// spec.md §6, writing to a different container than was read is a
// reported mismatch, not a silent transcode.
package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

// Sentinel errors grounded on original_source/ilass-cli/src/errors.rs's
// TopLevelError variants — the post-processing failures a subtitle
// collaborator can hit once the engine itself has already produced
// offsets.
var (
	ErrFormatMismatch                  = errors.New("subtitle: output format differs from input format")
	ErrFailedToUpdateSubtitle          = errors.New("subtitle: failed to change lines in the subtitle")
	ErrFailedToGenerateSubtitleData    = errors.New("subtitle: failed to generate data for subtitle")
	ErrFailedToInstantiateSubtitleFile = errors.New("subtitle: failed to instantiate subtitle file")
)

// Line is one subtitle cue: a 1-based display index, a start/end span
// on the timeline, and its text (joined with "\n" for multi-line
// cues).
type Line struct {
	Index int
	Start timing.TimeDelta
	End   timing.TimeDelta
	Text  string
}

// Lines is a parsed subtitle file, in file order.
type Lines []Line

// Parse reads an SRT file: blocks of an index line, a
// "HH:MM:SS,mmm --> HH:MM:SS,mmm" timecode line, one or more text
// lines, and a blank line separating blocks (the final block's
// trailing blank line is optional).
func Parse(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var lines []Line
	for scanner.Scan() {
		indexText := strings.TrimSpace(scanner.Text())
		if indexText == "" {
			continue
		}
		index, err := strconv.Atoi(indexText)
		if err != nil {
			return nil, fmt.Errorf("%w: expected a cue index, found %q", ErrFailedToGenerateSubtitleData, indexText)
		}

		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: cue %d: missing timecode line", ErrFailedToGenerateSubtitleData, index)
		}
		start, end, err := parseTimecodeLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: cue %d: %v", ErrFailedToGenerateSubtitleData, index, err)
		}

		var text []string
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				break
			}
			text = append(text, line)
		}

		lines = append(lines, Line{Index: index, Start: start, End: end, Text: strings.Join(text, "\n")})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGenerateSubtitleData, err)
	}
	return lines, nil
}

func parseTimecodeLine(line string) (timing.TimeDelta, timing.TimeDelta, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timecode line %q", line)
	}
	start, err := parseTimecode(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimecode(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimecode parses "HH:MM:SS,mmm" (SRT's only timecode format)
// into milliseconds.
func parseTimecode(s string) (timing.TimeDelta, error) {
	var h, m, sec, ms int
	// Some writers use '.' instead of ',' for the fractional separator.
	normalized := strings.Replace(s, ".", ",", 1)
	n, err := fmt.Sscanf(normalized, "%d:%d:%d,%d", &h, &m, &sec, &ms)
	if err != nil || n != 4 {
		return 0, fmt.Errorf("malformed timecode %q", s)
	}
	total := int64(h)*3600_000 + int64(m)*60_000 + int64(sec)*1000 + int64(ms)
	return timing.TimeDelta(total), nil
}

// Write renders ls back out as SRT, renumbering cues sequentially
// from 1 regardless of their original Index.
func (ls Lines) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i, line := range ls {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimecode(line.Start), formatTimecode(line.End), line.Text); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToInstantiateSubtitleFile, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToInstantiateSubtitleFile, err)
	}
	return nil
}

func formatTimecode(t timing.TimeDelta) string {
	total := int64(t)
	if total < 0 {
		total = 0
	}
	ms := total % 1000
	total /= 1000
	sec := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, sec, ms)
}

// Spans extracts each line's span on the timeline, in the shape
// internal/align.Align consumes.
func (ls Lines) Spans() []segment.Span {
	spans := make([]segment.Span, len(ls))
	for i, line := range ls {
		spans[i] = segment.NewSpan(line.Start, line.End)
	}
	return spans
}

// ApplyOffsets returns a copy of ls with each line shifted by the
// corresponding offset (as produced by internal/align.Align, one per
// line, same order). Fails with ErrFailedToUpdateSubtitle if the
// counts don't match.
func ApplyOffsets(ls Lines, offsets []timing.TimeDelta) (Lines, error) {
	if len(ls) != len(offsets) {
		return nil, fmt.Errorf("%w: %d lines but %d offsets", ErrFailedToUpdateSubtitle, len(ls), len(offsets))
	}
	shifted := make(Lines, len(ls))
	for i, line := range ls {
		line.Start += offsets[i]
		line.End += offsets[i]
		shifted[i] = line
	}
	return shifted, nil
}
