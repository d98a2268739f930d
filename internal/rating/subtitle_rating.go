// Package rating builds the two elementary rating signals the
// alignment engine sums and maximizes over: one derived from the
// subtitle line timings themselves, one derived from voice-activity
// evidence in the audio.
package rating

import (
	"sort"

	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

// SubtitleRatingConfig controls the shape of the signal
// BuildSubtitleRating produces: Weight is the reward for audio aligning
// with a subtitle line, GapPenalty the cost for aligning with silence
// between lines, and RampWidth how long the transition between the two
// takes at each line boundary.
type SubtitleRatingConfig struct {
	RampWidth  timing.TimeDelta
	Weight     timing.RatingDelta
	GapPenalty timing.RatingDelta
}

type breakpoint struct {
	at     timing.TimeDelta
	rating timing.Rating
}

// BuildSubtitleRating turns a set of subtitle line spans into a rating
// signal spanning [start, end): +Weight while a line is "on", a linear
// ramp of cfg.RampWidth either side of each line's boundary, and
// -GapPenalty during silence between lines. Where two lines are closer
// together than 2*RampWidth, the ramp is shortened symmetrically so it
// never overshoots into the neighboring line.
func BuildSubtitleRating(spans []segment.Span, cfg SubtitleRatingConfig, start, end timing.TimeDelta) segment.RatingBuffer {
	sorted := make([]segment.Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	points := []breakpoint{{at: start, rating: timing.Rating(-cfg.GapPenalty)}}

	for i, sp := range sorted {
		rampIn := cfg.RampWidth
		prevEnd := start
		if i > 0 {
			prevEnd = sorted[i-1].End
		}
		if sp.Start-prevEnd < 2*rampIn {
			half := (sp.Start - prevEnd) / 2
			if half < rampIn {
				rampIn = half
			}
		}
		// Always emit the ramp-boundary points, even when rampIn/rampOut
		// is 0: that collapses them into a zero-length segment the loop
		// below filters out, giving a sharp step at the line boundary
		// instead of stretching the transition across the whole
		// neighboring gap.
		points = append(points, breakpoint{at: sp.Start - rampIn, rating: timing.Rating(-cfg.GapPenalty)})
		points = append(points, breakpoint{at: sp.Start, rating: timing.Rating(cfg.Weight)})
		points = append(points, breakpoint{at: sp.End, rating: timing.Rating(cfg.Weight)})

		rampOut := cfg.RampWidth
		if i+1 < len(sorted) {
			gap := sorted[i+1].Start - sp.End
			if gap < 2*rampOut {
				half := gap / 2
				if half < rampOut {
					rampOut = half
				}
			}
		}
		points = append(points, breakpoint{at: sp.End + rampOut, rating: timing.Rating(-cfg.GapPenalty)})
	}

	if last := points[len(points)-1]; last.at < end {
		points = append(points, breakpoint{at: end, rating: timing.Rating(-cfg.GapPenalty)})
	}

	segs := make([]segment.RatingSegment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, next := points[i-1], points[i]
		length := next.at - prev.at
		if length <= 0 {
			continue
		}
		delta := timing.RatingDelta(int64(next.rating-prev.rating) / length.AsI64())
		segs = append(segs, segment.RatingSegment{
			End:  next.at,
			Data: segment.RatingInfo{Rating: prev.rating, Delta: delta},
		})
	}

	return segment.SaveSimplified(start, segment.ClampEnd(&rawRatingIter{segs: segs}, end))
}

type rawRatingIter struct {
	segs []segment.RatingSegment
	pos  int
}

func (it *rawRatingIter) Next() (segment.RatingSegment, bool) {
	if it.pos >= len(it.segs) {
		return segment.RatingSegment{}, false
	}
	s := it.segs[it.pos]
	it.pos++
	return s, true
}
