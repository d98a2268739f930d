// Package align implements the alignment engine: given a set of
// subtitle line spans and a voice-activity rating signal over the
// video's timeline, it finds the time shift (or, in split mode, one
// shift per line) that maximizes a rating built from the segment
// algebra in package segment. The engine is pure and runs to
// completion once started, per spec.md §5.
package align

import (
	"errors"
	"fmt"

	"alignsub/internal/rating"
	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

// ErrNoLines is returned when asked to align an empty subtitle.
var ErrNoLines = errors.New("align: no subtitle lines to align")

// Options configures both alignment modes.
type Options struct {
	// TauMin and TauMax bound the candidate shift, inclusive/exclusive
	// as a half-open [TauMin, TauMax) span.
	TauMin, TauMax timing.TimeDelta

	// Split enables per-line offsets with the monotonicity/drag
	// constraint described in spec.md §4.F. With Split false, every
	// line receives the single globally optimal shift.
	Split bool

	// SplitPenalty is charged once per consecutive line pair whose
	// offsets are allowed to differ — see DESIGN.md's resolution of
	// the split penalty Open Question. Ignored when Split is false.
	SplitPenalty timing.RatingDelta

	// SubtitleRating configures the subtitle-derived template signal
	// (internal/rating.BuildSubtitleRating) that each line's contribution
	// is summed with before it reaches the accumulator — see
	// spec.md §4.F's "weighted by the line's template". The zero value
	// produces a flat all-zero template, which leaves the video rating
	// as the sole contributor.
	SubtitleRating rating.SubtitleRatingConfig
}

// Align returns one offset per line, in the same order lines was
// given. videoRating is the voice-activity-derived rating signal for
// the whole video (internal/rating.BuildVadRating); lines are the
// subtitle's original spans on that same timeline. A subtitle-derived
// rating signal (internal/rating.BuildSubtitleRating, shaped by
// opts.SubtitleRating) is built once over the lines' own span and
// folded into every line's contribution alongside videoRating.
func Align(lines []segment.Span, videoRating segment.RatingBuffer, opts Options) ([]timing.TimeDelta, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	if !(opts.TauMin < opts.TauMax) {
		return nil, fmt.Errorf("align: invalid offset range [%d, %d)", opts.TauMin, opts.TauMax)
	}

	subtitleRating := subtitleRatingSignal(lines, opts.SubtitleRating)

	if opts.Split {
		return alignSplit(lines, videoRating, subtitleRating, opts)
	}
	return alignNoSplit(lines, videoRating, subtitleRating, opts)
}

// subtitleRatingSignal builds the subtitle-derived template over the
// tightest span covering every line; lineContribution's own windowing
// (RestrictStart/ExtendTo) pads anything outside that range with zero,
// so there's no need to pad here for the candidate offset range too.
func subtitleRatingSignal(lines []segment.Span, cfg rating.SubtitleRatingConfig) segment.RatingBuffer {
	minStart, maxEnd := lines[0].Start, lines[0].End
	for _, line := range lines[1:] {
		if line.Start < minStart {
			minStart = line.Start
		}
		if line.End > maxEnd {
			maxEnd = line.End
		}
	}
	return rating.BuildSubtitleRating(lines, cfg, minStart, maxEnd)
}

// lineContribution sums, over [tauMin, tauMax), the window each signal
// contributes when a line at lineStart is shifted by a candidate
// offset: contribution(tau) == videoRating(lineStart+tau) +
// subtitleRating(lineStart+tau). This is the "shifted copy of a
// template rating signal" spec.md §4.F describes each line contributing
// to the accumulator — the algebra's addition standing in for the
// weighting spec.md §4.F frames as a product, since the algebra has no
// pointwise multiply.
func lineContribution(videoRating, subtitleRating segment.RatingBuffer, lineStart, tauMin, tauMax timing.TimeDelta) segment.RatingBuffer {
	video := windowedShift(videoRating, lineStart, tauMin, tauMax)
	template := windowedShift(subtitleRating, lineStart, tauMin, tauMax)
	summed := segment.AddRatingsFrom(tauMin, identityDual(video), template.Iter())
	return segment.SaveSimplified(tauMin, segment.OnlyRatings(segment.DiscardStartTimesDual(summed)))
}

// windowedShift restricts buf to the window a line at lineStart would
// probe at every candidate offset, giving a rating signal over
// [tauMin, tauMax) where result(tau) == buf(lineStart + tau).
func windowedShift(buf segment.RatingBuffer, lineStart, tauMin, tauMax timing.TimeDelta) segment.RatingBuffer {
	shiftedStart, shifted := segment.Shift(buf.Start, buf.Iter(), -lineStart)
	shiftedBuf := segment.SaveRatings(shiftedStart, shifted)
	if shiftedBuf.End() <= tauMin {
		// The line starts so far past the signal's end (a cue beyond a
		// truncated video, say) that no candidate offset reaches it;
		// its contribution is zero everywhere.
		return segment.RatingBuffer{Start: tauMin, Segs: []segment.RatingSegment{{End: tauMax}}}
	}
	windowed := shiftedBuf.RestrictStart(tauMin)
	clamped := segment.ClampEnd(windowed.Iter(), tauMax)
	extended := segment.ExtendTo(clamped, tauMax)
	return segment.SaveSimplified(tauMin, extended)
}

// alignNoSplit implements spec.md §4.F's no-split mode: sum every
// line's contribution into one accumulator over the offset axis and
// return its single argmax for every line.
func alignNoSplit(lines []segment.Span, videoRating, subtitleRating segment.RatingBuffer, opts Options) ([]timing.TimeDelta, error) {
	zero := segment.RatingBuffer{Start: opts.TauMin, Segs: []segment.RatingSegment{{End: opts.TauMax, Data: segment.RatingInfo{}}}}
	acc := zero

	for _, line := range lines {
		contribution := lineContribution(videoRating, subtitleRating, line.Start, opts.TauMin, opts.TauMax)
		summed := segment.AddRatingsFrom(acc.Start, identityDual(acc), contribution.Iter())
		ratings := segment.OnlyRatings(segment.DiscardStartTimesDual(summed))
		acc = segment.SaveSimplified(acc.Start, ratings)
	}

	_, tau := nearestToZeroMaximum(acc)

	offsets := make([]timing.TimeDelta, len(lines))
	for i := range offsets {
		offsets[i] = tau
	}
	return offsets, nil
}

// nearestToZeroMaximum is RatingBuffer.Maximum with a deliberate
// tie-break choice the generic algebra leaves unspecified: when the
// offset accumulator has no real preference among several candidate
// shifts (most commonly a completely flat zero signal, meaning the
// video evidence doesn't distinguish any offset), prefer the one
// closest to zero — don't shift the subtitle unless the evidence
// actually calls for it. Within a single constant-valued tied segment
// that straddles zero, zero itself is the closest point; otherwise the
// nearer endpoint of that segment is used.
func nearestToZeroMaximum(buf segment.RatingBuffer) (timing.Rating, timing.TimeDelta) {
	cur := buf.Start
	best := buf.Segs[0].StartRating()
	for _, seg := range buf.Segs {
		length := seg.End - cur
		if s := seg.StartRating(); s > best {
			best = s
		}
		if e := seg.EndRating(length); e > best {
			best = e
		}
		cur = seg.End
	}

	var bestAt timing.TimeDelta
	have := false
	consider := func(t timing.TimeDelta) {
		if !have || absTimeDelta(t) < absTimeDelta(bestAt) {
			bestAt = t
			have = true
		}
	}

	cur = buf.Start
	for _, seg := range buf.Segs {
		length := seg.End - cur
		start := seg.StartRating()
		end := seg.EndRating(length)
		lastIncluded := seg.End - 1
		switch {
		case seg.Data.Delta == 0 && start == best:
			switch {
			case cur <= 0 && 0 <= lastIncluded:
				consider(0)
			case 0 < cur:
				consider(cur)
			default:
				consider(lastIncluded)
			}
		default:
			if start == best {
				consider(cur)
			}
			if end == best {
				consider(lastIncluded)
			}
		}
		cur = seg.End
	}
	return best, bestAt
}

func absTimeDelta(t timing.TimeDelta) timing.TimeDelta {
	if t < 0 {
		return -t
	}
	return t
}

// identityDual wraps a RatingBuffer's iterator as a DualIter whose
// offset component is meaningless (segment.AddRatingsFrom takes a
// DualIter for its first, accumulator-side argument; callers here
// project the sum back to ratings with segment.OnlyRatings).
func identityDual(b segment.RatingBuffer) segment.DualIter {
	it := b.Iter()
	return dualFromRatingIter(it)
}

type dualFromRating struct{ it segment.RatingIter }

func dualFromRatingIter(it segment.RatingIter) segment.DualIter { return dualFromRating{it: it} }

func (d dualFromRating) Next() (segment.DualSegment, bool) {
	s, ok := d.it.Next()
	if !ok {
		return segment.DualSegment{}, false
	}
	return segment.DualSegment{End: s.End, Data: segment.DualInfo{Rating: s.Data}}, true
}

// alignSplit implements spec.md §4.F's split mode as a line-by-line
// dynamic program over the candidate-offset axis. For each line i and
// every candidate offset tau, the predecessor line either shares tau
// exactly (no split, no cost) or settles on its own best offset at or
// below tau (a split, charged SplitPenalty); the pointwise maximum of
// those two branches — running maximum for the split side, so the
// monotonicity constraint holds by construction — is joined with the
// line's own contribution. The branch winner's offset info records the
// predecessor's chosen offset at every tau, which is what the
// traceback reads back out.
func alignSplit(lines []segment.Span, videoRating, subtitleRating segment.RatingBuffer, opts Options) ([]timing.TimeDelta, error) {
	n := len(lines)

	// history[i] holds C_i: the best total rating through line i when
	// line i sits at each candidate offset, with the offset track
	// recording line i-1's chosen offset. history[0]'s offset track is
	// the identity and is never read back.
	history := make([]segment.DualBuffer, n)

	var prevRatings segment.RatingBuffer
	for i, line := range lines {
		contribution := lineContribution(videoRating, subtitleRating, line.Start, opts.TauMin, opts.TauMax)

		var pred segment.DualIter
		if i == 0 {
			pred = identityAccumulator(opts.TauMin, opts.TauMax).Iter()
		} else {
			// Split branch: the previous line takes its own best offset at
			// or below this one's, paying the penalty; the running maximum
			// remembers which offset that was.
			runBest := segment.LeftToRightMaximum(opts.TauMin,
				dragOver(prevRatings, opts.TauMin, opts.TauMax))
			split := addRatingDual{it: segment.DiscardStartTimesDual(runBest), delta: -opts.SplitPenalty}

			// No-split branch: the previous line shares this line's offset
			// exactly, at no cost; the dragging identity offset makes the
			// traced predecessor offset equal tau itself.
			stay := segment.DiscardStartTimesDual(dragOver(prevRatings, opts.TauMin, opts.TauMax))

			// Ties go to the split branch, whose running maximum records
			// the earliest offset attaining the predecessor's best — so
			// indistinguishable candidates resolve to the same offset the
			// predecessor would pick on its own.
			combined := segment.CombinedMaximumOfDualIterators(opts.TauMin, split, stay)
			pred = segment.DiscardStartTimesDual(combined)
		}

		c := segment.AddRatingsFrom(opts.TauMin, pred, contribution.Iter())
		buf := segment.SaveDuals(opts.TauMin, segment.DiscardStartTimesDual(c))
		history[i] = buf
		prevRatings = segment.SaveSimplified(opts.TauMin, segment.OnlyRatings(buf.Iter()))
	}

	offsets := make([]timing.TimeDelta, n)
	_, offsets[n-1] = nearestToZeroMaximum(prevRatings)
	for i := n - 1; i >= 1; i-- {
		_, offsets[i-1] = history[i].ValueAt(offsets[i])
	}
	return offsets, nil
}

// dragOver pairs a rating signal with a dragging identity offset track
// over [tauMin, tauMax), so a running maximum over it records argmax
// points as offsets.
func dragOver(ratings segment.RatingBuffer, tauMin, tauMax timing.TimeDelta) segment.FullDualIter {
	return segment.AddRatingsFrom(tauMin, identityAccumulator(tauMin, tauMax).Iter(), ratings.Iter())
}

// addRatingDual shifts every segment's rating by a constant, leaving
// slopes and offsets untouched — the dual-signal counterpart of
// segment.AddRating, local to the engine since nothing else needs it.
type addRatingDual struct {
	it    segment.DualIter
	delta timing.RatingDelta
}

func (a addRatingDual) Next() (segment.DualSegment, bool) {
	s, ok := a.it.Next()
	if !ok {
		return segment.DualSegment{}, false
	}
	s.Data.Rating.Rating += timing.Rating(a.delta)
	return s, true
}

// identityAccumulator builds C_0: zero rating everywhere, offset
// dragging at unit slope starting at tauMin, so that before any line
// has joined, "the offset recorded at point tau" is simply tau itself.
func identityAccumulator(tauMin, tauMax timing.TimeDelta) segment.DualBuffer {
	return segment.DualBuffer{
		Start: tauMin,
		Segs: []segment.DualSegment{{
			End: tauMax,
			Data: segment.DualInfo{
				Rating: segment.RatingInfo{},
				Offset: segment.OffsetInfo{Offset: tauMin, Drag: true},
			},
		}},
	}
}
