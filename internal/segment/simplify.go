package segment

import (
	"math"

	"alignsub/internal/timing"
)

// SaveSimplified drains it into a RatingBuffer, merging adjacent
// segments that share a slope and whose ratings are continuous across
// the join (the exact, lossless simplification).
func SaveSimplified(start Point, it RatingIter) RatingBuffer {
	full := AnnotateWithSegmentStartPoints(start, it)
	cur, ok := full.Next()
	if !ok {
		panic("segment: cannot simplify an empty rating signal")
	}
	var out []RatingSegment
	for {
		next, ok := full.Next()
		if !ok {
			out = append(out, cur.discardStart())
			return RatingBuffer{Start: start, Segs: out}
		}
		if cur.Data.Delta == next.Data.Delta && cur.ExclusiveEndRating() == next.StartRating() {
			cur.Span.End = next.Span.End
		} else {
			out = append(out, cur.discardStart())
			cur = next
		}
	}
}

// SaveSimplifiedOffsets is SaveSimplified's OffsetBuffer counterpart:
// adjacent segments merge when they share a drag flag and the offset is
// continuous across the join.
func SaveSimplifiedOffsets(start Point, it OffsetIter) OffsetBuffer {
	full := AnnotateWithSegmentStartPointsOffset(start, it)
	cur, ok := full.Next()
	if !ok {
		panic("segment: cannot simplify an empty offset signal")
	}
	var out []OffsetSegment
	for {
		next, ok := full.Next()
		if !ok {
			out = append(out, cur.discardStart())
			return OffsetBuffer{Start: start, Segs: out}
		}
		if cur.Data.Drag == next.Data.Drag && cur.ExclusiveEndOffset() == next.StartOffset() {
			cur.Span.End = next.Span.End
		} else {
			out = append(out, cur.discardStart())
			cur = next
		}
	}
}

// Simplify is the dual-signal analogue of SaveSimplified, but lazy: it
// returns a FullDualIter rather than collecting into a buffer, so a
// pipeline can keep composing before materializing.
func Simplify(start Point, it DualIter) FullDualIter {
	full := AnnotateWithSegmentStartPointsDual(start, it)
	cur, ok := full.Next()
	if !ok {
		return fullDualIterFunc(func() (DualFullSegment, bool) { return DualFullSegment{}, false })
	}
	done := false
	return fullDualIterFunc(func() (DualFullSegment, bool) {
		if done {
			return DualFullSegment{}, false
		}
		for {
			next, ok := full.Next()
			if !ok {
				done = true
				return cur, true
			}
			if cur.Data.Rating.Delta == next.Data.Rating.Delta &&
				cur.Data.Offset.Drag == next.Data.Offset.Drag &&
				cur.ExclusiveEndOffset() == next.StartOffset() &&
				cur.ExclusiveEndRating() == next.StartRating() {
				cur.Span.End = next.Span.End
				continue
			}
			result := cur
			cur = next
			return result, true
		}
	})
}

// interval is a permissible-slope range, expressed as float64 because
// aggressive simplification is an explicit, bounded heuristic rather
// than part of the exact algebra.
type interval struct {
	lo, hi float64
}

func intersectIntervals(a, b interval) interval {
	lo := a.lo
	if b.lo > lo {
		lo = b.lo
	}
	hi := a.hi
	if b.hi < hi {
		hi = b.hi
	}
	return interval{lo: lo, hi: hi}
}

func minMaxDeltaForTarget(targetRating timing.Rating, target Point, pivotRating timing.Rating, pivot Point, maxDiff timing.RatingDelta) interval {
	if target == pivot {
		return interval{lo: math.Inf(-1), hi: math.Inf(1)}
	}
	xDiv := 1.0 / float64(target-pivot)
	minDelta := float64(int64(targetRating)-int64(pivotRating)-int64(maxDiff)) * xDiv
	maxDelta := float64(int64(targetRating)-int64(pivotRating)+int64(maxDiff)) * xDiv
	if minDelta <= maxDelta {
		return interval{lo: minDelta, hi: maxDelta}
	}
	return interval{lo: maxDelta, hi: minDelta}
}

func minMaxDeltaForSegment(seg RatingFullSegment, pivotRating timing.Rating, pivot Point, maxDiff timing.RatingDelta) interval {
	i1 := minMaxDeltaForTarget(seg.StartRating(), seg.Span.Start, pivotRating, pivot, maxDiff)
	i2 := minMaxDeltaForTarget(seg.EndRating(), seg.Span.End-1, pivotRating, pivot, maxDiff)
	return intersectIntervals(i1, i2)
}

// aggregatedSegment tracks the in-progress merge run: the candidate
// segment spanning everything merged so far, its pivot, and the
// offset-interval of slopes that keep every merged point within
// epsilon of a single line through the pivot.
type aggregatedSegment struct {
	seg      RatingFullSegment
	pivot    Point
	interval interval
}

func buildAggregated(seg RatingFullSegment, epsilon timing.RatingDelta) aggregatedSegment {
	pivot := seg.Span.Half()
	pivotRating := seg.Data.GetAt(pivot - seg.Span.Start)
	return aggregatedSegment{
		seg:      seg,
		pivot:    pivot,
		interval: minMaxDeltaForSegment(seg, pivotRating, pivot, epsilon),
	}
}

// SaveAggressivelySimplified drains it into a RatingBuffer using
// epsilon-bounded linear fitting: consecutive segments are merged into
// a single line through a running pivot as long as every original
// sample point stays within epsilon of that line, trading exactness for
// a much smaller buffer. This is the only place in the algebra that
// uses floating point.
func SaveAggressivelySimplified(start Point, it RatingIter, epsilon timing.RatingDelta) RatingBuffer {
	full := AnnotateWithSegmentStartPoints(start, it)
	first, ok := full.Next()
	if !ok {
		panic("segment: cannot simplify an empty rating signal")
	}
	cur := buildAggregated(first, epsilon)
	var out []RatingSegment
	for {
		next, ok := full.Next()
		if !ok {
			out = append(out, cur.seg.discardStart())
			return RatingBuffer{Start: start, Segs: out}
		}
		nextFull := next
		nextFull.Span.Start = cur.seg.Span.End

		pivotDiff := cur.pivot - cur.seg.Span.Start
		pivotRating := cur.seg.Data.GetAt(pivotDiff)
		candidate := minMaxDeltaForSegment(nextFull, pivotRating, cur.pivot, epsilon)
		merged := intersectIntervals(cur.interval, candidate)

		if merged.lo <= merged.hi {
			newDelta := int64((merged.lo + merged.hi) / 2)
			newStart := timing.AddMul(pivotRating, timing.RatingDelta(newDelta), -pivotDiff)
			cur.seg.Span.End = next.Span.End
			cur.seg.Data.Delta = timing.RatingDelta(newDelta)
			cur.seg.Data.Rating = newStart
			cur.interval = merged
		} else {
			out = append(out, cur.seg.discardStart())
			cur = buildAggregated(nextFull, epsilon)
		}
	}
}
