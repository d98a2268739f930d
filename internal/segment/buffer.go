package segment

import "alignsub/internal/timing"

// RatingBuffer, OffsetBuffer and DualBuffer are materialized signals: a
// start point plus the ordered, non-empty slice of segments that follow
// it. They are immutable once built — every transform in this package
// returns a new buffer or a new lazy iterator rather than mutating one
// in place, matching the original's functional pipeline style.
type RatingBuffer struct {
	Start Point
	Segs  []RatingSegment
}

type OffsetBuffer struct {
	Start Point
	Segs  []OffsetSegment
}

type DualBuffer struct {
	Start Point
	Segs  []DualSegment
}

// SeparateDualBuffer is the result of splitting a DualBuffer into its
// rating and offset components, produced by SaveSeparate when a
// push-iterator pipeline needs both halves materialized independently
// (e.g. to inspect the winning ratings and the winning offsets without
// re-walking the combined stream).
type SeparateDualBuffer struct {
	Rating RatingBuffer
	Offset OffsetBuffer
}

// End returns the buffer's last segment's end point.
func (b RatingBuffer) End() Point { return b.Segs[len(b.Segs)-1].End }
func (b OffsetBuffer) End() Point { return b.Segs[len(b.Segs)-1].End }
func (b DualBuffer) End() Point   { return b.Segs[len(b.Segs)-1].End }

// Iter returns a fresh pull iterator over the buffer's segments.
func (b RatingBuffer) Iter() RatingIter { return &sliceRatingIter{segs: b.Segs} }
func (b OffsetBuffer) Iter() OffsetIter { return &sliceOffsetIter{segs: b.Segs} }
func (b DualBuffer) Iter() DualIter     { return &sliceDualIter{segs: b.Segs} }

// FullIter returns a pull iterator yielding each segment's full span.
func (b RatingBuffer) FullIter() FullRatingIter {
	return AnnotateWithSegmentStartPoints(b.Start, b.Iter())
}

func (b DualBuffer) FullIter() FullDualIter {
	return AnnotateWithSegmentStartPointsDual(b.Start, b.Iter())
}

// Maximum returns the largest rating attained anywhere in the signal
// and the earliest point at which it is attained, mirroring
// RatingBuffer::maximum() in the original: scan every segment,
// comparing both endpoints since a linear segment's extremum is always
// at one of its two ends.
func (b RatingBuffer) Maximum() (timing.Rating, Point) {
	cur := b.Start
	best := b.Segs[0].StartRating()
	bestAt := cur
	for _, seg := range b.Segs {
		length := seg.End - cur
		start := seg.StartRating()
		if start > best {
			best = start
			bestAt = cur
		}
		end := seg.EndRating(length)
		if end > best {
			best = end
			bestAt = cur + length - 1
		}
		cur = seg.End
	}
	return best, bestAt
}

// RestrictStart rebuilds the buffer so it starts exactly at newStart:
// segments entirely before newStart are dropped, the segment straddling
// newStart has its data recomputed as if it began there, and if
// newStart lies before the buffer's own start the gap is filled with a
// zero-rating, zero-slope segment. This is the "restricted to [..]"
// operation spec.md §4.F uses to window the video rating signal around
// a subtitle line before correlating it against candidate offsets.
func (b RatingBuffer) RestrictStart(newStart Point) RatingBuffer {
	if newStart < b.Start {
		segs := make([]RatingSegment, 0, len(b.Segs)+1)
		segs = append(segs, RatingSegment{End: b.Start, Data: RatingInfo{}})
		segs = append(segs, b.Segs...)
		return RatingBuffer{Start: newStart, Segs: segs}
	}
	cur := b.Start
	for i, seg := range b.Segs {
		if seg.End <= newStart {
			cur = seg.End
			continue
		}
		dt := newStart - cur
		newSegs := make([]RatingSegment, 0, len(b.Segs)-i)
		newSegs = append(newSegs, RatingSegment{End: seg.End, Data: seg.Data.advanced(dt)})
		newSegs = append(newSegs, b.Segs[i+1:]...)
		return RatingBuffer{Start: newStart, Segs: newSegs}
	}
	panic("segment: RestrictStart: newStart at or beyond buffer end")
}

// ValueAt returns the dual signal's rating and offset at point t.
func (b DualBuffer) ValueAt(t Point) (timing.Rating, Point) {
	cur := b.Start
	for _, seg := range b.Segs {
		if t < seg.End {
			dt := t - cur
			return seg.Data.Rating.GetAt(dt), seg.Data.Offset.Advanced(dt).Offset
		}
		cur = seg.End
	}
	panic("segment: ValueAt: t out of range")
}

// MaximumRating scans a dual signal for its largest rating and the
// earliest point that attains it, mirroring RatingBuffer.Maximum for
// the dual case, reading off the best achievable score without
// discarding the offset track.
func (b DualBuffer) MaximumRating() (timing.Rating, Point) {
	cur := b.Start
	best := b.Segs[0].StartRating()
	bestAt := cur
	for _, seg := range b.Segs {
		length := seg.End - cur
		start := seg.StartRating()
		if start > best {
			best = start
			bestAt = cur
		}
		end := seg.Data.Rating.EndRating(length)
		if end > best {
			best = end
			bestAt = cur + length - 1
		}
		cur = seg.End
	}
	return best, bestAt
}

// SaveRatings drains it into a RatingBuffer starting at start. it must
// yield at least one segment.
func SaveRatings(start Point, it RatingIter) RatingBuffer {
	segs := CollectRatings(it)
	if len(segs) == 0 {
		panic("segment: cannot save an empty rating signal")
	}
	return RatingBuffer{Start: start, Segs: segs}
}

func SaveOffsets(start Point, it OffsetIter) OffsetBuffer {
	segs := CollectOffsets(it)
	if len(segs) == 0 {
		panic("segment: cannot save an empty offset signal")
	}
	return OffsetBuffer{Start: start, Segs: segs}
}

func SaveDuals(start Point, it DualIter) DualBuffer {
	segs := CollectDuals(it)
	if len(segs) == 0 {
		panic("segment: cannot save an empty dual signal")
	}
	return DualBuffer{Start: start, Segs: segs}
}

// OnlyRatings and OnlyOffsets project a DualIter down to one of its two
// components, discarding the other.
func OnlyRatings(it DualIter) RatingIter {
	return ratingIterFunc(func() (RatingSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return RatingSegment{}, false
		}
		return s.asRatingSegment(), true
	})
}

func OnlyOffsets(it DualIter) OffsetIter {
	return offsetIterFunc(func() (OffsetSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return OffsetSegment{}, false
		}
		return s.asOffsetSegment(), true
	})
}
