// Package segment implements the piecewise-linear signal algebra: lazy
// pull-iterator pipelines over ordered runs of linear segments, plus the
// immutable buffers that materialize them. It is the substrate the
// alignment engine (package align) expresses its entire computation on.
//
// A Signal is a start point plus a non-empty ordered sequence of
// segments whose ends strictly increase; the first segment starts at
// start, each subsequent segment starts where the previous one ended.
// Two segments data variants are used: RatingInfo (a linear rating with
// slope) and OffsetInfo (a candidate time offset, optionally "dragging"
// at unit slope). DualInfo carries both over the same span, used while
// the alignment engine needs to remember which candidate offset a
// rating maximum came from.
package segment

import "alignsub/internal/timing"

// Point is a position on the timeline; PointDiff is a difference of two
// points. Both are plain TimeDelta — the distinction is in how a value
// is used, not its type.
type Point = timing.TimeDelta
type PointDiff = timing.TimeDelta

// Span is a half-open interval [Start, End) with Start < End.
type Span struct {
	Start Point
	End   Point
}

// NewSpan builds a Span, panicking if it would be empty or inverted —
// the algebra's invariant is that no segment may have zero or negative
// length.
func NewSpan(start, end Point) Span {
	if !(start < end) {
		panic("segment: span start must be before end")
	}
	return Span{Start: start, End: end}
}

// Len returns End - Start.
func (s Span) Len() PointDiff { return s.End - s.Start }

// Half returns the span's midpoint, used as the pivot in aggressive
// simplification.
func (s Span) Half() Point { return timing.Half(s.Start, s.End) }

// OffsetInfo is a candidate time offset. If Drag is false the offset is
// constant across the segment; if true it increases by one unit of time
// per unit of time elapsed (an identity slope), used to track "the
// winning offset at every point" through a running maximum.
type OffsetInfo struct {
	Offset Point
	Drag   bool
}

// ConstantOffset builds a non-dragging OffsetInfo.
func ConstantOffset(offset Point) OffsetInfo { return OffsetInfo{Offset: offset} }

// StartOffset returns the offset at the segment's start.
func (o OffsetInfo) StartOffset() Point { return o.Offset }

// EndOffset returns the offset at the segment's last included point,
// span_length-1 units after the start.
func (o OffsetInfo) EndOffset(spanLen PointDiff) Point {
	if o.Drag {
		return o.Offset + spanLen - 1
	}
	return o.Offset
}

// ExclusiveEndOffset returns the offset one unit past the segment's end,
// i.e. the value the next abutting segment must start at to simplify
// cleanly with this one.
func (o OffsetInfo) ExclusiveEndOffset(spanLen PointDiff) Point {
	if o.Drag {
		return o.Offset + spanLen
	}
	return o.Offset
}

func (o OffsetInfo) advancedOffset(dt PointDiff) Point {
	if o.Drag {
		return o.Offset + dt
	}
	return o.Offset
}

// Advanced returns the OffsetInfo as it would read after dt elapses
// within the same segment (used when a segment is split mid-way).
func (o OffsetInfo) Advanced(dt timing.TimeDelta) OffsetInfo {
	if !o.Drag {
		return o
	}
	return OffsetInfo{Offset: o.Offset + dt, Drag: true}
}

func (o *OffsetInfo) advance(dt timing.TimeDelta) {
	if o.Drag {
		o.Offset += dt
	}
}

// RatingInfo is a linear rating: Rating at the segment start plus a
// per-unit-time slope Delta. RatingAt(t) = Rating + Delta*(t-start).
type RatingInfo struct {
	Rating timing.Rating
	Delta  timing.RatingDelta
}

// ConstantRating builds a zero-slope RatingInfo.
func ConstantRating(r timing.Rating) RatingInfo { return RatingInfo{Rating: r} }

// GetAt returns the rating after len time units have elapsed since the
// segment's start.
func (r RatingInfo) GetAt(length timing.TimeDelta) timing.Rating {
	return timing.AddMul(r.Rating, r.Delta, length)
}

func (r RatingInfo) advanced(length timing.TimeDelta) RatingInfo {
	return RatingInfo{Rating: r.GetAt(length), Delta: r.Delta}
}

func (r *RatingInfo) advance(length timing.TimeDelta) {
	r.Rating = r.GetAt(length)
}

// StartRating returns the rating at the segment's start.
func (r RatingInfo) StartRating() timing.Rating { return r.Rating }

// EndRating returns the rating at the segment's last included point.
func (r RatingInfo) EndRating(length timing.TimeDelta) timing.Rating {
	return timing.AddMul(r.Rating, r.Delta, length-1)
}

// ExclusiveEndRating returns the rating one unit past the segment's end.
func (r RatingInfo) ExclusiveEndRating(length timing.TimeDelta) timing.Rating {
	return timing.AddMul(r.Rating, r.Delta, length)
}

// AddRatingInfo adds two RatingInfo values: ratings and slopes both add.
func AddRatingInfo(a, b RatingInfo) RatingInfo {
	return RatingInfo{Rating: a.Rating + b.Rating, Delta: a.Delta + b.Delta}
}

// DualInfo carries both a rating and an offset over the same span.
type DualInfo struct {
	Rating RatingInfo
	Offset OffsetInfo
}

func (d DualInfo) advanced(length timing.TimeDelta) DualInfo {
	return DualInfo{Rating: d.Rating.advanced(length), Offset: d.Offset.Advanced(length)}
}

// Segment is one piece of a signal, carrying only its end point; the
// start is implied by the previous segment's end (or the signal start
// for the first segment).
type Segment[D any] struct {
	End  Point
	Data D
}

// FullSegment is a Segment that also carries its span explicitly.
// Conversions between Segment and FullSegment
// (AnnotateWithSegmentStartPoints / DiscardStartTimes) are inverses.
type FullSegment[D any] struct {
	Span Span
	Data D
}

func (s Segment[D]) withStart(start Point) FullSegment[D] {
	return FullSegment[D]{Span: NewSpan(start, s.End), Data: s.Data}
}

func (s FullSegment[D]) discardStart() Segment[D] {
	return Segment[D]{End: s.Span.End, Data: s.Data}
}

// OffsetSegment, RatingSegment, DualSegment, OffsetFullSegment,
// RatingFullSegment and DualFullSegment are defined (not aliased)
// types, since Go does not allow defining new methods on an alias to
// an instantiated generic type. withStart/discardStart are redeclared
// on each so they keep behaving like the generic Segment[D]/
// FullSegment[D] conversions above.
type OffsetSegment Segment[OffsetInfo]
type RatingSegment Segment[RatingInfo]
type DualSegment Segment[DualInfo]
type OffsetFullSegment FullSegment[OffsetInfo]
type RatingFullSegment FullSegment[RatingInfo]
type DualFullSegment FullSegment[DualInfo]

func (s OffsetSegment) withStart(start Point) OffsetFullSegment {
	return OffsetFullSegment{Span: NewSpan(start, s.End), Data: s.Data}
}

func (s OffsetFullSegment) discardStart() OffsetSegment {
	return OffsetSegment{End: s.Span.End, Data: s.Data}
}

func (s OffsetFullSegment) StartOffset() Point { return s.Data.StartOffset() }

func (s OffsetFullSegment) ExclusiveEndOffset() Point {
	return s.Data.ExclusiveEndOffset(s.Span.Len())
}

func (s RatingSegment) withStart(start Point) RatingFullSegment {
	return RatingFullSegment{Span: NewSpan(start, s.End), Data: s.Data}
}

func (s RatingFullSegment) discardStart() RatingSegment {
	return RatingSegment{End: s.Span.End, Data: s.Data}
}

func (s DualSegment) withStart(start Point) DualFullSegment {
	return DualFullSegment{Span: NewSpan(start, s.End), Data: s.Data}
}

func (s DualFullSegment) discardStart() DualSegment {
	return DualSegment{End: s.Span.End, Data: s.Data}
}

// StartRating/EndRating/ExclusiveEndRating convenience accessors for the
// common segment aliases, mirroring the ilass `RatingSegment`/
// `DualSegment` inherent methods.

func (s RatingSegment) StartRating() timing.Rating { return s.Data.StartRating() }
func (s RatingSegment) EndRating(length timing.TimeDelta) timing.Rating {
	return s.Data.EndRating(length)
}

func (s *RatingSegment) advance(length timing.TimeDelta) { s.Data.advance(length) }

func (s DualSegment) StartRating() timing.Rating { return s.Data.Rating.Rating }
func (s DualSegment) StartOffset() Point         { return s.Data.Offset.Offset }

func (s *DualSegment) advance(length timing.TimeDelta) {
	s.Data.Rating.advance(length)
	s.Data.Offset.advance(length)
}

func (s DualSegment) asRatingSegment() RatingSegment {
	return RatingSegment{End: s.End, Data: s.Data.Rating}
}

func (s DualSegment) asOffsetSegment() OffsetSegment {
	return OffsetSegment{End: s.End, Data: s.Data.Offset}
}

func (s DualFullSegment) StartRating() timing.Rating { return s.Data.Rating.Rating }
func (s DualFullSegment) StartOffset() Point         { return s.Data.Offset.Offset }

func (s DualFullSegment) EndRating() timing.Rating {
	return timing.AddMul(s.Data.Rating.Rating, s.Data.Rating.Delta, s.Span.Len()-1)
}

func (s DualFullSegment) ExclusiveEndOffset() Point {
	return s.Data.Offset.ExclusiveEndOffset(s.Span.Len())
}

func (s DualFullSegment) ExclusiveEndRating() timing.Rating {
	return s.Data.Rating.ExclusiveEndRating(s.Span.Len())
}

func (s RatingFullSegment) StartRating() timing.Rating { return s.Data.Rating }
func (s RatingFullSegment) EndRating() timing.Rating {
	return timing.AddMul(s.Data.Rating, s.Data.Delta, s.Span.Len()-1)
}
func (s RatingFullSegment) ExclusiveEndRating() timing.Rating {
	return timing.AddMul(s.Data.Rating, s.Data.Delta, s.Span.Len())
}
