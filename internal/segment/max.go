package segment

import "alignsub/internal/timing"

// CombinedMaximumOfDualIterators walks two dual signals in lockstep and
// yields, at every point, whichever segment carries the higher rating —
// splitting a segment at the point the two lines cross when neither
// dominates the other throughout. Both signals must share the same
// start point.
func CombinedMaximumOfDualIterators(start Point, it1, it2 DualIter) FullDualIter {
	seg1, ok1 := it1.Next()
	seg2, ok2 := it2.Next()
	if !ok1 || !ok2 {
		panic("segment: CombinedMaximumOfDualIterators: both iterators must have at least one element")
	}

	segmentStart := start
	finished := false
	var stored *DualFullSegment

	generate := func(length timing.TimeDelta, end Point) DualFullSegment {
		startRating1 := seg1.Data.Rating.Rating
		startRating2 := seg2.Data.Rating.Rating
		endRating1 := seg1.Data.Rating.EndRating(length)
		endRating2 := seg2.Data.Rating.EndRating(length)

		span := NewSpan(segmentStart, end)

		switch {
		case startRating1 >= startRating2 && endRating1 >= endRating2:
			return DualFullSegment{Span: span, Data: seg1.Data}
		case startRating1 <= startRating2 && endRating1 <= endRating2:
			return DualFullSegment{Span: span, Data: seg2.Data}
		default:
			delta1 := seg1.Data.Rating.Delta
			delta2 := seg2.Data.Rating.Delta
			spoint := timing.DivFloor(timing.RatingDelta(startRating2-startRating1), delta1-delta2) + 1
			if spoint <= 0 || spoint >= length.AsI64() {
				panic("segment: CombinedMaximumOfDualIterators: switch point out of range")
			}
			spointDelta := timing.FromI64(spoint)

			var first, second DualFullSegment
			if startRating1 > startRating2 && endRating1 < endRating2 {
				first = DualFullSegment{Span: NewSpan(segmentStart, segmentStart+spointDelta), Data: seg1.Data}
				second = DualFullSegment{Span: NewSpan(segmentStart+spointDelta, end), Data: seg2.Data.advanced(spointDelta)}
			} else {
				first = DualFullSegment{Span: NewSpan(segmentStart, segmentStart+spointDelta), Data: seg2.Data}
				second = DualFullSegment{Span: NewSpan(segmentStart+spointDelta, end), Data: seg1.Data.advanced(spointDelta)}
			}
			stored = &second
			return first
		}
	}

	return fullDualIterFunc(func() (DualFullSegment, bool) {
		if stored != nil {
			s := *stored
			stored = nil
			return s, true
		}
		if finished {
			return DualFullSegment{}, false
		}

		var result DualFullSegment
		switch {
		case seg1.End < seg2.End:
			length := seg1.End - segmentStart
			result = generate(length, seg1.End)
			segmentStart = seg1.End
			next, ok := it1.Next()
			if !ok {
				panic("segment: CombinedMaximumOfDualIterators: first iterator ended before second")
			}
			seg1 = next
			seg2.advance(length)
		case seg2.End < seg1.End:
			length := seg2.End - segmentStart
			result = generate(length, seg2.End)
			segmentStart = seg2.End
			seg1.advance(length)
			next, ok := it2.Next()
			if !ok {
				panic("segment: CombinedMaximumOfDualIterators: second iterator ended before first")
			}
			seg2 = next
		default:
			n1, ok1 := it1.Next()
			n2, ok2 := it2.Next()
			length := seg1.End - segmentStart
			switch {
			case ok1 && ok2:
				result = generate(length, seg1.End)
				segmentStart = seg1.End
				seg1, seg2 = n1, n2
			case ok1 && !ok2:
				panic("segment: CombinedMaximumOfDualIterators: second iterator ended before first")
			case !ok1 && ok2:
				panic("segment: CombinedMaximumOfDualIterators: first iterator ended before second")
			default:
				result = generate(length, seg1.End)
				finished = true
			}
		}
		return result, true
	})
}

// LeftToRightMaximum scans a dual full-segment stream left to right,
// tracking the best rating seen so far and the offset it came from.
// Wherever the running best exceeds the input, it yields a flat segment
// holding that running best (offset non-dragging, constant). A segment
// that starts at or above the running best and does not rise becomes
// the new best at its start and is likewise yielded flat; a rising
// segment that ends above the running best is yielded with its own
// rating and offset data unchanged (split at the point it first exceeds
// the best when it starts below it), and its last point becomes the new
// best.
func LeftToRightMaximum(start Point, it FullDualIter) FullDualIter {
	bestRating := timing.Rating(0)
	bestAt := start
	var stored *DualFullSegment

	constantAt := func(span Span) DualFullSegment {
		return DualFullSegment{
			Span: span,
			Data: DualInfo{
				Rating: ConstantRating(bestRating),
				Offset: ConstantOffset(bestAt),
			},
		}
	}

	return fullDualIterFunc(func() (DualFullSegment, bool) {
		if stored != nil {
			s := *stored
			stored = nil
			return s, true
		}

		seg, ok := it.Next()
		if !ok {
			return DualFullSegment{}, false
		}

		startRating := seg.StartRating()
		endRating := seg.EndRating()
		startOffset := seg.Data.Offset.Offset
		endOffset := seg.Data.Offset.EndOffset(seg.Span.Len())

		switch {
		case startRating <= bestRating && endRating <= bestRating:
			return constantAt(seg.Span), true
		case startRating >= bestRating:
			if startRating >= endRating {
				bestRating = startRating
				bestAt = startOffset
				return constantAt(seg.Span), true
			}
			bestRating = endRating
			bestAt = endOffset
			return seg, true
		default:
			switchI64 := timing.DivFloor(timing.RatingDelta(bestRating-startRating), seg.Data.Rating.Delta) + 1
			if switchI64 <= 0 || switchI64 >= seg.Span.Len().AsI64() {
				panic("segment: LeftToRightMaximum: switch point out of range")
			}
			switchDelta := timing.FromI64(switchI64)

			seg1 := constantAt(NewSpan(seg.Span.Start, seg.Span.Start+switchDelta))

			bestRating = endRating
			bestAt = endOffset

			seg2 := DualFullSegment{
				Span: NewSpan(seg.Span.Start+switchDelta, seg.Span.End),
				Data: seg.Data.advanced(switchDelta),
			}
			stored = &seg2
			return seg1, true
		}
	})
}
