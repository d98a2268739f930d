package segment

import "alignsub/internal/timing"

// Shift moves every segment end point (and the signal's start) forward
// by t, translating the whole signal along the timeline.
func Shift(start Point, it RatingIter, t timing.TimeDelta) (Point, RatingIter) {
	return start + t, ratingIterFunc(func() (RatingSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return RatingSegment{}, false
		}
		s.End += t
		return s, true
	})
}

func ShiftOffset(start Point, it OffsetIter, t timing.TimeDelta) (Point, OffsetIter) {
	return start + t, offsetIterFunc(func() (OffsetSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return OffsetSegment{}, false
		}
		s.End += t
		return s, true
	})
}

func ShiftDual(start Point, it DualIter, t timing.TimeDelta) (Point, DualIter) {
	return start + t, dualIterFunc(func() (DualSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return DualSegment{}, false
		}
		s.End += t
		return s, true
	})
}

// ShiftSimple moves every segment end point forward by t but leaves the
// signal's start point untouched, changing the duration of the first
// segment instead of translating the whole signal.
func ShiftSimple(start Point, it RatingIter, t timing.TimeDelta) (Point, RatingIter) {
	return start, ratingIterFunc(func() (RatingSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return RatingSegment{}, false
		}
		s.End += t
		return s, true
	})
}

// Append adds one more trailing segment ending at endPoint with the
// given data after it is exhausted.
func Append(it RatingIter, endPoint Point, data RatingInfo) RatingIter {
	appended := false
	return ratingIterFunc(func() (RatingSegment, bool) {
		if !appended {
			if s, ok := it.Next(); ok {
				return s, true
			}
			appended = true
			return RatingSegment{End: endPoint, Data: data}, true
		}
		return RatingSegment{}, false
	})
}

func AppendOffset(it OffsetIter, endPoint Point, data OffsetInfo) OffsetIter {
	appended := false
	return offsetIterFunc(func() (OffsetSegment, bool) {
		if !appended {
			if s, ok := it.Next(); ok {
				return s, true
			}
			appended = true
			return OffsetSegment{End: endPoint, Data: data}, true
		}
		return OffsetSegment{}, false
	})
}

// ExtendTo pads a rating signal with a zero-rating, zero-slope segment
// out to endPoint if it does not already reach that far. Every segment
// yielded by it must end at or before endPoint.
func ExtendTo(it RatingIter, endPoint Point) RatingIter {
	extend := true
	return ratingIterFunc(func() (RatingSegment, bool) {
		s, ok := it.Next()
		if ok {
			if s.End > endPoint {
				panic("segment: ExtendTo input already exceeds the target end point")
			}
			if s.End == endPoint {
				extend = false
			}
			return s, true
		}
		if extend {
			extend = false
			return RatingSegment{End: endPoint, Data: RatingInfo{}}, true
		}
		return RatingSegment{}, false
	})
}

// AddRating adds a constant to every segment's rating, leaving slopes
// unchanged — used to apply a flat bonus or penalty across a whole
// signal.
func AddRating(it RatingIter, delta timing.RatingDelta) RatingIter {
	return ratingIterFunc(func() (RatingSegment, bool) {
		s, ok := it.Next()
		if !ok {
			return RatingSegment{}, false
		}
		s.Data.Rating += timing.Rating(delta)
		return s, true
	})
}

// ClampEnd truncates the signal at clamp: every segment's end point is
// capped at min(end, clamp), and nothing past the first segment that
// reaches clamp is emitted (otherwise every later segment would also
// report End==clamp, violating the strictly-increasing-ends invariant).
// Idempotent and commutes with itself, as spec.md §8 requires.
func ClampEnd(it RatingIter, clamp Point) RatingIter {
	done := false
	return ratingIterFunc(func() (RatingSegment, bool) {
		if done {
			return RatingSegment{}, false
		}
		s, ok := it.Next()
		if !ok {
			return RatingSegment{}, false
		}
		if s.End >= clamp {
			s.End = clamp
			done = true
		}
		return s, true
	})
}
