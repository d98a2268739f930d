package segment

// AddRatingsFrom walks a dual signal and a rating signal in lockstep,
// summing ratings (and slopes) wherever they overlap while keeping the
// dual signal's offset data. Both signals must share the same start
// point. The result re-splits at every boundary present in either
// input, so its segments are generally shorter than either input's.
func AddRatingsFrom(start Point, dual DualIter, rating RatingIter) FullDualIter {
	seg1, ok1 := dual.Next()
	seg2, ok2 := rating.Next()
	if !ok1 {
		panic("segment: AddRatingsFrom: dual iterator has no elements")
	}
	if !ok2 {
		panic("segment: AddRatingsFrom: rating iterator has no elements")
	}

	segmentStart := start
	finished := false
	var stored *DualFullSegment

	generate := func(end Point) DualFullSegment {
		return DualFullSegment{
			Span: NewSpan(segmentStart, end),
			Data: DualInfo{
				Rating: AddRatingInfo(seg1.Data.Rating, seg2.Data),
				Offset: seg1.Data.Offset,
			},
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
			result = generate(seg1.End)
			segmentStart = seg1.End
			next, ok := dual.Next()
			if !ok {
				panic("segment: AddRatingsFrom: dual iterator ended before rating iterator")
			}
			seg1 = next
			seg2.advance(length)
		case seg2.End < seg1.End:
			length := seg2.End - segmentStart
			result = generate(seg2.End)
			segmentStart = seg2.End
			seg1.advance(length)
			next, ok := rating.Next()
			if !ok {
				panic("segment: AddRatingsFrom: rating iterator ended before dual iterator")
			}
			seg2 = next
		default:
			n1, ok1 := dual.Next()
			n2, ok2 := rating.Next()
			switch {
			case ok1 && ok2:
				result = generate(seg1.End)
				segmentStart = seg1.End
				seg1, seg2 = n1, n2
			case ok1 && !ok2:
				panic("segment: AddRatingsFrom: rating iterator ended before dual iterator")
			case !ok1 && ok2:
				panic("segment: AddRatingsFrom: dual iterator ended before rating iterator")
			default:
				result = generate(seg1.End)
				finished = true
			}
		}
		return result, true
	})
}
