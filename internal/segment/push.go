package segment

import "alignsub/internal/timing"

// SaveSeparate materializes a dual signal into its rating and offset
// halves independently: the rating half is aggressively simplified
// (epsilon-bounded) and then exactly re-simplified, the offset half
// only exactly simplified. Splitting this way lets a caller inspect the
// winning ratings and the winning offsets of a running-maximum result
// without re-walking the combined stream twice at full resolution.
func SaveSeparate(start Point, it DualIter, epsilon timing.RatingDelta) SeparateDualBuffer {
	ratings := CollectDuals(it)
	if len(ratings) == 0 {
		panic("segment: cannot save an empty dual signal")
	}

	ratingIt := OnlyRatings(&sliceDualIter{segs: ratings})
	offsetIt := OnlyOffsets(&sliceDualIter{segs: ratings})

	aggressive := SaveAggressivelySimplified(start, ratingIt, epsilon)
	ratingBuf := SaveSimplified(aggressive.Start, aggressive.Iter())
	offsetBuf := SaveSimplifiedOffsets(start, offsetIt)

	return SeparateDualBuffer{Rating: ratingBuf, Offset: offsetBuf}
}
