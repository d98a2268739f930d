package rating

import (
	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

// VadRatingConfig controls how a per-frame voice-activity probability is
// converted into a rating: VoiceRating rewards frames at or above
// Threshold, SilenceRating (typically zero or small and negative)
// applies below it.
type VadRatingConfig struct {
	Threshold     float64
	VoiceRating   timing.RatingDelta
	SilenceRating timing.RatingDelta
}

// BuildVadRating turns a per-frame probability timeline into a rating
// signal: one flat segment per frame, voiced or not, coalesced with the
// exact simplification pass and then reduced with
// SaveAggressivelySimplified(epsilon) per spec.md §4.E — a full-length
// video's VAD output would otherwise carry one segment per frame all
// the way through the alignment engine.
func BuildVadRating(prob []float64, frameMs timing.TimeDelta, cfg VadRatingConfig, epsilon timing.RatingDelta) segment.RatingBuffer {
	if len(prob) == 0 {
		panic("rating: BuildVadRating: empty probability timeline")
	}

	segs := make([]segment.RatingSegment, len(prob))
	cur := timing.TimeDelta(0)
	for i, p := range prob {
		cur += frameMs
		r := timing.Rating(cfg.SilenceRating)
		if p >= cfg.Threshold {
			r = timing.Rating(cfg.VoiceRating)
		}
		segs[i] = segment.RatingSegment{End: cur, Data: segment.RatingInfo{Rating: r}}
	}

	simplified := segment.SaveSimplified(0, &rawRatingIter{segs: segs})
	if epsilon <= 0 {
		return simplified
	}
	return segment.SaveAggressivelySimplified(simplified.Start, simplified.Iter(), epsilon)
}
