package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

func TestBuildSubtitleRatingFlatInsideLineGapOutside(t *testing.T) {
	spans := []segment.Span{segment.NewSpan(1000, 2000)}
	cfg := SubtitleRatingConfig{Weight: 5, GapPenalty: 3}

	buf := BuildSubtitleRating(spans, cfg, 0, 3000)

	assertRatingAt(t, buf, 500, timing.Rating(-3))
	assertRatingAt(t, buf, 1500, timing.Rating(5))
	assertRatingAt(t, buf, 2500, timing.Rating(-3))
}

func TestBuildSubtitleRatingRampsBetweenLineAndGap(t *testing.T) {
	spans := []segment.Span{segment.NewSpan(1000, 2000)}
	cfg := SubtitleRatingConfig{Weight: 10, GapPenalty: 10, RampWidth: 100}

	buf := BuildSubtitleRating(spans, cfg, 0, 3000)

	assertRatingAt(t, buf, 950, timing.Rating(-10))
	assertRatingAt(t, buf, 1000, timing.Rating(10))
	assertRatingAt(t, buf, 1999, timing.Rating(10))
	assertRatingAt(t, buf, 2100, timing.Rating(-10))
}

func TestBuildSubtitleRatingShrinksRampForAdjacentLines(t *testing.T) {
	spans := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(1040, 2000),
	}
	cfg := SubtitleRatingConfig{Weight: 10, GapPenalty: 10, RampWidth: 100}

	buf := BuildSubtitleRating(spans, cfg, 0, 2000)

	assertRatingAt(t, buf, 500, timing.Rating(10))
	assertRatingAt(t, buf, 1010, timing.Rating(0))
	assertRatingAt(t, buf, 1500, timing.Rating(10))
}

func TestBuildSubtitleRatingSortsUnorderedSpans(t *testing.T) {
	spans := []segment.Span{
		segment.NewSpan(1000, 1500),
		segment.NewSpan(0, 500),
	}
	cfg := SubtitleRatingConfig{Weight: 4, GapPenalty: 1}

	buf := BuildSubtitleRating(spans, cfg, 0, 2000)

	assertRatingAt(t, buf, 250, timing.Rating(4))
	assertRatingAt(t, buf, 1250, timing.Rating(4))
	assertRatingAt(t, buf, 1750, timing.Rating(-1))
}

func assertRatingAt(t *testing.T, buf segment.RatingBuffer, at timing.TimeDelta, want timing.Rating) {
	t.Helper()
	cur := buf.Start
	for _, seg := range buf.Segs {
		if at < seg.End {
			got := seg.Data.GetAt(at - cur)
			assert.Equal(t, want, got, "rating at %d", at)
			return
		}
		cur = seg.End
	}
	t.Fatalf("point %d outside buffer domain [%d, %d)", at, buf.Start, buf.End())
}
