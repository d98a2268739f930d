package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alignsub/internal/rating"
	"alignsub/internal/segment"
	"alignsub/internal/timing"
)

func flatVideoRating(bounds []timing.TimeDelta, ratings []timing.Rating) segment.RatingBuffer {
	segs := make([]segment.RatingSegment, 0, len(bounds))
	for i, b := range bounds {
		segs = append(segs, segment.RatingSegment{End: b, Data: segment.RatingInfo{Rating: ratings[i]}})
	}
	var raw rawIter
	raw.segs = segs
	return segment.SaveSimplified(0, &raw)
}

type rawIter struct {
	segs []segment.RatingSegment
	pos  int
}

func (r *rawIter) Next() (segment.RatingSegment, bool) {
	if r.pos >= len(r.segs) {
		return segment.RatingSegment{}, false
	}
	s := r.segs[r.pos]
	r.pos++
	return s, true
}

// Scenario 1 (spec.md §8): two lines, VAD high at [500,1500) and
// [2500,3500); no-split mode must return tau = 500.
func TestAlignNoSplitScenario1(t *testing.T) {
	video := flatVideoRating(
		[]timing.TimeDelta{500, 1500, 2500, 3500, 4000},
		[]timing.Rating{-1, 10, -1, 10, -1},
	)
	lines := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(2000, 3000),
	}
	offsets, err := Align(lines, video, Options{TauMin: -2000, TauMax: 2000})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Equal(t, timing.TimeDelta(500), offsets[0])
	assert.Equal(t, timing.TimeDelta(500), offsets[1])
}

// Scenario 2 (spec.md §8): a single line against an all-zero video
// rating must return tau = 0, the minimal-correction tie-break.
func TestAlignNoSplitScenario2ZeroTieBreak(t *testing.T) {
	video := flatVideoRating([]timing.TimeDelta{5000}, []timing.Rating{0})
	lines := []segment.Span{segment.NewSpan(0, 1000)}
	offsets, err := Align(lines, video, Options{TauMin: -1000, TauMax: 1000})
	require.NoError(t, err)
	require.Len(t, offsets, 1)
	assert.Equal(t, timing.TimeDelta(0), offsets[0])
}

func TestAlignRejectsEmptyLines(t *testing.T) {
	video := flatVideoRating([]timing.TimeDelta{1000}, []timing.Rating{0})
	_, err := Align(nil, video, Options{TauMin: -10, TauMax: 10})
	assert.ErrorIs(t, err, ErrNoLines)
}

func TestAlignRejectsInvalidRange(t *testing.T) {
	video := flatVideoRating([]timing.TimeDelta{1000}, []timing.Rating{0})
	lines := []segment.Span{segment.NewSpan(0, 100)}
	_, err := Align(lines, video, Options{TauMin: 10, TauMax: 10})
	assert.Error(t, err)
}

// Scenario 3 (spec.md §8): two lines with independent speech windows.
// With p_split = 0 the engine should track each line's own local
// optimum; with a very large penalty both offsets collapse to a single
// shared shift.
func TestAlignSplitModeConvergesUnderLargePenalty(t *testing.T) {
	video := flatVideoRating(
		[]timing.TimeDelta{200, 1200, 10500, 11500, 12000},
		[]timing.Rating{-1, 10, -1, 10, -1},
	)
	lines := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(10000, 11000),
	}

	free, err := Align(lines, video, Options{TauMin: -1000, TauMax: 2000, Split: true, SplitPenalty: 0})
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, timing.TimeDelta(200), free[0])
	assert.Equal(t, timing.TimeDelta(500), free[1])

	locked, err := Align(lines, video, Options{TauMin: -1000, TauMax: 2000, Split: true, SplitPenalty: 1_000_000})
	require.NoError(t, err)
	require.Len(t, locked, 2)
	assert.Equal(t, locked[0], locked[1])
	assert.Equal(t, timing.TimeDelta(500), locked[0], "the shared shift is where the summed evidence peaks")
}

// With three lines the traceback has to thread through an intermediate
// accumulator: each line's offset must come from its own predecessor
// record, not the final line's.
func TestAlignSplitTracesBackThroughThreeLines(t *testing.T) {
	video := flatVideoRating(
		[]timing.TimeDelta{300, 1300, 5300, 6300, 10800, 11800, 12000},
		[]timing.Rating{-1, 10, -1, 10, -1, 10, -1},
	)
	lines := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(5000, 6000),
		segment.NewSpan(10000, 11000),
	}

	offsets, err := Align(lines, video, Options{TauMin: -1000, TauMax: 2000, Split: true, SplitPenalty: 0})
	require.NoError(t, err)
	require.Len(t, offsets, 3)
	assert.Equal(t, timing.TimeDelta(300), offsets[0])
	assert.Equal(t, timing.TimeDelta(300), offsets[1])
	assert.Equal(t, timing.TimeDelta(800), offsets[2])
}

// Split-mode offsets must never decrease from one line to the next,
// whatever the evidence says.
func TestAlignSplitOffsetsAreMonotonic(t *testing.T) {
	// Voice for the second line sits EARLIER relative to its cue than the
	// first line's: the unconstrained optima would be (500, -300).
	video := flatVideoRating(
		[]timing.TimeDelta{500, 1500, 9700, 10700, 12000},
		[]timing.Rating{-1, 10, -1, 10, -1},
	)
	lines := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(10000, 11000),
	}
	offsets, err := Align(lines, video, Options{TauMin: -1000, TauMax: 2000, Split: true, SplitPenalty: 0})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.LessOrEqual(t, offsets[0], offsets[1])
}

// A line whose probe window lies entirely past the video signal's end
// contributes nothing instead of blowing up the windowing.
func TestAlignToleratesLineBeyondSignalEnd(t *testing.T) {
	video := flatVideoRating(
		[]timing.TimeDelta{500, 1500, 2000},
		[]timing.Rating{-1, 10, -1},
	)
	lines := []segment.Span{
		segment.NewSpan(0, 1000),
		segment.NewSpan(500_000, 501_000),
	}
	offsets, err := Align(lines, video, Options{TauMin: -1000, TauMax: 1000})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Equal(t, timing.TimeDelta(500), offsets[0])
}

// Clamp scenario (spec.md §8): a contribution restricted to a window
// narrower than the source signal must end exactly at the clamp point.
func TestLineContributionClampsToWindow(t *testing.T) {
	video := flatVideoRating([]timing.TimeDelta{10000}, []timing.Rating{5})
	flatTemplate := flatVideoRating([]timing.TimeDelta{10000}, []timing.Rating{0})
	contribution := lineContribution(video, flatTemplate, 0, 0, 5000)
	assert.Equal(t, timing.TimeDelta(5000), contribution.End())
}

// A non-flat subtitle template must move the winning offset away from
// where the video signal alone would put it, proving BuildSubtitleRating's
// output actually reaches the accumulator instead of sitting unused.
func TestAlignFoldsSubtitleTemplateIntoContribution(t *testing.T) {
	video := flatVideoRating(
		[]timing.TimeDelta{100, 400, 700, 1000},
		[]timing.Rating{0, 10, 0, 11},
	)
	lines := []segment.Span{segment.NewSpan(0, 500)}

	plain, err := Align(lines, video, Options{TauMin: 0, TauMax: 1000})
	require.NoError(t, err)
	assert.Equal(t, timing.TimeDelta(700), plain[0], "video alone favors the higher-rated window at 700")

	shaped, err := Align(lines, video, Options{
		TauMin: 0, TauMax: 1000,
		SubtitleRating: rating.SubtitleRatingConfig{Weight: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, timing.TimeDelta(100), shaped[0], "the line's own template now outweighs the video-only winner")
}
