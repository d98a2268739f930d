package subtitle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alignsub/internal/timing"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,500
Hello there.

2
00:00:05,250 --> 00:00:07,000
Multi-line
cue text.
`

func TestParseReadsCuesInOrder(t *testing.T) {
	lines, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, 1, lines[0].Index)
	assert.Equal(t, timing.TimeDelta(1000), lines[0].Start)
	assert.Equal(t, timing.TimeDelta(4500), lines[0].End)
	assert.Equal(t, "Hello there.", lines[0].Text)

	assert.Equal(t, timing.TimeDelta(5250), lines[1].Start)
	assert.Equal(t, timing.TimeDelta(7000), lines[1].End)
	assert.Equal(t, "Multi-line\ncue text.", lines[1].Text)
}

func TestParseRejectsMalformedTimecode(t *testing.T) {
	bad := "1\nnot a timecode\ntext\n"
	_, err := Parse(strings.NewReader(bad))
	assert.ErrorIs(t, err, ErrFailedToGenerateSubtitleData)
}

func TestWriteRoundTrips(t *testing.T) {
	lines, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, Lines(lines).Write(&buf))

	reparsed, err := Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, reparsed, 2)
	assert.Equal(t, lines[0].Start, reparsed[0].Start)
	assert.Equal(t, lines[0].End, reparsed[0].End)
	assert.Equal(t, lines[0].Text, reparsed[0].Text)
	assert.Equal(t, lines[1].Text, reparsed[1].Text)
}

func TestApplyOffsetsShiftsEveryLine(t *testing.T) {
	lines, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)

	shifted, err := ApplyOffsets(Lines(lines), []timing.TimeDelta{500, -250})
	require.NoError(t, err)
	assert.Equal(t, timing.TimeDelta(1500), shifted[0].Start)
	assert.Equal(t, timing.TimeDelta(5000), shifted[0].End)
	assert.Equal(t, timing.TimeDelta(5000), shifted[1].Start)
	assert.Equal(t, timing.TimeDelta(6750), shifted[1].End)
}

func TestApplyOffsetsRejectsCountMismatch(t *testing.T) {
	lines, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	_, err = ApplyOffsets(Lines(lines), []timing.TimeDelta{500})
	assert.ErrorIs(t, err, ErrFailedToUpdateSubtitle)
}

func TestSpansMatchesParsedTimes(t *testing.T) {
	lines, err := Parse(strings.NewReader(sampleSRT))
	require.NoError(t, err)
	spans := Lines(lines).Spans()
	require.Len(t, spans, 2)
	assert.Equal(t, timing.TimeDelta(1000), spans[0].Start)
	assert.Equal(t, timing.TimeDelta(4500), spans[0].End)
}
