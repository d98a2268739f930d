package audiosrc

import (
	"encoding/binary"
	"io"
)

// pcmWindowReader turns a raw s16le byte stream into the fixed-size
// []int16 windows audiosrc.Source promises, batching reads instead of
// the one-byte-at-a-time accident spec.md §9 calls out in the
// original ffmpeg_binary.rs (read a big buffer, hand it to the parser
// one i16 at a time regardless of the OS pipe's actual chunking).
// Shared by both backends so the windowing behavior is identical
// whichever one produced the byte stream.
type pcmWindowReader struct {
	r          io.Reader
	windowSize int
	buf        []byte
	total      int
	closeFn    func() error
	closed     bool
}

func newPCMWindowReader(r io.Reader, windowSize, total int, closeFn func() error) *pcmWindowReader {
	return &pcmWindowReader{
		r:          r,
		windowSize: windowSize,
		buf:        make([]byte, windowSize*2),
		total:      total,
		closeFn:    closeFn,
	}
}

// Next reads one window of up to windowSize samples, returning a
// shorter final window if the stream ends mid-window and signaling
// end of stream once nothing more is available.
func (p *pcmWindowReader) Next() ([]int16, bool, error) {
	n, err := io.ReadFull(p.r, p.buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return nil, false, err
		}
		return nil, false, nil
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, false, err
	}

	samples := make([]int16, n/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(p.buf[i*2:]))
	}
	return samples, true, nil
}

func (p *pcmWindowReader) TotalSteps() int { return p.total }

// Finish releases the underlying resource exactly once; safe to call
// more than once, matching spec.md §5's "must release it on any exit
// path" without requiring every caller to track whether it already
// called Finish.
func (p *pcmWindowReader) Finish() error {
	if p.closed || p.closeFn == nil {
		return nil
	}
	p.closed = true
	return p.closeFn()
}
