package audiosrc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

// OpusSource decodes an Ogg-Opus file in-process via
// github.com/thesyncim/gopus, the only pure-Go audio codec the
// retrieval pack carries. Opus decodes natively at 8kHz mono, so no
// resampling step is needed once the container is demuxed — unlike
// FFmpegSource, nothing ever leaves the process.
type OpusSource struct {
	*pcmWindowReader
}

// NewOpusSource demuxes r as an Ogg-Opus stream and starts decoding.
// If the first four bytes aren't an Ogg capture pattern, it returns
// ErrUnsupportedContainer immediately so the caller can retry with
// NewFFmpegSource instead. totalSteps is a best-effort estimate;
// pass 0 if unknown.
//
// Ogg framing itself is the library's job: ogg.NewReader parses pages,
// headers and packet lacing, so this file only adapts its ReadPacket
// into the gopus.PacketSource the streaming decoder consumes.
func NewOpusSource(r io.ReadCloser, totalSteps int) (*OpusSource, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	magic, err := br.Peek(4)
	if err != nil || string(magic) != "OggS" {
		r.Close()
		return nil, ErrUnsupportedContainer
	}

	oggReader, err := ogg.NewReader(br)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	decoded, err := gopus.NewReader(gopus.DefaultDecoderConfig(SampleRate, Channels), &oggPacketSource{r: oggReader}, gopus.FormatInt16LE)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	return &OpusSource{pcmWindowReader: newPCMWindowReader(decoded, WindowSize, totalSteps, r.Close)}, nil
}

// oggPacketSource adapts ogg.Reader.ReadPacket (packet, granule
// position, error) to gopus.PacketReader's ReadPacketInto
// (n, granule position, error).
type oggPacketSource struct {
	r *ogg.Reader
}

func (o *oggPacketSource) ReadPacketInto(dst []byte) (int, uint64, error) {
	packet, granulePos, err := o.r.ReadPacket()
	if err != nil {
		return 0, granulePos, err
	}
	return copy(dst, packet), granulePos, nil
}
