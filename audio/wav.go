package audio

import (
	"errors"
	"io"

	"github.com/go-audio/wav"
	"github.com/mdobak/go-xerrors"
)

var ErrInvalidWav = errors.New("not a readable wav file")

// Samples is a mono buffer normalised to [-1, 1].
type Samples struct {
	Data       []float64
	SampleRate int
}

func (s Samples) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Data)) / float64(s.SampleRate)
}

// DecodeWav reads PCM wav data and keeps the first channel.
func DecodeWav(r io.ReadSeeker) (Samples, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Samples{}, ErrInvalidWav
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Samples{}, xerrors.New(ErrInvalidWav, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 || d.BitDepth == 0 {
		return Samples{}, ErrInvalidWav
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (d.BitDepth - 1))
	if d.BitDepth == 8 {
		scale = 128
	}

	data := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		v := buf.Data[i]
		if d.BitDepth == 8 {
			// 8 bit wav is unsigned
			v -= 128
		}
		data = append(data, float64(v)/scale)
	}
	return Samples{Data: data, SampleRate: buf.Format.SampleRate}, nil
}
