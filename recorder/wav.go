package recorder

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes a captured file. Header fields are zero when the recorder
// left an unreadable header; only Size matters for validation.
type Info struct {
	Size       int64
	Duration   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
}

func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	info := Info{Size: fi.Size()}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return info, fmt.Errorf("%s: not a valid WAV file", path)
	}
	info.SampleRate = int(d.SampleRate)
	info.Channels = int(d.NumChans)
	info.BitDepth = int(d.BitDepth)
	if dur, err := d.Duration(); err == nil {
		info.Duration = dur
	}
	return info, nil
}

// WriteSilence writes a 16-bit mono WAV of the given length.
func WriteSilence(path string, length time.Duration, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n := int(length.Seconds() * float64(rate))
	enc := wav.NewEncoder(f, rate, BitDepth, Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: rate},
		Data:           make([]int, n),
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
