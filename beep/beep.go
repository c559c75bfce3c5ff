// Package beep plays short audio cues when recording starts, stops or fails.
// Tones are rendered once to WAV files and played by an external player.
package beep

import (
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"hark/log"
)

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var ErrNoPlayer = errors.New("no audio player found")

type Cue int

const (
	Start Cue = iota
	End
	Error
)

func (c Cue) name() string {
	switch c {
	case Start:
		return "start"
	case End:
		return "end"
	}
	return "error"
}

func (c Cue) samples() []int {
	switch c {
	case Start:
		return generateTick(startFreq, 0.2, startVolume, startDecay)
	case End:
		return generateTick(endFreq, 0.2, endVolume, endDecay)
	}
	return generateDoubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

func generateTick(freq, duration, volume, decay float64) []int {
	n := int(float64(sampleRate) * duration)
	samples := make([]int, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(freq, beepDur, gapDur, volume, decay float64) []int {
	beep := generateTick(freq, beepDur, volume, decay)
	gap := make([]int, int(float64(sampleRate)*gapDur))
	result := make([]int, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

// WriteCue renders c as a 16-bit mono WAV.
func WriteCue(path string, c Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           c.samples(),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// Player plays cue files with the first available player command.
type Player struct {
	Dir     string
	Players [][]string

	once  sync.Once
	argv  []string
	files map[Cue]string
	err   error
}

func NewPlayer(dir string) *Player {
	return &Player{Dir: dir, Players: defaultPlayers}
}

func (p *Player) init() {
	for _, cand := range p.Players {
		if _, err := exec.LookPath(cand[0]); err == nil {
			p.argv = cand
			break
		}
	}
	if p.argv == nil {
		p.err = ErrNoPlayer
		return
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		p.err = err
		return
	}
	p.files = make(map[Cue]string)
	for _, c := range []Cue{Start, End, Error} {
		path := filepath.Join(p.Dir, "cue-"+c.name()+".wav")
		if err := WriteCue(path, c); err != nil {
			p.err = err
			return
		}
		p.files[c] = path
	}
}

// Init prepares the cue files. Play calls it lazily.
func (p *Player) Init() error {
	p.once.Do(p.init)
	return p.err
}

// Play starts playback and returns without waiting for it.
func (p *Player) Play(c Cue) {
	if err := p.Init(); err != nil {
		return
	}
	args := append(append([]string{}, p.argv[1:]...), p.files[c])
	cmd := exec.Command(p.argv[0], args...)
	if err := cmd.Start(); err != nil {
		log.Warnf("play %s cue: %v", c.name(), err)
		return
	}
	go cmd.Wait()
}
