package status

import (
	"fmt"
	"image/color"

	"hark/session"
)

type Tone int

const (
	Neutral Tone = iota
	Warning
	Busy
)

// Indicator is what a status surface shows for a phase.
type Indicator struct {
	Label   string
	Tooltip string
	Tone    Tone
	Color   string // #rrggbb
	Spinner bool
}

var indicators = map[session.Phase]Indicator{
	session.Idle: {
		Label:   "ready",
		Tooltip: "hark: ready, toggle to dictate",
		Tone:    Neutral,
		Color:   "#8e8e93",
	},
	session.Recording: {
		Label:   "recording",
		Tooltip: "hark: recording, toggle again to stop",
		Tone:    Warning,
		Color:   "#ff3b30",
	},
	session.Transcribing: {
		Label:   "transcribing",
		Tooltip: "hark: transcribing...",
		Tone:    Busy,
		Color:   "#ff9f0a",
		Spinner: true,
	},
}

func For(p session.Phase) Indicator {
	if ind, ok := indicators[p]; ok {
		return ind
	}
	return indicators[session.Idle]
}

// RGBA parses Color.
func (i Indicator) RGBA() color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(i.Color, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
