package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"hark/session"
	"hark/status"
)

var (
	iconIdle   []byte
	iconIdleHi []byte
	iconRecHi  []byte
	iconBusyHi []byte
)

func init() {
	transparent := color.RGBA{A: 0}
	rec := status.For(session.Recording).RGBA()
	busy := status.For(session.Transcribing).RGBA()
	dotR := 44.0 / 6.5
	iconIdle = renderIcon(22, transparent, 22.0/8)
	iconIdleHi = renderIcon(44, transparent, 44.0/8)
	iconRecHi = renderIcon(44, rec, dotR)
	iconBusyHi = renderIcon(44, busy, dotR)
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// renderIcon draws a black disc with a coloured centre dot.
func renderIcon(size int, dot color.RGBA, dotR float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - 1
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if d <= dotR {
				img.Set(x, y, dot)
			} else if d <= r {
				img.Set(x, y, color.Black)
			}
		}
	}
	return encodePNG(img)
}

func iconFor(p session.Phase) []byte {
	switch p {
	case session.Recording:
		return iconRecHi
	case session.Transcribing:
		return iconBusyHi
	}
	return iconIdleHi
}
