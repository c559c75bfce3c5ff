//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Linux reads /dev/input directly so the hotkey works on Wayland and X11
// alike. The user needs to be in the input group.

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keySpace   = 57
)

const inputEventSize = 24

// evdev codes for a..z
var letterCodes = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36,
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20,
	22, 47, 17, 45, 21, 44,
}

// left and right variants per modifier
var modCodes = map[Mod][2]uint16{
	Ctrl:  {29, 97},
	Shift: {42, 54},
	Alt:   {56, 100},
	Super: {125, 126},
}

type evdevHotkey struct {
	combo   Combo
	key     uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New(c Combo) Hotkey {
	key := uint16(keySpace)
	if c.Key != "space" {
		key = letterCodes[c.Key[0]-'a']
	}
	return &evdevHotkey{
		combo:   c,
		key:     key,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *evdevHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

// chord tracks modifier state for one keyboard.
type chord struct {
	combo   Combo
	key     uint16
	held    map[uint16]bool
	keyDown bool
}

func newChord(c Combo, key uint16) *chord {
	return &chord{combo: c, key: key, held: map[uint16]bool{}}
}

func (c *chord) modsHeld() bool {
	for m, codes := range modCodes {
		down := c.held[codes[0]] || c.held[codes[1]]
		if down != c.combo.Has(m) {
			return false
		}
	}
	return true
}

// feed applies one key event and reports whether the chord went down or up.
func (c *chord) feed(code uint16, value int32) (down, up bool) {
	if code != c.key {
		switch value {
		case keyPress:
			c.held[code] = true
		case keyRelease:
			delete(c.held, code)
		}
		return false, false
	}
	switch {
	case value == keyPress && !c.keyDown && c.modsHeld():
		c.keyDown = true
		return true, false
	case value == keyRelease && c.keyDown:
		c.keyDown = false
		return false, true
	}
	return false, false
}

func (h *evdevHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	ch := newChord(h.combo, h.key)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			if evType != evKey {
				continue
			}
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			down, up := ch.feed(evCode, evValue)
			if down {
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			}
			if up {
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *evdevHotkey) Keyup() <-chan struct{}   { return h.keyup }

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// isKeyboard treats devices advertising a long key capability bitmap as
// keyboards; mice and power buttons report only a few bits.
func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
}
