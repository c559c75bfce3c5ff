package delivery

import (
	"time"

	"hark/log"
	"hark/paste"
)

// Keyboard synthesises key presses into whatever window has focus.
type Keyboard interface {
	Init() error
	Type(text string) error
	Paste() error
}

type ReadWriteClipboard interface {
	Clipboard
	Read() (string, error)
}

// KeyboardEditor treats the window under the cursor as the focused editor
// whenever insertion is enabled and a virtual keyboard is available.
type KeyboardEditor struct {
	Keys    Keyboard
	Clip    ReadWriteClipboard
	Enabled func() bool

	// RestoreDelay is how long the pasted text stays on the clipboard
	// before the previous content is put back.
	RestoreDelay time.Duration
}

const defaultRestoreDelay = 600 * time.Millisecond

func (e *KeyboardEditor) Focused() bool {
	if e.Enabled != nil && !e.Enabled() {
		return false
	}
	if err := e.Keys.Init(); err != nil {
		log.Warnf("keyboard unavailable, using clipboard: %v", err)
		return false
	}
	return true
}

// Insert types text the keymap covers directly. Anything else goes
// through the clipboard and a paste chord, and the previous clipboard is
// restored afterwards, an empty or unreadable one as empty.
func (e *KeyboardEditor) Insert(text string) error {
	if paste.Typeable(text) {
		return e.Keys.Type(text)
	}

	prev, readErr := e.Clip.Read()
	if readErr != nil {
		log.Warnf("clipboard read failed, clearing after paste: %v", readErr)
		prev = ""
	}
	if err := e.Clip.Copy(text); err != nil {
		return err
	}
	if err := e.Keys.Paste(); err != nil {
		e.restore(prev, 0)
		return err
	}

	delay := e.RestoreDelay
	if delay <= 0 {
		delay = defaultRestoreDelay
	}
	go e.restore(prev, delay)
	return nil
}

func (e *KeyboardEditor) restore(prev string, delay time.Duration) {
	time.Sleep(delay)
	if err := e.Clip.Copy(prev); err != nil {
		log.Warnf("clipboard restore failed: %v", err)
	}
}
