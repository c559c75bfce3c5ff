package paste

import (
	"sync"
	"time"
	"unicode"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
	kbMu   sync.Mutex
)

// Init creates the virtual keyboard. Safe to call repeatedly.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
		if kbErr == nil && settle > 0 {
			// new uinput devices are ignored until the compositor picks them up
			time.Sleep(settle)
		}
	})
	return kbErr
}

// Send presses the platform paste chord (Cmd+V or Ctrl+V).
func Send() error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSHIFT(false)
	setPasteModifier(&kb)
	err := kb.Launching()
	clearPasteModifier(&kb)
	return err
}

var letters = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digits = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

type punctKey struct {
	code  int
	shift bool
}

// The VK_SP* codes name the same physical keys on every platform,
// unlike VK_DOT and VK_APOSTROPHE which darwin lacks.
var punctuation = map[rune]punctKey{
	'.':  {keybd_event.VK_SP10, false},
	',':  {keybd_event.VK_SP9, false},
	'?':  {keybd_event.VK_SP11, true},
	'/':  {keybd_event.VK_SP11, false},
	'!':  {keybd_event.VK_1, true},
	'\'': {keybd_event.VK_SP7, false},
	'"':  {keybd_event.VK_SP7, true},
	'-':  {keybd_event.VK_SP2, false},
	';':  {keybd_event.VK_SP6, false},
	':':  {keybd_event.VK_SP6, true},
}

// keyFor maps r to a key code on a US layout.
func keyFor(r rune) (code int, shift bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return letters[r-'a'], false, true
	case r >= 'A' && r <= 'Z':
		return letters[r-'A'], true, true
	case r >= '0' && r <= '9':
		return digits[r-'0'], false, true
	case r == ' ':
		return keybd_event.VK_SPACE, false, true
	}
	if k, found := punctuation[r]; found {
		return k.code, k.shift, true
	}
	return 0, false, false
}

// Typeable reports whether every character of text can be typed key by key.
func Typeable(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r > unicode.MaxASCII {
			return false
		}
		if _, _, ok := keyFor(r); !ok {
			return false
		}
	}
	return true
}

// Type sends text as individual keystrokes. Callers check Typeable first;
// characters without a key are skipped.
func Type(text string) error {
	if err := Init(); err != nil {
		return err
	}
	kbMu.Lock()
	defer kbMu.Unlock()
	for _, r := range text {
		code, shift, ok := keyFor(r)
		if !ok {
			continue
		}
		kb.SetKeys(code)
		kb.HasSHIFT(shift)
		if err := kb.Launching(); err != nil {
			kb.HasSHIFT(false)
			return err
		}
	}
	kb.HasSHIFT(false)
	return nil
}

// Keyboard is the virtual keyboard as a value.
type Keyboard struct{}

func (Keyboard) Init() error            { return Init() }
func (Keyboard) Type(text string) error { return Type(text) }
func (Keyboard) Paste() error           { return Send() }
