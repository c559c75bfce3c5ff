//go:build linux

package hotkey

import "testing"

func TestChord(t *testing.T) {
	c := newChord(Default, keySpace)

	if down, _ := c.feed(keySpace, keyPress); down {
		t.Fatal("space alone triggered")
	}
	c.feed(keySpace, keyRelease)

	c.feed(29, keyPress) // left ctrl
	c.feed(54, keyPress) // right shift
	if down, _ := c.feed(keySpace, keyPress); !down {
		t.Fatal("ctrl+shift+space did not trigger")
	}
	if down, _ := c.feed(keySpace, 2); down {
		t.Error("autorepeat triggered again")
	}
	if _, up := c.feed(keySpace, keyRelease); !up {
		t.Error("release not reported")
	}

	// an extra modifier does not match
	c.feed(56, keyPress) // alt
	if down, _ := c.feed(keySpace, keyPress); down {
		t.Error("ctrl+shift+alt+space triggered")
	}
}

func TestChordLetter(t *testing.T) {
	combo, _ := Parse("super+d")
	h := New(combo).(*evdevHotkey)
	if h.key != 32 {
		t.Fatalf("key = %d, want 32", h.key)
	}
	c := newChord(combo, h.key)
	c.feed(125, keyPress)
	if down, _ := c.feed(32, keyPress); !down {
		t.Error("super+d did not trigger")
	}
}
