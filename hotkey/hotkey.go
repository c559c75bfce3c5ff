package hotkey

import (
	"fmt"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

type Mod int

const (
	Ctrl Mod = iota
	Shift
	Alt
	Super
)

// Combo is a chord such as ctrl+shift+space: modifiers plus one key,
// where the key is "space" or a single letter.
type Combo struct {
	Mods []Mod
	Key  string
}

var Default = Combo{Mods: []Mod{Ctrl, Shift}, Key: "space"}

func Parse(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return Default, nil
	}
	var c Combo
	seen := map[Mod]bool{}
	parts := strings.Split(strings.ToLower(s), "+")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			if p != "space" && !(len(p) == 1 && p[0] >= 'a' && p[0] <= 'z') {
				return Combo{}, fmt.Errorf("hotkey %q: unsupported key %q (use space or a-z)", s, p)
			}
			c.Key = p
			break
		}
		var m Mod
		switch p {
		case "ctrl", "control":
			m = Ctrl
		case "shift":
			m = Shift
		case "alt", "option", "opt":
			m = Alt
		case "super", "cmd", "command", "win", "meta":
			m = Super
		default:
			return Combo{}, fmt.Errorf("hotkey %q: unknown modifier %q", s, p)
		}
		if !seen[m] {
			seen[m] = true
			c.Mods = append(c.Mods, m)
		}
	}
	if len(c.Mods) == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: at least one modifier is required", s)
	}
	return c, nil
}

func (c Combo) Has(m Mod) bool {
	for _, x := range c.Mods {
		if x == m {
			return true
		}
	}
	return false
}

func (c Combo) String() string {
	names := [...]string{Ctrl: "Ctrl", Shift: "Shift", Alt: "Alt", Super: "Super"}
	var parts []string
	for _, m := range c.Mods {
		parts = append(parts, names[m])
	}
	key := strings.ToUpper(c.Key)
	if c.Key == "space" {
		key = "Space"
	}
	return strings.Join(append(parts, key), "+")
}
