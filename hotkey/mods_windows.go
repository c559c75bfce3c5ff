//go:build windows

package hotkey

import "golang.design/x/hotkey"

func modifier(m Mod) hotkey.Modifier {
	switch m {
	case Shift:
		return hotkey.ModShift
	case Alt:
		return hotkey.ModAlt
	case Super:
		return hotkey.ModWin
	}
	return hotkey.ModCtrl
}
