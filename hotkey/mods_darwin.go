//go:build darwin

package hotkey

import "golang.design/x/hotkey"

func modifier(m Mod) hotkey.Modifier {
	switch m {
	case Shift:
		return hotkey.ModShift
	case Alt:
		return hotkey.ModOption
	case Super:
		return hotkey.ModCmd
	}
	return hotkey.ModCtrl
}
