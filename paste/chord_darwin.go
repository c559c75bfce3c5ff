//go:build darwin

package paste

import "github.com/micmonay/keybd_event"

const settle = 0

func setPasteModifier(k *keybd_event.KeyBonding)   { k.HasSuper(true) }
func clearPasteModifier(k *keybd_event.KeyBonding) { k.HasSuper(false) }
