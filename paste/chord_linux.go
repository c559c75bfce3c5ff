//go:build linux

package paste

import (
	"time"

	"github.com/micmonay/keybd_event"
)

const settle = 2 * time.Second

func setPasteModifier(k *keybd_event.KeyBonding)   { k.HasCTRL(true) }
func clearPasteModifier(k *keybd_event.KeyBonding) { k.HasCTRL(false) }
