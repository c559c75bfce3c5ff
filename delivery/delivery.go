package delivery

import (
	"errors"
	"fmt"
)

var ErrDeliveryFailed = errors.New("could not deliver transcript")

type Outcome int

const (
	InsertedIntoEditor Outcome = iota + 1
	CopiedToClipboard
)

func (o Outcome) String() string {
	switch o {
	case InsertedIntoEditor:
		return "inserted"
	case CopiedToClipboard:
		return "copied to clipboard"
	}
	return "none"
}

// Editor is the focused text surface, if any.
type Editor interface {
	Focused() bool
	Insert(text string) error
}

type Clipboard interface {
	Copy(text string) error
}

type Deliverer struct {
	editor Editor
	clip   Clipboard
}

// New returns a Deliverer. A nil editor always falls back to the clipboard.
func New(editor Editor, clip Clipboard) *Deliverer {
	return &Deliverer{editor: editor, clip: clip}
}

// Deliver inserts text into the focused editor, or copies it to the
// clipboard when nothing is focused. The two are never both touched.
func (d *Deliverer) Deliver(text string) (Outcome, error) {
	if d.editor != nil && d.editor.Focused() {
		if err := d.editor.Insert(text); err != nil {
			return 0, fmt.Errorf("%w: insert: %v", ErrDeliveryFailed, err)
		}
		return InsertedIntoEditor, nil
	}
	if d.clip == nil {
		return 0, fmt.Errorf("%w: no clipboard", ErrDeliveryFailed)
	}
	if err := d.clip.Copy(text); err != nil {
		return 0, fmt.Errorf("%w: clipboard: %v", ErrDeliveryFailed, err)
	}
	return CopiedToClipboard, nil
}
