package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"hark/log"
)

type Notifier interface {
	Info(msg string)
	Error(msg string)
}

// Desktop posts system notifications.
type Desktop struct {
	Title string

	warnOnce sync.Once
}

func NewDesktop(title string) *Desktop {
	return &Desktop{Title: title}
}

func (d *Desktop) Info(msg string) {
	d.post(beeep.Notify(d.Title, msg, ""))
}

func (d *Desktop) Error(msg string) {
	d.post(beeep.Alert(d.Title, msg, ""))
}

// post logs the first delivery failure only; a desktop without a
// notification daemon would otherwise fill the log.
func (d *Desktop) post(err error) {
	if err == nil {
		return
	}
	d.warnOnce.Do(func() {
		log.Warnf("desktop notifications unavailable: %v", err)
	})
}

// Log writes notifications to the diagnostics log.
type Log struct{}

func (Log) Info(msg string)  { log.Info(msg) }
func (Log) Error(msg string) { log.Error(msg) }

// Multi fans out to every notifier.
type Multi []Notifier

func (m Multi) Info(msg string) {
	for _, n := range m {
		n.Info(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Func adapts plain functions.
type Func struct {
	OnInfo  func(string)
	OnError func(string)
}

func (f Func) Info(msg string) {
	if f.OnInfo != nil {
		f.OnInfo(msg)
	}
}

func (f Func) Error(msg string) {
	if f.OnError != nil {
		f.OnError(msg)
	}
}
