package hotkey

import "time"

// Trigger turns key presses into toggles. A short tap toggles once. When
// hold is non-zero, a press held longer than hold is push-to-talk: the
// release toggles again.
type Trigger struct {
	toggles chan struct{}
	stop    chan struct{}
}

func NewTrigger(hk Hotkey, hold time.Duration) *Trigger {
	t := &Trigger{
		toggles: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	go t.run(hk, hold)
	return t
}

func (t *Trigger) Toggles() <-chan struct{} { return t.toggles }

func (t *Trigger) Stop() { close(t.stop) }

func (t *Trigger) emit() {
	select {
	case t.toggles <- struct{}{}:
	case <-t.stop:
	}
}

type triggerState int

const (
	stIdle triggerState = iota
	stLatched
)

func (t *Trigger) run(hk Hotkey, hold time.Duration) {
	state := stIdle
	for {
		select {
		case <-hk.Keydown():
		case <-t.stop:
			return
		}
		t.emit()

		if state == stLatched || hold <= 0 {
			// stop press: swallow the release
			if !t.waitKeyup(hk) {
				return
			}
			state = stIdle
			continue
		}

		timer := time.NewTimer(hold)
		select {
		case <-timer.C:
			if !t.waitKeyup(hk) {
				return
			}
			t.emit()
			state = stIdle
		case <-hk.Keyup():
			timer.Stop()
			state = stLatched
		case <-t.stop:
			timer.Stop()
			return
		}
	}
}

func (t *Trigger) waitKeyup(hk Hotkey) bool {
	select {
	case <-hk.Keyup():
		return true
	case <-t.stop:
		return false
	}
}
