package tray

import (
	"sync"

	"fyne.io/systray"

	"hark/session"
	"hark/status"
)

var (
	readyMu sync.Mutex
	ready   bool

	mRecord   *systray.MenuItem
	mCopy     *systray.MenuItem
	mInsert   *systray.MenuItem
	mDiarize  *systray.MenuItem
	langItems []*systray.MenuItem
)

// Init starts the tray and returns a channel closed when the user quits.
func Init() <-chan struct{} {
	start, _ := systray.RunWithExternalLoop(onReady, onExit)
	runLoop(start)
	return quitCh
}

// Stop removes the tray icon.
func Stop() {
	readyMu.Lock()
	r := ready
	readyMu.Unlock()
	if r {
		systray.Quit()
	}
}

func isReady() bool {
	readyMu.Lock()
	defer readyMu.Unlock()
	return ready
}

func updatePhase(p session.Phase, ind status.Indicator) {
	if !isReady() {
		return
	}
	if p == session.Idle {
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
	} else {
		systray.SetIcon(iconFor(p))
	}
	systray.SetTooltip(ind.Tooltip)
	mRecord.SetTitle(recordTitle(p))
	if p == session.Transcribing {
		mRecord.Disable()
	} else {
		mRecord.Enable()
	}
}

func updateTooltip(msg string) {
	if isReady() {
		systray.SetTooltip(msg)
	}
}

func updateCopyLastTitle(title string) {
	if isReady() {
		mCopy.SetTitle(title)
		mCopy.Enable()
	}
}

func onReady() {
	mu.Lock()
	p, tip := phase, tooltip
	insert, diarize, lang := insertOn, diarizeOn, langCode
	mu.Unlock()

	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(tip)

	mRecord = systray.AddMenuItem(recordTitle(p), "Start or stop dictation")
	mCopy = systray.AddMenuItem("Copy Last Transcript", "Copy the last transcript to the clipboard")
	mCopy.Disable()
	systray.AddSeparator()

	mSettings := systray.AddMenuItem("Settings", "Settings")
	mInsert = mSettings.AddSubMenuItemCheckbox("Insert at Cursor", "Type into the focused window instead of copying", insert)
	mDiarize = mSettings.AddSubMenuItemCheckbox("Speaker Diarization", "Ask the service to label speakers", diarize)
	mLang := mSettings.AddSubMenuItem("Language", "Transcription language")
	langItems = make([]*systray.MenuItem, len(Languages))
	for i, l := range Languages {
		langItems[i] = mLang.AddSubMenuItemCheckbox(l.Label, l.Code, l.Code == lang)
	}

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit hark")

	readyMu.Lock()
	ready = true
	readyMu.Unlock()

	go clicks(mRecord, func() {
		if toggleFn != nil {
			toggleFn()
		}
	})
	go clicks(mCopy, func() {
		if copyLastFn != nil {
			copyLastFn()
		}
	})
	go clicks(mInsert, func() { flip(mInsert, &insertOn, func() func(bool) { return insertCb }) })
	go clicks(mDiarize, func() { flip(mDiarize, &diarizeOn, func() func(bool) { return diarizeCb }) })
	for i := range langItems {
		idx := i
		go clicks(langItems[idx], func() { selectLanguage(idx) })
	}
	go clicks(mQuit, Quit)

	updatePhase(p, status.For(p))
}

func clicks(item *systray.MenuItem, fn func()) {
	for {
		select {
		case <-item.ClickedCh:
			fn()
		case <-quitCh:
			return
		}
	}
}

func flip(item *systray.MenuItem, state *bool, cb func() func(bool)) {
	if item.Checked() {
		item.Uncheck()
	} else {
		item.Check()
	}
	on := item.Checked()
	mu.Lock()
	*state = on
	fn := cb()
	mu.Unlock()
	if fn != nil {
		fn(on)
	}
}

func selectLanguage(idx int) {
	for j, it := range langItems {
		if j == idx {
			it.Check()
		} else {
			it.Uncheck()
		}
	}
	mu.Lock()
	langCode = Languages[idx].Code
	fn := langCb
	mu.Unlock()
	if fn != nil {
		fn(Languages[idx].Code)
	}
}

func onExit() {
	Quit()
}
