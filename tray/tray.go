package tray

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"hark/session"
	"hark/status"
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	toggleFn   func()
	copyLastFn func()

	mu        sync.Mutex
	phase     session.Phase
	tooltip   = status.For(session.Idle).Tooltip
	errorSeq  int
	insertOn  bool
	insertCb  func(bool)
	diarizeOn bool
	diarizeCb func(bool)
	langCode  string // "" = auto-detect
	langCb    func(string)
)

type Language struct {
	Code  string // ISO-639-1
	Label string
}

// Languages offered in the menu. WhisperX aligns all of these.
var Languages = []Language{
	{"", "Auto-detect"},
	{"ar", "Arabic"},
	{"ca", "Catalan"},
	{"zh", "Chinese"},
	{"cs", "Czech"},
	{"da", "Danish"},
	{"nl", "Dutch"},
	{"en", "English"},
	{"fi", "Finnish"},
	{"fr", "French"},
	{"de", "German"},
	{"el", "Greek"},
	{"he", "Hebrew"},
	{"hi", "Hindi"},
	{"hu", "Hungarian"},
	{"it", "Italian"},
	{"ja", "Japanese"},
	{"ko", "Korean"},
	{"no", "Norwegian"},
	{"pl", "Polish"},
	{"pt", "Portuguese"},
	{"ru", "Russian"},
	{"es", "Spanish"},
	{"tr", "Turkish"},
	{"uk", "Ukrainian"},
	{"vi", "Vietnamese"},
}

func OnToggle(fn func())   { toggleFn = fn }
func OnCopyLast(fn func()) { copyLastFn = fn }

func SetInsert(on bool, fn func(bool)) {
	mu.Lock()
	insertOn, insertCb = on, fn
	mu.Unlock()
}

func SetDiarize(on bool, fn func(bool)) {
	mu.Lock()
	diarizeOn, diarizeCb = on, fn
	mu.Unlock()
}

func SetLanguage(code string, fn func(string)) {
	mu.Lock()
	langCode, langCb = code, fn
	mu.Unlock()
}

// SetPhase updates icon, tooltip and the record item for p.
func SetPhase(p session.Phase) {
	ind := status.For(p)
	mu.Lock()
	phase = p
	tooltip = ind.Tooltip
	errorSeq++
	mu.Unlock()
	updatePhase(p, ind)
}

// SetError shows msg in the tooltip for ten seconds.
func SetError(msg string) {
	mu.Lock()
	errorSeq++
	seq := errorSeq
	mu.Unlock()

	updateTooltip("hark – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		mu.Lock()
		stale := seq != errorSeq
		tip := tooltip
		mu.Unlock()
		if !stale {
			updateTooltip(tip)
		}
	}()
}

func SetLastTranscript(text string) {
	updateCopyLastTitle(copyTitle(text))
}

func copyTitle(text string) string {
	words := len(strings.Fields(text))
	if words == 1 {
		return "Copy Last Transcript (1 word)"
	}
	return fmt.Sprintf("Copy Last Transcript (%d words)", words)
}

func recordTitle(p session.Phase) string {
	switch p {
	case session.Recording:
		return "Stop Recording"
	case session.Transcribing:
		return "Transcribing..."
	}
	return "Start Recording"
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}
