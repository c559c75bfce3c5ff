package transcriber

import (
	"context"
	"strings"
	"sync"
)

type FakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	calls []FakeCall
}

type FakeCall struct {
	Path string
	Opts Options
}

func NewFake(text string, err error) *FakeTranscriber {
	return &FakeTranscriber{text: text, err: err}
}

func (f *FakeTranscriber) Transcribe(_ context.Context, path string, opts Options) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Path: path, Opts: opts})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	text := strings.TrimSpace(f.text)
	if text == "" {
		return nil, ErrEmptyTranscript
	}
	return &Result{Transcript: text, Metrics: &NetworkMetrics{}}, nil
}

func (f *FakeTranscriber) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}
