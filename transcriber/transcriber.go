package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrServiceUnreachable = errors.New("transcription service is not running")
	ErrService            = errors.New("transcription failed")
	ErrEmptyTranscript    = errors.New("no speech detected in recording")
)

// ServiceError is a non-success response, timeout or malformed body.
type ServiceError struct {
	StatusCode int // 0 when no response was received
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("transcription service error %d: %s", e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("transcription service error %d", e.StatusCode)
	case e.Detail != "":
		return "transcription failed: " + e.Detail
	case e.Err != nil:
		return "transcription failed: " + e.Err.Error()
	default:
		return "transcription failed"
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrService }

type NetworkMetrics struct {
	DNS        time.Duration
	TCP        time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
}

type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

type Options struct {
	Language string // empty = auto-detect
	Diarize  bool
}

type Result struct {
	Transcript  string
	Language    string
	HasSpeakers bool
	Segments    []Segment
	Metrics     *NetworkMetrics
}

type Health struct {
	Status               string `json:"status"`
	Device               string `json:"device"`
	Model                string `json:"model"`
	DiarizationAvailable bool   `json:"diarization_available"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string, opts Options) (*Result, error)
}
