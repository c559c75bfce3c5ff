package session

import (
	"errors"
	"fmt"

	"hark/delivery"
	"hark/recorder"
	"hark/transcriber"
)

// ErrBusy is returned by Toggle while a transcription is in flight.
var ErrBusy = errors.New("transcription in progress")

type Kind int

const (
	KindUnknown Kind = iota
	RecorderNotFound
	CaptureLaunchFailed
	EmptyRecording
	ServiceUnreachable
	ServiceError
	EmptyTranscript
	DeliveryFailed
	Busy
)

func (k Kind) String() string {
	switch k {
	case RecorderNotFound:
		return "recorder_not_found"
	case CaptureLaunchFailed:
		return "capture_launch_failed"
	case EmptyRecording:
		return "empty_recording"
	case ServiceUnreachable:
		return "service_unreachable"
	case ServiceError:
		return "service_error"
	case EmptyTranscript:
		return "empty_transcript"
	case DeliveryFailed:
		return "delivery_failed"
	case Busy:
		return "busy"
	}
	return "unknown"
}

// Classify maps a pipeline error onto its kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, recorder.ErrRecorderNotFound):
		return RecorderNotFound
	case errors.Is(err, recorder.ErrCaptureLaunch):
		return CaptureLaunchFailed
	case errors.Is(err, recorder.ErrEmptyRecording):
		return EmptyRecording
	case errors.Is(err, transcriber.ErrServiceUnreachable):
		return ServiceUnreachable
	case errors.Is(err, transcriber.ErrEmptyTranscript):
		return EmptyTranscript
	case errors.Is(err, transcriber.ErrService):
		return ServiceError
	case errors.Is(err, delivery.ErrDeliveryFailed):
		return DeliveryFailed
	case errors.Is(err, ErrBusy):
		return Busy
	}
	return KindUnknown
}

const (
	installHint = "SoX is required for audio recording. Install it with `brew install sox` (macOS) or `sudo apt install sox` (Linux), or set recorder.command."
	serviceHint = "WhisperX service is not running. Start it with: cd whisperx-service && uvicorn main:app --port 48001"
)

// Message turns err into the single line shown to the user.
func Message(err error) string {
	switch Classify(err) {
	case RecorderNotFound:
		return installHint
	case CaptureLaunchFailed:
		return fmt.Sprintf("Recording failed: %v", err)
	case EmptyRecording:
		return "No audio was recorded"
	case ServiceUnreachable:
		return serviceHint
	case EmptyTranscript:
		return "No speech detected in recording"
	case DeliveryFailed:
		return fmt.Sprintf("Could not insert text: %v", err)
	case Busy:
		return "Still transcribing, please wait"
	}
	return fmt.Sprintf("Transcription failed: %v", err)
}
