package session

type Phase int

const (
	Idle Phase = iota
	Recording
	Transcribing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	}
	return "unknown"
}
