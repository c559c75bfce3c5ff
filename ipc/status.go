package ipc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Status is the daemon state published for `hark status`.
type Status struct {
	PID            int       `json:"pid"`
	Phase          string    `json:"phase"`
	ServiceURL     string    `json:"service_url"`
	Count          int       `json:"count"`
	LastTranscript string    `json:"last_transcript,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func (c *Channel) statusPath() string { return filepath.Join(c.dir, "status.json") }

// WriteStatus replaces status.json atomically.
func (c *Channel) WriteStatus(s Status) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "status-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.statusPath())
}

func (c *Channel) ReadStatus() (*Status, error) {
	data, err := os.ReadFile(c.statusPath())
	if err != nil {
		return nil, err
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ClearStatus removes status.json on daemon exit.
func (c *Channel) ClearStatus() {
	os.Remove(c.statusPath())
}
