//go:build !windows

package recorder

import "os"

// SIGINT lets sox and arecord finalize the WAV header.
func interrupt(p *os.Process) error {
	return p.Signal(os.Interrupt)
}
