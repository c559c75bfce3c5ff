//go:build windows

package recorder

import "os"

func interrupt(p *os.Process) error {
	return p.Kill()
}
