//go:build !windows

package doctor

import (
	"os"
	"os/exec"
)

func resetTerminal() {
	exec.Command("stty", "sane").Run()
}

func removeFile(path string) { os.Remove(path) }
