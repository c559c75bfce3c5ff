//go:build windows

package doctor

import "os"

func resetTerminal() {}

func removeFile(path string) { os.Remove(path) }
