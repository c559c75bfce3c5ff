//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// The hotkey and tray backends need the process main thread.
func main() {
	mainthread.Init(func() {
		os.Exit(execute(os.Args[1:]))
	})
}
