//go:build !darwin && !linux

package login

import "errors"

var errUnsupported = errors.New("launch at login is not supported on this platform")

func Path() string                        { return "" }
func Enabled() bool                       { return false }
func Enable(exe string, _ []string) error { return errUnsupported }
func Disable() error                      { return errUnsupported }
