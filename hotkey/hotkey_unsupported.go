//go:build !linux && !darwin && !windows

package hotkey

import "errors"

var errUnsupported = errors.New("global hotkeys are not supported on this platform, bind `hark toggle` instead")

type unsupported struct{ FakeHotkey }

func New(Combo) Hotkey { return &unsupported{*NewFake()} }

func (*unsupported) Register() error { return errUnsupported }

func Diagnose() (string, error) { return "", errUnsupported }
