//go:build !darwin && !linux

package beep

var defaultPlayers = [][]string{{"play", "-q"}}
