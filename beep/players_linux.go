//go:build linux

package beep

var defaultPlayers = [][]string{{"paplay"}, {"pw-play"}, {"play", "-q"}, {"aplay", "-q"}}
