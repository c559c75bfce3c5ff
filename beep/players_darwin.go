//go:build darwin

package beep

var defaultPlayers = [][]string{{"afplay"}, {"play", "-q"}}
