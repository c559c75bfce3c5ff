//go:build windows

package transcriber

import (
	"errors"
	"syscall"
)

const wsaeconnrefused syscall.Errno = 10061

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, wsaeconnrefused)
}
