//go:build unix

package ui

import (
	"os"
	"syscall"
)

// signals end Run cleanly: Ctrl+C in the terminal and the default signal of kill/systemd.
func signals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
