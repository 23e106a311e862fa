//go:build !unix

package ui

import "os"

// signals end Run cleanly. Only os.Interrupt is delivered everywhere.
func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
