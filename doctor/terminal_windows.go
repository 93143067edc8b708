//go:build windows

package doctor

// Console mode is reset by the system when the process exits.
func resetTerminal() {}
