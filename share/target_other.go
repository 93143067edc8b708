//go:build !linux && !darwin && !windows

package share

func DefaultTarget() Target { return nil }
