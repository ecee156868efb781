//go:build !linux

package rtsched

import "time"

// LockMemory: заглушка на не-Linux.
func LockMemory() error { return ErrUnsupported }

// SetFIFO: заглушка на не-Linux.
func SetFIFO(prio int) error {
	_ = prio
	return ErrUnsupported
}

// PinCPU: заглушка на не-Linux.
func PinCPU(cpu int) error {
	_ = cpu
	return ErrUnsupported
}

// Policy: заглушка на не-Linux.
func Policy() (string, int, error) { return "", 0, ErrUnsupported }

// ClockResolution: заглушка на не-Linux.
func ClockResolution() time.Duration { return 0 }
