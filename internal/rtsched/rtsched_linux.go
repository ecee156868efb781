//go:build linux

package rtsched

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// LockMemory блокирует текущие и будущие страницы процесса в памяти. Требует CAP_IPC_LOCK или root.
func LockMemory() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

// SetFIFO переводит вызывающий поток в SCHED_FIFO с приоритетом prio. Требует CAP_SYS_NICE или root.
func SetFIFO(prio int) error {
	if prio < 1 || prio > 99 {
		return fmt.Errorf("priority %d out of 1..99", prio)
	}
	attr := &unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: uint32(prio),
	}
	return unix.SchedSetAttr(0, attr, 0)
}

// PinCPU привязывает вызывающий поток к ядру cpu.
func PinCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// Policy возвращает политику и приоритет вызывающего потока.
func Policy() (policy string, prio int, err error) {
	attr, err := unix.SchedGetAttr(0, 0)
	if err != nil {
		return "", 0, err
	}
	switch attr.Policy {
	case unix.SCHED_FIFO:
		policy = "fifo"
	case unix.SCHED_RR:
		policy = "rr"
	case unix.SCHED_NORMAL:
		policy = "other"
	default:
		policy = fmt.Sprintf("policy(%d)", attr.Policy)
	}
	return policy, int(attr.Priority), nil
}

// ClockResolution возвращает разрешение CLOCK_MONOTONIC.
func ClockResolution() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
