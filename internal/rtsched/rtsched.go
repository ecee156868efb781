// Package rtsched: настройка потока цикла управления под реальное время
// (блокировка памяти, SCHED_FIFO, привязка к ядру).
package rtsched

import (
	"errors"
	"fmt"
)

// Options: что настраивать. LockMemory false и Priority 0 ничего не меняют.
type Options struct {
	LockMemory bool
	Priority   int // SCHED_FIFO 1..99
	CPU        int // < 0: не привязывать
}

// ErrUnsupported: настройка недоступна на этой платформе.
var ErrUnsupported = errors.New("rtsched: not supported on this platform")

// Apply применяет opts к вызывающему потоку. Вызывать после runtime.LockOSThread.
// Ошибки отдельных шагов собираются; выполненные шаги не откатываются.
func Apply(opts Options) error {
	var errs []error
	if opts.LockMemory {
		if err := LockMemory(); err != nil {
			errs = append(errs, fmt.Errorf("lock memory: %w", err))
		}
	}
	if opts.Priority > 0 {
		if err := SetFIFO(opts.Priority); err != nil {
			errs = append(errs, fmt.Errorf("SCHED_FIFO %d: %w", opts.Priority, err))
		}
	}
	if opts.CPU >= 0 {
		if err := PinCPU(opts.CPU); err != nil {
			errs = append(errs, fmt.Errorf("pin cpu %d: %w", opts.CPU, err))
		}
	}
	return errors.Join(errs...)
}
