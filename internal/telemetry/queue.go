package telemetry

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed: запись в закрытую очередь.
var ErrClosed = errors.New("telemetry: queue closed")

// Queue: ограниченная неблокирующая очередь перед Recorder. Записи пишутся отдельной
// горутиной; при заполненной очереди запись отбрасывается и учитывается в Dropped.
type Queue struct {
	rec Recorder
	ch  chan Record

	mu     sync.Mutex
	closed bool

	dropped atomic.Uint64
	done    chan struct{}
	err     error // первая ошибка записи, читается после done
}

// NewQueue запускает горутину записи в rec. size < 1 заменяется на 1.
func NewQueue(rec Recorder, size int) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{rec: rec, ch: make(chan Record, size), done: make(chan struct{})}
	go q.drain()
	return q
}

func (q *Queue) drain() {
	defer close(q.done)
	for r := range q.ch {
		if err := q.rec.Write(r); err != nil && q.err == nil {
			q.err = err
		}
	}
}

// Write ставит запись в очередь, не блокируясь.
func (q *Queue) Write(r Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.ch <- r:
	default:
		q.dropped.Add(1)
	}
	return nil
}

// Dropped возвращает число отброшенных записей.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Close дожидается записи очереди и закрывает Recorder. Возвращает первую ошибку записи
// или ошибку закрытия.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
	cerr := q.rec.Close()
	if q.err != nil {
		return q.err
	}
	return cerr
}
