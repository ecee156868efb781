package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shiwa/quadctl/internal/logger"
)

// Hub: владелец линии. Горутина чтения хранит последние ATT и PILOT с временем приёма;
// запись MOT идёт из цикла управления.
type Hub struct {
	rw  io.ReadWriteCloser
	now func() time.Time

	mu      sync.Mutex
	att     Attitude
	attAt   time.Time
	pilot   Pilot
	pilotAt time.Time

	wmu       sync.Mutex
	badFrames atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	err       error
}

// NewHub создаёт хаб поверх открытой линии (обычно *Port).
func NewHub(rw io.ReadWriteCloser) *Hub {
	return &Hub{rw: rw, now: time.Now, done: make(chan struct{})}
}

// Start запускает горутину чтения.
func (h *Hub) Start() {
	go h.run()
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		pkt, err := ReadPacket(h.rw)
		if err != nil {
			if h.closed.Load() {
				return
			}
			switch {
			case errors.Is(err, io.EOF):
				// таймаут чтения последовательного порта
				continue
			case errors.Is(err, ErrChecksum), errors.Is(err, ErrLength), errors.Is(err, io.ErrUnexpectedEOF):
				h.badFrames.Add(1)
				continue
			}
			h.err = err
			logger.Error("линия: чтение остановлено: %v", err)
			return
		}
		h.dispatch(pkt)
	}
}

func (h *Hub) dispatch(pkt []byte) {
	hdr, _ := ParseHeader(pkt)
	payload := Payload(pkt)
	if hdr.Class != ClassState {
		return
	}
	switch hdr.ID {
	case IDAttitude:
		a, err := ParseAttitude(payload)
		if err != nil {
			h.badFrames.Add(1)
			return
		}
		h.mu.Lock()
		h.att, h.attAt = a, h.now()
		h.mu.Unlock()
	case IDPilot:
		p, err := ParsePilot(payload)
		if err != nil {
			h.badFrames.Add(1)
			return
		}
		h.mu.Lock()
		h.pilot, h.pilotAt = p, h.now()
		h.mu.Unlock()
	}
}

// Attitude возвращает последний ATT и время его приёма; ok = false, если ATT ещё не было.
func (h *Hub) Attitude() (a Attitude, at time.Time, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.att, h.attAt, !h.attAt.IsZero()
}

// Pilot возвращает последний PILOT и время его приёма.
func (h *Hub) Pilot() (p Pilot, at time.Time, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pilot, h.pilotAt, !h.pilotAt.IsZero()
}

// WriteMotors отправляет кадр MOT.
func (h *Hub) WriteMotors(m MotorCommand) error {
	return h.write("MOT", m.Encode())
}

// WriteStatus отправляет кадр STATUS.
func (h *Hub) WriteStatus(s Status) error {
	return h.write("STATUS", s.Encode())
}

func (h *Hub) write(name string, pkt []byte) error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if _, err := h.rw.Write(pkt); err != nil {
		return fmt.Errorf("link: write %s: %w", name, err)
	}
	return nil
}

// BadFrames возвращает число отброшенных кадров (checksum, обрыв, неверная длина).
func (h *Hub) BadFrames() uint64 { return h.badFrames.Load() }

// Done закрывается, когда горутина чтения завершилась.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Err возвращает причину остановки чтения (после Done).
func (h *Hub) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Close закрывает линию; горутина чтения завершается на следующей ошибке чтения.
func (h *Hub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		err = h.rw.Close()
	})
	return err
}
