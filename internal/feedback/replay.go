package feedback

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shiwa/quadctl/internal/telemetry"
)

// ReplaySource: оценка ориентации из ранее записанного журнала, по строке на Read.
// Нужен для стендовых прогонов без AHRS.
type ReplaySource struct {
	name string
	rows []Attitude
	loop bool

	mu  sync.Mutex
	pos int
}

// NewReplay читает журнал path.
func NewReplay(path string, loop bool) (*ReplaySource, error) {
	recs, err := telemetry.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("replay %s: no records", path)
	}
	return NewReplayRecords(filepath.Base(path), recs, loop), nil
}

// NewReplayRecords создаёт источник из уже прочитанных записей.
func NewReplayRecords(name string, recs []telemetry.Record, loop bool) *ReplaySource {
	rows := make([]Attitude, len(recs))
	for i, r := range recs {
		rows[i] = Attitude{
			Roll: float32(r.Roll), Pitch: float32(r.Pitch), Yaw: float32(r.Yaw),
			P: float32(r.P), Q: float32(r.Q), R: float32(r.R),
		}
	}
	return &ReplaySource{name: name, rows: rows, loop: loop}
}

func (s *ReplaySource) Name() string { return "replay:" + s.name }
func (s *ReplaySource) Kind() string { return "replay" }

// Read возвращает следующую строку; по окончании журнала без loop: StatusUnavailable.
func (s *ReplaySource) Read() (Attitude, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.rows) {
		if !s.loop || len(s.rows) == 0 {
			return Attitude{}, StatusUnavailable
		}
		s.pos = 0
	}
	a := s.rows[s.pos]
	s.pos++
	return a, StatusFresh
}

// Remaining возвращает число непрочитанных строк.
func (s *ReplaySource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows) - s.pos
}

func (s *ReplaySource) Close() error { return nil }
