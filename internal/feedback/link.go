package feedback

import (
	"time"

	"github.com/shiwa/quadctl/internal/link"
)

// AttitudeReader: последний принятый ATT (реализуется *link.Hub).
type AttitudeReader interface {
	Attitude() (link.Attitude, time.Time, bool)
}

// LinkSource: оценка ориентации, принятая по линии от полётного стека.
type LinkSource struct {
	hub     AttitudeReader
	timeout time.Duration
	now     func() time.Time
}

// NewLink создаёт источник; оценка старше timeout считается устаревшей.
func NewLink(hub AttitudeReader, timeout time.Duration) *LinkSource {
	return &LinkSource{hub: hub, timeout: timeout, now: time.Now}
}

func (s *LinkSource) Name() string { return "link" }
func (s *LinkSource) Kind() string { return "link" }

// Read возвращает последний ATT.
func (s *LinkSource) Read() (Attitude, Status) {
	a, at, ok := s.hub.Attitude()
	if !ok {
		return Attitude{}, StatusUnavailable
	}
	att := Attitude(a)
	if s.timeout > 0 && s.now().Sub(at) > s.timeout {
		return att, StatusStale
	}
	return att, StatusFresh
}

// Close ничего не делает: линией владеет хаб.
func (s *LinkSource) Close() error { return nil }
