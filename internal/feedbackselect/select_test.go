package feedbackselect

import (
	"testing"

	"github.com/shiwa/quadctl/internal/feedback"
)

// mockSource реализует feedback.Source для тестов.
type mockSource struct {
	name  string
	a     feedback.Attitude
	st    feedback.Status
	reads int
}

func (m *mockSource) Name() string { return m.name }
func (m *mockSource) Kind() string { return "mock" }
func (m *mockSource) Read() (feedback.Attitude, feedback.Status) {
	m.reads++
	return m.a, m.st
}
func (m *mockSource) Close() error { return nil }

func TestElection_Select(t *testing.T) {
	unavail := &mockSource{name: "u", st: feedback.StatusUnavailable}
	stale := &mockSource{name: "st", a: feedback.Attitude{Roll: 9}, st: feedback.StatusStale}
	fresh1 := &mockSource{name: "p1", a: feedback.Attitude{Roll: 1}, st: feedback.StatusFresh}
	fresh2 := &mockSource{name: "s1", a: feedback.Attitude{Roll: 2}, st: feedback.StatusFresh}

	t.Run("no sources", func(t *testing.T) {
		e := NewElection(nil, nil)
		if s, _ := e.Select(); s != nil {
			t.Error("expected nil with no sources")
		}
	})

	t.Run("primary usable", func(t *testing.T) {
		e := NewElection([]feedback.Source{fresh1}, []feedback.Source{fresh2})
		got, a := e.Select()
		if got != fresh1 || a.Roll != 1 {
			t.Errorf("expected primary fresh source, got %v %+v", got, a)
		}
		if e.Active() != fresh1 {
			t.Error("Active() should return selected source")
		}
	})

	t.Run("primary stale fallback to secondary", func(t *testing.T) {
		e := NewElection([]feedback.Source{unavail, stale}, []feedback.Source{fresh2})
		got, a := e.Select()
		if got != fresh2 || a.Roll != 2 {
			t.Errorf("expected secondary fresh, got %v %+v", got, a)
		}
	})

	t.Run("none usable", func(t *testing.T) {
		e := NewElection([]feedback.Source{unavail, stale}, []feedback.Source{unavail})
		if got, _ := e.Select(); got != nil {
			t.Errorf("expected nil when none usable, got %v", got)
		}
		if e.Active() != nil {
			t.Error("Active() should be nil")
		}
	})
}

func TestElection_Read(t *testing.T) {
	t.Run("reads each source once per cycle", func(t *testing.T) {
		src := &mockSource{name: "p", a: feedback.Attitude{Pitch: 0.5}, st: feedback.StatusFresh}
		e := NewElection([]feedback.Source{src}, nil)
		a, ok := e.Read()
		if !ok || a.Pitch != 0.5 {
			t.Errorf("Read = %+v, %v", a, ok)
		}
		if src.reads != 1 {
			t.Errorf("source read %d times, want 1", src.reads)
		}
	})

	t.Run("no usable source", func(t *testing.T) {
		e := NewElection([]feedback.Source{&mockSource{st: feedback.StatusStale}}, nil)
		if _, ok := e.Read(); ok {
			t.Error("expected !ok")
		}
	})

	t.Run("sources lists all", func(t *testing.T) {
		a, b := &mockSource{}, &mockSource{}
		if n := len(NewElection([]feedback.Source{a}, []feedback.Source{b}).Sources()); n != 2 {
			t.Errorf("Sources = %d", n)
		}
	})
}
