package cyclestat

import (
	"testing"
	"time"
)

func near(a, b time.Duration) bool {
	d := a - b
	return d > -time.Microsecond && d < time.Microsecond
}

func TestWindow_Summary(t *testing.T) {
	w := New(4, 12*time.Millisecond)
	if s := w.Summary(); s.Count != 0 || s.Mean != 0 {
		t.Errorf("empty summary = %+v", s)
	}

	for _, ms := range []int{10, 10, 10, 14} {
		w.Add(time.Duration(ms) * time.Millisecond)
	}
	s := w.Summary()
	if s.Count != 4 || s.Overruns != 1 {
		t.Errorf("count=%d overruns=%d", s.Count, s.Overruns)
	}
	if !near(s.Mean, 11*time.Millisecond) {
		t.Errorf("mean = %v", s.Mean)
	}
	if !near(s.StdDev, 2*time.Millisecond) {
		t.Errorf("sd = %v, want 2ms (sample)", s.StdDev)
	}
	if !near(s.Max, 14*time.Millisecond) || !near(s.P99, 14*time.Millisecond) {
		t.Errorf("max = %v p99 = %v", s.Max, s.P99)
	}
}

func TestWindow_Wraps(t *testing.T) {
	w := New(2, 0)
	w.Add(50 * time.Millisecond)
	w.Add(10 * time.Millisecond)
	w.Add(10 * time.Millisecond)
	s := w.Summary()
	if s.Count != 3 || !near(s.Max, 10*time.Millisecond) || s.Overruns != 0 {
		t.Errorf("summary after wrap = %+v", s)
	}

	w.Reset()
	w.Add(time.Millisecond)
	if s := w.Summary(); s.Count != 1 || s.StdDev != 0 || !near(s.Mean, time.Millisecond) {
		t.Errorf("after reset = %+v", s)
	}
}
