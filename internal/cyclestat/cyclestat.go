// Package cyclestat: статистика периода цикла управления по скользящему окну.
package cyclestat

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow: 10 с при 100 Гц.
const DefaultWindow = 1000

// Window: кольцевой буфер периодов цикла (в секундах).
type Window struct {
	win      []float64
	i, l     int
	total    int
	limit    time.Duration
	overruns int
}

// Summary: сводка по окну.
type Summary struct {
	Count    int // всего периодов с последнего Reset
	Mean     time.Duration
	StdDev   time.Duration
	P99      time.Duration
	Max      time.Duration
	Overruns int // периодов длиннее limit с последнего Reset
}

func (s Summary) String() string {
	return fmt.Sprintf("cycles=%d mean=%v sd=%v p99=%v max=%v overruns=%d",
		s.Count, s.Mean, s.StdDev, s.P99, s.Max, s.Overruns)
}

// New создаёт окно размера n; период длиннее limit считается перерасходом (limit <= 0: не считать).
func New(n int, limit time.Duration) *Window {
	if n < 1 {
		n = DefaultWindow
	}
	return &Window{win: make([]float64, n), limit: limit}
}

// Add добавляет период.
func (w *Window) Add(d time.Duration) {
	w.win[w.i] = d.Seconds()
	w.i = (w.i + 1) % len(w.win)
	if w.l != len(w.win) {
		w.l++
	}
	w.total++
	if w.limit > 0 && d > w.limit {
		w.overruns++
	}
}

// Summary возвращает сводку; для пустого окна все длительности нулевые.
func (w *Window) Summary() Summary {
	s := Summary{Count: w.total, Overruns: w.overruns}
	if w.l == 0 {
		return s
	}
	data := w.win[:w.l]
	mean, sd := stat.MeanStdDev(data, nil)
	if w.l == 1 {
		sd = 0
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	s.Mean = seconds(mean)
	s.StdDev = seconds(sd)
	s.P99 = seconds(stat.Quantile(0.99, stat.Empirical, sorted, nil))
	s.Max = seconds(floats.Max(data))
	return s
}

// Reset очищает окно и счётчики.
func (w *Window) Reset() {
	w.i, w.l, w.total, w.overruns = 0, 0, 0, 0
}

func seconds(x float64) time.Duration {
	return time.Duration(x * float64(time.Second))
}
