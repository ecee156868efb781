// Package feedbackselect: выбор активного источника оценки ориентации (primary -> secondary).
package feedbackselect

import (
	"github.com/shiwa/quadctl/internal/feedback"
)

// Election: выбор активного источника
type Election struct {
	primary   []feedback.Source
	secondary []feedback.Source
	active    feedback.Source
}

// NewElection создаёт выборщик из списков primary и secondary
func NewElection(primary, secondary []feedback.Source) *Election {
	return &Election{
		primary:   primary,
		secondary: secondary,
	}
}

// Select выбирает первый пригодный источник: сначала primary, затем secondary.
// Возвращает источник и прочитанную из него оценку (повторное чтение сдвинуло бы replay).
func (e *Election) Select() (feedback.Source, feedback.Attitude) {
	for _, list := range [][]feedback.Source{e.primary, e.secondary} {
		for _, s := range list {
			if a, st := s.Read(); st.IsUsable() {
				e.active = s
				return s, a
			}
		}
	}
	e.active = nil
	return nil, feedback.Attitude{}
}

// Active возвращает источник, выбранный последним Select
func (e *Election) Active() feedback.Source {
	return e.active
}

// Read возвращает оценку от пригодного источника этого цикла; ok = false, если пригодных нет.
func (e *Election) Read() (feedback.Attitude, bool) {
	s, a := e.Select()
	return a, s != nil
}

// Sources возвращает все источники (для закрытия).
func (e *Election) Sources() []feedback.Source {
	out := make([]feedback.Source, 0, len(e.primary)+len(e.secondary))
	out = append(out, e.primary...)
	return append(out, e.secondary...)
}
