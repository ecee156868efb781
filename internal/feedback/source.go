// Package feedback: источники оценки ориентации (углы и угловые скорости корпуса) для цикла управления.
package feedback

// Attitude: оценка ориентации в одинарной точности, как её отдаёт AHRS.
type Attitude struct {
	Roll, Pitch, Yaw float32 // рад
	P, Q, R          float32 // рад/с
}

// Source: источник оценки ориентации
type Source interface {
	// Name возвращает имя источника для логов
	Name() string
	// Kind возвращает тип: link, replay
	Kind() string
	// Read возвращает текущую оценку и статус
	Read() (Attitude, Status)
	// Close освобождает ресурсы
	Close() error
}

// Status: состояние источника
type Status int

const (
	StatusUnavailable Status = iota
	StatusStale       // данные есть, но старше допустимого
	StatusFresh       // пригоден для цикла управления
)

func (s Status) String() string {
	switch s {
	case StatusUnavailable:
		return "unavailable"
	case StatusStale:
		return "stale"
	case StatusFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// IsUsable возвращает true, если оценку можно подавать в цикл управления
func (s Status) IsUsable() bool {
	return s == StatusFresh
}
