// Package actuator: вывод команд моторов на исполнительные устройства.
package actuator

import (
	"fmt"
	"sync"

	"github.com/shiwa/quadctl/internal/config"
	"github.com/shiwa/quadctl/internal/link"
)

// Actuator: четыре физических выхода с общим диапазоном команд.
type Actuator interface {
	// Range возвращает диапазон команд (обычно длительность импульса, мкс).
	Range() (min, max int)
	// Write выводит команды; out[i]: команда физического выхода i+1.
	Write(out [4]int) error
	Close() error
}

// MotorWriter: отправка кадра MOT (реализуется *link.Hub).
type MotorWriter interface {
	WriteMotors(link.MotorCommand) error
}

// New создаёт исполнительное устройство по конфигу. w нужен для driver: link.
func New(c config.ActuatorConfig, w MotorWriter) (Actuator, error) {
	switch c.Driver {
	case "link", "":
		if w == nil {
			return nil, fmt.Errorf("actuator link: serial link not open")
		}
		return NewLink(w, c.PWMMin, c.PWMMax), nil
	case "pca9685":
		return OpenPCA9685(c.I2CBus, c.I2CAddr, c.PWMFreq, c.PWMMin, c.PWMMax)
	case "none":
		return NewNone(c.PWMMin, c.PWMMax), nil
	default:
		return nil, fmt.Errorf("unknown actuator driver: %s", c.Driver)
	}
}

// Link: команды уходят полётному стеку кадром MOT.
type Link struct {
	w        MotorWriter
	min, max int
}

// NewLink создаёт драйвер поверх линии.
func NewLink(w MotorWriter, min, max int) *Link {
	return &Link{w: w, min: min, max: max}
}

func (l *Link) Range() (int, int) { return l.min, l.max }

// Write отправляет MOT. Команды вне 0..65535 обрезаются до границ uint16.
func (l *Link) Write(out [4]int) error {
	var m link.MotorCommand
	for i, c := range out {
		m[i] = uint16(max(0, min(0xFFFF, c)))
	}
	return l.w.WriteMotors(m)
}

// Close ничего не делает: линией владеет хаб.
func (l *Link) Close() error { return nil }

// None: запоминает последние команды (пробные прогоны и тесты).
type None struct {
	min, max int

	mu     sync.Mutex
	last   [4]int
	writes int
}

// NewNone создаёт пустой драйвер.
func NewNone(min, max int) *None {
	return &None{min: min, max: max}
}

func (n *None) Range() (int, int) { return n.min, n.max }

func (n *None) Write(out [4]int) error {
	n.mu.Lock()
	n.last = out
	n.writes++
	n.mu.Unlock()
	return nil
}

// Last возвращает последние команды и число вызовов Write.
func (n *None) Last() ([4]int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, n.writes
}

func (n *None) Close() error { return nil }
