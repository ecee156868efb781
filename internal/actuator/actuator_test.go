package actuator

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shiwa/quadctl/internal/config"
	"github.com/shiwa/quadctl/internal/link"
)

// mockBus записывает транзакции I2C.
type mockBus struct {
	writes [][]byte
	err    error
}

func (m *mockBus) Tx(w, r []byte) error {
	m.writes = append(m.writes, append([]byte(nil), w...))
	return m.err
}

type mockWriter struct {
	last link.MotorCommand
}

func (m *mockWriter) WriteMotors(c link.MotorCommand) error {
	m.last = c
	return nil
}

func TestPCA9685_Init(t *testing.T) {
	bus := &mockBus{}
	if _, err := NewPCA9685(bus, 400, 1000, 2000); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{
		{regMode1, mode1Sleep},
		{regPrescale, 14},
		{regMode1, mode1AutoInc},
		{regMode1, mode1AutoInc | mode1Restart},
	}
	if len(bus.writes) != len(want) {
		t.Fatalf("got %d writes, want %d", len(bus.writes), len(want))
	}
	for i := range want {
		if !bytes.Equal(bus.writes[i], want[i]) {
			t.Errorf("write %d = %x, want %x", i, bus.writes[i], want[i])
		}
	}

	if _, err := NewPCA9685(&mockBus{}, 5000, 1000, 2000); err == nil {
		t.Error("expected error for out-of-range frequency")
	}
	if _, err := NewPCA9685(&mockBus{err: errors.New("nack")}, 400, 1000, 2000); err == nil {
		t.Error("expected bus error")
	}
}

func TestPCA9685_Write(t *testing.T) {
	bus := &mockBus{}
	p, err := NewPCA9685(bus, 400, 1000, 2000)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		us   int
		want uint16
	}{
		{1000, 1638},
		{2000, 3277},
		{0, 0},
		{5000, 4095},
	}
	for _, tt := range tests {
		if got := p.Counts(tt.us); got != tt.want {
			t.Errorf("Counts(%d) = %d, want %d", tt.us, got, tt.want)
		}
	}

	bus.writes = nil
	if err := p.Write([4]int{1000, 0, 0, 2000}); err != nil {
		t.Fatal(err)
	}
	buf := bus.writes[0]
	if len(buf) != 17 || buf[0] != regLED0 {
		t.Fatalf("frame = %x", buf)
	}
	// канал 0: OFF = 1638 = 0x0666
	if buf[3] != 0x66 || buf[4] != 0x06 {
		t.Errorf("channel 0 OFF = %x %x", buf[3], buf[4])
	}
	// канал 3: OFF = 3277 = 0x0CCD
	if buf[15] != 0xCD || buf[16] != 0x0C {
		t.Errorf("channel 3 OFF = %x %x", buf[15], buf[16])
	}
}

func TestLink_Write(t *testing.T) {
	w := &mockWriter{}
	l := NewLink(w, 1000, 2000)
	if err := l.Write([4]int{1500, -5, 70000, 1000}); err != nil {
		t.Fatal(err)
	}
	if want := (link.MotorCommand{1500, 0, 0xFFFF, 1000}); w.last != want {
		t.Errorf("MOT = %v, want %v", w.last, want)
	}
	if lo, hi := l.Range(); lo != 1000 || hi != 2000 {
		t.Errorf("Range = %d, %d", lo, hi)
	}
}

func TestNone(t *testing.T) {
	n := NewNone(1000, 2000)
	_ = n.Write([4]int{1, 2, 3, 4})
	_ = n.Write([4]int{5, 6, 7, 8})
	last, count := n.Last()
	if last != [4]int{5, 6, 7, 8} || count != 2 {
		t.Errorf("Last = %v, %d", last, count)
	}
}

func TestNew(t *testing.T) {
	c := config.Default().Actuator

	c.Driver = "none"
	if a, err := New(c, nil); err != nil {
		t.Errorf("none: %v", err)
	} else if _, ok := a.(*None); !ok {
		t.Errorf("none: got %T", a)
	}

	c.Driver = "link"
	if _, err := New(c, nil); err == nil {
		t.Error("link without writer: expected error")
	}
	if a, err := New(c, &mockWriter{}); err != nil {
		t.Errorf("link: %v", err)
	} else if _, ok := a.(*Link); !ok {
		t.Errorf("link: got %T", a)
	}

	c.Driver = "servo-hat"
	if _, err := New(c, nil); err == nil {
		t.Error("unknown driver: expected error")
	}
}
