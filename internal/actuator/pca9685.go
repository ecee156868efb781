package actuator

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Регистры PCA9685
const (
	regMode1    = 0x00
	regLED0     = 0x06 // ON_L, ON_H, OFF_L, OFF_H на канал, шаг 4
	regPrescale = 0xFE

	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80

	oscillatorHz = 25_000_000
	resolution   = 4096
)

// Tx: транзакция I2C (реализуется *i2c.Dev).
type Tx interface {
	Tx(w, r []byte) error
}

// PCA9685: 12-битный ШИМ-контроллер; физический выход i+1 подключён к каналу i.
type PCA9685 struct {
	dev      Tx
	closer   func() error
	freq     int
	min, max int
}

// OpenPCA9685 открывает шину I2C (пусто: первая доступная) и настраивает частоту ШИМ.
func OpenPCA9685(bus string, addr uint16, freq, min, max int) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pca9685: periph init: %w", err)
	}
	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("pca9685: open i2c %q: %w", bus, err)
	}
	p, err := NewPCA9685(&i2c.Dev{Addr: addr, Bus: b}, freq, min, max)
	if err != nil {
		b.Close()
		return nil, err
	}
	p.closer = b.Close
	return p, nil
}

// NewPCA9685 настраивает контроллер на устройстве dev.
func NewPCA9685(dev Tx, freq, min, max int) (*PCA9685, error) {
	if freq < 24 || freq > 1526 {
		return nil, fmt.Errorf("pca9685: pwm frequency %d Hz out of 24..1526", freq)
	}
	p := &PCA9685{dev: dev, freq: freq, min: min, max: max}
	prescale := byte(math.Round(float64(oscillatorHz)/(resolution*float64(freq))) - 1)
	steps := [][]byte{
		{regMode1, mode1Sleep},
		{regPrescale, prescale},
		{regMode1, mode1AutoInc},
	}
	for _, s := range steps {
		if err := dev.Tx(s, nil); err != nil {
			return nil, fmt.Errorf("pca9685: write reg %#x: %w", s[0], err)
		}
	}
	time.Sleep(500 * time.Microsecond)
	if err := dev.Tx([]byte{regMode1, mode1AutoInc | mode1Restart}, nil); err != nil {
		return nil, fmt.Errorf("pca9685: restart: %w", err)
	}
	return p, nil
}

func (p *PCA9685) Range() (int, int) { return p.min, p.max }

// Counts переводит длительность импульса (мкс) в отсчёты 0..4095.
func (p *PCA9685) Counts(us int) uint16 {
	c := math.Round(float64(us) * float64(p.freq) * resolution / 1e6)
	return uint16(max(0, min(resolution-1, c)))
}

// Write выводит четыре канала одной транзакцией (автоинкремент адреса).
func (p *PCA9685) Write(out [4]int) error {
	buf := make([]byte, 1+4*len(out))
	buf[0] = regLED0
	for i, us := range out {
		off := p.Counts(us)
		// ON = 0, OFF = off
		buf[1+4*i+2] = byte(off)
		buf[1+4*i+3] = byte(off >> 8)
	}
	if err := p.dev.Tx(buf, nil); err != nil {
		return fmt.Errorf("pca9685: write outputs: %w", err)
	}
	return nil
}

// Close переводит контроллер в сон и закрывает шину.
func (p *PCA9685) Close() error {
	err := p.dev.Tx([]byte{regMode1, mode1Sleep}, nil)
	if p.closer != nil {
		if cerr := p.closer(); err == nil {
			err = cerr
		}
	}
	return err
}
