package link

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Port: последовательный порт линии к полётному стеку.
type Port struct {
	port *serial.Port
}

// Open открывает порт. readTimeout > 0 ограничивает ожидание одного Read.
func Open(device string, baud int, readTimeout time.Duration) (*Port, error) {
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	return &Port{port: p}, nil
}

// Read реализует io.Reader.
func (p *Port) Read(b []byte) (int, error) { return p.port.Read(b) }

// Write реализует io.Writer.
func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }

// Close закрывает порт.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// ListPorts возвращает имена последовательных портов системы.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
