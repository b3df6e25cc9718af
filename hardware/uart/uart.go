// Package uart opens printer serial link.
package uart

import (
	"time"

	"github.com/juju/errors"
	"go.bug.st/serial"
)

const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 500 * time.Millisecond
)

type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// Open configures 8N1 at c.Baud. Hardware flow control lines are left to platform
// device tree, serial library exposes only RTS/DTR levels.
func Open(c Config) (serial.Port, error) {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	mode := &serial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(c.Device, mode)
	if err != nil {
		return nil, errors.Annotatef(err, "uart open device=%s baud=%d", c.Device, c.Baud)
	}
	if err = port.SetReadTimeout(c.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, errors.Annotate(err, "uart SetReadTimeout")
	}
	if err = port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, errors.Annotate(err, "uart ResetInputBuffer")
	}
	return port, nil
}
