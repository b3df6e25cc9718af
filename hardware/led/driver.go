package led

import (
	"github.com/juju/errors"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

type Transmitter interface {
	Transmit(colors ...Color) error
}

type Driver struct {
	Log     *log2.Log
	Strip   Transmitter
	Default Color
}

func NewDriver(log *log2.Log, strip Transmitter) *Driver {
	return &Driver{Log: log, Strip: strip, Default: ColorDefault}
}

// Run shows ambient default, then applies commands until in is closed or stop.
// LED is switched off on the way out.
func (self *Driver) Run(in <-chan types.LedState, stop <-chan struct{}) error {
	if err := self.Strip.Transmit(self.Default); err != nil {
		return errors.Annotate(err, "led init")
	}
	for {
		select {
		case st, ok := <-in:
			if !ok {
				return self.off()
			}
			if err := self.apply(st); err != nil {
				return err
			}
		case <-stop:
			return self.off()
		}
	}
}

func (self *Driver) apply(st types.LedState) error {
	var c Color
	switch st.Kind {
	case types.LedNoop:
		return nil
	case types.LedSetColor:
		c = FromState(st.Color)
	case types.LedDefault:
		c = self.Default
	case types.LedOff:
		c = ColorOff
	default:
		return errors.NotValidf("led state=%s", st.String())
	}
	self.Log.Debugf("%s", c.String())
	return errors.Annotate(self.Strip.Transmit(c), st.String())
}

func (self *Driver) off() error {
	return errors.Annotate(self.Strip.Transmit(ColorOff), "led off")
}
