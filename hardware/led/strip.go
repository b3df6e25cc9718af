package led

import (
	"io"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/till/log2"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

type SpiTxFunc func(send, recv []byte) error

type Config struct {
	SpiBus  string
	SpiMode int
	// Empty means SequencerClock. Override only when controller can not hit it exactly.
	SpiSpeed string
	// Optional SPI controller input clock, e.g. "250MHz", to check divided speed.
	CoreClock string
	Length    int
}

// Strip owns SPI connection and frame buffer. Not safe for concurrent use,
// only LED driver task transmits.
type Strip struct {
	log    *log2.Log
	tx     SpiTxFunc
	sleep  func(time.Duration)
	closer io.Closer
	buf    []byte
	length int
}

func NewStrip(log *log2.Log, tx SpiTxFunc, length int) *Strip {
	if length <= 0 {
		length = 1
	}
	return &Strip{
		log:    log,
		tx:     tx,
		sleep:  time.Sleep,
		buf:    make([]byte, 0, length*BytesPerColor),
		length: length,
	}
}

func Open(log *log2.Log, c Config) (*Strip, error) {
	speed, timing, err := c.Clock()
	if err != nil {
		return nil, err
	}
	if _, err = host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	port, err := spireg.Open(c.SpiBus)
	if err != nil {
		return nil, errors.Annotatef(err, "SPI Open bus=%s", c.SpiBus)
	}
	conn, err := port.Connect(speed, spi.Mode(c.SpiMode), 8)
	if err != nil {
		port.Close()
		return nil, errors.Annotate(err, "SPI Connect")
	}
	log.Debugf("spi bus=%s speed=%s T0H=%v T1H=%v period=%v", c.SpiBus, speed.String(), timing.T0H, timing.T1H, timing.Period)
	s := NewStrip(log, conn.Tx, c.Length)
	s.closer = port
	return s, nil
}

// Clock resolves SPI speed and checks waveform timing it produces.
// With CoreClock set, speed is what 24.8 divider from core clock actually achieves.
func (c Config) Clock() (physic.Frequency, Timing, error) {
	speed := SequencerClock
	if c.SpiSpeed != "" {
		if err := speed.Set(c.SpiSpeed); err != nil {
			return 0, Timing{}, errors.Annotate(err, "SPI speed parse")
		}
	}
	if c.CoreClock != "" {
		var core physic.Frequency
		if err := core.Set(c.CoreClock); err != nil {
			return 0, Timing{}, errors.Annotate(err, "SPI core clock parse")
		}
		div := ClockDividerFor(core, speed)
		if div < 1<<8 {
			return 0, Timing{}, errors.NotValidf("SPI core clock=%s slower than speed=%s", core.String(), speed.String())
		}
		speed = DividedClock(core, div)
	}
	timing := TimingAt(speed)
	if err := timing.Validate(); err != nil {
		return 0, Timing{}, errors.Annotatef(err, "SPI speed=%s", speed.String())
	}
	return speed, timing, nil
}

// Transmit sends whole frame and returns after latch gap, so next frame is accepted as new.
// Missing colors are padded with off, extra colors are ignored.
func (self *Strip) Transmit(colors ...Color) error {
	var frame [8]Color
	fs := frame[:0]
	if self.length > len(frame) {
		fs = make([]Color, 0, self.length)
	}
	for i := 0; i < self.length; i++ {
		c := ColorOff
		if i < len(colors) {
			c = colors[i]
		}
		fs = append(fs, c)
	}
	self.buf = Encode(self.buf, fs)
	if err := self.tx(self.buf, nil); err != nil {
		return errors.Annotatef(err, "led transmit len=%d", len(self.buf))
	}
	self.sleep(LatchGap)
	return nil
}

func (self *Strip) Close() error {
	if self.closer == nil {
		return nil
	}
	return self.closer.Close()
}

