// Package led drives SK6812 RGBW status LED over SPI.
//
// One-wire waveform is produced by SPI controller shifting precomputed frame,
// each LED bit becomes CyclesPerBit SPI bits at SequencerClock.
// Bit waveform: T3 cycles low, T1 cycles high, then T2 cycles high for 1 or low for 0.
package led

import (
	"time"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/physic"
)

const (
	T1 = 2
	T2 = 5
	T3 = 3

	CyclesPerBit  = T1 + T2 + T3
	BitsPerColor  = 32
	BytesPerColor = BitsPerColor * CyclesPerBit / 8

	SymbolRate     = 800 * physic.KiloHertz
	SequencerClock = SymbolRate * CyclesPerBit

	LatchGap = 55 * time.Microsecond

	// SK6812 datasheet bit period is 1.25us, pulse tolerance 150ns
	bitPeriod = 1250 * time.Nanosecond
	tolerance = 150 * time.Nanosecond
)

const (
	symbolOne  uint32 = 0x07f // 000 11 11111
	symbolZero uint32 = 0x060 // 000 11 00000
)

// Encode appends SPI frame for colors to dst[:0] and returns it.
// Reuse returned slice as dst next time to avoid allocation.
func Encode(dst []byte, colors []Color) []byte {
	dst = dst[:0]
	var acc uint32
	var n uint
	for _, c := range colors {
		w := c.Wire()
		for i := BitsPerColor - 1; i >= 0; i-- {
			sym := symbolZero
			if w&(1<<uint(i)) != 0 {
				sym = symbolOne
			}
			acc = acc<<CyclesPerBit | sym
			n += CyclesPerBit
			for n >= 8 {
				n -= 8
				dst = append(dst, byte(acc>>n))
			}
			acc &= 1<<n - 1
		}
	}
	return dst
}

// ClockDivider returns 24.8 fixed point divisor from system clock to SequencerClock.
func ClockDivider(sys physic.Frequency) uint32 { return ClockDividerFor(sys, SequencerClock) }

// ClockDividerFor returns 24.8 fixed point divisor from sys to target, fraction truncated.
// Computed in kHz to stay in 32 bits for any realistic system clock.
func ClockDividerFor(sys, target physic.Frequency) uint32 {
	targetKHz := uint64(target / physic.KiloHertz)
	if targetKHz == 0 {
		return 0
	}
	return uint32(uint64(sys/physic.KiloHertz) * 256 / targetKHz)
}

// DividedClock is frequency produced by sys through 24.8 divisor div.
func DividedClock(sys physic.Frequency, div uint32) physic.Frequency {
	if div == 0 {
		return 0
	}
	return physic.Frequency(uint64(sys/physic.KiloHertz)*256/uint64(div)) * physic.KiloHertz
}

type Timing struct {
	Cycle  time.Duration
	T0H    time.Duration
	T0L    time.Duration
	T1H    time.Duration
	T1L    time.Duration
	Period time.Duration
}

// TimingAt reports effective pulse widths when sequencer runs at seq.
func TimingAt(seq physic.Frequency) Timing {
	if seq <= 0 {
		return Timing{}
	}
	cycle := time.Duration(int64(time.Second) * int64(physic.Hertz) / int64(seq))
	return Timing{
		Cycle:  cycle,
		T0H:    T1 * cycle,
		T0L:    (T2 + T3) * cycle,
		T1H:    (T1 + T2) * cycle,
		T1L:    T3 * cycle,
		Period: CyclesPerBit * cycle,
	}
}

func (t Timing) Validate() error {
	if t.Cycle <= 0 {
		return errors.NotValidf("led timing cycle=%v", t.Cycle)
	}
	if d := t.Period - bitPeriod; d > tolerance || d < -tolerance {
		return errors.NotValidf("led bit period=%v expected=%v±%v", t.Period, bitPeriod, tolerance)
	}
	if t.T0H >= t.T1H {
		return errors.NotValidf("led T0H=%v must be shorter than T1H=%v", t.T0H, t.T1H)
	}
	return nil
}
