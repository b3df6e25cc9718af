// Package escpos is minimal ESC/POS command set for raster thermal printers:
// raster image, feed, paper sensor and speed setup.
package escpos

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/helpers"
)

const (
	ESC = 0x1b
	GS  = 0x1d
	DC2 = 0x12
)

// vendor extensions of DC2 family, common on embedded panel printers
const (
	dc2FlowControl = 'F'
	dc2MaxSpeed    = 'M'
	dc2PrintSpeed  = 'P'
)

const (
	MaxPrintSpeed = 9
	maxRasterRows = 0xffff
)

type PaperStatus struct {
	Raw     byte
	NearEnd bool
	Out     bool
}

func ParsePaperStatus(b byte) PaperStatus {
	return PaperStatus{
		Raw:     b,
		NearEnd: b&0x03 != 0,
		Out:     b&0x0c != 0,
	}
}

func (s PaperStatus) String() string {
	switch {
	case s.Out:
		return fmt.Sprintf("out (%02x)", s.Raw)
	case s.NearEnd:
		return fmt.Sprintf("near end (%02x)", s.Raw)
	}
	return fmt.Sprintf("ok (%02x)", s.Raw)
}

// Printer writes commands to transport synchronously. Not safe for concurrent use.
type Printer struct {
	t   io.ReadWriter
	buf []byte
}

func NewPrinter(t io.ReadWriter) *Printer {
	return &Printer{t: t, buf: make([]byte, 0, 64)}
}

func (self *Printer) write(b []byte) error {
	return errors.Annotatef(helpers.WriteAll(self.t, b), "escpos write len=%d", len(b))
}

func (self *Printer) cmd(bs ...byte) error {
	self.buf = append(self.buf[:0], bs...)
	return self.write(self.buf)
}

func (self *Printer) Raw(b []byte) error { return self.write(b) }

// PrintImage sends bitmap as GS v 0 raster, printer and Bitmap share bit layout.
func (self *Printer) PrintImage(b display.Bitmap) error {
	if err := b.Validate(); err != nil {
		return errors.Annotate(err, "escpos PrintImage")
	}
	if b.Height > maxRasterRows {
		return errors.NotValidf("escpos PrintImage height=%d", b.Height)
	}
	stride := b.Stride()
	if err := self.cmd(GS, 'v', '0', 0,
		byte(stride), byte(stride>>8),
		byte(b.Height), byte(b.Height>>8)); err != nil {
		return err
	}
	return self.write(b.Data[:stride*b.Height])
}

// Feed prints buffer and feeds n lines, ESC d n.
func (self *Printer) Feed(lines int) error {
	if lines < 0 || lines > 0xff {
		return errors.NotValidf("escpos Feed lines=%d", lines)
	}
	return self.cmd(ESC, 'd', byte(lines))
}

// PaperStatus transmits GS r 1 and reads one status byte.
func (self *Printer) PaperStatus() (PaperStatus, error) {
	if err := self.cmd(GS, 'r', 1); err != nil {
		return PaperStatus{}, err
	}
	var b [1]byte
	n, err := self.t.Read(b[:])
	if err != nil {
		return PaperStatus{}, errors.Annotate(err, "escpos PaperStatus read")
	}
	if n != 1 {
		return PaperStatus{}, errors.Timeoutf("escpos PaperStatus")
	}
	return ParsePaperStatus(b[0]), nil
}

func (self *Printer) SetPrintSpeed(speed int) error {
	if speed < 0 || speed > MaxPrintSpeed {
		return errors.NotValidf("escpos print speed=%d", speed)
	}
	return self.cmd(DC2, dc2PrintSpeed, byte(speed))
}

// SetMaxSpeed limits paper motion, mm/s.
func (self *Printer) SetMaxSpeed(mms int) error {
	if mms <= 0 || mms > 0xffff {
		return errors.NotValidf("escpos max speed=%d", mms)
	}
	return self.cmd(DC2, dc2MaxSpeed, byte(mms), byte(mms>>8))
}

func (self *Printer) SetSoftwareFlowControl(on bool) error {
	var n byte
	if on {
		n = 1
	}
	return self.cmd(DC2, dc2FlowControl, n)
}
