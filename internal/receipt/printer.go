package receipt

import (
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/hardware/escpos"
)

// Printer is thermal printer command set used by receipt driver.
type Printer interface {
	PrintImage(display.Bitmap) error
	Raw([]byte) error
	Feed(lines int) error
	PaperStatus() (escpos.PaperStatus, error)
	SetPrintSpeed(int) error
	SetMaxSpeed(int) error
	SetSoftwareFlowControl(bool) error
}

var _ Printer = new(escpos.Printer)
