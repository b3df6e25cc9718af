package main

import (
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/hardware/escpos"
	"github.com/temoto/till/hardware/led"
	"github.com/temoto/till/internal/receipt"
	"github.com/temoto/till/log2"
)

// previewPrinter draws receipt images on console instead of paper.
type previewPrinter struct {
	log   *log2.Log
	scale int
}

var _ receipt.Printer = new(previewPrinter)

func newPreviewPrinter(log *log2.Log, scale int) *previewPrinter {
	return &previewPrinter{log: log, scale: scale}
}

func (self *previewPrinter) PrintImage(b display.Bitmap) error {
	if err := b.Validate(); err != nil {
		return err
	}
	self.log.Infof("image %dx%d\n%s", b.Width, b.Height, b.Thumbnail(self.scale))
	return nil
}

func (self *previewPrinter) Raw(b []byte) error {
	self.log.Debugf("raw %x", b)
	return nil
}

func (self *previewPrinter) Feed(lines int) error {
	self.log.Debugf("feed %d", lines)
	return nil
}

func (self *previewPrinter) PaperStatus() (escpos.PaperStatus, error) {
	return escpos.ParsePaperStatus(0), nil
}

func (self *previewPrinter) SetPrintSpeed(int) error           { return nil }
func (self *previewPrinter) SetMaxSpeed(int) error             { return nil }
func (self *previewPrinter) SetSoftwareFlowControl(bool) error { return nil }

// logStrip prints frame colors together with wire encoding.
type logStrip struct {
	log *log2.Log
	buf []byte
}

var _ led.Transmitter = new(logStrip)

func newLogStrip(log *log2.Log) *logStrip { return &logStrip{log: log} }

func (self *logStrip) Transmit(colors ...led.Color) error {
	self.buf = led.Encode(self.buf, colors)
	for _, c := range colors {
		self.log.Infof("color=%s wire=%08x frame_bytes=%d", c.String(), c.Wire(), len(self.buf))
	}
	return nil
}
