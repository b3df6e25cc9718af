package state

import (
	"github.com/juju/errors"
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/hardware/input"
	"github.com/temoto/till/hardware/led"
	"github.com/temoto/till/internal/receipt"
	"github.com/temoto/till/internal/till"
	"github.com/temoto/till/log2"
)

// Devices are opened hardware handles, ready to use.
type Devices struct {
	Printer receipt.Printer
	Strip   led.Transmitter
	Sources []input.Source
}

// Start validates glyphs against config, initializes printer and spawns every task.
// Returned machine belongs to till task, read its State only after Alive.Wait.
func (g *Global) Start(dev Devices) (*till.Machine, error) {
	glyphs, err := receipt.LoadGlyphs()
	if err != nil {
		return nil, err
	}
	if err = glyphs.ValidateItems(g.Config.Items()); err != nil {
		return nil, errors.Annotate(err, "config hardware.button")
	}

	printer := receipt.NewDriver(g.TaskLog("receipt"), dev.Printer, glyphs)
	if text := g.Config.Receipt.QRText; text != "" {
		qr, err := display.QR(text, g.Config.Receipt.QRSize)
		if err != nil {
			return nil, errors.Annotate(err, "config receipt.qr_text")
		}
		printer.SetQR(qr)
	}
	if err = printer.Init(); err != nil {
		return nil, err
	}

	ledLog := g.TaskLog("led")
	if g.Config.Hardware.Led.LogDebug {
		ledLog.SetLevel(log2.LDebug)
	}
	ledDriver := led.NewDriver(ledLog, dev.Strip)

	tillLog := g.TaskLog("till")
	if g.Config.Till.LogDebug {
		tillLog.SetLevel(log2.LDebug)
	}
	machine := till.NewMachine(tillLog, g.Print, g.Led)
	machine.Timings = g.Config.TillTimings()

	g.Go("led", func(stop <-chan struct{}) error { return ledDriver.Run(g.Led, stop) })
	g.Go("receipt", func(stop <-chan struct{}) error { return printer.Run(g.Print, stop) })
	g.Go("till", func(stop <-chan struct{}) error {
		machine.Run(g.Input, stop)
		return nil
	})
	for _, src := range dev.Sources {
		src := src
		g.Go(src.String(), func(stop <-chan struct{}) error { return src.Run(g.Input, stop) })
	}
	return machine, nil
}
