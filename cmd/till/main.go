// Produce stall till: front panel buttons, receipt printer and status LED.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/till/hardware/escpos"
	"github.com/temoto/till/hardware/input"
	"github.com/temoto/till/hardware/led"
	"github.com/temoto/till/hardware/uart"
	"github.com/temoto/till/internal/state"
	"github.com/temoto/till/log2"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	flagConfig := flag.String("config", "till.hcl", "")
	flagDebug := flag.Bool("debug", false, "debug logging for every task")
	flag.Parse()

	if sdnotify("start") {
		// under systemd, journal adds timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}
	if !*flagDebug {
		log.SetLevel(log2.LInfo)
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	log.Debugf("config=%+v", config)

	g := state.NewGlobal(log, config)
	if err := run(g); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	if err := g.Err(); err != nil {
		// platform restarts process
		os.Exit(1)
	}
}

func run(g *state.Global) error {
	config := g.Config
	// input sources block in read, closing them unblocks tasks
	var inputs, outputs closeList

	chip, err := gpio.Open(config.Hardware.PinChip, "till")
	if err != nil {
		return errors.Annotatef(err, "gpio Open chip=%s", config.Hardware.PinChip)
	}
	bindings := config.Bindings()
	buttons, err := input.OpenButtons(g.TaskLog("input"), chip, bindings, config.ButtonSettle(), config.ButtonPoll())
	if err != nil {
		_ = chip.Close()
		return err
	}
	inputs = append(inputs, buttons.Close)
	sources := make([]input.Source, 0, len(buttons.Watchers)+1)
	for _, w := range buttons.Watchers {
		sources = append(sources, w)
	}
	if config.Hardware.Keyboard.Enable {
		kb, err := input.OpenKeyboard(g.TaskLog("input"), config.Hardware.Keyboard.Device, bindings)
		if err != nil {
			inputs.close(g.Log)
			return err
		}
		inputs = append(inputs, kb.Close)
		sources = append(sources, kb)
	}

	strip, err := led.Open(g.TaskLog("strip"), config.LedConfig())
	if err != nil {
		inputs.close(g.Log)
		return err
	}
	outputs = append(outputs, strip.Close)

	port, err := uart.Open(config.UartConfig())
	if err != nil {
		inputs.close(g.Log)
		outputs.close(g.Log)
		return err
	}
	outputs = append(outputs, port.Close)

	shutdown := func() {
		inputs.close(g.Log)
		g.Alive.Wait()
		outputs.close(g.Log)
	}

	if _, err = g.Start(state.Devices{
		Printer: escpos.NewPrinter(port),
		Strip:   strip,
		Sources: sources,
	}); err != nil {
		g.Alive.Stop()
		shutdown()
		return err
	}
	sdnotify(daemon.SdNotifyReady)
	g.Log.Infof("till running buttons=%d keyboard=%t", len(buttons.Watchers), config.Hardware.Keyboard.Enable)

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case s := <-sigch:
		g.Log.Infof("signal=%v stopping", s)
		g.Alive.Stop()
	case <-g.Alive.StopChan():
	}
	signal.Stop(sigch)
	sdnotify(daemon.SdNotifyStopping)
	shutdown()
	return nil
}

type closeList []func() error

// close in reverse order of open
func (cl closeList) close(log *log2.Log) {
	for i := len(cl) - 1; i >= 0; i-- {
		if err := cl[i](); err != nil {
			log.Errorf("close: %v", err)
		}
	}
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
