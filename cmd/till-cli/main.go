// Till simulator: buttons from console, receipt preview and LED colors printed to log.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/till/hardware/input"
	"github.com/temoto/till/helpers/cli"
	"github.com/temoto/till/internal/state"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

const usage = `syntax: commands separated by whitespace
(main)
- NAME     press produce button, e.g. garlic
- void     press void button
- total    press total button
- sN       pause N milliseconds

till task logs transaction state after every press.

(meta)
- log=yes  enable debug logging
- log=no   disable debug logging
- help     show this text
`

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "", "config file, empty means defaults")
	previewScale := cmdline.Int("preview-scale", 4, "receipt preview pixels per character")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)
	log.SetLevel(log2.LInfo)

	var config *state.Config
	if *configPath == "" {
		config = state.MustReadConfig(log, state.NewMockFullReader(map[string]string{"defaults": ""}), "defaults")
	} else {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	}

	g := state.NewGlobal(log, config)
	if _, err := g.Start(state.Devices{
		Printer: newPreviewPrinter(g.TaskLog("paper"), *previewScale),
		Strip:   newLogStrip(g.TaskLog("strip")),
	}); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	sim := &simulator{g: g, bindings: make(map[string]input.Binding)}
	for _, b := range config.Bindings() {
		sim.bindings[b.Name] = b
	}

	cli.MainLoop("till-cli", sim.exec, sim.complete, g.Alive.Stop)
	sim.drain()
	g.Alive.Stop()
	g.Alive.Wait()
	if err := g.Err(); err != nil {
		os.Exit(1)
	}
}

type command func() error

type simulator struct {
	g        *state.Global
	bindings map[string]input.Binding
}

func (sim *simulator) complete(d prompt.Document) []prompt.Suggest {
	suggests := make([]prompt.Suggest, 0, len(sim.bindings)+4)
	names := make([]string, 0, len(sim.bindings))
	for name := range sim.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := sim.bindings[name]
		suggests = append(suggests, prompt.Suggest{Text: name, Description: b.Event.String()})
	}
	suggests = append(suggests,
		prompt.Suggest{Text: "sN", Description: "pause for N ms"},
		prompt.Suggest{Text: "log=yes", Description: "debug logging"},
		prompt.Suggest{Text: "help"},
	)
	return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
}

func (sim *simulator) exec(line string) {
	cmds, err := sim.parseLine(line)
	if err != nil {
		log.Errorf("%s", errors.ErrorStack(err))
		return
	}
	for _, c := range cmds {
		if err := c(); err != nil {
			log.Errorf("%s", errors.ErrorStack(err))
			return
		}
	}
}

func (sim *simulator) parseLine(line string) ([]command, error) {
	words := strings.Fields(line)
	cmds := make([]command, 0, len(words))
	for _, w := range words {
		c, err := sim.parseWord(w)
		if err != nil {
			return nil, errors.Annotatef(err, "word=%s", w)
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func (sim *simulator) parseWord(word string) (command, error) {
	if b, ok := sim.bindings[word]; ok {
		return func() error { return sim.press(b.Event) }, nil
	}
	switch word {
	case "help":
		return func() error { fmt.Fprint(os.Stdout, usage); return nil }, nil
	case "log=yes":
		return func() error { sim.g.SetLogLevel(log2.LDebug); return nil }, nil
	case "log=no":
		return func() error { sim.g.SetLogLevel(log2.LInfo); return nil }, nil
	}
	if strings.HasPrefix(word, "s") {
		ms, err := strconv.ParseUint(word[1:], 10, 32)
		if err != nil {
			return nil, errors.NotValidf("pause")
		}
		return func() error { time.Sleep(time.Duration(ms) * time.Millisecond); return nil }, nil
	}
	return nil, errors.NotFoundf("command")
}

func (sim *simulator) press(e types.InputEvent) error {
	select {
	case sim.g.Input <- e:
		return nil
	case <-sim.g.Alive.StopChan():
		return errors.New("stopped")
	}
}

// drain waits until every mailbox is consumed and last event is handled.
func (sim *simulator) drain() {
	const step = 10 * time.Millisecond
	for sim.g.Alive.IsRunning() && len(sim.g.Input)+len(sim.g.Print)+len(sim.g.Led) != 0 {
		time.Sleep(step)
	}
	time.Sleep(sim.g.Config.TillTimings().Post + step)
}
