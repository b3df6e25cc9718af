// Package till is transaction state machine: single consumer of input events,
// producer of print intents and LED commands.
package till

import (
	"fmt"
	"time"

	"github.com/temoto/till/currency"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

var (
	ColorBusy  = types.RGBW{B: 64}
	ColorAlert = types.RGBW{R: 128}
)

type Timings struct {
	Post        time.Duration // after every event, before LED back to default
	Alert       time.Duration // each half of alert blink
	AlertRepeat int
}

var DefaultTimings = Timings{
	Post:        400 * time.Millisecond,
	Alert:       200 * time.Millisecond,
	AlertRepeat: 3,
}

// Transaction Price is 0 whenever not Active and never exceeds currency.Max.
type Transaction struct {
	Active bool
	Price  currency.Amount
}

func (t Transaction) String() string {
	if !t.Active {
		return "idle"
	}
	return fmt.Sprintf("active total=%s", t.Price.Format())
}

type Machine struct {
	Log     *log2.Log
	Timings Timings
	Sleep   func(time.Duration)

	printq chan<- types.PrintIntent
	ledq   chan<- types.LedState

	// owned by Run goroutine
	tx Transaction
}

func NewMachine(log *log2.Log, printq chan<- types.PrintIntent, ledq chan<- types.LedState) *Machine {
	return &Machine{
		Log:     log,
		Timings: DefaultTimings,
		Sleep:   time.Sleep,
		printq:  printq,
		ledq:    ledq,
	}
}

// State is only consistent from Run goroutine or after Run returned.
func (self *Machine) State() Transaction { return self.tx }

// Run handles events one at a time until in is closed or stop.
// Invalid input never stops the machine, user only gets alert blink.
func (self *Machine) Run(in <-chan types.InputEvent, stop <-chan struct{}) {
	for {
		select {
		case e, ok := <-in:
			if !ok {
				self.Log.Debugf("input closed")
				return
			}
			if !self.Handle(e, stop) {
				return
			}
		case <-stop:
			return
		}
	}
}

// Handle processes single event. Returns false if stop was signalled while blocked on mailbox.
func (self *Machine) Handle(e types.InputEvent, stop <-chan struct{}) bool {
	self.Log.Debugf("%s state=%s", e.String(), self.tx.String())
	if !self.sendLed(types.LedColor(ColorBusy), stop) || !self.sendLed(types.LedState{}, stop) {
		return false
	}

	ok := self.transition(e, stop)
	self.Log.Infof("%s -> %s", e.String(), self.tx.String())
	if !ok {
		return false
	}

	self.sleep(self.Timings.Post)
	return self.sendLed(types.LedState{Kind: types.LedDefault}, stop) &&
		self.sendLed(types.LedState{}, stop)
}

func (self *Machine) transition(e types.InputEvent, stop <-chan struct{}) bool {
	tx := self.tx
	switch e.Kind {
	case types.InputProduce:
		if !tx.Active {
			tx = Transaction{Active: true}
			self.tx = tx
			if !self.sendPrint(types.PrintIntent{Kind: types.PrintHeader}, stop) {
				return false
			}
		}
		sum, err := tx.Price.Add(e.Price)
		if err != nil {
			self.Log.Infof("reject %s: %v", e.String(), err)
			return self.alert(stop)
		}
		self.tx = Transaction{Active: true, Price: sum}
		return self.sendPrint(types.PrintIntent{Kind: types.PrintLine, Item: e.Item, Price: e.Price}, stop)

	case types.InputVoid:
		if !tx.Active {
			return self.alert(stop)
		}
		self.tx = Transaction{}
		return self.sendPrint(types.PrintIntent{Kind: types.PrintVoid}, stop)

	case types.InputTotal:
		if !tx.Active {
			return self.alert(stop)
		}
		self.tx = Transaction{}
		self.Log.Infof("total=%s", tx.Price.Format())
		return self.sendPrint(types.PrintIntent{Kind: types.PrintTotal, Price: tx.Price}, stop)
	}
	self.Log.Errorf("unknown input %s", e.String())
	return self.alert(stop)
}

// alert blinks AlertRepeat times, ending on default color.
func (self *Machine) alert(stop <-chan struct{}) bool {
	for i := 0; i < self.Timings.AlertRepeat; i++ {
		if !self.sendLed(types.LedColor(ColorAlert), stop) {
			return false
		}
		self.sleep(self.Timings.Alert)
		if !self.sendLed(types.LedState{Kind: types.LedDefault}, stop) {
			return false
		}
		self.sleep(self.Timings.Alert)
	}
	return true
}

func (self *Machine) sleep(d time.Duration) {
	if self.Sleep != nil {
		self.Sleep(d)
	}
}

func (self *Machine) sendLed(s types.LedState, stop <-chan struct{}) bool {
	select {
	case self.ledq <- s:
		return true
	case <-stop:
		return false
	}
}

func (self *Machine) sendPrint(p types.PrintIntent, stop <-chan struct{}) bool {
	self.Log.Debugf("%s", p.String())
	select {
	case self.printq <- p:
		return true
	case <-stop:
		return false
	}
}
