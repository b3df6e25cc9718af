package input

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/till/helpers"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

const (
	DefaultSettle = 200 * time.Millisecond
	DefaultPoll   = 100 * time.Millisecond
)

// Watcher is debounced edge-then-poll reader of one button line.
// Line must be requested active low, so Read()=1 means pressed.
type Watcher struct {
	Log    *log2.Log
	Name   string
	Line   gpio.Eventer
	Event  types.InputEvent
	Settle time.Duration
	Poll   time.Duration

	sleep func(time.Duration)
}

var _ Source = new(Watcher)

func (self *Watcher) String() string { return "button/" + self.Name }

// Run sends exactly one event per press-release cycle.
// After press it waits Settle to let contacts bounce, then polls every Poll until release.
// Holding button never produces more events.
func (self *Watcher) Run(out chan<- types.InputEvent, stop <-chan struct{}) error {
	sleep := self.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for {
		if _, err := self.Line.Wait(0); err != nil {
			if isStopped(stop) {
				return nil
			}
			if gpio.IsTimeout(err) {
				continue
			}
			return errors.Annotatef(err, "%s wait", self.String())
		}
		pressed, err := self.pressed()
		if err != nil {
			if isStopped(stop) {
				return nil
			}
			return err
		}
		if !pressed {
			continue
		}
		self.Log.Debugf("%s pressed", self.String())
		if !emit(out, self.Event, stop) {
			return nil
		}
		sleep(self.Settle)
		for {
			if isStopped(stop) {
				return nil
			}
			pressed, err = self.pressed()
			if err != nil {
				return err
			}
			if !pressed {
				break
			}
			sleep(self.Poll)
		}
	}
}

func (self *Watcher) pressed() (bool, error) {
	v, err := self.Line.Read()
	if err != nil {
		return false, errors.Annotatef(err, "%s read", self.String())
	}
	return v != 0, nil
}

// Buttons owns watchers opened from one gpio chip.
type Buttons struct {
	Watchers []*Watcher
	chip     gpio.Chiper
}

// OpenButtons requests line event for every binding, one generic watcher per binding.
// Pin 0 means binding is not wired to GPIO.
func OpenButtons(log *log2.Log, chip gpio.Chiper, bindings []Binding, settle, poll time.Duration) (*Buttons, error) {
	self := &Buttons{chip: chip, Watchers: make([]*Watcher, 0, len(bindings))}
	for _, b := range bindings {
		if b.Pin == 0 {
			log.Debugf("button=%s no pin, keyboard only", b.Name)
			continue
		}
		line, err := chip.GetLineEvent(b.Pin, gpio.GPIOHANDLE_REQUEST_ACTIVE_LOW,
			gpio.GPIOEVENT_REQUEST_BOTH_EDGES, "till-"+b.Name)
		if err != nil {
			_ = self.Close()
			return nil, errors.Annotatef(err, "button=%s GetLineEvent pin=%d", b.Name, b.Pin)
		}
		self.Watchers = append(self.Watchers, &Watcher{
			Log:    log,
			Name:   b.Name,
			Line:   line,
			Event:  b.Event,
			Settle: settle,
			Poll:   poll,
		})
	}
	return self, nil
}

func (self *Buttons) String() string { return fmt.Sprintf("buttons(%d)", len(self.Watchers)) }

// Close unblocks watchers waiting on lines, then releases chip.
func (self *Buttons) Close() error {
	closers := make([]io.Closer, 0, len(self.Watchers)+1)
	for _, w := range self.Watchers {
		closers = append(closers, w.Line)
	}
	if self.chip != nil {
		closers = append(closers, self.chip)
	}
	errs := make([]error, len(closers))
	for i, c := range closers {
		if err := c.Close(); err != nil && !gpio.IsClosed(err) {
			errs[i] = err
		}
	}
	return helpers.FoldErrors(errs)
}
