package input

import (
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gpio "github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
	"github.com/temoto/till/currency"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

var testEvent = types.InputEvent{Kind: types.InputProduce, Item: "carrot", Price: 2}

type sleepLog struct {
	mu sync.Mutex
	ds []time.Duration
}

func (self *sleepLog) Sleep(d time.Duration) {
	self.mu.Lock()
	self.ds = append(self.ds, d)
	self.mu.Unlock()
}

func (self *sleepLog) Get() []time.Duration {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]time.Duration(nil), self.ds...)
}

// pushReads queues line values returned by Read in order.
func pushReads(m *gpio_mock.MockEvent, values ...byte) {
	for _, v := range values {
		m.On("Read").Return(v, nil).Once()
	}
}

// blockWait makes Wait return edges times, then block until stop and fail like closed line.
// Returned channel signals watcher reached blocking Wait.
func blockWait(m *gpio_mock.MockEvent, edges int, stop <-chan struct{}) <-chan struct{} {
	idle := make(chan struct{}, 1)
	for i := 0; i < edges; i++ {
		m.On("Wait", time.Duration(0)).Return(gpio.EventData{}, nil).Once()
	}
	m.On("Wait", time.Duration(0)).Run(func(mock.Arguments) {
		select {
		case idle <- struct{}{}:
		default:
		}
		<-stop
	}).Return(gpio.EventData{}, gpio.ErrClosed)
	return idle
}

func runWatcher(t *testing.T, w *Watcher, stop chan struct{}, idle <-chan struct{}, expect int) []types.InputEvent {
	out := make(chan types.InputEvent, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(out, stop) }()
	events := []types.InputEvent{}
	for len(events) < expect {
		select {
		case e := <-out:
			events = append(events, e)
		case err := <-done:
			t.Fatalf("watcher exit early err=%v", err)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting event %d/%d", len(events)+1, expect)
		}
	}
	select {
	case <-idle:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting watcher idle")
	}
	close(stop)
	require.NoError(t, <-done)
	select {
	case e := <-out:
		events = append(events, e)
	default:
	}
	return events
}

func TestWatcher(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		edges  int
		reads  []byte
		expect int
		sleeps []time.Duration
	}{
		{"click", 2, []byte{1, 0, 0}, 1, []time.Duration{DefaultSettle}},
		{"hold", 1, []byte{1, 1, 1, 1, 1, 0}, 1,
			[]time.Duration{DefaultSettle, DefaultPoll, DefaultPoll, DefaultPoll, DefaultPoll}},
		{"release-edge", 1, []byte{0}, 0, nil},
		{"two-presses", 4, []byte{1, 0, 0, 1, 1, 0, 0}, 2,
			[]time.Duration{DefaultSettle, DefaultSettle, DefaultPoll}},
		// bounce during settle window is not visible: only level after settle matters
		{"bounce", 3, []byte{1, 0, 0, 0}, 1, []time.Duration{DefaultSettle}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			stop := make(chan struct{})
			line := &gpio_mock.MockEvent{}
			pushReads(line, c.reads...)
			idle := blockWait(line, c.edges, stop)
			sl := &sleepLog{}
			w := &Watcher{
				Log:    log2.NewTest(t, log2.LDebug),
				Name:   "carrot",
				Line:   line,
				Event:  testEvent,
				Settle: DefaultSettle,
				Poll:   DefaultPoll,
				sleep:  sl.Sleep,
			}
			events := runWatcher(t, w, stop, idle, c.expect)
			assert.Len(t, events, c.expect)
			for _, e := range events {
				assert.Equal(t, testEvent, e)
			}
			assert.Equal(t, c.sleeps, sl.Get())
		})
	}
}

func TestWatcherBackpressure(t *testing.T) {
	t.Parallel()
	stop := make(chan struct{})
	line := &gpio_mock.MockEvent{}
	pushReads(line, 1, 0, 1, 0)
	blockWait(line, 2, stop)
	w := &Watcher{Line: line, Name: "void", Event: types.InputEvent{Kind: types.InputVoid}, sleep: func(time.Duration) {}}
	out := make(chan types.InputEvent, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(out, stop) }()

	// consumer is slow: second press must wait in watcher, not vanish
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, types.InputVoid, (<-out).Kind)
	assert.Equal(t, types.InputVoid, (<-out).Kind)
	close(stop)
	require.NoError(t, <-done)
}

func TestWatcherReadError(t *testing.T) {
	t.Parallel()
	line := &gpio_mock.MockEvent{}
	line.On("Wait", time.Duration(0)).Return(gpio.EventData{}, nil)
	line.On("Read").Return(byte(0), errors.New("ioctl"))
	w := &Watcher{Line: line, Name: "total", sleep: func(time.Duration) {}}
	err := w.Run(make(chan types.InputEvent, 1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "button/total read")
}

func TestWatcherTimeoutContinues(t *testing.T) {
	t.Parallel()
	stop := make(chan struct{})
	line := &gpio_mock.MockEvent{}
	line.On("Wait", time.Duration(0)).Return(gpio.EventData{}, gpio.ErrTimeout).Once()
	pushReads(line, 1, 0)
	idle := blockWait(line, 1, stop)
	w := &Watcher{Line: line, Name: "total", Event: types.InputEvent{Kind: types.InputTotal}, sleep: func(time.Duration) {}}
	events := runWatcher(t, w, stop, idle, 1)
	assert.Len(t, events, 1)
}

func TestOpenButtons(t *testing.T) {
	t.Parallel()
	bindings := []Binding{
		{Name: "garlic", Pin: 2, Event: types.InputEvent{Kind: types.InputProduce, Item: "garlic", Price: currency.Amount(1)}},
		{Name: "void", Pin: 10, Event: types.InputEvent{Kind: types.InputVoid}},
	}
	chip := &gpio_mock.MockChip{}
	lines := []*gpio_mock.MockEvent{{}, {}}
	for i, b := range bindings {
		lines[i].On("Close").Return(nil)
		chip.On("GetLineEvent", b.Pin, gpio.GPIOHANDLE_REQUEST_ACTIVE_LOW, gpio.GPIOEVENT_REQUEST_BOTH_EDGES, "till-"+b.Name).
			Return(lines[i], nil)
	}
	chip.On("Close").Return(nil)

	bs, err := OpenButtons(log2.NewTest(t, log2.LDebug), chip, bindings, DefaultSettle, DefaultPoll)
	require.NoError(t, err)
	require.Len(t, bs.Watchers, 2)
	assert.Equal(t, "button/void", bs.Watchers[1].String())
	assert.Equal(t, bindings[0].Event, bs.Watchers[0].Event)
	assert.Equal(t, DefaultPoll, bs.Watchers[0].Poll)
	require.NoError(t, bs.Close())
	chip.AssertExpectations(t)
	lines[0].AssertExpectations(t)
	lines[1].AssertExpectations(t)
}

func TestOpenButtonsKeyboardOnly(t *testing.T) {
	t.Parallel()
	bindings := []Binding{
		{Name: "garlic", Pin: 2, Key: 2, Event: types.InputEvent{Kind: types.InputProduce, Item: "garlic", Price: currency.Amount(1)}},
		{Name: "void", Key: 14, Event: types.InputEvent{Kind: types.InputVoid}},
		{Name: "total", Key: 28, Event: types.InputEvent{Kind: types.InputTotal}},
	}
	chip := &gpio_mock.MockChip{}
	line := &gpio_mock.MockEvent{}
	line.On("Close").Return(nil)
	chip.On("GetLineEvent", uint32(2), gpio.GPIOHANDLE_REQUEST_ACTIVE_LOW, gpio.GPIOEVENT_REQUEST_BOTH_EDGES, "till-garlic").
		Return(line, nil).Once()
	chip.On("Close").Return(nil)

	bs, err := OpenButtons(log2.NewTest(t, log2.LDebug), chip, bindings, DefaultSettle, DefaultPoll)
	require.NoError(t, err)
	require.Len(t, bs.Watchers, 1)
	assert.Equal(t, "button/garlic", bs.Watchers[0].String())
	require.NoError(t, bs.Close())
	chip.AssertExpectations(t)
	chip.AssertNumberOfCalls(t, "GetLineEvent", 1)
}

func TestOpenButtonsError(t *testing.T) {
	t.Parallel()
	chip := &gpio_mock.MockChip{}
	chip.On("GetLineEvent", uint32(7), mock.Anything, mock.Anything, mock.Anything).
		Return((*gpio_mock.MockEvent)(nil), errors.New("busy"))
	chip.On("Close").Return(nil)
	_, err := OpenButtons(nil, chip, []Binding{{Name: "total", Pin: 7}}, DefaultSettle, DefaultPoll)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "button=total GetLineEvent pin=7")
}
