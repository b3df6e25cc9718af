package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

const KeyboardSourceTag = "dev-input-event"

// linux/input-event-codes.h
const evKey = 0x01

// KeyboardSource reads Linux input events and maps key codes through bindings.
// Only key down produces event, autorepeat and release are ignored.
type KeyboardSource struct {
	Log  *log2.Log
	r    io.ReadCloser
	keys map[uint16]types.InputEvent
}

var _ Source = new(KeyboardSource)

func NewKeyboardSource(log *log2.Log, r io.ReadCloser, bindings []Binding) *KeyboardSource {
	self := &KeyboardSource{
		Log:  log,
		r:    r,
		keys: make(map[uint16]types.InputEvent, len(bindings)),
	}
	for _, b := range bindings {
		if b.Key != 0 {
			self.keys[b.Key] = b.Event
		}
	}
	return self
}

func OpenKeyboard(log *log2.Log, device string, bindings []Binding) (*KeyboardSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "keyboard device=%s", device)
	}
	return NewKeyboardSource(log, f, bindings), nil
}

func (self *KeyboardSource) String() string { return KeyboardSourceTag }

func (self *KeyboardSource) Close() error { return self.r.Close() }

func (self *KeyboardSource) Run(out chan<- types.InputEvent, stop <-chan struct{}) error {
	for {
		ie, err := inputevent.ReadOne(self.r)
		if err != nil {
			if isStopped(stop) || err == io.EOF {
				return nil
			}
			return errors.Annotatef(err, "%s read", KeyboardSourceTag)
		}
		if ie.Type != evKey || ie.Value != int32(inputevent.KeyStateDown) {
			continue
		}
		e, ok := self.keys[ie.Code]
		if !ok {
			self.Log.Debugf("%s key=%d not bound", KeyboardSourceTag, ie.Code)
			continue
		}
		if !emit(out, e, stop) {
			return nil
		}
	}
}
