// Package input turns physical buttons into till input events.
// Each source runs in own goroutine and blocks on shared single slot mailbox,
// so a busy consumer holds every source back and no press is dropped.
package input

import (
	"github.com/temoto/till/internal/types"
)

type Source interface {
	Run(out chan<- types.InputEvent, stop <-chan struct{}) error
	String() string
}

// Binding maps one physical control to event it produces.
type Binding struct {
	Name  string
	Pin   uint32 // GPIO line offset, 0 = not wired
	Key   uint16 // dev keyboard code, 0 = not bound
	Event types.InputEvent
}

func isStopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// emit blocks until consumer takes event, false means stop.
func emit(out chan<- types.InputEvent, e types.InputEvent, stop <-chan struct{}) bool {
	select {
	case out <- e:
		return true
	case <-stop:
		return false
	}
}
