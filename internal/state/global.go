package state

import (
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/till/helpers"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

// Global is owned by composition root and passed to every task at start.
// Mailboxes have capacity 1: send blocks while previous message is not consumed.
type Global struct {
	Alive  *alive.Alive
	Config *Config
	Log    *log2.Log

	Input chan types.InputEvent
	Print chan types.PrintIntent
	Led   chan types.LedState

	fatal helpers.AtomicError

	logMu    sync.Mutex
	taskLogs []*log2.Log
}

func NewGlobal(log *log2.Log, cfg *Config) *Global {
	return &Global{
		Alive:  alive.NewAlive(),
		Config: cfg,
		Log:    log,
		Input:  make(chan types.InputEvent, 1),
		Print:  make(chan types.PrintIntent, 1),
		Led:    make(chan types.LedState, 1),
	}
}

// TaskLog returns task logger with "name: " prefix, SetLogLevel reaches it later.
func (g *Global) TaskLog(name string) *log2.Log {
	l := g.Log.Task(name)
	g.logMu.Lock()
	g.taskLogs = append(g.taskLogs, l)
	g.logMu.Unlock()
	return l
}

// SetLogLevel changes root and every task logger.
func (g *Global) SetLogLevel(level log2.Level) {
	g.Log.SetLevel(level)
	g.logMu.Lock()
	defer g.logMu.Unlock()
	for _, l := range g.taskLogs {
		l.SetLevel(level)
	}
}

type TaskFunc func(stop <-chan struct{}) error

// Go runs task in new goroutine tracked by Alive.
// Task error or unexpected return while running stops whole device.
func (g *Global) Go(name string, f TaskFunc) bool {
	if !g.Alive.Add(1) {
		return false
	}
	go func() {
		defer g.Alive.Done()
		err := f(g.Alive.StopChan())
		if err != nil {
			g.Fatal(errors.Annotatef(err, "task=%s", name))
			return
		}
		if g.Alive.IsRunning() {
			g.Log.Errorf("task=%s exited while running", name)
			g.Alive.Stop()
			return
		}
		g.Log.Debugf("task=%s stopped", name)
	}()
	return true
}

// Fatal remembers first error and stops device. Platform restarts process on non-zero exit.
func (g *Global) Fatal(err error) {
	if err == nil {
		return
	}
	if _, set := g.fatal.StoreOnce(err); !set {
		g.Log.Errorf("fatal: %s", errors.ErrorStack(err))
	} else {
		g.Log.Errorf("after fatal: %v", err)
	}
	g.Alive.Stop()
}

// Err returns first fatal error.
func (g *Global) Err() error {
	err, _ := g.fatal.Load()
	return err
}
