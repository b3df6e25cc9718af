package state

import (
	"testing"

	"github.com/juju/errors"
	"github.com/temoto/till/log2"
)

func NewTestGlobal(t testing.TB, confString string) *Global {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	// log := log2.NewStderr(log2.LDebug) // useful with panics
	cfg, err := ReadConfig(log, fs, "test-inline")
	if err != nil {
		t.Fatal(errors.ErrorStack(err))
	}
	return NewGlobal(log, cfg)
}
