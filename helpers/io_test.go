package helpers

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestWriteAll(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer(nil)
	content := []byte("\x1dv0\x00\x30\x00\x50\x00")
	tw := &throttleWriter{buf, 3}
	n, err := tw.Write(content)
	assert.NoError(t, err)
	assert.Equal(t, tw.n, n)
	buf.Reset()
	assert.NoError(t, WriteAll(tw, content))
	assert.Equal(t, content, buf.Bytes())

	assert.Equal(t, io.ErrShortWrite, WriteAll(&throttleWriter{buf, 0}, content))
}

func TestFoldErrors(t *testing.T) {
	t.Parallel()
	e1 := errors.New("pin_chip empty")
	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	assert.Equal(t, e1, FoldErrors([]error{nil, e1}))
	assert.EqualError(t, FoldErrors([]error{e1, errors.New("led length=0")}), "pin_chip empty\nled length=0")
}

func TestAtomicError(t *testing.T) {
	t.Parallel()
	var a AtomicError
	_, set := a.Load()
	assert.False(t, set)
	e1 := errors.New("printer")
	prev, set := a.StoreOnce(e1)
	assert.NoError(t, prev)
	assert.False(t, set)
	prev, set = a.StoreOnce(errors.New("led"))
	assert.Equal(t, e1, prev)
	assert.True(t, set)
}

func TestIntMillisecondDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 400*time.Millisecond, IntMillisecondDefault(0, 400*time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, IntMillisecondDefault(250, time.Second))
}

type throttleWriter struct {
	w io.Writer
	n int
}

func (tw *throttleWriter) Write(p []byte) (n int, err error) {
	limit := len(p)
	if limit > tw.n {
		limit = tw.n
	}
	return tw.w.Write(p[:limit])
}
