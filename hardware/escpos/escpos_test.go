package escpos

import (
	"bytes"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/helpers"
)

// mockTransport records writes, accepting at most chunk bytes per call.
type mockTransport struct {
	w     bytes.Buffer
	r     bytes.Buffer
	chunk int
	err   error
}

func (self *mockTransport) Write(b []byte) (int, error) {
	if self.err != nil {
		return 0, self.err
	}
	if self.chunk > 0 && len(b) > self.chunk {
		b = b[:self.chunk]
	}
	return self.w.Write(b)
}

func (self *mockTransport) Read(b []byte) (int, error) {
	if self.r.Len() == 0 {
		return 0, nil
	}
	return self.r.Read(b)
}

func TestCommands(t *testing.T) {
	t.Parallel()
	img := display.NewBitmap(10, 2)
	img.Blit(display.Bitmap{Width: 1, Height: 1, Data: []byte{0x80}}, 9, 1)

	cases := []struct {
		name   string
		fun    func(*Printer) error
		expect string
	}{
		{"feed", func(p *Printer) error { return p.Feed(3) }, "1b6403"},
		{"raw", func(p *Printer) error { return p.Raw([]byte("\n\n")) }, "0a0a"},
		{"image", func(p *Printer) error { return p.PrintImage(img) }, "1d7630000200020000000040"},
		{"speed", func(p *Printer) error { return p.SetPrintSpeed(3) }, "125003"},
		{"max-speed", func(p *Printer) error { return p.SetMaxSpeed(200) }, "124dc800"},
		{"flow-off", func(p *Printer) error { return p.SetSoftwareFlowControl(false) }, "124600"},
		{"flow-on", func(p *Printer) error { return p.SetSoftwareFlowControl(true) }, "124601"},
	}
	for _, c := range cases {
		c := c
		for _, chunk := range []int{0, 1, 3} {
			chunk := chunk
			t.Run(c.name, func(t *testing.T) {
				t.Parallel()
				mt := &mockTransport{chunk: chunk}
				require.NoError(t, c.fun(NewPrinter(mt)))
				assert.Equal(t, helpers.MustHex(c.expect), mt.w.Bytes(), "chunk=%d", chunk)
			})
		}
	}
}

func TestInvalid(t *testing.T) {
	t.Parallel()
	p := NewPrinter(&mockTransport{})
	assert.True(t, errors.IsNotValid(p.Feed(-1)))
	assert.True(t, errors.IsNotValid(p.SetPrintSpeed(10)))
	assert.True(t, errors.IsNotValid(p.SetMaxSpeed(0)))
	assert.Error(t, p.PrintImage(display.Bitmap{}))
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	p := NewPrinter(&mockTransport{err: errors.New("cts timeout")})
	err := p.Feed(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cts timeout")
}

func TestPaperStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		reply   []byte
		nearEnd bool
		out     bool
		err     bool
	}{
		{[]byte{0x00}, false, false, false},
		{[]byte{0x03}, true, false, false},
		{[]byte{0x0c}, false, true, false},
		{[]byte{0x0f}, true, true, false},
		{nil, false, false, true},
	}
	for _, c := range cases {
		mt := &mockTransport{}
		mt.r.Write(c.reply)
		st, err := NewPrinter(mt).PaperStatus()
		assert.Equal(t, helpers.MustHex("1d7201"), mt.w.Bytes())
		if c.err {
			assert.True(t, errors.IsTimeout(err))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.nearEnd, st.NearEnd, "reply=%x", c.reply)
		assert.Equal(t, c.out, st.Out, "reply=%x", c.reply)
	}
	assert.Equal(t, "out (0c)", ParsePaperStatus(0x0c).String())
	assert.Equal(t, "ok (00)", ParsePaperStatus(0).String())
}
