package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecReader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		input  string
		expect []string
	}{
		{"empty", "", nil},
		{"single", "garlic", []string{"garlic"}},
		{"trim-skip-blank", "  garlic carrot \n\n\ttotal\n", []string{"garlic carrot", "total"}},
		{"no-final-newline", "void\ntotal", []string{"void", "total"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var lines []string
			err := ExecReader(strings.NewReader(c.input), func(line string) { lines = append(lines, line) })
			assert.NoError(t, err)
			assert.Equal(t, c.expect, lines)
		})
	}
}
