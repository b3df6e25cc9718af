package led

import (
	"fmt"

	"github.com/temoto/till/internal/types"
)

// Color has same layout as types.RGBW so LedState colors convert directly.
type Color struct{ R, G, B, W uint8 }

var (
	ColorOff     = Color{}
	ColorDefault = Color{G: 10}
)

func FromState(c types.RGBW) Color { return Color(c) }

// Wire is the only place defining on-wire byte order: G R B W, transmitted most significant bit first.
func (c Color) Wire() uint32 {
	return uint32(c.G)<<24 | uint32(c.R)<<16 | uint32(c.B)<<8 | uint32(c.W)
}

func (c Color) String() string { return fmt.Sprintf("rgbw(%d,%d,%d,%d)", c.R, c.G, c.B, c.W) }
