package receipt

import (
	"github.com/temoto/till/currency"
	"github.com/temoto/till/hardware/display"
)

const (
	PriceGlyphCount = 5
	Gutter          = 5
)

// PriceGlyphs lays out value least significant digit first, then currency symbol, rest is space.
// Zero value is bare currency symbol.
func (self *Glyphs) PriceGlyphs(value currency.Amount) [PriceGlyphCount]display.Bitmap {
	var gs [PriceGlyphCount]display.Bitmap
	for i := range gs {
		gs[i] = self.Space
	}
	remaining := uint(value)
	for i := range gs {
		if remaining == 0 {
			gs[i] = self.Pound
			break
		}
		gs[i] = self.Digits[remaining%10]
		remaining /= 10
	}
	return gs
}

// placePrice blits glyphs right to left, right edge of first glyph at x.
func placePrice(fb *display.Bitmap, gs [PriceGlyphCount]display.Bitmap, x, y int) {
	for _, g := range gs {
		fb.Blit(g, x-g.Width, y)
		x -= g.Width + Gutter
	}
}
