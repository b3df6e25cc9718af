// Package display is monochrome framebuffer compositor for thermal printer images.
//
// Bitmap layout matches printer raster: 1 bit per pixel, MSB first, row major,
// row stride (Width+7)/8 bytes, bit 1 = ink.
package display

import (
	"image"
	"strings"

	"github.com/juju/errors"
)

type Bitmap struct {
	Width  int
	Height int
	Data   []byte
}

func Stride(width int) int { return (width + 7) / 8 }

// NewBitmap allocates zeroed bitmap, the only allocation on render path is here at startup.
func NewBitmap(width, height int) Bitmap {
	return Bitmap{
		Width:  width,
		Height: height,
		Data:   make([]byte, Stride(width)*height),
	}
}

// FromImage converts any image, dark pixels become ink.
func FromImage(img image.Image) Bitmap {
	r := img.Bounds()
	b := NewBitmap(r.Dx(), r.Dy())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cr, cg, cb, ca := img.At(r.Min.X+x, r.Min.Y+y).RGBA()
			luma := (299*cr + 587*cg + 114*cb) / 1000
			if ca >= 0x8000 && luma < 0x8000 {
				b.set(x, y, true)
			}
		}
	}
	return b
}

func (self *Bitmap) Stride() int { return Stride(self.Width) }

func (self *Bitmap) Validate() error {
	if self.Width <= 0 || self.Height <= 0 {
		return errors.NotValidf("bitmap size=%dx%d", self.Width, self.Height)
	}
	if expect := self.Stride() * self.Height; len(self.Data) < expect {
		return errors.NotValidf("bitmap %dx%d data len=%d expected=%d", self.Width, self.Height, len(self.Data), expect)
	}
	return nil
}

// Clear sets every byte to 0. Render must start with Clear since buffer is reused.
func (self *Bitmap) Clear() {
	for i := range self.Data {
		self.Data[i] = 0
	}
}

// Blit overwrites destination pixels with source pixels placed at (xoff, yoff).
// Pixels outside destination are skipped, no wraparound.
// Source 0 bits clear destination, so later blits replace, never merge.
func (self *Bitmap) Blit(src Bitmap, xoff, yoff int) {
	srcStride := src.Stride()
	dstStride := self.Stride()
	for y := 0; y < src.Height; y++ {
		dy := y + yoff
		if dy < 0 || dy >= self.Height {
			continue
		}
		for x := 0; x < src.Width; x++ {
			dx := x + xoff
			if dx < 0 || dx >= self.Width {
				continue
			}
			sb := src.Data[y*srcStride+x/8]
			mask := byte(0x80) >> uint(dx%8)
			di := dy*dstStride + dx/8
			if sb&(0x80>>uint(x%8)) != 0 {
				self.Data[di] |= mask
			} else {
				self.Data[di] &^= mask
			}
		}
	}
}

// CropRows returns view of first n rows sharing storage, n is clamped to Height.
func (self *Bitmap) CropRows(n int) Bitmap {
	if n > self.Height {
		n = self.Height
	}
	if n < 0 {
		n = 0
	}
	return Bitmap{
		Width:  self.Width,
		Height: n,
		Data:   self.Data[:n*self.Stride()],
	}
}

func (self *Bitmap) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= self.Width || y >= self.Height {
		return false
	}
	return self.Data[y*self.Stride()+x/8]&(0x80>>uint(x%8)) != 0
}

func (self *Bitmap) set(x, y int, ink bool) {
	i := y*self.Stride() + x/8
	mask := byte(0x80) >> uint(x%8)
	if ink {
		self.Data[i] |= mask
	} else {
		self.Data[i] &^= mask
	}
}

// String2 renders ink as double width block, for tests and console preview.
func (self *Bitmap) String2() string {
	b := strings.Builder{}
	b.Grow((self.Width*2 + 1) * self.Height)
	for y := 0; y < self.Height; y++ {
		for x := 0; x < self.Width; x++ {
			if self.Get(x, y) {
				b.WriteString("██")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

// Thumbnail renders scale x scale cell as one character, '#' when any pixel in cell is ink.
func (self *Bitmap) Thumbnail(scale int) string {
	if scale < 1 {
		scale = 1
	}
	w, h := (self.Width+scale-1)/scale, (self.Height+scale-1)/scale
	b := strings.Builder{}
	b.Grow((w + 1) * h)
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			ink := false
			for y := cy * scale; y < (cy+1)*scale && y < self.Height && !ink; y++ {
				for x := cx * scale; x < (cx+1)*scale && x < self.Width; x++ {
					if self.Get(x, y) {
						ink = true
						break
					}
				}
			}
			if ink {
				b.WriteByte('#')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
