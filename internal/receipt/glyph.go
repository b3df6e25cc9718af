// Package receipt renders print intents into printer commands.
package receipt

import (
	"embed"
	"image/png"
	"path"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/internal/types"
)

//go:embed gfx/*.png
var gfxFS embed.FS

var digitNames = [10]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

const (
	nameHeader = "header"
	nameFooter = "footer"
	nameVoid   = "void"
	namePound  = "pound"
	nameSpace  = "space"
)

// Glyphs is immutable after LoadGlyphs, safe to share between tasks.
type Glyphs struct {
	Digits [10]display.Bitmap
	Pound  display.Bitmap
	Space  display.Bitmap
	Header display.Bitmap
	Footer display.Bitmap
	Void   display.Bitmap
	items  map[types.Item]display.Bitmap
}

// LoadGlyphs decodes every embedded image. Any file that is not digit, symbol or banner is item icon.
func LoadGlyphs() (*Glyphs, error) {
	entries, err := gfxFS.ReadDir("gfx")
	if err != nil {
		return nil, errors.Annotate(err, "glyphs")
	}
	all := make(map[string]display.Bitmap, len(entries))
	for _, e := range entries {
		b, err := decodeGlyph(path.Join("gfx", e.Name()))
		if err != nil {
			return nil, err
		}
		all[strings.TrimSuffix(e.Name(), ".png")] = b
	}

	g := &Glyphs{items: make(map[types.Item]display.Bitmap, len(all))}
	take := func(name string) display.Bitmap {
		b, ok := all[name]
		if !ok && err == nil {
			err = errors.NotFoundf("glyph=%s", name)
		}
		delete(all, name)
		return b
	}
	for i, name := range digitNames {
		g.Digits[i] = take(name)
	}
	g.Pound = take(namePound)
	g.Space = take(nameSpace)
	g.Header = take(nameHeader)
	g.Footer = take(nameFooter)
	g.Void = take(nameVoid)
	if err != nil {
		return nil, err
	}
	for name, b := range all {
		g.items[types.Item(name)] = b
	}
	return g, nil
}

func decodeGlyph(name string) (display.Bitmap, error) {
	f, err := gfxFS.Open(name)
	if err != nil {
		return display.Bitmap{}, errors.Annotate(err, name)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return display.Bitmap{}, errors.Annotatef(err, "decode %s", name)
	}
	return display.FromImage(img), nil
}

// Item returns icon for produce item. Unknown item is configuration error, there is no fallback icon.
func (self *Glyphs) Item(item types.Item) (display.Bitmap, error) {
	if b, ok := self.items[item]; ok {
		return b, nil
	}
	return display.Bitmap{}, errors.NotFoundf("icon item=%s", item)
}

func (self *Glyphs) Items() []types.Item {
	items := make([]types.Item, 0, len(self.items))
	for item := range self.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// ValidateItems checks every configured item has icon, so running driver never meets unknown one.
func (self *Glyphs) ValidateItems(items []types.Item) error {
	for _, item := range items {
		if _, err := self.Item(item); err != nil {
			return errors.Annotatef(err, "known items=%v", self.Items())
		}
	}
	return nil
}
