package receipt

import (
	"time"

	"github.com/juju/errors"
	"github.com/temoto/till/currency"
	"github.com/temoto/till/hardware/display"
	"github.com/temoto/till/internal/types"
	"github.com/temoto/till/log2"
)

const (
	PaperWidth    = 384
	ScratchHeight = 238

	lineRight  = 10
	totalRight = 20
	totalY     = 90

	MaxSpeed   = 200
	PrintSpeed = 3
	InitDelay  = 200 * time.Millisecond
)

var (
	lf  = []byte{'\n'}
	lf3 = []byte{'\n', '\n', '\n'}
)

// Driver owns scratch framebuffer, only receipt task touches it.
type Driver struct {
	Log    *log2.Log
	Sleep  func(time.Duration)
	p      Printer
	glyphs *Glyphs
	fb     display.Bitmap
	qr     display.Bitmap
}

func NewDriver(log *log2.Log, p Printer, glyphs *Glyphs) *Driver {
	return &Driver{
		Log:    log,
		Sleep:  time.Sleep,
		p:      p,
		glyphs: glyphs,
		fb:     display.NewBitmap(PaperWidth, ScratchHeight),
	}
}

// SetQR makes every total receipt end with code. Empty bitmap disables.
func (self *Driver) SetQR(b display.Bitmap) { self.qr = b }

func (self *Driver) Init() error {
	if err := self.p.SetSoftwareFlowControl(false); err != nil {
		return errors.Annotate(err, "printer init flow control")
	}
	if err := self.p.SetMaxSpeed(MaxSpeed); err != nil {
		return errors.Annotate(err, "printer init max speed")
	}
	if err := self.p.SetPrintSpeed(PrintSpeed); err != nil {
		return errors.Annotate(err, "printer init print speed")
	}
	status, err := self.p.PaperStatus()
	if err != nil {
		return errors.Annotate(err, "printer init paper status")
	}
	if status.Out || status.NearEnd {
		self.Log.Warningf("paper %s", status.String())
	} else {
		self.Log.Debugf("paper %s", status.String())
	}
	if self.Sleep != nil {
		self.Sleep(InitDelay)
	}
	return nil
}

// Run prints intents until in is closed or stop. Any printer error is fatal.
func (self *Driver) Run(in <-chan types.PrintIntent, stop <-chan struct{}) error {
	for {
		select {
		case p, ok := <-in:
			if !ok {
				return nil
			}
			if err := self.Print(p); err != nil {
				return err
			}
		case <-stop:
			return nil
		}
	}
}

func (self *Driver) Print(p types.PrintIntent) error {
	self.Log.Debugf("%s", p.String())
	err := self.print(p)
	return errors.Annotate(err, p.String())
}

func (self *Driver) print(p types.PrintIntent) error {
	switch p.Kind {
	case types.PrintHeader:
		if err := self.p.PrintImage(self.glyphs.Header); err != nil {
			return err
		}
		return self.p.Raw(lf)

	case types.PrintLine:
		img, err := self.renderLine(p.Item, p.Price)
		if err != nil {
			return err
		}
		return self.p.PrintImage(img)

	case types.PrintTotal:
		if err := self.p.Feed(1); err != nil {
			return err
		}
		if err := self.p.PrintImage(self.renderTotal(p.Price)); err != nil {
			return err
		}
		if self.qr.Height > 0 {
			if err := self.p.PrintImage(self.qr); err != nil {
				return err
			}
		}
		return self.p.Raw(lf3)

	case types.PrintVoid:
		if err := self.p.Raw(lf); err != nil {
			return err
		}
		if err := self.p.PrintImage(self.glyphs.Void); err != nil {
			return err
		}
		return self.p.Raw(lf3)
	}
	return errors.NotValidf("print kind=%s", p.Kind.String())
}

// renderLine returns view of scratch buffer, valid until next render.
func (self *Driver) renderLine(item types.Item, price currency.Amount) (display.Bitmap, error) {
	icon, err := self.glyphs.Item(item)
	if err != nil {
		return display.Bitmap{}, err
	}
	self.fb.Clear()
	self.fb.Blit(icon, 0, 0)
	placePrice(&self.fb, self.glyphs.PriceGlyphs(price), self.fb.Width-lineRight, 0)
	return self.fb.CropRows(icon.Height), nil
}

func (self *Driver) renderTotal(price currency.Amount) display.Bitmap {
	self.fb.Clear()
	self.fb.Blit(self.glyphs.Footer, 0, 0)
	placePrice(&self.fb, self.glyphs.PriceGlyphs(price), self.fb.Width-totalRight, totalY)
	return self.fb
}
