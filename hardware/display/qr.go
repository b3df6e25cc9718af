package display

import (
	"github.com/juju/errors"
	"github.com/skip2/go-qrcode"
)

// QR rasterizes text into Bitmap no larger than size x size.
// Called once at startup, never on render path.
func QR(text string, size int) (Bitmap, error) {
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return Bitmap{}, errors.Annotate(err, "QR")
	}
	qr.DisableBorder = true
	img := qr.Image(size)
	if r := img.Bounds(); r.Dx() > size || r.Dy() > size {
		return Bitmap{}, errors.Errorf("QR image size=%s > max=%d", r.Max.String(), size)
	}
	return FromImage(img), nil
}
