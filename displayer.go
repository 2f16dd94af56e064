package ra8835

import (
	"errors"
	"image/color"

	"periph.io/x/devices/v3/ra8835/image1bit"
	"tinygo.org/x/drivers"
)

// Displayer adapts Dev to tinygo's drivers.Displayer so tinygo drawing
// code, such as tinyfont, can render onto the graphics layer.
//
// drivers.Displayer has no error return; the first error is kept and
// reported by Display and Err.
type Displayer struct {
	dev *Dev
	err error
}

// NewDisplayer wraps d.
func NewDisplayer(d *Dev) *Displayer {
	return &Displayer{dev: d}
}

// Size returns the screen size in pixels.
func (p *Displayer) Size() (x, y int16) {
	return int16(p.dev.rect.Dx()), int16(p.dev.rect.Dy())
}

// SetPixel turns the pixel on for colors BitModel maps to On. Pixels
// outside the screen are ignored.
func (p *Displayer) SetPixel(x, y int16, c color.RGBA) {
	if p.err != nil {
		return
	}
	err := p.dev.SetPixel(int(x), int(y), bool(image1bit.BitModel.Convert(c).(image1bit.Bit)))
	if err != nil && !errors.Is(err, ErrOutOfBounds) {
		p.err = err
	}
}

// Display returns the first error seen by SetPixel. Pixels are written to
// the controller immediately, so there is nothing to flush.
func (p *Displayer) Display() error {
	return p.err
}

// Err returns the first error seen by SetPixel and resets it.
func (p *Displayer) Err() error {
	err := p.err
	p.err = nil
	return err
}

var _ drivers.Displayer = &Displayer{}
