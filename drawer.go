package ra8835

import (
	"errors"
	"image"
	"image/color"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ra8835/image1bit"
)

// ColorModel returns the color model of the graphics layer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Write uploads a complete graphics layer. The data must be exactly
// AddressPitch() * Height bytes, laid out as the controller stores it.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != d.cfg.graphicsSize() {
		return 0, errors.New("ra8835: invalid buffer size")
	}
	if err := d.writeAt(d.cfg.GraphicsStart, pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw renders src into the graphics layer. The dst rectangle specifies the
// destination region on the display; src is read starting at sp.
//
// Rows are streamed to the controller directly. Bytes only partially
// covered by dst are read back first so pixels outside dst keep their value.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: a full frame already in the controller's layout.
	if img, ok := src.(*image1bit.HorizontalMSB); ok && d.cfg.pixelsPerByte() == 8 {
		if dst == d.rect && sp == (image.Point{}) && img.Rect == d.rect && img.Stride == d.cfg.AddressPitch() {
			_, err := d.Write(img.Pix)
			return err
		}
	}

	ppb := d.cfg.pixelsPerByte()
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		first, _ := d.cfg.PixelAddress(dst.Min.X, y)
		last, _ := d.cfg.PixelAddress(dst.Max.X-1, y)
		row := make([]byte, int(last-first)+1)

		if dst.Min.X%ppb != 0 {
			b, err := d.readAt(first)
			if err != nil {
				return err
			}
			row[0] = b
		}
		if dst.Max.X%ppb != 0 && (last != first || dst.Min.X%ppb == 0) {
			b, err := d.readAt(last)
			if err != nil {
				return err
			}
			row[len(row)-1] = b
		}

		sy := sp.Y + y - dst.Min.Y
		for x := dst.Min.X; x < dst.Max.X; x++ {
			addr, mask := d.cfg.PixelAddress(x, y)
			i := int(addr - first)
			if image1bit.BitModel.Convert(src.At(sp.X+x-dst.Min.X, sy)).(image1bit.Bit) {
				row[i] |= mask
			} else {
				row[i] &^= mask
			}
		}
		if err := d.writeAt(first, row); err != nil {
			return err
		}
	}
	return nil
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
