package ra8835

import (
	"errors"
	"fmt"
)

// maxColumnRegister is the largest value the C/R field of SYSTEM SET accepts.
const maxColumnRegister = 239

var (
	// ErrColumnRegisterOverflow is returned by NewConfig when the geometry
	// needs more than 239 bytes per display line.
	ErrColumnRegisterOverflow = errors.New("ra8835: column register exceeds 239")
	// ErrInvalidGeometry is returned by NewConfig for dimensions the
	// controller cannot represent.
	ErrInvalidGeometry = errors.New("ra8835: invalid geometry")
)

// Layer selects one of the two display memory regions set up by New.
type Layer int

const (
	// TextLayer holds one character code per cell.
	TextLayer Layer = iota
	// GraphicsLayer holds one bit per pixel.
	GraphicsLayer
)

func (l Layer) String() string {
	switch l {
	case TextLayer:
		return "text"
	case GraphicsLayer:
		return "graphics"
	default:
		return fmt.Sprintf("Layer(%d)", int(l))
	}
}

// layerCount is the number of layers zeroed by the clear sequence.
const layerCount = 2

// Config describes the physical display and the memory layout derived from
// it. Create it with NewConfig; the zero value is not usable.
type Config struct {
	FontWidth  int // Character cell width in pixels (1-16)
	FontHeight int // Character cell height in pixels (1-16)
	Width      int // Screen width in pixels
	Height     int // Screen height in pixels (1-255)

	TextStart     uint16 // First byte of the text layer
	GraphicsStart uint16 // First byte of the graphics layer
}

// NewConfig validates the geometry and computes the layer addresses.
//
// The text layer starts at address 0 and uses one byte per character cell;
// the graphics layer follows it immediately.
func NewConfig(fontW, fontH, width, height int) (Config, error) {
	if fontW < 1 || fontW > 16 {
		return Config{}, fmt.Errorf("%w: font width %d not in 1..16", ErrInvalidGeometry, fontW)
	}
	if fontH < 1 || fontH > 16 {
		return Config{}, fmt.Errorf("%w: font height %d not in 1..16", ErrInvalidGeometry, fontH)
	}
	if width < fontW {
		return Config{}, fmt.Errorf("%w: width %d smaller than font width %d", ErrInvalidGeometry, width, fontW)
	}
	if height < fontH || height > 255 {
		return Config{}, fmt.Errorf("%w: height %d not in %d..255", ErrInvalidGeometry, height, fontH)
	}

	c := Config{FontWidth: fontW, FontHeight: fontH, Width: width, Height: height}
	if cr := c.ColumnRegister(); cr > maxColumnRegister {
		return Config{}, fmt.Errorf("%w: %d", ErrColumnRegisterOverflow, cr)
	}

	textSize := c.CharsPerLine() * c.TextLines()
	end := textSize + c.AddressPitch()*height
	if end > 0x10000 {
		return Config{}, fmt.Errorf("%w: layers need %d bytes of display memory", ErrInvalidGeometry, end)
	}
	c.TextStart = 0
	c.GraphicsStart = c.TextStart + uint16(textSize)
	return c, nil
}

// CharsPerLine is the number of character cells on one text line.
func (c Config) CharsPerLine() int {
	return c.Width / c.FontWidth
}

// BytesPerChar is the number of memory bytes a character cell spans
// horizontally.
func (c Config) BytesPerChar() int {
	return (c.FontWidth + 7) / 8
}

// ColumnRegister is the C/R value programmed by SYSTEM SET.
func (c Config) ColumnRegister() int {
	return c.CharsPerLine() * c.BytesPerChar()
}

// TextLines is the number of character rows on screen.
func (c Config) TextLines() int {
	return c.Height / c.FontHeight
}

// AddressPitch is the number of bytes between vertically adjacent graphics
// rows, equal to C/R.
func (c Config) AddressPitch() int {
	return c.ColumnRegister()
}

// LayerStart returns the first address of the layer.
func (c Config) LayerStart(l Layer) uint16 {
	if l == GraphicsLayer {
		return c.GraphicsStart
	}
	return c.TextStart
}

// TextAddress returns the text layer address of the character cell at
// column col, row row.
func (c Config) TextAddress(col, row int) uint16 {
	return c.TextStart + uint16(row*c.CharsPerLine()+col)
}

// pixelsPerByte is the number of graphics pixels one memory byte holds.
// Below 8 the controller uses the top FontWidth bits of each byte.
func (c Config) pixelsPerByte() int {
	if c.FontWidth < 8 {
		return c.FontWidth
	}
	return 8
}

// PixelAddress returns the graphics layer address holding pixel (x, y) and
// the bit mask selecting it. Bits are packed most significant first.
func (c Config) PixelAddress(x, y int) (addr uint16, mask byte) {
	ppb := c.pixelsPerByte()
	addr = c.GraphicsStart + uint16(y*c.AddressPitch()+x/ppb)
	mask = 1 << (7 - uint(x%ppb))
	return addr, mask
}

// ClearSpan is the number of zero bytes written by the clear sequence
// starting at address 0.
func (c Config) ClearSpan() int {
	span := c.Width / 8 * c.Height * layerCount
	if used := int(c.GraphicsStart) + c.AddressPitch()*c.Height; used > span {
		span = used
	}
	if span > 0x10000 {
		span = 0x10000
	}
	return span
}

// graphicsSize is the number of bytes the graphics layer occupies.
func (c Config) graphicsSize() int {
	return c.AddressPitch() * c.Height
}
