package ra8835

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("ra8835: halted")
	// ErrOutOfBounds is returned for pixel or text coordinates outside the
	// screen.
	ErrOutOfBounds = errors.New("ra8835: coordinates out of bounds")
)

// Opts tunes the bus timing. nil selects DefaultTiming and SleepDelayer.
type Opts struct {
	Timing Timing  // Zero fields use DefaultTiming
	Delay  Delayer // Defaults to SleepDelayer
}

// Dev is the device handle for an RA8835A controller on an 8080 bus.
//
// Dev owns the bus and control lines; it is not safe for concurrent use.
type Dev struct {
	bus    Bus
	pins   Pins
	delay  Delayer
	timing Timing

	cfg  Config
	rect image.Rectangle

	halted bool
}

// New takes ownership of the bus and pins, resets the controller and brings
// it to a displaying state with both layers cleared.
//
// If an error is returned the controller is left partially configured.
func New(bus Bus, pins Pins, cfg Config, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("ra8835: bus is nil")
	}
	if err := pins.validate(); err != nil {
		return nil, err
	}
	// Re-derive the layout so a hand-built Config can't bypass validation.
	c, err := NewConfig(cfg.FontWidth, cfg.FontHeight, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Opts{}
	}
	delay := opts.Delay
	if delay == nil {
		delay = SleepDelayer{}
	}

	d := &Dev{
		bus:    bus,
		pins:   pins,
		delay:  delay,
		timing: opts.Timing.withDefaults(),
		cfg:    c,
		rect:   image.Rect(0, 0, c.Width, c.Height),
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init runs the initialization sequence. Each stage depends on the
// previous one.
func (d *Dev) init() error {
	if err := d.bus.SetOutput(); err != nil {
		return busErr("set output", err)
	}
	if err := d.idle(); err != nil {
		return err
	}
	if err := d.hardwareReset(); err != nil {
		return err
	}
	if err := d.systemSet(); err != nil {
		return err
	}
	if err := d.configureLayers(); err != nil {
		return err
	}
	if err := d.clear(); err != nil {
		return err
	}
	return d.enable()
}

// idle drives the strobes inactive and selects the chip.
func (d *Dev) idle() error {
	if err := d.pins.WR.Out(gpio.High); err != nil {
		return busErr("WR", err)
	}
	if err := d.pins.RD.Out(gpio.High); err != nil {
		return busErr("RD", err)
	}
	if d.pins.CS != nil {
		if err := d.pins.CS.Out(gpio.Low); err != nil {
			return busErr("CS", err)
		}
	}
	return nil
}

func (d *Dev) hardwareReset() error {
	if d.pins.RES == nil {
		return nil
	}
	if err := d.pins.RES.Out(gpio.Low); err != nil {
		return busErr("RES low", err)
	}
	d.delay.Sleep(d.timing.ResetHold)
	if err := d.pins.RES.Out(gpio.High); err != nil {
		return busErr("RES high", err)
	}
	d.delay.Sleep(d.timing.ResetSettle)
	return nil
}

// systemSetParams returns the eight SYSTEM SET parameters for c.
func systemSetParams(c Config) []byte {
	cr := c.ColumnRegister()
	return []byte{
		systemSetControl,                  // P1
		systemSetWF | byte(c.FontWidth-1), // P2: WF, FX
		byte(c.FontHeight - 1),            // P3: FY
		byte(cr),                          // P4: C/R
		byte(cr + tcrMargin),              // P5: TC/R
		byte(c.Height - 1),                // P6: L/F
		byte(c.AddressPitch()),            // P7: APL
		byte(c.AddressPitch() >> 8),       // P8: APH
	}
}

// scrollParams returns the SCROLL parameters: text layer start and height,
// then graphics layer start and height.
func scrollParams(c Config) []byte {
	return []byte{
		byte(c.TextStart), byte(c.TextStart >> 8), byte(c.Height),
		byte(c.GraphicsStart), byte(c.GraphicsStart >> 8), byte(c.Height),
	}
}

func (d *Dev) systemSet() error {
	return d.writeParams(SystemSet, systemSetParams(d.cfg)...)
}

func (d *Dev) configureLayers() error {
	return d.writeParams(Scroll, scrollParams(d.cfg)...)
}

// clear zeroes both layers.
func (d *Dev) clear() error {
	if err := d.setCursorAddress(0); err != nil {
		return err
	}
	if err := d.writeCommand(CsrDirRight); err != nil {
		return err
	}
	if err := d.writeCommand(Mwrite); err != nil {
		return err
	}
	for i := d.cfg.ClearSpan(); i > 0; i-- {
		if err := d.writeData(0x00); err != nil {
			return err
		}
	}
	return nil
}

// enable turns the display off and on again so the layers configured by
// SCROLL take effect.
func (d *Dev) enable() error {
	if err := d.writeParams(HdotScr, 0x00); err != nil {
		return err
	}
	if err := d.writeParams(DisplayOff, displayAttributes); err != nil {
		return err
	}
	if err := d.setCursorAddress(0); err != nil {
		return err
	}
	if err := d.writeParams(CsrForm, cursorForm[:]...); err != nil {
		return err
	}
	if err := d.writeParams(Ovlay, overlayMode); err != nil {
		return err
	}
	return d.writeCommand(DisplayOn)
}

// write performs one 8080 write cycle with A0 at level a0.
func (d *Dev) write(a0 gpio.Level, v byte) error {
	if err := d.pins.A0.Out(a0); err != nil {
		return busErr("A0", err)
	}
	if err := d.bus.Write(v); err != nil {
		return busErr("write", err)
	}
	d.delay.Sleep(d.timing.WriteSetup)
	if err := d.pins.WR.Out(gpio.Low); err != nil {
		return busErr("WR", err)
	}
	d.delay.Sleep(d.timing.WriteHold)
	return busErr("WR", d.pins.WR.Out(gpio.High))
}

func (d *Dev) writeCommand(cmd Command) error {
	return d.write(gpio.High, byte(cmd))
}

func (d *Dev) writeData(v byte) error {
	return d.write(gpio.Low, v)
}

// writeParams sends cmd followed by its parameter bytes.
func (d *Dev) writeParams(cmd Command, params ...byte) error {
	if err := d.writeCommand(cmd); err != nil {
		return err
	}
	for _, p := range params {
		if err := d.writeData(p); err != nil {
			return err
		}
	}
	return nil
}

// readData performs one 8080 read cycle. RD is released and the bus is
// returned to output direction whatever happens.
func (d *Dev) readData() (v byte, err error) {
	if err := d.bus.SetInput(); err != nil {
		return 0, busErr("set input", err)
	}
	defer func() {
		if oerr := d.bus.SetOutput(); oerr != nil && err == nil {
			v, err = 0, busErr("set output", oerr)
		}
	}()
	if err := d.pins.A0.Out(gpio.High); err != nil {
		return 0, busErr("A0", err)
	}
	if err := d.pins.RD.Out(gpio.Low); err != nil {
		return 0, busErr("RD", err)
	}
	defer func() {
		if rerr := d.pins.RD.Out(gpio.High); rerr != nil && err == nil {
			v, err = 0, busErr("RD", rerr)
		}
	}()
	d.delay.Sleep(d.timing.ReadSetup)
	v, err = d.bus.Read()
	if err != nil {
		return 0, busErr("read", err)
	}
	d.delay.Sleep(d.timing.ReadHold)
	return v, nil
}

// setCursorAddress sends CSRW with the address low byte first.
func (d *Dev) setCursorAddress(addr uint16) error {
	return d.writeParams(Csrw, byte(addr&0xFF), byte(addr>>8))
}

// readAt returns the display memory byte at addr. The cursor is left one
// step past addr.
func (d *Dev) readAt(addr uint16) (byte, error) {
	if err := d.setCursorAddress(addr); err != nil {
		return 0, err
	}
	if err := d.writeCommand(Mread); err != nil {
		return 0, err
	}
	return d.readData()
}

// writeAt streams data into display memory starting at addr.
func (d *Dev) writeAt(addr uint16, data []byte) error {
	if err := d.setCursorAddress(addr); err != nil {
		return err
	}
	return d.writeParams(Mwrite, data...)
}

// Config returns the geometry the device was initialized with.
func (d *Dev) Config() Config {
	return d.cfg
}

// WriteCommand sends a bare command byte.
func (d *Dev) WriteCommand(cmd Command) error {
	if d.halted {
		return ErrHalted
	}
	if !cmd.Valid() {
		return fmt.Errorf("ra8835: invalid command %s", cmd)
	}
	return d.writeCommand(cmd)
}

// WriteData sends a parameter or display data byte.
func (d *Dev) WriteData(v byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.writeData(v)
}

// ReadData reads one byte from the controller. Issue Mread or Csrr first.
func (d *Dev) ReadData() (byte, error) {
	if d.halted {
		return 0, ErrHalted
	}
	return d.readData()
}

// SetCursorAddress moves the controller cursor to addr.
func (d *Dev) SetCursorAddress(addr uint16) error {
	if d.halted {
		return ErrHalted
	}
	return d.setCursorAddress(addr)
}

// ReadCursorAddress returns the controller cursor.
func (d *Dev) ReadCursorAddress() (uint16, error) {
	if d.halted {
		return 0, ErrHalted
	}
	if err := d.writeCommand(Csrr); err != nil {
		return 0, err
	}
	lo, err := d.readData()
	if err != nil {
		return 0, err
	}
	hi, err := d.readData()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// SetCursorDirection selects how the cursor moves after each memory access.
func (d *Dev) SetCursorDirection(dir Direction) error {
	if d.halted {
		return ErrHalted
	}
	cmd, err := dir.command()
	if err != nil {
		return err
	}
	return d.writeCommand(cmd)
}

// WriteText writes character codes at the start of the text layer.
func (d *Dev) WriteText(text string) error {
	if d.halted {
		return ErrHalted
	}
	return d.writeAt(d.cfg.TextStart, []byte(text))
}

// WriteTextAt writes character codes starting at the cell containing pixel
// (x, y). The controller's character generator draws the glyphs.
func (d *Dev) WriteTextAt(text string, x, y int) error {
	if d.halted {
		return ErrHalted
	}
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return ErrOutOfBounds
	}
	addr := d.cfg.TextAddress(x/d.cfg.FontWidth, y/d.cfg.FontHeight)
	return d.writeAt(addr, []byte(text))
}

// WriteChar writes one character code at the current cursor.
func (d *Dev) WriteChar(c byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.writeParams(Mwrite, c)
}

// SetPixel turns the graphics layer pixel at (x, y) on or off.
//
// It reads the byte holding the pixel, changes one bit and writes it back;
// a failed read aborts the update.
func (d *Dev) SetPixel(x, y int, on bool) error {
	if d.halted {
		return ErrHalted
	}
	return d.setPixel(x, y, on)
}

func (d *Dev) setPixel(x, y int, on bool) error {
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return ErrOutOfBounds
	}
	addr, mask := d.cfg.PixelAddress(x, y)
	cur, err := d.readAt(addr)
	if err != nil {
		return err
	}
	next := cur &^ mask
	if on {
		next = cur | mask
	}
	return d.writeAt(addr, []byte{next})
}

// Pixel reports whether the graphics layer pixel at (x, y) is on.
func (d *Dev) Pixel(x, y int) (bool, error) {
	if d.halted {
		return false, ErrHalted
	}
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return false, ErrOutOfBounds
	}
	addr, mask := d.cfg.PixelAddress(x, y)
	b, err := d.readAt(addr)
	if err != nil {
		return false, err
	}
	return b&mask != 0, nil
}

// ClearDisplay zeroes the text and graphics layers.
func (d *Dev) ClearDisplay() error {
	if d.halted {
		return ErrHalted
	}
	return d.clear()
}

// ScrollHorizontal sets the horizontal dot scroll offset (0-7).
func (d *Dev) ScrollHorizontal(dots byte) error {
	if d.halted {
		return ErrHalted
	}
	if dots > 7 {
		return errors.New("ra8835: horizontal scroll must be between 0 and 7")
	}
	return d.writeParams(HdotScr, dots)
}

// Sleep puts the controller in standby. Display memory is retained; New
// must be called again to wake it.
func (d *Dev) Sleep() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.writeCommand(SleepIn); err != nil {
		return err
	}
	d.halted = true
	return nil
}

// Halt turns the display off and deselects the chip.
// After calling Halt, every operation returns ErrHalted.
func (d *Dev) Halt() error {
	d.halted = true
	if err := d.writeParams(DisplayOff, 0x00); err != nil {
		return err
	}
	if d.pins.CS != nil {
		return busErr("CS", d.pins.CS.Out(gpio.High))
	}
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ra8835.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
