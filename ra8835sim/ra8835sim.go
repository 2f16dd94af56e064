// Package ra8835sim models an RA8835A controller as seen from its 8080 bus.
//
// A Chip exposes a Bus and five control Lines that satisfy the interfaces
// of package ra8835, decodes the strobes the driver generates and keeps the
// resulting 64KiB display memory. Timing is not checked.
//
// It is meant for tests and for running drawing code on a desktop.
package ra8835sim

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ra8835/image1bit"
)

// Op-codes decoded by the model.
const (
	opSystemSet   = 0x40
	opSleepIn     = 0x53
	opDisplayOff  = 0x58
	opDisplayOn   = 0x59
	opCsrDirRight = 0x4C
	opCsrDirLeft  = 0x4D
	opCsrDirUp    = 0x4E
	opCsrDirDown  = 0x4F
	opCsrw        = 0x46
	opCsrr        = 0x47
	opMwrite      = 0x42
	opMread       = 0x43
)

// Kind classifies a bus transfer.
type Kind int

const (
	Command Kind = iota // Write with A0 high
	Data                // Write with A0 low
	Read                // Read cycle
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "cmd"
	case Data:
		return "data"
	case Read:
		return "read"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Transfer is one completed bus cycle.
type Transfer struct {
	Kind  Kind
	Value byte
}

func (t Transfer) String() string {
	return fmt.Sprintf("%s:0x%02X", t.Kind, t.Value)
}

type lineID int

const (
	lineA0 lineID = iota
	lineWR
	lineRD
	lineCS
	lineRES
)

// Chip is a software RA8835A. Create it with New.
type Chip struct {
	Bus *Bus
	A0  *Line
	WR  *Line
	RD  *Line
	CS  *Line
	RES *Line

	mu sync.Mutex

	// Host side of the bus.
	data  byte
	input bool
	lines [5]gpio.Level

	// Controller state.
	mem     [0x10000]byte
	cursor  uint16
	dir     byte
	pitch   uint16
	cmd     byte
	params  []byte
	last    map[byte][]byte
	out     byte
	csrrIdx int
	on      bool
	asleep  bool

	log     []Transfer
	readErr error
}

// New returns a chip with all control lines inactive and the chip selected.
func New() *Chip {
	c := &Chip{last: map[byte][]byte{}}
	c.Bus = &Bus{c: c}
	c.A0 = &Line{c: c, id: lineA0}
	c.WR = &Line{c: c, id: lineWR}
	c.RD = &Line{c: c, id: lineRD}
	c.CS = &Line{c: c, id: lineCS}
	c.RES = &Line{c: c, id: lineRES}
	c.lines = [5]gpio.Level{gpio.High, gpio.High, gpio.High, gpio.Low, gpio.High}
	c.reset()
	return c
}

// Bus is the host side of D0-D7.
type Bus struct {
	c *Chip
}

// Write drives v onto the bus. The bus must be in output direction.
func (b *Bus) Write(v byte) error {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	if b.c.input {
		return errors.New("ra8835sim: write while bus is in input direction")
	}
	b.c.data = v
	return nil
}

// Read samples the value the controller presents while RD is low.
func (b *Bus) Read() (byte, error) {
	c := b.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.input {
		return 0, errors.New("ra8835sim: read while bus is in output direction")
	}
	if c.lines[lineRD] != gpio.Low {
		return 0, errors.New("ra8835sim: read without RD asserted")
	}
	if c.readErr != nil {
		return 0, c.readErr
	}
	c.log = append(c.log, Transfer{Kind: Read, Value: c.out})
	return c.out, nil
}

// SetInput switches the host side to input.
func (b *Bus) SetInput() error {
	b.c.mu.Lock()
	b.c.input = true
	b.c.mu.Unlock()
	return nil
}

// SetOutput switches the host side to output.
func (b *Bus) SetOutput() error {
	b.c.mu.Lock()
	b.c.input = false
	b.c.mu.Unlock()
	return nil
}

// Line is one control input of the controller.
type Line struct {
	c  *Chip
	id lineID
}

// Out sets the line level. Edges on WR, RD and RES are decoded.
func (l *Line) Out(v gpio.Level) error {
	c := l.c
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.lines[l.id]
	c.lines[l.id] = v
	selected := c.lines[lineCS] == gpio.Low && c.lines[lineRES] == gpio.High
	switch l.id {
	case lineWR:
		if prev == gpio.Low && v == gpio.High && selected {
			c.latch()
		}
	case lineRD:
		if prev == gpio.High && v == gpio.Low && selected {
			c.present()
		}
	case lineRES:
		if v == gpio.Low {
			c.reset()
		}
	}
	return nil
}

func (l *Line) String() string {
	return [...]string{"A0", "WR", "RD", "CS", "RES"}[l.id]
}

// reset puts the controller in its power-on state. Display memory is
// retained, as on the real part.
func (c *Chip) reset() {
	c.cursor = 0
	c.dir = opCsrDirRight
	c.pitch = 0
	c.cmd = 0
	c.params = nil
	c.csrrIdx = 0
	c.on = false
	c.asleep = false
}

// latch handles the rising edge of WR.
func (c *Chip) latch() {
	if c.lines[lineA0] == gpio.High {
		c.command(c.data)
	} else {
		c.write(c.data)
	}
}

func (c *Chip) command(op byte) {
	c.log = append(c.log, Transfer{Kind: Command, Value: op})
	c.cmd = op
	c.params = []byte{}
	c.last[op] = c.params
	c.csrrIdx = 0
	c.asleep = false
	switch op {
	case opDisplayOn:
		c.on = true
	case opDisplayOff:
		c.on = false
	case opSleepIn:
		c.on = false
		c.asleep = true
	case opCsrDirRight, opCsrDirLeft, opCsrDirUp, opCsrDirDown:
		c.dir = op
	}
}

func (c *Chip) write(v byte) {
	c.log = append(c.log, Transfer{Kind: Data, Value: v})
	c.params = append(c.params, v)
	c.last[c.cmd] = c.params
	switch c.cmd {
	case opCsrw:
		switch len(c.params) {
		case 1:
			c.cursor = c.cursor&0xFF00 | uint16(v)
		case 2:
			c.cursor = c.cursor&0x00FF | uint16(v)<<8
		}
	case opMwrite:
		c.mem[c.cursor] = v
		c.advance()
	case opSystemSet:
		if len(c.params) == 8 {
			c.pitch = uint16(c.params[6]) | uint16(c.params[7])<<8
		}
	}
}

// present computes the value driven on the bus for the read cycle that
// has just started.
func (c *Chip) present() {
	if c.lines[lineA0] == gpio.Low {
		// Status flag read; the model is never busy.
		c.out = 0
		return
	}
	switch c.cmd {
	case opMread:
		c.out = c.mem[c.cursor]
		c.advance()
	case opCsrr:
		c.out = byte(c.cursor >> (8 * uint(c.csrrIdx&1)))
		c.csrrIdx++
	default:
		c.out = 0
	}
}

func (c *Chip) advance() {
	switch c.dir {
	case opCsrDirRight:
		c.cursor++
	case opCsrDirLeft:
		c.cursor--
	case opCsrDirUp:
		c.cursor -= c.pitch
	case opCsrDirDown:
		c.cursor += c.pitch
	}
}

// FailReads makes every following Bus.Read return err. nil clears it.
func (c *Chip) FailReads(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
}

// Peek returns the display memory byte at addr.
func (c *Chip) Peek(addr uint16) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mem[addr]
}

// Poke sets the display memory byte at addr without a bus cycle.
func (c *Chip) Poke(addr uint16, v byte) {
	c.mu.Lock()
	c.mem[addr] = v
	c.mu.Unlock()
}

// Fill sets every display memory byte to v.
func (c *Chip) Fill(v byte) {
	c.mu.Lock()
	for i := range c.mem {
		c.mem[i] = v
	}
	c.mu.Unlock()
}

// Memory returns a copy of n bytes of display memory starting at addr.
func (c *Chip) Memory(addr uint16, n int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = c.mem[uint16(int(addr)+i)]
	}
	return out
}

// Cursor returns the controller cursor.
func (c *Chip) Cursor() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// On reports whether the last DISP ON/OFF command turned the display on.
func (c *Chip) On() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// Asleep reports whether SLEEP IN was the last command.
func (c *Chip) Asleep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asleep
}

// Params returns the parameters sent after the last occurrence of op.
func (c *Chip) Params(op byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.last[op]...)
}

// Level returns the current level of a control line.
func (c *Chip) Level(l *Line) gpio.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[l.id]
}

// Input reports whether the host side of the bus is in input direction.
func (c *Chip) Input() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Transfers returns the bus cycles recorded since the last ResetTransfers.
func (c *Chip) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transfer(nil), c.log...)
}

// ResetTransfers clears the transfer log.
func (c *Chip) ResetTransfers() {
	c.mu.Lock()
	c.log = nil
	c.mu.Unlock()
}

// Bitmap renders a graphics layer of w x h pixels starting at start, with
// pitch bytes per row and ppb pixels per byte.
func (c *Chip) Bitmap(start uint16, pitch, ppb, w, h int) *image1bit.HorizontalMSB {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := image1bit.NewHorizontalMSB(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			addr := uint16(int(start) + y*pitch + x/ppb)
			if c.mem[addr]&(1<<uint(7-x%ppb)) != 0 {
				img.SetBit(x, y, image1bit.On)
			}
		}
	}
	return img
}

// Text returns the character codes of a text layer of cols x rows cells
// starting at start, one string per row.
func (c *Chip) Text(start uint16, cols, rows int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, rows)
	for r := range out {
		line := make([]byte, cols)
		for i := range line {
			line[i] = c.mem[uint16(int(start)+r*cols+i)]
		}
		out[r] = string(line)
	}
	return out
}
