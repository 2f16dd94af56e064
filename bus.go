package ra8835

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Bus is the 8-bit bidirectional data port D0-D7.
//
// The driver leaves the bus in output direction between operations and only
// switches to input for the duration of ReadData.
type Bus interface {
	Write(v byte) error
	Read() (byte, error)
	SetInput() error
	SetOutput() error
}

// Line is a digital output. Every gpio.PinOut satisfies it.
type Line interface {
	Out(l gpio.Level) error
}

// Delayer blocks for at least the requested duration.
type Delayer interface {
	Sleep(d time.Duration)
}

// SleepDelayer implements Delayer with time.Sleep.
type SleepDelayer struct{}

// Sleep implements Delayer.
func (SleepDelayer) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Pins are the control lines of the 8080 interface.
type Pins struct {
	A0  Line // Register select: High = command write / data read, Low = data write
	WR  Line // Active-low write strobe
	RD  Line // Active-low read strobe
	CS  Line // Active-low chip select (optional, nil if tied low)
	RES Line // Active-low reset (optional, nil if not connected)
}

func (p *Pins) validate() error {
	if p.A0 == nil || p.WR == nil || p.RD == nil {
		return errors.New("ra8835: A0, WR and RD lines are required")
	}
	return nil
}

// Timing holds the minimum delays of the bus cycle. Any value at or above
// the datasheet minimum is correct.
type Timing struct {
	WriteSetup  time.Duration // Data valid before WR falls
	WriteHold   time.Duration // WR low pulse width
	ReadSetup   time.Duration // RD low before the bus is sampled
	ReadHold    time.Duration // Bus held after sampling, before RD rises
	ResetHold   time.Duration // RES low pulse width
	ResetSettle time.Duration // Wait after RES rises
}

// DefaultTiming matches the RA8835A datasheet with some margin.
var DefaultTiming = Timing{
	WriteSetup:  10 * time.Nanosecond,
	WriteHold:   160 * time.Nanosecond,
	ReadSetup:   40 * time.Nanosecond,
	ReadHold:    20 * time.Nanosecond,
	ResetHold:   10 * time.Millisecond,
	ResetSettle: 3 * time.Millisecond,
}

// withDefaults returns t with zero fields replaced by DefaultTiming.
func (t Timing) withDefaults() Timing {
	pick := func(v, def time.Duration) time.Duration {
		if v <= 0 {
			return def
		}
		return v
	}
	return Timing{
		WriteSetup:  pick(t.WriteSetup, DefaultTiming.WriteSetup),
		WriteHold:   pick(t.WriteHold, DefaultTiming.WriteHold),
		ReadSetup:   pick(t.ReadSetup, DefaultTiming.ReadSetup),
		ReadHold:    pick(t.ReadHold, DefaultTiming.ReadHold),
		ResetHold:   pick(t.ResetHold, DefaultTiming.ResetHold),
		ResetSettle: pick(t.ResetSettle, DefaultTiming.ResetSettle),
	}
}

// BusError reports a failure of one of the capabilities the driver uses.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return "ra8835: " + e.Op + ": " + e.Err.Error()
}

func (e *BusError) Unwrap() error {
	return e.Err
}

func busErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BusError{Op: op, Err: err}
}

// PinBus is a Bus made of eight GPIO pins, D0 first.
type PinBus struct {
	Pins [8]gpio.PinIO
	// Pull is applied to the pins while the bus is in input direction.
	Pull gpio.Pull

	input bool
}

// NewPinBus returns a PinBus in output direction with all lines low.
func NewPinBus(pins [8]gpio.PinIO, pull gpio.Pull) (*PinBus, error) {
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("ra8835: data pin D%d is nil", i)
		}
	}
	b := &PinBus{Pins: pins, Pull: pull}
	if err := b.Write(0); err != nil {
		return nil, err
	}
	return b, nil
}

// Write drives v onto D0-D7. The pins are switched to output if needed.
func (b *PinBus) Write(v byte) error {
	for i, p := range b.Pins {
		if err := p.Out(gpio.Level(v&(1<<uint(i)) != 0)); err != nil {
			return fmt.Errorf("D%d: %w", i, err)
		}
	}
	b.input = false
	return nil
}

// Read samples D0-D7.
func (b *PinBus) Read() (byte, error) {
	if !b.input {
		return 0, errors.New("bus is in output direction")
	}
	var v byte
	for i, p := range b.Pins {
		if p.Read() == gpio.High {
			v |= 1 << uint(i)
		}
	}
	return v, nil
}

// SetInput switches D0-D7 to input with the configured pull.
func (b *PinBus) SetInput() error {
	for i, p := range b.Pins {
		if err := p.In(b.Pull, gpio.NoEdge); err != nil {
			return fmt.Errorf("D%d: %w", i, err)
		}
	}
	b.input = true
	return nil
}

// SetOutput switches D0-D7 back to output, driving them low.
func (b *PinBus) SetOutput() error {
	if !b.input {
		return nil
	}
	return b.Write(0)
}

func (b *PinBus) String() string {
	return fmt.Sprintf("PinBus{%s..%s}", b.Pins[0], b.Pins[7])
}
