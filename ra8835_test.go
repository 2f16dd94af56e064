package ra8835

import (
	"errors"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ra8835/ra8835sim"
)

type noDelay struct{}

func (noDelay) Sleep(time.Duration) {}

type recordingDelayer struct {
	d []time.Duration
}

func (r *recordingDelayer) Sleep(d time.Duration) {
	r.d = append(r.d, d)
}

func simPins(c *ra8835sim.Chip) Pins {
	return Pins{A0: c.A0, WR: c.WR, RD: c.RD, CS: c.CS, RES: c.RES}
}

func mustConfig(t *testing.T, fw, fh, w, h int) Config {
	t.Helper()
	cfg, err := NewConfig(fw, fh, w, h)
	if err != nil {
		t.Fatalf("NewConfig(%d, %d, %d, %d) = %v", fw, fh, w, h, err)
	}
	return cfg
}

// newTestDev returns an initialized device on a simulated chip whose
// memory was filled with garbage beforehand, and the transfer log cleared.
func newTestDev(t *testing.T, cfg Config) (*Dev, *ra8835sim.Chip) {
	t.Helper()
	chip := ra8835sim.New()
	chip.Fill(0xAA)
	d, err := New(chip.Bus, simPins(chip), cfg, &Opts{Delay: noDelay{}})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	chip.ResetTransfers()
	return d, chip
}

func commands(ts []ra8835sim.Transfer) []Command {
	var out []Command
	for _, tr := range ts {
		if tr.Kind == ra8835sim.Command {
			out = append(out, Command(tr.Value))
		}
	}
	return out
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewInitSequence(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 320, 240)
	chip := ra8835sim.New()
	chip.Fill(0xAA)
	d, err := New(chip.Bus, simPins(chip), cfg, &Opts{Delay: noDelay{}})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	want := []Command{
		SystemSet, Scroll,
		Csrw, CsrDirRight, Mwrite,
		HdotScr, DisplayOff, Csrw, CsrForm, Ovlay, DisplayOn,
	}
	got := commands(chip.Transfers())
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	params := []struct {
		cmd  Command
		want []byte
	}{
		{SystemSet, []byte{0x30, 0x87, 0x07, 40, 44, 239, 40, 0}},
		{Scroll, []byte{0x00, 0x00, 240, 0xB0, 0x04, 240}},
		{HdotScr, []byte{0x00}},
		{DisplayOff, []byte{0x3F}},
		{CsrForm, []byte{0x04, 0x86}},
		{Ovlay, []byte{0x00}},
		{Csrw, []byte{0x00, 0x00}},
	}
	for _, p := range params {
		if got := chip.Params(byte(p.cmd)); !equalBytes(got, p.want) {
			t.Errorf("%v params = % X, want % X", p.cmd, got, p.want)
		}
	}

	if !chip.On() {
		t.Error("display should be on")
	}
	span := cfg.ClearSpan()
	for i, b := range chip.Memory(0, span) {
		if b != 0 {
			t.Fatalf("memory[%d] = 0x%02X after init, want 0", i, b)
		}
	}
	if b := chip.Peek(uint16(span)); b != 0xAA {
		t.Errorf("memory past the clear span = 0x%02X, want untouched 0xAA", b)
	}
	if chip.Input() {
		t.Error("bus left in input direction")
	}
	if chip.Level(chip.WR) != gpio.High || chip.Level(chip.RD) != gpio.High {
		t.Error("strobes should be idle high")
	}
	if chip.Level(chip.CS) != gpio.Low {
		t.Error("chip should be selected")
	}
	if got := d.Config(); got != cfg {
		t.Errorf("Config() = %+v, want %+v", got, cfg)
	}
}

func TestNewResetTiming(t *testing.T) {
	chip := ra8835sim.New()
	rec := &recordingDelayer{}
	_, err := New(chip.Bus, simPins(chip), mustConfig(t, 8, 8, 16, 8), &Opts{Delay: rec})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.d) < 2 || rec.d[0] < 10*time.Millisecond || rec.d[1] < 3*time.Millisecond {
		t.Errorf("reset delays = %v, want >= 10ms then >= 3ms", rec.d)
	}
}

func TestNewWithoutOptionalPins(t *testing.T) {
	chip := ra8835sim.New()
	pins := Pins{A0: chip.A0, WR: chip.WR, RD: chip.RD}
	if _, err := New(chip.Bus, pins, mustConfig(t, 8, 8, 64, 32), &Opts{Delay: noDelay{}}); err != nil {
		t.Fatalf("New() without CS and RES = %v", err)
	}
	if !chip.On() {
		t.Error("display should be on")
	}
}

func TestNewValidation(t *testing.T) {
	chip := ra8835sim.New()
	cfg := mustConfig(t, 8, 8, 64, 32)

	if _, err := New(nil, simPins(chip), cfg, nil); err == nil {
		t.Error("New() with nil bus should fail")
	}
	if _, err := New(chip.Bus, Pins{A0: chip.A0, WR: chip.WR}, cfg, nil); err == nil {
		t.Error("New() without RD should fail")
	}

	// A hand-built Config is validated again and fails before the bus is used.
	bad := Config{FontWidth: 8, FontHeight: 8, Width: 1920, Height: 64}
	if _, err := New(chip.Bus, simPins(chip), bad, nil); !errors.Is(err, ErrColumnRegisterOverflow) {
		t.Errorf("New() = %v, want ErrColumnRegisterOverflow", err)
	}
	if n := len(chip.Transfers()); n != 0 {
		t.Errorf("%d transfers before config validation failed", n)
	}
}

func TestNewReportsBusErrors(t *testing.T) {
	chip := ra8835sim.New()
	boom := errors.New("boom")
	pins := simPins(chip)
	pins.CS = failingLine{boom}
	_, err := New(chip.Bus, pins, mustConfig(t, 8, 8, 64, 32), &Opts{Delay: noDelay{}})
	var be *BusError
	if !errors.As(err, &be) || be.Op != "CS" {
		t.Fatalf("New() = %v, want *BusError for CS", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("New() = %v, want wrapped %v", err, boom)
	}
}

type failingLine struct {
	err error
}

func (f failingLine) Out(gpio.Level) error {
	return f.err
}

func TestSetCursorAddress(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	if err := d.SetCursorAddress(0x1234); err != nil {
		t.Fatal(err)
	}
	want := []ra8835sim.Transfer{
		{Kind: ra8835sim.Command, Value: byte(Csrw)},
		{Kind: ra8835sim.Data, Value: 0x34},
		{Kind: ra8835sim.Data, Value: 0x12},
	}
	got := chip.Transfers()
	if len(got) != len(want) {
		t.Fatalf("transfers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transfer[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if c := chip.Cursor(); c != 0x1234 {
		t.Errorf("cursor = 0x%04X, want 0x1234", c)
	}

	addr, err := d.ReadCursorAddress()
	if err != nil {
		t.Fatal(err)
	}
	if addr != 0x1234 {
		t.Errorf("ReadCursorAddress() = 0x%04X, want 0x1234", addr)
	}
}

func TestWriteTiming(t *testing.T) {
	tests := []struct {
		name      string
		timing    Timing
		wantSetup time.Duration
		wantHold  time.Duration
	}{
		{"defaults", Timing{}, 10 * time.Nanosecond, 160 * time.Nanosecond},
		{"slow bus", Timing{WriteSetup: 20 * time.Nanosecond, WriteHold: 180 * time.Nanosecond}, 20 * time.Nanosecond, 180 * time.Nanosecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip := ra8835sim.New()
			rec := &recordingDelayer{}
			d, err := New(chip.Bus, simPins(chip), mustConfig(t, 8, 8, 16, 8), &Opts{Timing: tt.timing, Delay: rec})
			if err != nil {
				t.Fatal(err)
			}
			rec.d = nil
			if err := d.WriteCommand(CsrDirRight); err != nil {
				t.Fatal(err)
			}
			if len(rec.d) != 2 || rec.d[0] != tt.wantSetup || rec.d[1] != tt.wantHold {
				t.Errorf("delays = %v, want [%v %v]", rec.d, tt.wantSetup, tt.wantHold)
			}
		})
	}
}

func TestWriteCommandInvalid(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	if err := d.WriteCommand(Command(0x00)); err == nil {
		t.Error("WriteCommand(0x00) should fail")
	}
	if n := len(chip.Transfers()); n != 0 {
		t.Errorf("%d transfers for an invalid command", n)
	}
}

func TestReadData(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	chip.Poke(0x0100, 0x5A)
	if err := d.SetCursorAddress(0x0100); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteCommand(Mread); err != nil {
		t.Fatal(err)
	}
	v, err := d.ReadData()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x5A {
		t.Errorf("ReadData() = 0x%02X, want 0x5A", v)
	}
	if chip.Input() {
		t.Error("bus left in input direction")
	}
	if chip.Level(chip.RD) != gpio.High {
		t.Error("RD left asserted")
	}
}

func TestReadDataRestoresOutputOnError(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	boom := errors.New("bus glitch")
	chip.FailReads(boom)

	_, err := d.ReadData()
	if !errors.Is(err, boom) {
		t.Fatalf("ReadData() = %v, want %v", err, boom)
	}
	var be *BusError
	if !errors.As(err, &be) || be.Op != "read" {
		t.Errorf("ReadData() = %v, want *BusError for read", err)
	}
	if chip.Input() {
		t.Error("bus left in input direction after a failed read")
	}
	if chip.Level(chip.RD) != gpio.High {
		t.Error("RD left asserted after a failed read")
	}

	// The bus is usable again.
	chip.FailReads(nil)
	if err := d.WriteChar('A'); err != nil {
		t.Errorf("WriteChar() after failed read = %v", err)
	}
}

func TestSetPixelRoundTrip(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 320, 240)
	d, chip := newTestDev(t, cfg)
	addr, mask := cfg.PixelAddress(9, 2)
	chip.Poke(addr, 0x81)

	if err := d.SetPixel(9, 2, true); err != nil {
		t.Fatal(err)
	}
	if got := chip.Peek(addr); got != 0x81|mask {
		t.Errorf("after SetPixel(9, 2, true) byte = 0x%02X, want 0x%02X", got, 0x81|mask)
	}
	on, err := d.Pixel(9, 2)
	if err != nil || !on {
		t.Errorf("Pixel(9, 2) = %v, %v, want true", on, err)
	}

	if err := d.SetPixel(9, 2, false); err != nil {
		t.Fatal(err)
	}
	if got := chip.Peek(addr); got != 0x81 {
		t.Errorf("after SetPixel(9, 2, false) byte = 0x%02X, want 0x81", got)
	}
}

func TestSetPixelEveryBit(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 64, 32)
	d, chip := newTestDev(t, cfg)
	for x := 16; x < 24; x++ {
		if err := d.SetPixel(x, 5, true); err != nil {
			t.Fatal(err)
		}
		addr, _ := cfg.PixelAddress(x, 5)
		want := byte(0xFF) << uint(7-(x-16))
		if got := chip.Peek(addr); got != want {
			t.Errorf("after x=%d byte = 0x%02X, want 0x%02X", x, got, want)
		}
	}
}

func TestSetPixelPropagatesReadError(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 64, 32)
	d, chip := newTestDev(t, cfg)
	addr, _ := cfg.PixelAddress(3, 3)
	chip.Poke(addr, 0xFF)
	boom := errors.New("bus glitch")
	chip.FailReads(boom)

	if err := d.SetPixel(3, 3, false); !errors.Is(err, boom) {
		t.Fatalf("SetPixel() = %v, want %v", err, boom)
	}
	if got := chip.Peek(addr); got != 0xFF {
		t.Errorf("byte = 0x%02X after failed read, want it untouched", got)
	}
	for _, c := range commands(chip.Transfers()) {
		if c == Mwrite {
			t.Error("Mwrite issued after a failed read")
		}
	}
}

func TestSetPixelOutOfBounds(t *testing.T) {
	d, _ := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {64, 0}, {0, 32}} {
		if err := d.SetPixel(p[0], p[1], true); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetPixel(%d, %d) = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}
}

func TestWriteTextAt(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 320, 240)
	d, chip := newTestDev(t, cfg)
	if err := d.WriteTextAt("RA8835A", 220, 75); err != nil {
		t.Fatal(err)
	}
	// Cell (27, 9) on a 40 column text layer.
	rows := chip.Text(cfg.TextStart, cfg.CharsPerLine(), cfg.TextLines())
	if got := rows[9][27:34]; got != "RA8835A" {
		t.Errorf("row 9 = %q, want RA8835A at column 27", rows[9])
	}
	if err := d.WriteChar('!'); err != nil {
		t.Fatal(err)
	}
	if got := chip.Peek(9*40 + 34); got != '!' {
		t.Errorf("WriteChar wrote %q, want '!' after the text", got)
	}
	if err := d.WriteTextAt("x", 320, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("WriteTextAt off screen = %v, want ErrOutOfBounds", err)
	}
}

func TestWriteText(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 64, 32)
	d, chip := newTestDev(t, cfg)
	if err := d.WriteText("HELLO WORLD"); err != nil {
		t.Fatal(err)
	}
	rows := chip.Text(cfg.TextStart, cfg.CharsPerLine(), cfg.TextLines())
	text := strings.Join(rows, "")
	if !strings.HasPrefix(text, "HELLO WORLD") {
		t.Errorf("text layer = %q, want it to start with HELLO WORLD", text)
	}
}

func TestSetCursorDirection(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 64, 32)
	d, chip := newTestDev(t, cfg)
	if err := d.SetCursorAddress(cfg.GraphicsStart); err != nil {
		t.Fatal(err)
	}
	if err := d.SetCursorDirection(Down); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.WriteChar(0xFF); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		addr := cfg.GraphicsStart + uint16(i*cfg.AddressPitch())
		if got := chip.Peek(addr); got != 0xFF {
			t.Errorf("row %d byte = 0x%02X, want 0xFF", i, got)
		}
	}
	if err := d.SetCursorDirection(Direction(9)); err == nil {
		t.Error("SetCursorDirection(9) should fail")
	}
}

func TestClearDisplay(t *testing.T) {
	cfg := mustConfig(t, 8, 8, 64, 32)
	d, chip := newTestDev(t, cfg)
	if err := d.WriteText("abc"); err != nil {
		t.Fatal(err)
	}
	if err := d.DrawLine(0, 0, 63, 31); err != nil {
		t.Fatal(err)
	}
	if err := d.ClearDisplay(); err != nil {
		t.Fatal(err)
	}
	for i, b := range chip.Memory(0, cfg.ClearSpan()) {
		if b != 0 {
			t.Fatalf("memory[%d] = 0x%02X after ClearDisplay", i, b)
		}
	}
}

func TestScrollHorizontal(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	if err := d.ScrollHorizontal(3); err != nil {
		t.Fatal(err)
	}
	if got := chip.Params(byte(HdotScr)); !equalBytes(got, []byte{3}) {
		t.Errorf("HdotScr params = % X, want 03", got)
	}
	if err := d.ScrollHorizontal(8); err == nil {
		t.Error("ScrollHorizontal(8) should fail")
	}
}

func TestSleep(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if !chip.Asleep() {
		t.Error("chip should be asleep")
	}
	if err := d.WriteChar('a'); err != ErrHalted {
		t.Errorf("WriteChar after Sleep = %v, want ErrHalted", err)
	}
}

func TestHalt(t *testing.T) {
	d, chip := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if chip.On() {
		t.Error("display should be off after Halt")
	}
	if chip.Level(chip.CS) != gpio.High {
		t.Error("chip should be deselected after Halt")
	}

	checks := []struct {
		name string
		err  error
	}{
		{"WriteCommand", d.WriteCommand(DisplayOn)},
		{"WriteData", d.WriteData(0)},
		{"SetCursorAddress", d.SetCursorAddress(0)},
		{"WriteText", d.WriteText("a")},
		{"WriteTextAt", d.WriteTextAt("a", 0, 0)},
		{"WriteChar", d.WriteChar('a')},
		{"SetPixel", d.SetPixel(0, 0, true)},
		{"ClearDisplay", d.ClearDisplay()},
		{"DrawLine", d.DrawLine(0, 0, 1, 1)},
		{"DrawRectangle", d.DrawRectangle(0, 0, 1, 1)},
		{"ScrollHorizontal", d.ScrollHorizontal(0)},
		{"SetCursorDirection", d.SetCursorDirection(Right)},
	}
	for _, c := range checks {
		if c.err != ErrHalted {
			t.Errorf("%s after Halt = %v, want ErrHalted", c.name, c.err)
		}
	}
	if _, err := d.ReadData(); err != ErrHalted {
		t.Errorf("ReadData after Halt = %v, want ErrHalted", err)
	}
}

func TestDevString(t *testing.T) {
	d, _ := newTestDev(t, mustConfig(t, 8, 8, 64, 32))
	want := "ra8835.Dev{64x32}"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
