// Package ra8835 controls a RA8835A dot-matrix LCD controller over its 8080
// 8-bit parallel bus.
//
// The RA8835A (an SED1335 compatible) drives monochrome panels of up to
// 640×256 pixels from a 64KiB external display memory. This driver sets up
// two layers in that memory, a character layer at address 0 and a graphics
// layer right after it, and implements the display.Drawer interface from
// periph.io on the graphics layer.
//
// # Display Characteristics
//
// - 1 bit per pixel, most significant bit leftmost
// - Text layer using the internal character generator
// - Layers combined with OR overlay
// - Horizontal dot scroll of 0 to 7 pixels
// - Read back of display memory and cursor address
//
// # Hardware Connection
//
// The controller is wired in 8080 mode (SEL1 and SEL2 low):
//
//	Display Pin → System Pin
//	GND         → GND
//	VDD         → 5V (check the module, many need a negative bias on V0)
//	D0-D7       → GPIO, bidirectional
//	A0          → GPIO, high for commands and reads, low for data
//	/WR         → GPIO, active low write strobe
//	/RD         → GPIO, active low read strobe
//	/CS         → Optional: GPIO, or GND if always selected
//	/RES        → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/devices/v3/ra8835"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		var data [8]gpio.PinIO
//		for i, name := range []string{"GPIO4", "GPIO5", "GPIO6", "GPIO12", "GPIO13", "GPIO16", "GPIO19", "GPIO20"} {
//			data[i] = gpioreg.ByName(name)
//		}
//		bus, _ := ra8835.NewPinBus(data, gpio.PullNoChange)
//
//		cfg, _ := ra8835.NewConfig(8, 8, 320, 240)
//		dev, _ := ra8835.New(bus, ra8835.Pins{
//			A0:  gpioreg.ByName("GPIO21"),
//			WR:  gpioreg.ByName("GPIO22"),
//			RD:  gpioreg.ByName("GPIO23"),
//			RES: gpioreg.ByName("GPIO24"),
//		}, cfg, nil)
//		defer dev.Halt()
//
//		dev.WriteTextAt("RA8835A", 220, 75)
//		dev.DrawRectangle(50, 50, 150, 150)
//		dev.DrawLine(50, 50, 200, 200)
//	}
//
// # Geometry
//
// NewConfig derives the memory layout from the font cell and the screen
// size. With 8×8 cells on a 320×240 panel there are 40 characters per line
// and 30 lines, the graphics layer starts at 1200 and each pixel row takes
// 40 bytes. The column register (characters per line times bytes per
// character) must not exceed 239.
//
// # Drawing
//
// There is no frame buffer on the host. SetPixel, DrawLine and
// DrawRectangle read the affected byte back from the controller and write
// it again with one bit changed. Draw streams whole rows and only reads the
// bytes a clip rectangle cuts through. Write uploads a complete graphics
// layer as is.
//
// tinygo drawing code, such as tinyfont, can render through NewDisplayer.
//
// # Timing
//
// Each strobe is surrounded by the setup and hold times of Timing. The
// defaults follow the datasheet for a 5V part; slower wiring can raise them
// through Opts. A Delayer that does nothing is fine when the bus itself is
// slower than the controller, as with the ra8835sim model.
//
// # Datasheet
//
// Command set and bus timing follow the RAiO RA8835A datasheet, which is
// register compatible with the Epson SED1335.
package ra8835
