package ra8835

import "fmt"

// Command is a controller op-code. Only the constants below are valid.
type Command byte

const (
	SystemSet   Command = 0x40 // Initialize device and display
	SleepIn     Command = 0x53 // Enter standby mode
	DisplayOff  Command = 0x58 // Display off, set layer attributes
	DisplayOn   Command = 0x59 // Display on
	Scroll      Command = 0x44 // Set layer start addresses and heights
	CsrForm     Command = 0x5D // Set cursor shape
	CgRAMAdr    Command = 0x5C // Set character generator RAM start address
	CsrDirRight Command = 0x4C // Cursor auto-increment to the right
	CsrDirLeft  Command = 0x4D // Cursor auto-increment to the left
	CsrDirUp    Command = 0x4E // Cursor auto-increment upwards
	CsrDirDown  Command = 0x4F // Cursor auto-increment downwards
	HdotScr     Command = 0x5A // Set horizontal dot scroll offset
	Ovlay       Command = 0x5B // Set layer overlay format
	Csrw        Command = 0x46 // Write cursor address
	Csrr        Command = 0x47 // Read cursor address
	Mwrite      Command = 0x42 // Write to display memory
	Mread       Command = 0x43 // Read from display memory
)

var commandNames = map[Command]string{
	SystemSet:   "SystemSet",
	SleepIn:     "SleepIn",
	DisplayOff:  "DisplayOff",
	DisplayOn:   "DisplayOn",
	Scroll:      "Scroll",
	CsrForm:     "CsrForm",
	CgRAMAdr:    "CgRAMAdr",
	CsrDirRight: "CsrDirRight",
	CsrDirLeft:  "CsrDirLeft",
	CsrDirUp:    "CsrDirUp",
	CsrDirDown:  "CsrDirDown",
	HdotScr:     "HdotScr",
	Ovlay:       "Ovlay",
	Csrw:        "Csrw",
	Csrr:        "Csrr",
	Mwrite:      "Mwrite",
	Mread:       "Mread",
}

// Valid reports whether c is one of the controller's op-codes.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Command(0x%02X)", byte(c))
}

// Direction is the cursor auto-increment direction after a memory access.
type Direction byte

const (
	Right Direction = iota
	Left
	Up
	Down
)

func (d Direction) command() (Command, error) {
	switch d {
	case Right:
		return CsrDirRight, nil
	case Left:
		return CsrDirLeft, nil
	case Up:
		return CsrDirUp, nil
	case Down:
		return CsrDirDown, nil
	}
	return 0, fmt.Errorf("ra8835: invalid cursor direction %d", d)
}

// Parameter tables for the initialization sequence.
const (
	// systemSetControl is P1 of SYSTEM SET: internal CGROM, 8-pixel
	// character height for CGROM, single-panel drive, no top-line
	// correction.
	systemSetControl = 0x30
	// systemSetWF selects two-frame AC drive in P2.
	systemSetWF = 0x80
	// tcrMargin is added to C/R to form the total character bytes per
	// line (TC/R), covering the horizontal blanking interval.
	tcrMargin = 4
	// displayAttributes enables the first two layers and flashes the
	// cursor at about 16Hz.
	displayAttributes = 0x3F
	// overlayMode is a simple OR of the layers, with the first layer in
	// text mode.
	overlayMode = 0x00
)

// cursorForm is the CSRFORM parameter pair: 5-pixel wide, 7-line high block
// cursor.
var cursorForm = [2]byte{0x04, 0x86}
