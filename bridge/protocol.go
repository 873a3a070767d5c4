package bridge

// Hardware-device MIDI protocol constants.
// Payloads exclude the leading F0 and trailing F7 — midievent.SysEx
// (and gomidi.SysEx at the harness boundary) add the wrapper.
var (
	enterProgrammerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x01}
	exitProgrammerMode  = []byte{0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x00}
	deviceInquiry       = []byte{0x7E, 0x7F, 0x06, 0x01}
)

// Color palette indices used by the device's LED protocol.
const (
	ColorOff      byte = 0
	ColorWhite    byte = 3
	ColorRed      byte = 5
	ColorYellow   byte = 13
	ColorGreen    byte = 21
	ColorDimGreen byte = 23
)

// Auxiliary control-change numbers for viewport navigation.
const (
	ccPitchDown byte = 91
	ccPitchUp   byte = 92
	ccPageZero  byte = 93
	ccPageOne   byte = 94
)

const padChannel byte = 0
