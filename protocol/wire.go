// Package protocol implements the LD2410 serial framing protocol
package protocol

// Frame layout constants
const (
	// BufferMax is the payload capacity of the frame buffer.
	// Matches the module's own 0x40-byte protocol buffer.
	BufferMax = 0x40

	MagicSize  = 4 // Header and tail magics are 4 bytes each
	LengthSize = 2 // Payload length field, little-endian
	FrameMin   = MagicSize + LengthSize + MagicSize
)

// Header and tail magics for the two frame families
var (
	DataHeader = [MagicSize]byte{0xF4, 0xF3, 0xF2, 0xF1}
	DataTail   = [MagicSize]byte{0xF8, 0xF7, 0xF6, 0xF5}
	CmdHeader  = [MagicSize]byte{0xFD, 0xFC, 0xFB, 0xFA}
	CmdTail    = [MagicSize]byte{0x04, 0x03, 0x02, 0x01}
)

// Command words, per the vendor serial protocol reference.
// An ACK echoes the command word with AckFlag set.
const (
	CmdEnterConfig    uint16 = 0x00FF
	CmdExitConfig     uint16 = 0x00FE
	CmdSetMaxGates    uint16 = 0x0060
	CmdReadParams     uint16 = 0x0061
	CmdEnhancedOn     uint16 = 0x0062
	CmdEnhancedOff    uint16 = 0x0063
	CmdSetGateSens    uint16 = 0x0064
	CmdReadFirmware   uint16 = 0x00A0
	CmdFactoryReset   uint16 = 0x00A2
	CmdRestart        uint16 = 0x00A3
	CmdBluetooth      uint16 = 0x00A4
	CmdReadMAC        uint16 = 0x00A5
	CmdSetResolution  uint16 = 0x00AA
	CmdReadResolution uint16 = 0x00AB

	AckFlag uint16 = 0x0100
)

// Parameter words used inside SetMaxGates and SetGateSens payloads
const (
	ParamMaxMovingGate     uint16 = 0x0000
	ParamMaxStationaryGate uint16 = 0x0001
	ParamNoOneWindow       uint16 = 0x0002

	ParamGate                uint16 = 0x0000
	ParamMovingThreshold     uint16 = 0x0001
	ParamStationaryThreshold uint16 = 0x0002

	// AllGates selects every gate in a SetGateSens command
	AllGates uint32 = 0x0000FFFF
)

// Data frame payload markers
const (
	SubtypeEnhanced = 0x01
	SubtypeBasic    = 0x02
	DataHead        = 0xAA
	DataCheck       = 0x55

	// MaxGates is the number of detection gates the module reports
	MaxGates = 9
)

// FrameKind distinguishes the two frame families
type FrameKind uint8

const (
	KindData FrameKind = iota
	KindAck
)

func (k FrameKind) String() string {
	if k == KindData {
		return "data"
	}
	return "ack"
}

// Frame is an assembled frame. The payload slice aliases the assembler's
// internal buffer and is only valid until the next call that feeds bytes.
type Frame struct {
	Kind    FrameKind
	Payload []byte
}
