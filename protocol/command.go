package protocol

import "encoding/binary"

// BuildCommand encodes an outbound command frame: command header magic,
// little-endian payload length, little-endian command word, parameter
// bytes, command tail magic.
func BuildCommand(cmd uint16, params []byte) []byte {
	payloadLen := 2 + len(params)
	frame := make([]byte, 0, MagicSize+LengthSize+payloadLen+MagicSize)
	frame = append(frame, CmdHeader[:]...)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(payloadLen))
	frame = binary.LittleEndian.AppendUint16(frame, cmd)
	frame = append(frame, params...)
	frame = append(frame, CmdTail[:]...)
	return frame
}

// AppendParamWord appends a parameter as the LD2410 encodes it in
// SetMaxGates and SetGateSens payloads: a little-endian 16-bit parameter
// word followed by a little-endian 32-bit value.
func AppendParamWord(dst []byte, param uint16, value uint32) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, param)
	dst = binary.LittleEndian.AppendUint32(dst, value)
	return dst
}

// AppendValueWord appends a bare little-endian 16-bit command value, the
// form used by EnterConfig, ReadMAC, SetResolution and Bluetooth.
func AppendValueWord(dst []byte, value uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, value)
}
