package protocol

// FrameBuffer is a fixed-capacity append buffer with an explicit length.
// All payload bytes collected by the assembler live here; Push refuses
// writes past capacity so a hostile length field can never overrun it.
type FrameBuffer struct {
	buf [BufferMax]byte
	n   int
}

// Push appends a single byte. Returns false when the buffer is full.
func (b *FrameBuffer) Push(v byte) bool {
	if b.n >= len(b.buf) {
		return false
	}
	b.buf[b.n] = v
	b.n++
	return true
}

// Len returns the number of bytes held.
func (b *FrameBuffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *FrameBuffer) Cap() int {
	return len(b.buf)
}

// Bytes returns the held bytes. The slice aliases the buffer and is
// invalidated by Reset.
func (b *FrameBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Reset clears the buffer.
func (b *FrameBuffer) Reset() {
	b.n = 0
}
