package protocol

// assembler states
type asmState uint8

const (
	stateSeekHeader asmState = iota
	stateReadLength
	stateReadPayload
	stateReadTail
)

// Assembler reassembles LD2410 frames from an arbitrary chunking of the
// incoming byte stream. It is resumable: feeding a stream in several
// pieces produces the same frames as feeding it at once. A corrupt or
// oversized frame drops back to header search without ever writing past
// the fixed payload buffer.
type Assembler struct {
	state   asmState
	kind    FrameKind
	window  [MagicSize]byte
	filled  int
	lenBuf  [LengthSize]byte
	lenRead int
	length  int
	payload FrameBuffer
	tail    [MagicSize]byte
	tailN   int
}

// Feed consumes one byte and reports a frame when it completes one.
// The returned frame's payload aliases internal storage and must be
// consumed before the next Feed.
func (a *Assembler) Feed(b byte) (Frame, bool) {
	switch a.state {
	case stateSeekHeader:
		a.slide(b)
		if kind, ok := a.matchHeader(); ok {
			a.kind = kind
			a.filled = 0
			a.lenRead = 0
			a.state = stateReadLength
		}

	case stateReadLength:
		a.lenBuf[a.lenRead] = b
		a.lenRead++
		if a.lenRead == LengthSize {
			a.length = int(a.lenBuf[0]) | int(a.lenBuf[1])<<8
			if a.length > a.payload.Cap() {
				// Declared length cannot fit; the frame is bogus
				a.resync()
				break
			}
			a.payload.Reset()
			if a.length == 0 {
				a.tailN = 0
				a.state = stateReadTail
			} else {
				a.state = stateReadPayload
			}
		}

	case stateReadPayload:
		a.payload.Push(b)
		if a.payload.Len() == a.length {
			a.tailN = 0
			a.state = stateReadTail
		}

	case stateReadTail:
		a.tail[a.tailN] = b
		a.tailN++
		if a.tailN == MagicSize {
			if a.tail == tailFor(a.kind) {
				frame := Frame{Kind: a.kind, Payload: a.payload.Bytes()}
				a.state = stateSeekHeader
				return frame, true
			}
			// Bad tail: the four bytes we consumed were not a tail at
			// all, so run them back through the header search.
			tail := a.tail
			a.resync()
			for _, t := range tail[:] {
				if frame, ok := a.Feed(t); ok {
					return frame, true
				}
			}
		}
	}
	return Frame{}, false
}

// Reset drops any partial frame and returns to header search.
func (a *Assembler) Reset() {
	a.resync()
}

func (a *Assembler) resync() {
	a.state = stateSeekHeader
	a.filled = 0
	a.window = [MagicSize]byte{}
	a.payload.Reset()
}

// slide pushes a byte into the 4-byte header window, dropping the oldest.
func (a *Assembler) slide(b byte) {
	a.window[0] = a.window[1]
	a.window[1] = a.window[2]
	a.window[2] = a.window[3]
	a.window[3] = b
	if a.filled < MagicSize {
		a.filled++
	}
}

func (a *Assembler) matchHeader() (FrameKind, bool) {
	if a.filled < MagicSize {
		return 0, false
	}
	switch a.window {
	case DataHeader:
		return KindData, true
	case CmdHeader:
		return KindAck, true
	}
	return 0, false
}

func tailFor(kind FrameKind) [MagicSize]byte {
	if kind == KindData {
		return DataTail
	}
	return CmdTail
}
