package terminal

import "bytes"

// LineBuffer accumulates raw bytes from a stream transport and splits
// them into lines. Two independent overflow conditions are tracked:
// raw overflow latches when an append exceeds the remaining byte
// capacity, line overflow is reported per extraction when a single
// logical line exceeds the line-length bound.
type LineBuffer struct {
	buf       []byte
	capacity  int
	lineLimit int
	overflow  bool
}

// LineResult is one extraction attempt. Found reports whether Line
// holds a complete line with terminators stripped; Overflow reports
// that a too-long line was discarded and scanning resumes fresh.
type LineResult struct {
	Line     string
	Found    bool
	Overflow bool
}

func NewLineBuffer(capacity, lineLimit int) *LineBuffer {
	if lineLimit <= 0 || lineLimit > capacity {
		lineLimit = capacity
	}

	return &LineBuffer{
		buf:       make([]byte, 0, capacity),
		capacity:  capacity,
		lineLimit: lineLimit,
	}
}

// Append stores as many bytes as still fit. Offering more than the
// remaining capacity latches raw overflow and drops the excess; while
// the overflow is latched all further bytes are dropped until Reset.
func (b *LineBuffer) Append(p []byte) {
	if b.overflow {
		return
	}

	free := b.capacity - len(b.buf)

	if len(p) > free {
		b.overflow = true
		p = p[:free]
	}

	b.buf = append(b.buf, p...)
}

func (b *LineBuffer) Overflow() bool {
	return b.overflow
}

// Reset drops all pending bytes and clears the raw-overflow flag.
// Capacity is unchanged.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
	b.overflow = false
}

// Line extracts the next complete line. Callers drain in a loop until
// Found and Overflow are both false.
func (b *LineBuffer) Line() LineResult {
	if len(b.buf) == 0 {
		return LineResult{}
	}

	end := bytes.IndexByte(b.buf, '\n')

	if end < 0 {
		if len(b.buf) > b.lineLimit {
			b.buf = b.buf[:0]
			return LineResult{Overflow: true}
		}

		return LineResult{}
	}

	line := b.buf[:end]

	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	text := string(line)

	kept := copy(b.buf, b.buf[end+1:])
	b.buf = b.buf[:kept]

	if len(text) > b.lineLimit {
		return LineResult{Overflow: true}
	}

	return LineResult{Line: text, Found: true}
}
