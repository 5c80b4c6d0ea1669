package transport

import (
	"context"
	"io"
	"time"

	"github.com/shse/go-term/terminal"
)

// Source is the narrow contract a serial-like stream must satisfy:
// how many bytes are ready, and a non-blocking read of those bytes.
type Source interface {
	Available() int
	ReadAvailable(p []byte) int
}

// Console polls a byte Source and feeds complete lines to the
// terminal, with command output and overflow diagnostics written back
// to the same stream.
type Console struct {
	terminal *terminal.Terminal
	source   Source
	out      io.Writer
	buffer   *terminal.LineBuffer
	chunk    []byte
}

func NewConsole(term *terminal.Terminal, source Source, out io.Writer, bufferSize, lineLimit int) *Console {
	return &Console{
		terminal: term,
		source:   source,
		out:      out,
		buffer:   terminal.NewLineBuffer(bufferSize, lineLimit),
		chunk:    make([]byte, bufferSize),
	}
}

// Poll drains whatever the source has ready, then dispatches every
// complete line in arrival order. Safe to call when nothing is
// available.
func (c *Console) Poll() {
	available := c.source.Available()

	if available <= 0 {
		return
	}

	if available > len(c.chunk) {
		available = len(c.chunk)
	}

	n := c.source.ReadAvailable(c.chunk[:available])

	c.buffer.Append(c.chunk[:n])

	if c.buffer.Overflow() {
		terminal.WriteError(c.out, "Stream buffer overflow")
		c.buffer.Reset()
	}

	for {
		result := c.buffer.Line()

		if result.Overflow {
			terminal.WriteError(c.out, "Command line buffer overflow")
			continue
		}

		if !result.Found {
			break
		}

		c.terminal.FindAndCall(result.Line, c.out)
	}
}

// Run polls on a fixed interval until ctx is cancelled.
func (c *Console) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Poll()
		}
	}
}
