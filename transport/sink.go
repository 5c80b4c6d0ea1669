package transport

import (
	"bytes"
	"strings"
)

// Sink is the bounded output buffer handed to handlers invoked from
// message transports. Output beyond the capacity is discarded, never
// an error: the transport relays whatever fit.
type Sink struct {
	max int
	buf bytes.Buffer
}

func NewSink(max int) *Sink {
	return &Sink{max: max}
}

func (s *Sink) Write(p []byte) (int, error) {
	free := s.max - s.buf.Len()

	if free > 0 {
		if len(p) > free {
			s.buf.Write(p[:free])
		} else {
			s.buf.Write(p)
		}
	}

	return len(p), nil
}

func (s *Sink) Len() int {
	return s.buf.Len()
}

func (s *Sink) String() string {
	return s.buf.String()
}

// EnsureTerminated appends a line terminator when a message transport
// delivered the command text without one.
func EnsureTerminated(cmd string) string {
	if strings.HasSuffix(cmd, "\n") {
		return cmd
	}

	return cmd + "\n"
}
