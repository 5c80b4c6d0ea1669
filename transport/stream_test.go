package transport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type scriptedSource struct {
	data []byte
}

func (s *scriptedSource) Available() int {
	return len(s.data)
}

func (s *scriptedSource) ReadAvailable(p []byte) int {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n
}

func TestConsoleDispatchesLinesInOrder(t *testing.T) {
	source := &scriptedSource{data: []byte("echo one\necho two\n")}

	var out bytes.Buffer

	console := NewConsole(newTestTerminal(), source, &out, 64, 64)
	console.Poll()

	assert.Equal(t, "one\n+OK\ntwo\n+OK\n", out.String())
}

func TestConsoleHoldsPartialLineUntilTerminated(t *testing.T) {
	source := &scriptedSource{data: []byte("echo he")}

	var out bytes.Buffer

	console := NewConsole(newTestTerminal(), source, &out, 64, 64)
	console.Poll()

	assert.Empty(t, out.String())

	source.data = []byte("llo\n")
	console.Poll()

	assert.Equal(t, "hello\n+OK\n", out.String())
}

func TestConsoleReportsRawOverflow(t *testing.T) {
	source := &scriptedSource{data: []byte(strings.Repeat("a", 20))}

	var out bytes.Buffer

	console := NewConsole(newTestTerminal(), source, &out, 8, 8)

	console.Poll()
	console.Poll()

	assert.Equal(t, "-ERROR: Stream buffer overflow\n", out.String())

	// the buffer was reset; scanning resumes with fresh input
	source.data = []byte("echo ok\n")
	console.Poll()

	assert.Contains(t, out.String(), "ok\n+OK\n")
}

func TestConsoleReportsLineOverflowAndRecovers(t *testing.T) {
	source := &scriptedSource{data: []byte("0123456789\necho ok\n")}

	var out bytes.Buffer

	console := NewConsole(newTestTerminal(), source, &out, 64, 8)
	console.Poll()

	assert.Equal(t, "-ERROR: Command line buffer overflow\nok\n+OK\n", out.String())
}

func TestConsolePollWithNothingAvailable(t *testing.T) {
	source := &scriptedSource{}

	var out bytes.Buffer

	console := NewConsole(newTestTerminal(), source, &out, 64, 64)
	console.Poll()

	assert.Empty(t, out.String())
}
