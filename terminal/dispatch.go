package terminal

import (
	"io"
	"strings"
)

// FindAndCall tokenizes one input line on whitespace and invokes the
// matching command with the stream as its output sink. Blank lines are
// silently ignored. Returns false when the line names no registered
// command.
func (t *Terminal) FindAndCall(line string, out io.Writer) bool {
	argv := strings.Fields(line)

	if len(argv) == 0 {
		return true
	}

	handler, found := t.Lookup(argv[0])

	if !found {
		WriteError(out, "Command not found: "+argv[0])
		return false
	}

	handler(&Context{Argv: argv, Output: out})

	return true
}

// APIFindAndCall executes every line of a message payload, stopping at
// the first command that is missing. Message and HTTP transports accept
// multi-line payloads through this entry point.
func (t *Terminal) APIFindAndCall(text string, out io.Writer) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !t.FindAndCall(line, out) {
			return false
		}
	}

	return true
}
