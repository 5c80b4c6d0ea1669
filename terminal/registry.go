package terminal

import "strings"

type command struct {
	name    string
	handler Handler
}

// Terminal is a registry of named commands plus the dispatcher that
// invokes them. Commands are registered once during setup; lookups
// after that take no lock.
type Terminal struct {
	commands map[string]command
}

func New() *Terminal {
	return &Terminal{
		commands: make(map[string]command, 16),
	}
}

// Register adds a handler under name. Names compare case-insensitively
// and registering an existing name replaces the previous handler (last
// write wins). Empty names and nil handlers are ignored.
func (t *Terminal) Register(name string, handler Handler) {
	if name == "" || handler == nil {
		return
	}

	t.commands[strings.ToLower(name)] = command{name, handler}
}

func (t *Terminal) Lookup(name string) (Handler, bool) {
	found, exists := t.commands[strings.ToLower(name)]

	if !exists {
		return nil, false
	}

	return found.handler, true
}

// Names returns the registered command names in their original
// spelling. Order is unspecified; callers sort for presentation.
func (t *Terminal) Names() []string {
	names := make([]string, 0, len(t.commands))

	for _, command := range t.commands {
		names = append(names, command.name)
	}

	return names
}
