package terminal

import (
	"fmt"
	"io"
)

const (
	StatusOK    = "+OK"
	ErrorPrefix = "-ERROR: "
)

// Handler implements one named command. It must write exactly one
// terminal status through the context output before returning, unless
// it deliberately defers completion or never returns (reset).
type Handler func(ctx *Context)

// Context carries one command invocation. Argv[0] is the command name
// as typed, case preserved. The context is owned by the dispatch call
// and must not be retained after the handler returns.
type Context struct {
	Argv   []string
	Output io.Writer
}

func WriteOK(out io.Writer) {
	io.WriteString(out, StatusOK+"\n")
}

func WriteError(out io.Writer, message string) {
	fmt.Fprintf(out, "%s%s\n", ErrorPrefix, message)
}

func OK(ctx *Context) {
	WriteOK(ctx.Output)
}

func Error(ctx *Context, message string) {
	WriteError(ctx.Output, message)
}
