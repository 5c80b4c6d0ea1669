package commands

import (
	"fmt"
	"io"
	"net"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shse/go-term/terminal"
)

// Commands is the built-in diagnostic command set.
type Commands struct {
	App     string
	Version string
	Built   string

	StartedAt      time.Time
	Resolver       *terminal.Resolver
	ResolveTimeout time.Duration

	// Reboot terminates the process; RESET invokes it after writing
	// its status. Tests substitute a no-op.
	Reboot func()
}

func (c *Commands) Setup(t *terminal.Terminal) {
	help := c.help(t)

	t.Register("COMMANDS", help)
	t.Register("HELP", help)

	t.Register("INFO", c.info)
	t.Register("UPTIME", c.uptime)
	t.Register("HEAP", c.heap)

	t.Register("HOST", c.host)

	t.Register("RESET", c.reset)
}

func (c *Commands) help(t *terminal.Terminal) terminal.Handler {
	return func(ctx *terminal.Context) {
		names := t.Names()

		sort.Slice(names, func(i, j int) bool {
			return strings.ToLower(names[i]) < strings.ToLower(names[j])
		})

		io.WriteString(ctx.Output, "Available commands:\n")

		for _, name := range names {
			fmt.Fprintf(ctx.Output, "> %s\n", name)
		}

		terminal.OK(ctx)
	}
}

func (c *Commands) info(ctx *terminal.Context) {
	fmt.Fprintf(ctx.Output, "%s %s built %s\n", c.App, c.Version, c.Built)
	fmt.Fprintf(ctx.Output, "runtime: %s %s/%s cpus: %d\n",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	terminal.OK(ctx)
}

func (c *Commands) uptime(ctx *terminal.Context) {
	fmt.Fprintf(ctx.Output, "uptime %s\n", time.Since(c.StartedAt).Round(time.Second))

	terminal.OK(ctx)
}

func (c *Commands) heap(ctx *terminal.Context) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	fmt.Fprintf(ctx.Output, "alloc: %d total: %d sys: %d gc: %d\n",
		stats.HeapAlloc, stats.TotalAlloc, stats.Sys, stats.NumGC)

	terminal.OK(ctx)
}

func (c *Commands) host(ctx *terminal.Context) {
	if len(ctx.Argv) != 2 {
		terminal.Error(ctx, "HOST <hostname>")
		return
	}

	type outcome struct {
		name string
		addr net.IP
	}

	found := make(chan outcome, 1)

	err := c.Resolver.Start(ctx.Argv[1], func(name string, addr net.IP) {
		found <- outcome{name, addr}
	})

	if err != nil {
		terminal.Error(ctx, err.Error())
		return
	}

	if err := c.Resolver.Wait(c.ResolveTimeout); err != nil {
		terminal.Error(ctx, err.Error())
		return
	}

	result := <-found

	if result.addr == nil {
		terminal.Error(ctx, result.name+" not found")
		return
	}

	fmt.Fprintf(ctx.Output, "%s has address %s\n", result.name, result.addr)

	terminal.OK(ctx)
}

// reset reports its status first: the call path does not return once
// the reboot hook runs.
func (c *Commands) reset(ctx *terminal.Context) {
	terminal.OK(ctx)

	if c.Reboot != nil {
		c.Reboot()
	}
}
