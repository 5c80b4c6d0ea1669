package commands

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shse/go-term/terminal"
)

func newTestCommands(lookup terminal.LookupFunc) (*Commands, *terminal.Terminal) {
	builtin := &Commands{
		App:            "go-term",
		Version:        "test",
		Built:          "now",
		StartedAt:      time.Now(),
		Resolver:       terminal.NewResolver(lookup),
		ResolveTimeout: time.Second,
	}

	term := terminal.New()
	builtin.Setup(term)

	return builtin, term
}

func TestHelpListsNamesSortedCaseInsensitively(t *testing.T) {
	term := terminal.New()

	noop := func(ctx *terminal.Context) { terminal.OK(ctx) }

	term.Register("Reset", noop)
	term.Register("Adc", noop)
	term.Register("Info", noop)

	builtin := &Commands{}
	term.Register("HELP", builtin.help(term))

	var out bytes.Buffer

	require.True(t, term.FindAndCall("HELP\n", &out))

	assert.Equal(t,
		"Available commands:\n> Adc\n> HELP\n> Info\n> Reset\n+OK\n",
		out.String())
}

func TestCommandsAliasesHelp(t *testing.T) {
	_, term := newTestCommands(nil)

	var out bytes.Buffer

	require.True(t, term.FindAndCall("COMMANDS\n", &out))

	assert.True(t, strings.HasPrefix(out.String(), "Available commands:\n"))
	assert.True(t, strings.HasSuffix(out.String(), "+OK\n"))
}

func TestInfoEndsWithOK(t *testing.T) {
	_, term := newTestCommands(nil)

	var out bytes.Buffer

	require.True(t, term.FindAndCall("INFO\n", &out))

	assert.Contains(t, out.String(), "go-term test built now\n")
	assert.True(t, strings.HasSuffix(out.String(), "+OK\n"))
}

func TestUptimeEndsWithOK(t *testing.T) {
	_, term := newTestCommands(nil)

	var out bytes.Buffer

	require.True(t, term.FindAndCall("UPTIME\n", &out))

	assert.Contains(t, out.String(), "uptime ")
	assert.True(t, strings.HasSuffix(out.String(), "+OK\n"))
}

func TestHeapEndsWithOK(t *testing.T) {
	_, term := newTestCommands(nil)

	var out bytes.Buffer

	require.True(t, term.FindAndCall("HEAP\n", &out))

	assert.Contains(t, out.String(), "alloc: ")
	assert.True(t, strings.HasSuffix(out.String(), "+OK\n"))
}

func TestHostWithoutArgumentReportsUsageAndStartsNoTask(t *testing.T) {
	builtin, term := newTestCommands(func(ctx context.Context, host string) ([]net.IP, error) {
		t.Error("lookup must not run")
		return nil, nil
	})

	var out bytes.Buffer

	require.True(t, term.FindAndCall("HOST\n", &out))

	assert.Equal(t, "-ERROR: HOST <hostname>\n", out.String())
	assert.False(t, builtin.Resolver.Pending())
}

func TestHostPrintsResolvedAddress(t *testing.T) {
	_, term := newTestCommands(func(ctx context.Context, host string) ([]net.IP, error) {
		return []net.IP{net.IPv4(192, 0, 2, 1)}, nil
	})

	var out bytes.Buffer

	require.True(t, term.FindAndCall("HOST example.org\n", &out))

	assert.Equal(t, "example.org has address 192.0.2.1\n+OK\n", out.String())
}

func TestHostReportsResolutionFailure(t *testing.T) {
	_, term := newTestCommands(func(ctx context.Context, host string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	})

	var out bytes.Buffer

	require.True(t, term.FindAndCall("HOST nowhere.invalid\n", &out))

	assert.Equal(t, "-ERROR: nowhere.invalid not found\n", out.String())
}

func TestResetWritesOKBeforeRebooting(t *testing.T) {
	builtin, term := newTestCommands(nil)

	var order []string

	builtin.Reboot = func() { order = append(order, "reboot") }

	var out bytes.Buffer

	require.True(t, term.FindAndCall("RESET\n", &out))

	assert.Equal(t, "+OK\n", out.String())
	assert.Equal(t, []string{"reboot"}, order)
}
