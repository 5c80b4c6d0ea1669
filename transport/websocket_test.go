package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func withWebSocket(t *testing.T, action func(*websocket.Conn)) {
	logger, _ := zap.NewDevelopment()
	term := newTestTerminal()
	queue := NewQueue(term, logger, prometheus.NewRegistry(), 16, 1460)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- queue.Run(ctx)
	}()

	defer func() {
		cancel()
		<-done
	}()

	server := httptest.NewServer(NewWebSocket(queue, logger))

	defer server.Close()

	address := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(address, nil)

	require.NoError(t, err)

	defer conn.Close()

	action(conn)
}

func sendCommandFrame(t *testing.T, conn *websocket.Conn, line string) {
	var request wsRequest
	request.Action = "cmd"
	request.Data.Line = line

	require.NoError(t, conn.WriteJSON(request))
}

func TestDeliversCommandResultFrame(t *testing.T) {
	withWebSocket(t, func(conn *websocket.Conn) {
		sendCommandFrame(t, conn, "echo hello")

		var reply wsReply

		require.NoError(t, conn.ReadJSON(&reply))

		assert.Equal(t, "hello\n+OK\n", reply.Cmd.Result)
	})
}

func TestDeliversErrorResultFrame(t *testing.T) {
	withWebSocket(t, func(conn *websocket.Conn) {
		sendCommandFrame(t, conn, "missing")

		var reply wsReply

		require.NoError(t, conn.ReadJSON(&reply))

		assert.Equal(t, "-ERROR: Command not found: missing\n", reply.Cmd.Result)
	})
}

func TestIgnoresUnrelatedActions(t *testing.T) {
	withWebSocket(t, func(conn *websocket.Conn) {
		var request wsRequest
		request.Action = "ping"

		require.NoError(t, conn.WriteJSON(request))

		sendCommandFrame(t, conn, "echo after")

		var reply wsReply

		require.NoError(t, conn.ReadJSON(&reply))

		assert.Equal(t, "after\n+OK\n", reply.Cmd.Result)
	})
}
