package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The wire format mirrors the embedded web UI: the client sends
// {"action":"cmd","data":{"line":"..."}} and receives
// {"cmd":{"result":"..."}} once the command ran.

type wsRequest struct {
	Action string `json:"action"`
	Data   struct {
		Line string `json:"line"`
	} `json:"data"`
}

type wsReply struct {
	Cmd struct {
		Result string `json:"result"`
	} `json:"cmd"`
}

// WebSocket upgrades HTTP connections and relays command frames to the
// dispatch queue. Replies go through a single writer goroutine per
// connection, never from the queue worker directly.
type WebSocket struct {
	queue    *Queue
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWebSocket(queue *Queue, logger *zap.Logger) *WebSocket {
	return &WebSocket{
		queue:  queue,
		logger: logger,
	}
}

func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)

	if err != nil {
		ws.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}

	defer conn.Close()

	replies := make(chan wsReply, 8)
	closed := make(chan struct{})

	defer close(closed)

	go func() {
		for {
			select {
			case <-closed:
				return

			case reply := <-replies:
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			}
		}
	}()

	for {
		var request wsRequest

		if err := conn.ReadJSON(&request); err != nil {
			return
		}

		if request.Action != "cmd" || request.Data.Line == "" {
			continue
		}

		err := ws.queue.Submit(EnsureTerminated(request.Data.Line), func(output string, ok bool) {
			var reply wsReply
			reply.Cmd.Result = output

			// drop when the reader is gone or the writer stalled
			select {
			case replies <- reply:
			case <-closed:
			}
		})

		if err != nil {
			ws.logger.Warn("Command dropped", zap.Error(err))
		}
	}
}
