package transport

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/shse/go-term/terminal"
)

// API serves the terminal over plain HTTP: a bare GET lists the
// registered commands, a request carrying a "line" parameter executes
// it and replies with the sink contents. Authentication stays with the
// caller through the Auth hook; the terminal itself never
// authenticates.
type API struct {
	terminal *terminal.Terminal
	queue    *Queue
	logger   *zap.Logger

	// Auth, when set, runs before any command handling. Returning
	// false ends the request with 403.
	Auth func(*http.Request) bool
}

func NewAPI(term *terminal.Terminal, queue *Queue, logger *zap.Logger) *API {
	return &API{
		terminal: term,
		queue:    queue,
		logger:   logger,
	}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.Auth != nil && !a.Auth(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	line := r.FormValue("line")

	if line == "" {
		if r.Method == http.MethodGet {
			a.list(w)
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	output, err := a.exec(r.Context(), EnsureTerminated(line))

	if err != nil {
		a.logger.Warn("Command dropped", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, output)
}

func (a *API) list(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")

	for _, name := range a.terminal.Names() {
		io.WriteString(w, name+"\r\n")
	}
}

func (a *API) exec(ctx context.Context, line string) (string, error) {
	result := make(chan string, 1)

	err := a.queue.Submit(line, func(output string, ok bool) {
		result <- output
	})

	if err != nil {
		return "", err
	}

	select {
	case output := <-result:
		return output, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
