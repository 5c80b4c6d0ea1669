package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shse/go-term/terminal"
)

var ErrQueueFull = errors.New("command queue is full")

type task struct {
	line  string
	reply func(output string, ok bool)
}

// Queue decouples message transports from command execution: receive
// callbacks submit, a single worker executes. A handler can therefore
// never re-enter the transport that delivered it, and commands from
// all message transports run serialized in submission order.
type Queue struct {
	terminal *terminal.Terminal
	logger   *zap.Logger
	tasks    chan task
	sinkMax  int

	depth       prometheus.Gauge
	commandTime prometheus.Summary
	failures    prometheus.Counter
}

func NewQueue(term *terminal.Terminal, logger *zap.Logger, metrics prometheus.Registerer, size, sinkMax int) *Queue {
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "command_queue_depth",
		Help: "Number of queued command payloads."})

	commandTime := prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "command_time",
		Help: "Command duration.",
	})

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "command_failures",
		Help: "Number of payloads that named a missing command.",
	})

	metrics.MustRegister(depth)
	metrics.MustRegister(commandTime)
	metrics.MustRegister(failures)

	return &Queue{
		terminal:    term,
		logger:      logger,
		tasks:       make(chan task, size),
		sinkMax:     sinkMax,
		depth:       depth,
		commandTime: commandTime,
		failures:    failures,
	}
}

// Submit enqueues one command payload without blocking. reply receives
// the bounded sink contents once the worker has executed every line of
// the payload; ok is false when a command was missing. A full queue is
// an error for the submitter to report through its own protocol.
func (q *Queue) Submit(line string, reply func(output string, ok bool)) error {
	select {
	case q.tasks <- task{line, reply}:
		q.depth.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// Run executes submitted payloads until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	q.logger.Info("Command queue started", zap.Int("size", cap(q.tasks)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t := <-q.tasks:
			q.depth.Dec()

			started := time.Now()
			sink := NewSink(q.sinkMax)
			ok := q.terminal.APIFindAndCall(t.line, sink)

			q.commandTime.Observe(time.Since(started).Seconds())

			if !ok {
				q.failures.Inc()
			}

			if t.reply != nil {
				t.reply(sink.String(), ok)
			}
		}
	}
}
