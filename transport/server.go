package transport

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shse/go-term/terminal"
)

const MessageServerIsShuttingDown = "Server is shutting down"

const (
	clientBufferSize = 1024
	clientLineLimit  = 512
	readChunkSize    = 256
)

type client struct {
	id       int
	conn     net.Conn
	messages chan string
	closing  chan struct{}
}

func newClient(id int, conn net.Conn) client {
	return client{id, conn, make(chan string, 64), make(chan struct{}, 1)}
}

func (c client) close() {
	select {
	case c.closing <- struct{}{}:
	default:
	}
}

// send never blocks: a stalled client loses output rather than
// stalling the dispatch goroutine for everyone else.
func (c client) send(message string) {
	select {
	case c.messages <- message:
	default:
	}
}

// Write lets command handlers use the connected client as their output
// sink; every chunk is relayed through the delivery goroutine.
func (c client) Write(p []byte) (int, error) {
	c.send(string(p))
	return len(p), nil
}

type inputLine struct {
	client client
	text   string
}

func (c client) receiveLines(server *Server) {
	buffer := terminal.NewLineBuffer(clientBufferSize, clientLineLimit)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := c.conn.Read(chunk)

		if n > 0 {
			buffer.Append(chunk[:n])

			if buffer.Overflow() {
				terminal.WriteError(c, "Stream buffer overflow")
				buffer.Reset()
			}

			for {
				result := buffer.Line()

				if result.Overflow {
					terminal.WriteError(c, "Command line buffer overflow")
					continue
				}

				if !result.Found {
					break
				}

				server.lines <- inputLine{c, result.Line}
			}
		}

		if err != nil {
			break
		}
	}

	server.disconnected <- c
}

func (c client) deliverMessages() {
	writer := bufio.NewWriter(c.conn)

	for {
		select {
		case <-c.closing:
			// deliver what was queued before the close signal
			for {
				select {
				case message := <-c.messages:
					writer.WriteString(message)
				default:
					writer.Flush()
					c.conn.Close()
					return
				}
			}

		case message := <-c.messages:
			writer.WriteString(message)

		buffering:
			for {
				select {
				case message, ok := <-c.messages:
					if !ok {
						break buffering
					}

					writer.WriteString(message)
				default:
					break buffering
				}
			}

			writer.Flush()
		}
	}
}

// Server is the TCP console: a stream transport with one line buffer
// per client and the connection itself as the output sink.
type Server struct {
	closing      chan struct{}
	terminal     *terminal.Terminal
	logger       *zap.Logger
	connections  sync.Map
	count        int
	lines        chan inputLine
	connected    chan client
	disconnected chan client
	done         chan struct{}
	metrics      prometheus.Registerer
}

func NewServer(term *terminal.Terminal, logger *zap.Logger, metrics prometheus.Registerer) *Server {
	return &Server{
		make(chan struct{}, 1),
		term,
		logger,
		sync.Map{},
		0,
		make(chan inputLine),
		make(chan client),
		make(chan client),
		make(chan struct{}, 1),
		metrics,
	}
}

func (s *Server) Close() {
	s.closing <- struct{}{}
	<-s.done
}

func (s *Server) Run(ctx context.Context, address string) error {
	listener, err := net.Listen("tcp", address)

	if err != nil {
		return err
	}

	s.logger.Info("Console server started", zap.String("address", address))

	var clientCounter = 0

	go s.dispatch()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()

		if ctx.Err() != nil {
			break
		}

		if err != nil {
			s.logger.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		clientCounter++

		client := newClient(clientCounter, conn)

		s.connected <- client
	}

	listener.Close()
	s.Close()

	s.logger.Info("Shutdown completed")

	return nil
}

func (s *Server) shutdown() bool {
	if s.count == 0 {
		return false
	}

	select {
	case <-s.lines:
	case <-s.disconnected:
		s.count--

		if s.count == 0 {
			return false
		}
	}
	return true
}

func (s *Server) dispatch() {
	connected := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "connected_clients",
		Help: "Number of connected console clients."})

	commandTime := prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "console_command_time",
		Help: "Console command duration.",
	})

	s.metrics.MustRegister(connected)
	s.metrics.MustRegister(commandTime)

	for {
		select {
		case client := <-s.connected:
			s.connections.Store(client.id, client)
			s.count++
			go client.deliverMessages()
			go client.receiveLines(s)
			connected.Inc()

		case client := <-s.disconnected:
			s.connections.Delete(client.id)
			s.count--
			client.close()
			connected.Dec()

		case line := <-s.lines:
			started := time.Now()
			s.terminal.FindAndCall(line.text, line.client)
			commandTime.Observe(time.Since(started).Seconds())

		case <-s.closing:
			s.connections.Range(func(key, value interface{}) bool {
				client := value.(client)
				client.send(terminal.ErrorPrefix + MessageServerIsShuttingDown + "\n")
				client.close()
				return true
			})

			for s.shutdown() {
			}

			s.done <- struct{}{}
			return
		}
	}
}
