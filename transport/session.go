package transport

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/shse/go-term/terminal"
)

// Session is a minimal line-protocol client for the TCP console: send
// one command line, collect output until the terminal status marker
// arrives. Scripts and tests poll the console through it.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	closed bool
}

func NewSession(address string) (session *Session, err error) {
	var conn net.Conn

	for i := 0; i < 3; i++ {
		conn, err = net.Dial("tcp", address)

		if err != nil {
			time.Sleep(1 * time.Second)
			continue
		}

		break
	}

	if err != nil {
		return
	}

	session = &Session{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}

	return
}

// Exec sends one command line and reads until +OK or -ERROR:. The
// returned payload holds every line before the status, the error line
// included when ok is false.
func (s *Session) Exec(line string) (payload []string, ok bool, err error) {
	if _, err = s.writer.WriteString(line + "\n"); err != nil {
		return
	}

	if err = s.writer.Flush(); err != nil {
		return
	}

	for {
		var text string

		text, err = s.reader.ReadString('\n')

		if err != nil {
			return
		}

		text = strings.TrimRight(text, "\r\n")

		if text == terminal.StatusOK {
			ok = true
			return
		}

		if strings.HasPrefix(text, terminal.ErrorPrefix) {
			payload = append(payload, text)
			return
		}

		payload = append(payload, text)
	}
}

// ReadLine returns the next raw line, for output that arrives outside
// an Exec exchange (overflow diagnostics, shutdown notice).
func (s *Session) ReadLine() (string, error) {
	text, err := s.reader.ReadString('\n')

	if err != nil {
		return "", err
	}

	return strings.TrimRight(text, "\r\n"), nil
}

// Send writes raw bytes without waiting for any reply.
func (s *Session) Send(data string) error {
	if _, err := s.writer.WriteString(data); err != nil {
		return err
	}

	return s.writer.Flush()
}

func (s *Session) Close() {
	if s.closed {
		return
	}

	s.conn.Close()
	s.closed = true
}
