package smtpsink

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// stopTimeout bounds how long Stop waits for in-flight transactions to
// finish after the listener is closed, per §5. After the timeout the
// worker is abandoned; this matches the original Dumbster server's
// 20-second STOP_TIMEOUT exactly (see DESIGN.md).
const stopTimeout = 20 * time.Second

// Option configures a Server at construction.
type Option func(*Server)

// WithHostname sets the banner hostname stamped into the 220/221
// responses. Defaults to "localhost".
func WithHostname(hostname string) Option {
	return func(s *Server) { s.hostname = hostname }
}

// WithLogger sets the Server's Logger. Defaults to NullLogger.
func WithLogger(logger Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// Server is the embedded API surface: the accept loop, socket
// lifetime, and capture queue described in §5/§6. Out of scope for the
// core per §1, but the Driver needs this contract to run at all.
type Server struct {
	hostname string
	logger   Logger

	listener net.Listener
	queue    *Queue

	mu       sync.Mutex
	stopped  bool
	wg       sync.WaitGroup
}

// Start binds port (0 for an OS-assigned ephemeral port) and begins
// accepting connections in the background; it returns as soon as the
// listener is bound.
func Start(port int, opts ...Option) (*Server, error) {
	s := &Server{
		hostname: "localhost",
		logger:   NullLogger{},
		queue:    NewQueue(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if port < 0 {
		port = 0
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	engine := NewEngine(s.hostname)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				return
			}
			s.logger.Error(context.Background(), "accept failed", Attr("err", err.Error()))
			return
		}

		s.wg.Add(1)
		go s.serve(conn, engine)
	}
}

func (s *Server) serve(conn net.Conn, engine *Engine) {
	defer s.wg.Done()
	defer conn.Close()

	driver := NewDriver(engine, s.logger)
	ctx := context.Background()

	msgs, err := driver.Handle(ctx, bufio.NewReader(conn), conn)
	if err != nil {
		s.logger.Warn(ctx, "transaction aborted", Attr(AttrClientIP, conn.RemoteAddr().String()), Attr("err", err.Error()))
	}

	s.queue.Offer(msgs)
}

// Port returns the actually bound port, useful when Start was called
// with port 0.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Received returns the live capture queue handle (destructive reads allowed).
func (s *Server) Received() *Queue {
	return s.queue
}

// Snapshot returns a non-destructive copy of captured messages.
func (s *Server) Snapshot() []*Message {
	return s.queue.Snapshot()
}

// Reset empties the capture queue.
func (s *Server) Reset() {
	s.queue.Clear()
}

// Stop is idempotent: it closes the listener, waits up to 20 seconds
// for in-flight transactions to finish, then returns. A second call
// after the first has completed is a silent no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.logger.Warn(context.Background(), "stop timed out waiting for in-flight transactions")
	}
}

// DefaultLogger returns a Logger writing text-formatted slog lines to
// stderr at info level, suitable as a CLI default.
func DefaultLogger() Logger {
	return NewSlogLogger(os.Stderr, slog.LevelInfo)
}
