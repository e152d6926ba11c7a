// Package harness provides a test harness for scripted SMTP
// conversations against a Driver, without any network dependency.
package harness

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dumbster-go/smtpsink"
)

// Harness drives a smtpsink.Driver over in-process pipes so tests can
// script a conversation line by line and assert on responses without
// opening a socket.
type Harness struct {
	driver *smtpsink.Driver
	input  *pipeBuffer
	output *pipeBuffer

	mu       sync.Mutex
	done     bool
	err      error
	messages []*smtpsink.Message
}

// New creates a Harness using a Driver configured with hostname (the
// empty string defaults to "localhost", per smtpsink.NewEngine).
func New(hostname string) *Harness {
	engine := smtpsink.NewEngine(hostname)
	return &Harness{
		driver: smtpsink.NewDriver(engine, nil),
		input:  newPipeBuffer(),
		output: newPipeBuffer(),
	}
}

// Start runs the Driver over the harness's pipes in the background.
func (h *Harness) Start(ctx context.Context) {
	go func() {
		msgs, err := h.driver.Handle(ctx, bufio.NewReader(h.input), h.output)
		h.mu.Lock()
		h.done = true
		h.err = err
		h.messages = msgs
		h.mu.Unlock()
		h.output.Close()
	}()
}

// Send writes line plus a CRLF terminator to the driver's input.
func (h *Harness) Send(line string) {
	h.input.Write([]byte(line + "\r\n"))
}

// SendData writes a full DATA body (header lines, blank separator,
// body lines) followed by the "." terminator. No dot-stuffing is
// applied: a line beginning with "." is sent through verbatim.
func (h *Harness) SendData(lines ...string) {
	for _, line := range lines {
		h.Send(line)
	}
	h.Send(".")
}

// Expect reads one response line and fails (returns an error) if its
// code does not match want.
func (h *Harness) Expect(ctx context.Context, want int) (string, error) {
	line, err := h.readLine(ctx)
	if err != nil {
		return "", err
	}
	if len(line) < 3 {
		return line, fmt.Errorf("response too short: %q", line)
	}
	got, err := strconv.Atoi(line[:3])
	if err != nil {
		return line, fmt.Errorf("malformed response code: %q", line)
	}
	if got != want {
		return line, fmt.Errorf("expected %d, got %d: %q", want, got, line)
	}
	return line, nil
}

func (h *Harness) readLine(ctx context.Context) (string, error) {
	return h.output.ReadLine(ctx)
}

// Close closes both pipes, unblocking any in-flight Driver.Handle call.
func (h *Harness) Close() {
	h.input.Close()
	h.output.Close()
}

// Messages returns the Messages collected once the Driver has
// returned. Safe to call only after the conversation has ended (i.e.
// after a QUIT round-trip or Close).
func (h *Harness) Messages() []*smtpsink.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.messages
}

// Err returns the error the Driver exited with, if any.
func (h *Harness) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// pipeBuffer is a minimal thread-safe byte buffer supporting blocking
// reads.
type pipeBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

func newPipeBuffer() *pipeBuffer {
	p := &pipeBuffer{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipeBuffer) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, fmt.Errorf("harness: write on closed pipe")
	}
	n, err := p.buf.Write(data)
	p.cond.Broadcast()
	return n, err
}

func (p *pipeBuffer) Read(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.buf.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.buf.Len() == 0 && p.closed {
		return 0, errClosedPipe
	}
	return p.buf.Read(data)
}

func (p *pipeBuffer) ReadLine(ctx context.Context) (string, error) {
	var line bytes.Buffer
	for {
		if ctx.Err() != nil {
			return line.String(), ctx.Err()
		}

		p.mu.Lock()
		for p.buf.Len() == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.buf.Len() == 0 && p.closed {
			p.mu.Unlock()
			return line.String(), errClosedPipe
		}
		b, err := p.buf.ReadByte()
		p.mu.Unlock()
		if err != nil {
			return line.String(), err
		}

		if b == '\n' {
			return strings.TrimSuffix(line.String(), "\r"), nil
		}
		line.WriteByte(b)
	}
}

func (p *pipeBuffer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}

var errClosedPipe = fmt.Errorf("harness: closed pipe")
