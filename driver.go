package smtpsink

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Driver is the Transaction Driver: it orchestrates one accepted
// connection, feeding raw lines through the Classifier and Engine,
// writing responses, driving the Assembler, and collecting completed
// Messages. Driver holds no state across connections; a fresh one (or
// a shared, stateless one, since it has none) handles each connection.
type Driver struct {
	engine *Engine
	logger Logger
}

// NewDriver returns a Driver that stamps responses with engine's
// configured hostname and logs through logger (NullLogger if nil).
func NewDriver(engine *Engine, logger Logger) *Driver {
	if logger == nil {
		logger = NullLogger{}
	}
	return &Driver{engine: engine, logger: logger}
}

// Handle implements §4.4's contract: it processes one connection from
// the initial greeting through a matched QUIT, and returns every
// Message completed along the way. A non-nil error means the
// connection was aborted (I/O failure or a fatal continuation-before-
// header violation); the Messages completed on the connection before
// the error are still returned alongside it, while the in-progress one
// is discarded without being finalized.
func (d *Driver) Handle(ctx context.Context, r *bufio.Reader, w io.Writer) ([]*Message, error) {
	var completed []*Message

	state := StateConnect
	resp := d.engine.Execute(ActionConnect, state)
	if err := d.transmit(w, resp); err != nil {
		return completed, err
	}
	state = resp.NextState

	current := NewMessage()

	for state != StateConnect {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := readLine(r)
		if err != nil {
			if err == io.EOF {
				// Connection closed mid-transaction: already-completed
				// messages on this connection are still returned; the
				// in-progress one is discarded, per §7.
				return completed, nil
			}
			return completed, fmt.Errorf("smtpsink: read: %w", err)
		}

		action, params, hasParams := Classify(line, state)
		resp = d.engine.Execute(action, state)

		if !resp.Silent() {
			if err := d.transmit(w, resp); err != nil {
				return completed, err
			}
		}

		if err := current.Store(resp, params, hasParams); err != nil {
			d.logger.Error(ctx, "aborting transaction", Attr(AttrAction, action.String()), Attr("err", err.Error()))
			return completed, fmt.Errorf("smtpsink: %w", err)
		}

		state = resp.NextState

		if state == StateQuit && action == ActionDataEnd {
			d.logger.Debug(ctx, "message complete", Attr("subject", current.HeaderValue("Subject")))
			completed = append(completed, current)
			current = NewMessage()
		}
	}

	return completed, nil
}

// transmit writes a non-silent response to the client as
// "<code> <text>\r\n", matching §6's single-line response format.
func (d *Driver) transmit(w io.Writer, resp Response) error {
	_, err := fmt.Fprintf(w, "%d %s\r\n", resp.Code, resp.Text)
	return err
}

// readLine reads one CRLF- or LF-terminated line, with the terminator
// stripped, matching §6's framing contract ("lines are delivered to
// the Driver without the terminator").
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if len(line) == 0 {
			return "", err
		}
		// Partial final line with no terminator: treat it literally,
		// the caller will see EOF on the next read.
	}
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}
