package smtpsink

import (
	"errors"
	"strings"
	"sync"
)

// ErrContinuationBeforeHeader is returned by Message.Store when a
// header-continuation line (one beginning with whitespace) arrives
// before any header has been recorded. This is a fatal protocol
// violation, not a malformed-input case: the caller must abort the
// transaction rather than enqueue a partial Message.
var ErrContinuationBeforeHeader = errors.New("smtpsink: continuation line before first header")

// headerEntry holds one header name and its accumulated, ordered values.
type headerEntry struct {
	name   string
	values []string
}

// Message is the Message Assembler's output: an ordered collection of
// headers plus a body buffer, built up one (response, params) pair at
// a time over the course of a single mail transaction.
type Message struct {
	mu      sync.Mutex
	id      string
	headers []*headerEntry
	byName  map[string]*headerEntry
	body    strings.Builder
}

// NewMessage returns an empty Message ready to accumulate a transaction.
func NewMessage() *Message {
	return &Message{byName: make(map[string]*headerEntry)}
}

// ID returns the capture queue identifier assigned to this Message, or
// "" if it has not yet been captured. Assigned once, by Queue.Offer.
func (m *Message) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *Message) setID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
}

// Store mutates the in-progress Message from one (response, params)
// pair produced by the Engine. Only DATA_HDR and DATA_BODY transitions
// have any effect; all other transitions are ignored, per §4.3.
func (m *Message) Store(resp Response, params string, hasParams bool) error {
	if !hasParams {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch resp.NextState {
	case StateDataHdr:
		return m.storeHeaderLine(params)
	case StateDataBody:
		m.body.WriteString(params)
		m.body.WriteByte('\n')
		return nil
	default:
		return nil
	}
}

func (m *Message) storeHeaderLine(params string) error {
	if params != "" && isSpace(params[0]) {
		if len(m.headers) == 0 {
			return ErrContinuationBeforeHeader
		}
		last := m.headers[len(m.headers)-1]
		i := len(last.values) - 1
		last.values[i] = last.values[i] + " " + strings.TrimSpace(params)
		return nil
	}

	idx := strings.IndexByte(params, ':')
	if idx < 0 {
		// Malformed header line: silently dropped, per §7.
		return nil
	}

	name := strings.TrimSpace(params[:idx])
	value := strings.TrimSpace(params[idx+1:])

	if entry, ok := m.byName[name]; ok {
		entry.values = append(entry.values, value)
		return nil
	}

	entry := &headerEntry{name: name, values: []string{value}}
	m.headers = append(m.headers, entry)
	m.byName[name] = entry
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// HeaderNames returns header names in first-seen insertion order.
func (m *Message) HeaderNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.headers))
	for i, h := range m.headers {
		names[i] = h.name
	}
	return names
}

// HeaderValues returns the accumulated values for name, or nil if absent.
func (m *Message) HeaderValues(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byName[name]
	if !ok {
		return nil
	}
	values := make([]string, len(entry.values))
	copy(values, entry.values)
	return values
}

// HeaderValue returns the first value for name, or "" if absent.
func (m *Message) HeaderValue(name string) string {
	values := m.HeaderValues(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Body returns the accumulated body buffer.
func (m *Message) Body() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body.String()
}
