// Package smtpsink provides a pure Go SMTP sink server for integration tests.
//
// smtpsink is a protocol engine, not a mail server: it accepts connections,
// drives an action/state table to completion, and captures every delivered
// message in memory. It never relays, validates addresses, or enforces
// size limits.
package smtpsink

// State represents the current position in the SMTP transaction FSM.
type State int

const (
	// StateConnect is the initial state, before the greeting is sent.
	StateConnect State = iota

	// StateGreet follows the 220 greeting; HELO/EHLO is expected next.
	StateGreet

	// StateGreetAuth follows an EHLO (HELO goes straight to StateMail);
	// AUTH or MAIL FROM is expected next. Only present in the extended
	// state set.
	StateGreetAuth

	// StateAuthPlain is entered after "AUTH PLAIN" with no inline token;
	// a further "AUTH PLAIN" line is expected next, either with an inline
	// token or bare (which moves on to StateCredentials).
	StateAuthPlain

	// StateCredentials is entered while the server is waiting on a
	// credential blob requested by StateAuthPlain.
	StateCredentials

	// StateMail follows a successful HELO/EHLO (or successful AUTH);
	// MAIL FROM is expected next.
	StateMail

	// StateRcpt follows a successful MAIL FROM; RCPT TO or DATA is expected.
	StateRcpt

	// StateDataHdr is entered after DATA is accepted; header lines are
	// expected until a blank line or the "." terminator.
	StateDataHdr

	// StateDataBody follows the header/body blank-line separator;
	// body lines are expected until the "." terminator.
	StateDataBody

	// StateQuit marks both "message complete" and the pre-terminal state
	// from which the QUIT verb returns the session to StateConnect.
	StateQuit
)

// String returns the canonical name of the state, as used in spec tables
// and test output.
func (s State) String() string {
	switch s {
	case StateConnect:
		return "CONNECT"
	case StateGreet:
		return "GREET"
	case StateGreetAuth:
		return "GREET_AUTH"
	case StateAuthPlain:
		return "AUTH_PLAIN"
	case StateCredentials:
		return "CREDENTIALS"
	case StateMail:
		return "MAIL"
	case StateRcpt:
		return "RCPT"
	case StateDataHdr:
		return "DATA_HDR"
	case StateDataBody:
		return "DATA_BODY"
	case StateQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// InDataPhase reports whether the classifier and engine should treat
// input as opaque message content rather than as a command line.
func (s State) InDataPhase() bool {
	return s == StateDataHdr || s == StateDataBody
}

// InAuthPhase reports whether the classifier should use the
// authentication-specific lexing rules instead of verb matching.
func (s State) InAuthPhase() bool {
	return s == StateAuthPlain || s == StateCredentials
}
