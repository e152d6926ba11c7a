package smtpsink

// Response is the immutable result of running the Engine over one
// (action, state) pair: a reply code, reply text, and the next state.
// A Code <= 0 is the "silent" sentinel: the state change is real but
// nothing is transmitted to the client (used for DATA content capture
// and the header/body boundary).
type Response struct {
	Code      int
	Text      string
	NextState State
}

// Silent reports whether this response must not be written to the wire.
func (r Response) Silent() bool {
	return r.Code <= 0
}

const (
	codeAuthContinue  = 334
	codeAuthSuccess   = 235
	codeAuthFailed    = 535
	codeAuthNotImpl   = 504
	codeServiceReady  = 220
	codeOK            = 250
	codeStartMailData = 354
	codeBadSequence   = 503
	codeSyntaxError   = 500
	codeNotSupported  = 252
	codeHelp          = 211
	codeServiceClose  = 221
	codeSilent        = -1
)

// Engine is the Transition Engine: a pure, total function of
// (action, state) producing a Response, parameterized only by the
// greeting/closing hostname banner. Once built, it holds no
// per-connection state and is safe for concurrent use by many drivers.
type Engine struct {
	Hostname string
	table    map[cell]Response
}

// NewEngine constructs an Engine that stamps the given hostname into
// the greeting and closing banners. An empty hostname defaults to
// "localhost", matching the reference implementation.
func NewEngine(hostname string) *Engine {
	if hostname == "" {
		hostname = "localhost"
	}
	e := &Engine{Hostname: hostname}
	e.table = e.buildStatefulTable()
	return e
}

type cell struct {
	action Action
	state  State
}

// buildStatefulTable constructs the normative action x state table from
// the specification (§4.2), extended with the AUTH rows. Cells absent
// from this map fall back to the implicit default: 503 Bad sequence of
// commands, with no state change.
func (e *Engine) buildStatefulTable() map[cell]Response {
	host := e.Hostname
	return map[cell]Response{
		// CONNECT
		{ActionConnect, StateConnect}: {codeServiceReady, host + " SMTP service ready", StateGreet},

		// HELO: plain identification, no AUTH offered.
		{ActionHELO, StateGreet}: {codeOK, "OK", StateMail},

		// EHLO: extended identification; offers the AUTH sub-dialog.
		{ActionEHLO, StateGreet}: {codeOK, "OK", StateGreetAuth},

		// MAIL FROM
		{ActionMAIL, StateMail}:      {codeOK, "OK", StateRcpt},
		{ActionMAIL, StateGreetAuth}: {codeOK, "OK", StateRcpt},
		{ActionMAIL, StateQuit}:      {codeOK, "OK", StateRcpt}, // tolerate a new message after a prior QUIT acceptance

		// RCPT TO
		{ActionRCPT, StateRcpt}: {codeOK, "OK", StateRcpt},

		// DATA
		{ActionDATA, StateRcpt}: {codeStartMailData, "Start mail input; end with <CRLF>.<CRLF>", StateDataHdr},

		// DATA_END ("." terminator)
		{ActionDataEnd, StateDataHdr}:  {codeOK, "OK", StateQuit},
		{ActionDataEnd, StateDataBody}: {codeOK, "OK", StateQuit},

		// UNRECOG: silent content capture in the data phase, 500 elsewhere.
		{ActionUnrecog, StateConnect}:    {codeSyntaxError, "Command not recognized", StateConnect},
		{ActionUnrecog, StateGreet}:      {codeSyntaxError, "Command not recognized", StateGreet},
		{ActionUnrecog, StateGreetAuth}:  {codeSyntaxError, "Command not recognized", StateGreetAuth},
		{ActionUnrecog, StateMail}:       {codeSyntaxError, "Command not recognized", StateMail},
		{ActionUnrecog, StateRcpt}:       {codeSyntaxError, "Command not recognized", StateRcpt},
		{ActionUnrecog, StateQuit}:       {codeSyntaxError, "Command not recognized", StateQuit},
		{ActionUnrecog, StateDataHdr}:    {codeSilent, "", StateDataHdr},
		{ActionUnrecog, StateDataBody}:   {codeSilent, "", StateDataBody},

		// BLANK_LINE: header/body boundary, silent everywhere it is produced.
		{ActionBlankLine, StateDataHdr}:  {codeSilent, "", StateDataBody},
		{ActionBlankLine, StateDataBody}: {codeSilent, "", StateDataBody},

		// QUIT
		{ActionQUIT, StateQuit}: {codeServiceClose, host + " service closing transmission channel", StateConnect},

		// AUTH sub-dialog.
		{ActionAuthPlain, StateGreetAuth}:     {codeAuthContinue, "Continue", StateAuthPlain},
		{ActionAuthPlain, StateAuthPlain}:     {codeAuthContinue, "Continue", StateCredentials},
		{ActionAuthPlainExt, StateGreetAuth}:  {codeAuthSuccess, "Authentication successful", StateMail},
		{ActionAuthPlainExt, StateAuthPlain}:  {codeAuthSuccess, "Authentication successful", StateMail},
		{ActionAuthUnsupported, StateAuthPlain}: {codeAuthNotImpl, "Unrecognized authentication type", StateAuthPlain},
		{ActionAuthSuccess, StateCredentials}: {codeAuthSuccess, "Authentication successful", StateMail},
		{ActionAuthFailed, StateCredentials}:  {codeAuthFailed, "Authentication credentials invalid", StateGreetAuth},
	}
}

// statelessResponses holds the five stateless actions, whose response
// does not depend on the current state (RSET's target state is fixed,
// not state-dependent). It is kept apart from the stateful table built
// by buildStatefulTable; Execute picks between the two by checking
// Action.Stateless at run time.
var statelessResponses = map[Action]struct {
	code int
	text string
	next func(State) State
}{
	ActionRSET: {codeOK, "OK", func(State) State { return StateGreet }},
	ActionVRFY: {codeNotSupported, "Not supported", func(s State) State { return s }},
	ActionEXPN: {codeNotSupported, "Not supported", func(s State) State { return s }},
	ActionHELP: {codeHelp, "No help available", func(s State) State { return s }},
	ActionNOOP: {codeOK, "OK", func(s State) State { return s }},
}

// Execute is the total, side-effect-free Transition Engine. Every
// (action, state) pair is defined: unlisted cells default to 503 Bad
// sequence of commands with no state change.
func (e *Engine) Execute(action Action, state State) Response {
	if action.Stateless() {
		sr := statelessResponses[action]
		return Response{Code: sr.code, Text: sr.text, NextState: sr.next(state)}
	}

	if r, ok := e.table[cell{action, state}]; ok {
		return r
	}

	return Response{Code: codeBadSequence, Text: "Bad sequence of commands: " + action.String(), NextState: state}
}
