package smtpsink

import "testing"

func TestClassifyCommandPhase(t *testing.T) {
	cases := []struct {
		line       string
		state      State
		wantAction Action
		wantParams string
		wantHas    bool
	}{
		{"HELO example.org", StateGreet, ActionHELO, "example.org", true},
		{"EHLO example.org", StateGreet, ActionEHLO, "example.org", true},
		{"helo example.org", StateGreet, ActionHELO, "example.org", true},
		{"MAIL FROM:<a@b.com>", StateMail, ActionMAIL, "<a@b.com>", true},
		{"RCPT TO:<c@d.com>", StateRcpt, ActionRCPT, "<c@d.com>", true},
		{"DATA", StateRcpt, ActionDATA, "", false},
		{"QUIT", StateQuit, ActionQUIT, "", false},
		{"RSET", StateMail, ActionRSET, "", false},
		{"NOOP", StateMail, ActionNOOP, "", false},
		{"VRFY someone", StateMail, ActionVRFY, "", false},
		{"EXPN list", StateMail, ActionEXPN, "", false},
		{"HELP", StateMail, ActionHELP, "", false},
		{"GARBAGE", StateMail, ActionUnrecog, "", false},
	}

	for _, c := range cases {
		action, params, hasParams := Classify(c.line, c.state)
		if action != c.wantAction {
			t.Errorf("Classify(%q, %s) action = %s, want %s", c.line, c.state, action, c.wantAction)
		}
		if params != c.wantParams {
			t.Errorf("Classify(%q, %s) params = %q, want %q", c.line, c.state, params, c.wantParams)
		}
		if hasParams != c.wantHas {
			t.Errorf("Classify(%q, %s) hasParams = %v, want %v", c.line, c.state, hasParams, c.wantHas)
		}
	}
}

func TestClassifyDataHeader(t *testing.T) {
	action, params, hasParams := Classify("Subject: hello", StateDataHdr)
	if action != ActionUnrecog || params != "Subject: hello" || !hasParams {
		t.Errorf("got (%s, %q, %v)", action, params, hasParams)
	}

	action, _, hasParams = Classify("", StateDataHdr)
	if action != ActionBlankLine || hasParams {
		t.Errorf("blank line in DATA_HDR: got (%s, %v)", action, hasParams)
	}

	action, _, hasParams = Classify(".", StateDataHdr)
	if action != ActionDataEnd || hasParams {
		t.Errorf("dot line in DATA_HDR: got (%s, %v)", action, hasParams)
	}
}

func TestClassifyDataBody(t *testing.T) {
	action, params, hasParams := Classify("hello world", StateDataBody)
	if action != ActionUnrecog || params != "hello world" || !hasParams {
		t.Errorf("got (%s, %q, %v)", action, params, hasParams)
	}

	// A blank line in the body is content, not a boundary: it must
	// still be captured (as a newline), not treated as BLANK_LINE.
	action, params, hasParams = Classify("", StateDataBody)
	if action != ActionUnrecog || params != "\n" || !hasParams {
		t.Errorf("blank line in DATA_BODY: got (%s, %q, %v)", action, params, hasParams)
	}

	action, _, hasParams = Classify(".", StateDataBody)
	if action != ActionDataEnd || hasParams {
		t.Errorf("dot line in DATA_BODY: got (%s, %v)", action, hasParams)
	}
}

func TestClassifyAuthPlain(t *testing.T) {
	action, _, hasParams := Classify("AUTH PLAIN", StateAuthPlain)
	if action != ActionAuthPlain || hasParams {
		t.Errorf("bare AUTH PLAIN: got (%s, %v)", action, hasParams)
	}

	action, params, hasParams := Classify("AUTH PLAIN dGVzdA==", StateAuthPlain)
	if action != ActionAuthPlainExt || params != "dGVzdA==" || !hasParams {
		t.Errorf("AUTH PLAIN with token: got (%s, %q, %v)", action, params, hasParams)
	}

	action, _, _ = Classify("AUTH LOGIN", StateAuthPlain)
	if action != ActionAuthUnsupported {
		t.Errorf("AUTH LOGIN in AUTH_PLAIN: got %s, want AUTH_UNSUPPORTED", action)
	}
}

func TestClassifyCredentials(t *testing.T) {
	action, _, hasParams := Classify("", StateCredentials)
	if action != ActionAuthFailed || hasParams {
		t.Errorf("empty credentials line: got (%s, %v)", action, hasParams)
	}

	action, params, hasParams := Classify("dGVzdDp0ZXN0", StateCredentials)
	if action != ActionAuthSuccess || params != "dGVzdDp0ZXN0" || !hasParams {
		t.Errorf("credential blob: got (%s, %q, %v)", action, params, hasParams)
	}
}

func TestActionStateless(t *testing.T) {
	statelessActions := []Action{ActionRSET, ActionVRFY, ActionEXPN, ActionHELP, ActionNOOP}
	for _, a := range statelessActions {
		if !a.Stateless() {
			t.Errorf("%s.Stateless() = false, want true", a)
		}
	}

	statefulActions := []Action{ActionHELO, ActionEHLO, ActionMAIL, ActionRCPT, ActionDATA, ActionQUIT}
	for _, a := range statefulActions {
		if a.Stateless() {
			t.Errorf("%s.Stateless() = true, want false", a)
		}
	}
}
