package session

import (
	"testing"
)

func newMockSession() *Session {
	return &Session{
		op:         []byte("A"),
		who:        []byte("johndoe"),
		connhost:   []byte("host"),
		termtype:   []byte("vt100"),
		cmd:        []byte("/bin/false"),
		authCookie: []byte("authcookie"),
		status:     0,
	}
}

func TestAuthCookieShowTrue(t *testing.T) {
	s := newMockSession()
	if string(s.AuthCookie(true)) != string(s.authCookie) {
		t.Fatal("failed to return unredacted authcookie on request")
	}
}

func TestAuthCookieShowFalse(t *testing.T) {
	s := newMockSession()
	if string(s.AuthCookie(false)) != "**REDACTED**" {
		t.Fatal("failed to return redacted authcookie")
	}
}

func TestClearAuthCookieScrubs(t *testing.T) {
	s := newMockSession()
	s.ClearAuthCookie()
	for i, b := range s.authCookie {
		if b != 0 {
			t.Fatalf("authcookie byte %d not scrubbed: %v", i, s.authCookie)
		}
	}
}

func TestSettersGetters(t *testing.T) {
	s := New([]byte("A"), []byte("who"), []byte("host"), []byte("xterm"), []byte("/bin/sh"), []byte("cookie"), 0)
	s.SetStatus(42)
	if s.Status() != 42 {
		t.Fatalf("Status() = %d, want 42", s.Status())
	}
	s.SetCmd([]byte("/bin/ls"))
	if string(s.Cmd()) != "/bin/ls" {
		t.Fatalf("Cmd() = %q", s.Cmd())
	}
	s.SetTermType([]byte("vt220"))
	if string(s.TermType()) != "vt220" {
		t.Fatalf("TermType() = %q", s.TermType())
	}
}
