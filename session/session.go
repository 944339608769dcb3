// Package session holds bookkeeping info about an active shnnet.Conn
// session.
package session

import (
	"fmt"
	"runtime"
)

// Session holds essential bookkeeping info about an active session.
type Session struct {
	op         []byte
	who        []byte
	connhost   []byte
	termtype   []byte // client initial $TERM
	cmd        []byte
	authCookie []byte
	status     uint32 // exit status (0-255 is std UNIX status)
}

// String implements Stringer, redacting the auth cookie.
func (s *Session) String() string {
	return fmt.Sprintf("session.Session:\nOp:%v\nWho:%v\nCmd:%v\nAuthCookie:%v\nStatus:%v",
		s.op, s.who, s.cmd, s.AuthCookie(false), s.status)
}

// Op returns the op code of the Session (interactive shell, cmd, ...).
func (s Session) Op() []byte {
	return s.op
}

// SetOp stores the op code desired for a Session.
func (s *Session) SetOp(o []byte) {
	s.op = o
}

// Who returns the user associated with a Session.
func (s Session) Who() []byte {
	return s.who
}

// SetWho sets the username associated with a Session.
func (s *Session) SetWho(w []byte) {
	s.who = w
}

// ConnHost returns the connecting hostname/IP string for a Session.
func (s Session) ConnHost() []byte {
	return s.connhost
}

// SetConnHost stores the connecting hostname/IP string for a Session.
func (s *Session) SetConnHost(n []byte) {
	s.connhost = n
}

// TermType returns the TERM env variable reported by the client initiating
// a Session.
func (s Session) TermType() []byte {
	return s.termtype
}

// SetTermType stores the TERM env variable supplied by the client initiating
// a Session.
func (s *Session) SetTermType(t []byte) {
	s.termtype = t
}

// Cmd returns the command requested for execution by the client that
// initiated the Session.
func (s Session) Cmd() []byte {
	return s.cmd
}

// SetCmd stores the command requested by the client for execution when
// initiating the Session.
func (s *Session) SetCmd(c []byte) {
	s.cmd = c
}

// AuthCookie returns the authcookie (essentially the password) used for
// authorization of the Session. The value is redacted unless reallyShow
// is true, so dumps of Session info don't accidentally leak it.
func (s Session) AuthCookie(reallyShow bool) []byte {
	if reallyShow {
		return s.authCookie
	}
	return []byte("**REDACTED**")
}

// SetAuthCookie stores the authcookie used to authenticate the Session.
func (s *Session) SetAuthCookie(a []byte) {
	s.authCookie = a
}

// ClearAuthCookie scrubs the Session's stored authcookie. Call this as
// soon as possible after authentication completes.
func (s *Session) ClearAuthCookie() {
	for i := range s.authCookie {
		s.authCookie[i] = 0
	}
	runtime.GC()
}

// Status returns the (current) Session status code, usually a UNIX shell
// exit code, though extended codes are used at times to indicate
// internal errors.
func (s Session) Status() uint32 {
	return s.status
}

// SetStatus stores the current Session status code.
func (s *Session) SetStatus(stat uint32) {
	s.status = stat
}

// New returns a new Session record.
func New(op, who, connhost, ttype, cmd, authcookie []byte, status uint32) *Session {
	return &Session{
		op:         op,
		who:        who,
		connhost:   connhost,
		termtype:   ttype,
		cmd:        cmd,
		authCookie: authcookie,
		status:     status,
	}
}
