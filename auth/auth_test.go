package auth

import (
	"errors"
	"os/user"
	"strings"
	"testing"
)

type userVerif struct {
	user   string
	passwd string
	good   bool
}

var (
	dummyShadow = `johndoe:$6$EeQlTtn/KXdSh6CW$UHbFuEw3UA0Jg9/GoPHxgWk6Ws31x3IjqsP22a9pVMOte0yQwX1.K34oI4FACu8GRg9DArJ5RyWUE9m98qwzZ1:18310:0:99999:7:::
disableduser:!:18310::::::`

	dummyPasswdFile = `#username:salt:hash
bobdobbs:$2a$12$9vqGkFqikspe/2dTARqu1O:$2a$12$9vqGkFqikspe/2dTARqu1OuDKCQ/RYWsnaFjmi.HtmECRkxcZ.kBK
notbob:$2a$12$cZpiYaq5U998cOkXzRKdyu:$2a$12$cZpiYaq5U998cOkXzRKdyuJ2FoEQyVLa3QkYdPQk74VXMoAzhvuP6
`

	testLocalUsers = []userVerif{
		{"bobdobbs", "praisebob", true},
		{"notbob", "imposter", false},
		{"ghostuser", "whatever", false},
	}
)

func mockReader(f string) ([]byte, error) {
	if strings.Contains(f, "shadow") {
		return []byte(dummyShadow), nil
	}
	if strings.Contains(f, "passwd") {
		return []byte(dummyPasswdFile), nil
	}
	return nil, errors.New("mockReader: unknown file " + f)
}

func mockLookup(username string) (*user.User, error) {
	if username == "ghostuser" {
		return nil, errors.New("unknown user")
	}
	return &user.User{Username: username}, nil
}

func newMockContext() *Context {
	return &Context{reader: mockReader, userlookup: mockLookup}
}

func TestVerifyLocalPasswd(t *testing.T) {
	ctx := newMockContext()
	for _, tv := range testLocalUsers {
		got := VerifyLocalPasswd(ctx, tv.user, tv.passwd, "/etc/shn.passwd")
		if got != tv.good {
			t.Errorf("VerifyLocalPasswd(%q, %q) = %v, want %v", tv.user, tv.passwd, got, tv.good)
		}
	}
}

func TestVerifyLocalPasswdUnknownUserDoesNotPanic(t *testing.T) {
	ctx := newMockContext()
	if VerifyLocalPasswd(ctx, "totally-absent", "x", "/etc/shn.passwd") {
		t.Fatal("expected false for an absent user")
	}
}
