// Package auth authenticates users connecting over a shnnet.Conn session:
// a local bcrypt-hashed passwd file, or alternatively the system shadow
// file via passlib.
package auth

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/ioutil"
	"log"
	"os/user"
	"runtime"
	"strings"

	"github.com/jameskeane/bcrypt"
	passlib "gopkg.in/hlandau/passlib.v1"
)

// Context carries the (overridable, for testing) file-reading and
// user-lookup functions auth operations depend on.
type Context struct {
	reader     func(string) ([]byte, error)
	userlookup func(string) (*user.User, error)
}

// NewContext returns a Context using the real filesystem and os/user.
func NewContext() *Context {
	return &Context{reader: ioutil.ReadFile, userlookup: user.Lookup}
}

func (c *Context) read(name string) ([]byte, error) {
	if c.reader == nil {
		c.reader = ioutil.ReadFile
	}
	return c.reader(name)
}

func (c *Context) lookup(name string) (*user.User, error) {
	if c.userlookup == nil {
		c.userlookup = user.Lookup
	}
	return c.userlookup(name)
}

// VerifyShadow verifies password against the system shadow file via
// passlib, as an alternative to the local passwd file. shadowPath is
// typically "/etc/shadow".
func VerifyShadow(ctx *Context, shadowPath, username, password string) (bool, error) {
	passlib.UseDefaults(passlib.Defaults20180601)

	data, err := ctx.read(shadowPath)
	if err != nil {
		return false, err
	}

	var hash string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 2 && fields[0] == username {
			hash = fields[1]
			break
		}
	}
	if hash == "" {
		return false, errors.New("auth: no shadow entry for user")
	}
	if err := passlib.VerifyNoUpgrade(password, hash); err != nil {
		return false, err
	}
	return true, nil
}

// VerifyLocalPasswd checks username/password against a bcrypt-hashed
// local passwd file of the form "username:salt:hash", cross-checked
// against the system's user database so accounts removed from the system
// can't authenticate merely by surviving in the passwd file (a locked but
// still existing system account passes that lookup). A dummy record is
// compared on user-not-found so the timing of a failed auth doesn't leak
// whether the username exists.
func VerifyLocalPasswd(ctx *Context, username, password, passwdFile string) (valid bool) {
	b, err := ctx.read(passwdFile)
	if err != nil {
		log.Printf("auth: cannot read %s: %v", passwdFile, err)
		return false
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = ':'
	r.Comment = '#'
	r.FieldsPerRecord = 3 // username:salt:hash

	matchedUser := username
	for {
		record, rerr := r.Read()
		if rerr == io.EOF {
			// Dummy entry: burns the same bcrypt cost as a real
			// comparison so a nonexistent user doesn't return faster.
			record = []string{"$nosuchuser$",
				"$2a$12$l0coBlRDNEJeQVl6GdEPbU",
				"$2a$12$l0coBlRDNEJeQVl6GdEPbUC/xmuOANvqgmrMVum6S4i.EXPgnTXy6"}
			matchedUser = "$nosuchuser$"
			rerr = nil
		}
		if rerr != nil {
			log.Printf("auth: malformed passwd file: %v", rerr)
			return false
		}

		if matchedUser == record[0] {
			hash, herr := bcrypt.Hash(password, record[1])
			if herr == nil && hash == record[2] && matchedUser != "$nosuchuser$" {
				valid = true
			}
			break
		}
	}

	// Best-effort scrub of the file contents we held in memory.
	for i := range b {
		b[i] = 0
	}
	runtime.GC()

	if valid {
		if _, err := ctx.lookup(username); err != nil {
			valid = false
		}
	}
	return valid
}
