// Package shnnet implements a framed secure channel over an opaque
// bidirectional byte transport: independent messages are encrypted and
// MAC-sealed with the Shannon stream cipher (package shannon), with a
// monotonically increasing per-direction nonce sequencing each message.
//
// The wire model is deliberately thin, matching the reference
// implementation this grew out of: Write/Read simply pass bytes through
// the cipher, and the caller's own protocol is responsible for knowing
// message boundaries before calling FinishSend/FinishRecv. This is a
// net.Conn-style wrapper (session state over an opaque transport) but
// drops per-packet length/HMAC framing, since Shannon's MAC is a
// per-message finalisation rather than a per-packet digest.
package shnnet

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"blitter.com/go/shannon/logger"
	"blitter.com/go/shannon/shannon"
)

// ErrAuthFailed is returned by FinishRecv when the MAC read from the
// transport does not match the one computed locally over the message
// just received.
var ErrAuthFailed = errors.New("shnnet: MAC authentication failed")

// macSize is the default per-message MAC width in bytes. It is a protocol
// choice (not a cryptographic ceiling on Shannon's MAC) kept at 4 to match
// the reference wire format.
const macSize = 4

// Log receives connection lifecycle and authentication-failure messages
// when non-nil. It is nil (silent) until a caller assigns a *logger.Writer
// via Init.
var Log *logger.Writer

// Init installs a syslog-backed Log for the package, matching the
// package-level logger wiring.
func Init(w *logger.Writer) {
	Log = w
}

func logDebug(format string, args ...interface{}) {
	if Log != nil {
		logger.LogDebug(fmt.Sprintf(format, args...))
	}
}

// Transport is the bidirectional byte channel a Conn rides on: a
// blocking, partial-read-capable stream. *net.TCPConn, a *kcp.UDPSession,
// and the two ends of net.Pipe() all satisfy it.
type Transport interface {
	io.Reader
	io.Writer
}

// Conn is a framed secure channel: one send cipher context and one recv
// cipher context, each with its own monotonically increasing nonce
// counter, wrapping a Transport.
type Conn struct {
	mu        sync.Mutex
	transport Transport

	sendCipher *shannon.Cipher
	recvCipher *shannon.Cipher
	sendNonce  uint32
	recvNonce  uint32

	macWidth int
}

// New wraps transport in a framed Shannon channel. sendKey/recvKey key the
// outbound and inbound cipher contexts respectively; both are seeded to
// nonce 0 for the first message on each side.
func New(transport Transport, sendKey, recvKey []byte) *Conn {
	c := &Conn{
		transport:  transport,
		sendCipher: shannon.New(sendKey),
		recvCipher: shannon.New(recvKey),
		macWidth:   macSize,
	}
	c.sendCipher.NonceU32(c.sendNonce)
	c.recvCipher.NonceU32(c.recvNonce)
	return c
}

// SetMACWidth overrides the per-message MAC width (default 4 bytes). Both
// peers must agree on the width out of band before using the channel.
func (c *Conn) SetMACWidth(n int) {
	c.macWidth = n
}

// Write encrypts a copy of p and forwards the ciphertext to the
// transport. It does not end the message: call FinishSend once the full
// message has been written.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ct := append([]byte(nil), p...)
	c.sendCipher.Encrypt(ct)
	n, err := c.transport.Write(ct)
	logDebug("shnnet: wrote %d ciphertext bytes (nonce=%d): %v", n, c.sendNonce, err)
	return n, err
}

// Read reads available ciphertext from the transport into p and decrypts
// it in place. Message boundaries are not self-describing on the wire;
// the caller's protocol determines how many plaintext bytes make up the
// current message before FinishRecv is called.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.transport.Read(p)
	if n > 0 {
		c.recvCipher.Decrypt(p[:n])
	}
	return n, err
}

// FinishSend closes out the current outbound message: it asks the send
// cipher for a MAC, writes it to the transport, then advances and
// reseeds the send nonce for the next message.
func (c *Conn) FinishSend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mac := make([]byte, c.macWidth)
	c.sendCipher.Finish(mac)
	if _, err := c.transport.Write(mac); err != nil {
		return err
	}
	c.sendNonce++
	c.sendCipher.NonceU32(c.sendNonce)
	return nil
}

// FinishRecv closes out the current inbound message: it reads exactly
// macWidth MAC bytes from the transport and verifies them against the
// receive cipher's own MAC over the message just read. On mismatch it
// returns ErrAuthFailed; callers must tear down the connection rather
// than try to resynchronise. On success it advances and reseeds the
// recv nonce.
func (c *Conn) FinishRecv() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mac := make([]byte, c.macWidth)
	if _, err := io.ReadFull(c.transport, mac); err != nil {
		return err
	}
	if !c.recvCipher.CheckMAC(mac) {
		logDebug("shnnet: MAC mismatch on nonce=%d", c.recvNonce)
		return ErrAuthFailed
	}
	c.recvNonce++
	c.recvCipher.NonceU32(c.recvNonce)
	return nil
}

// Close closes the underlying transport if it implements io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
