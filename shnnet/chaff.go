package shnnet

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/templexxx/xor"
)

// Chaff sends filler packets on a timer between real messages, so that
// external traffic observation can't distinguish idle connections from
// ones in active use. Modelled on hkexnet.go's chaffHelper, adapted to a
// single explicit goroutine + stop channel rather than package-global
// state.
type Chaff struct {
	mu      sync.Mutex
	conn    *Conn
	minGap  time.Duration
	maxGap  time.Duration
	maxSize int
	stop    chan struct{}
}

// NewChaff creates a Chaff generator for conn. Filler packets are sized
// uniformly between 1 and maxSize bytes and spaced randomly between
// minGap and maxGap.
func NewChaff(conn *Conn, minGap, maxGap time.Duration, maxSize int) *Chaff {
	return &Chaff{conn: conn, minGap: minGap, maxGap: maxGap, maxSize: maxSize}
}

// Start begins emitting filler packets until Stop is called.
func (c *Chaff) Start() {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return
	}
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(c.nextGap()):
				_ = c.sendFiller()
			}
		}
	}()
}

// Stop halts filler generation.
func (c *Chaff) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Chaff) nextGap() time.Duration {
	span := int64(c.maxGap - c.minGap)
	if span <= 0 {
		return c.minGap
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	n := int64(b[0]) | int64(b[1])<<8 | int64(b[2])<<16 | int64(b[3])<<24
	if n < 0 {
		n = -n
	}
	return c.minGap + time.Duration(n%span)
}

// sendFiller builds a buffer of random padding XORed against a second
// random mask with the fast bulk xor.Bytes routine (rather than a plain
// byte loop) before sending it as an ordinary encrypted message. Nothing
// on the wire marks it as filler; the receiver gets it as message data.
func (c *Chaff) sendFiller() error {
	n := 1 + int(randN(uint32(c.maxSize)))
	a := make([]byte, n)
	b := make([]byte, n)
	_, _ = rand.Read(a)
	_, _ = rand.Read(b)
	filler := make([]byte, n)
	xor.Bytes(filler, a, b)

	if _, err := c.conn.Write(filler); err != nil {
		return err
	}
	return c.conn.FinishSend()
}

func randN(max uint32) uint32 {
	if max == 0 {
		return 0
	}
	var b [4]byte
	_, _ = rand.Read(b[:])
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return v % max
}
