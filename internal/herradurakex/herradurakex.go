// Package herradurakex implements the Herradura key exchange, a
// Diffie-Hellman-style scheme built from a bit-mixing "fscx" revolution
// function over big integers rather than modular exponentiation.
//
// Adapted from the reference golang implementation bundled with the
// Shannon-over-net tooling this module grew out of: the shared-secret
// derivation (fscx/fscxRevolve/D/ComputeFA) is unchanged, but session
// randomness now comes from crypto/rand rather than a time-seeded
// math/rand source, since this package's output feeds a real key
// schedule rather than a demo/test harness.
package herradurakex

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// HerraduraKEx holds one party's state in a single key-exchange session.
type HerraduraKEx struct {
	intSz, pubSz int
	a, b         *big.Int
	d, peerD     *big.Int
	fa           *big.Int
}

// New returns a HerraduraKEx configured with an intSz-bit working field
// and a pubSz-bit public exchange value (intSz=256, pubSz=64 if either is
// zero), with fresh random secrets already generated and D() ready to
// send to the peer.
func New(intSz, pubSz int) *HerraduraKEx {
	if intSz == 0 {
		intSz = 256
	}
	if pubSz == 0 {
		pubSz = 64
	}

	h := &HerraduraKEx{intSz: intSz, pubSz: pubSz}
	h.a = h.randBig()
	h.b = h.randBig()
	h.d = h.fscxRevolve(h.a, h.b, h.pubSz)
	return h
}

func (h *HerraduraKEx) randBig() *big.Int {
	v, err := rand.Int(rand.Reader, h.max())
	if err != nil {
		panic(err)
	}
	return v
}

// max returns 2^intSz - 1.
func (h *HerraduraKEx) max() *big.Int {
	v := big.NewInt(0)
	v.SetBit(v, h.intSz, 1)
	v.Sub(v, big.NewInt(1))
	return v
}

func (h *HerraduraKEx) bitX(x *big.Int, pos int) uint {
	if pos < 0 {
		pos = h.intSz - pos
	}
	switch {
	case pos == 0:
		return x.Bit(1) ^ x.Bit(0) ^ x.Bit(h.intSz-1)
	case pos == h.intSz-1:
		return x.Bit(0) ^ x.Bit(pos) ^ x.Bit(pos-1)
	default:
		return x.Bit((pos+1)%h.intSz) ^ x.Bit(pos) ^ x.Bit(pos-1)
	}
}

func (h *HerraduraKEx) bit(up, down *big.Int, posU, posD int) *big.Int {
	return big.NewInt(int64(h.bitX(up, posU) ^ h.bitX(down, posD)))
}

func (h *HerraduraKEx) fscx(up, down *big.Int) *big.Int {
	result := big.NewInt(0)
	for count := 0; count < h.intSz; count++ {
		result.Lsh(result, 1)
		result.Add(result, h.bit(up, down, count, count))
	}
	return result
}

func (h *HerraduraKEx) fscxRevolve(x, y *big.Int, passes int) *big.Int {
	result := x
	for count := 0; count < passes; count++ {
		result = h.fscx(result, y)
	}
	return result
}

// D returns this party's public exchange value to send to the peer.
func (h *HerraduraKEx) D() *big.Int {
	return h.d
}

// SetPeerD records the peer's public exchange value, received over the
// (insecure) transport.
func (h *HerraduraKEx) SetPeerD(peerD *big.Int) {
	h.peerD = peerD
}

// PeerD returns the peer's public exchange value, for diagnostics.
func (h *HerraduraKEx) PeerD() *big.Int {
	return h.peerD
}

// ComputeFA derives the shared secret from this party's secrets and the
// peer's D; both parties arrive at the same value. Call after SetPeerD.
func (h *HerraduraKEx) ComputeFA() {
	fa := h.fscxRevolve(h.peerD, h.b, h.intSz-h.pubSz)
	fa.Xor(fa, h.a)
	h.fa = fa
}

// FA returns the shared secret computed by ComputeFA.
func (h *HerraduraKEx) FA() *big.Int {
	return h.fa
}

func (h *HerraduraKEx) String() string {
	return fmt.Sprintf("s:%d p:%d\nd:->%s\npeerD:<-%s\nfa:%s",
		h.intSz, h.pubSz, h.d.Text(16), h.peerD.Text(16), h.fa.Text(16))
}
