// Package shannon implements the Shannon stream cipher: a 16-word
// nonlinear feedback shift register that simultaneously produces a
// keystream and accumulates a CRC-based MAC over the plaintext of a
// message.
//
// This is a from-scratch, bit-exact reimplementation of the algorithm
// (not a wrapper around any existing C or other-language reference): the
// register layout, S-boxes, key/nonce schedule and MAC finalisation below
// must match the reference definition word for word.
package shannon

import "crypto/subtle"

const (
	n         = 16         // register/CRC width in words
	keyp      = 13         // R[] index perturbed by key/length/finish material
	initKonst = 0x6996C53A // fixed key-constant used during keying and nonce loading
	fold      = n          // number of cycles diffuse() runs
)

// Cipher holds the complete state of one direction of one Shannon
// session. The zero value is not usable; construct with New.
//
// Cipher is a plain value type: it contains no heap-owned data and is
// cheap to copy, matching the reference context's fixed-size, exclusively
// single-owner usage model.
type Cipher struct {
	r     [n]uint32 // the NLFSR
	crc   [n]uint32 // running CRC accumulator (32 parallel CRC-16s)
	initR [n]uint32 // snapshot of r taken right after key loading
	konst uint32     // round "key constant" mixed into every cycle
	sbuf  uint32     // most recent keystream word
	mbuf  uint32     // partial plaintext word being assembled
	nbuf  int        // bits still needed to complete mbuf; 0 = no carry
}

// New creates a Cipher keyed with key, ready for Nonce to seed a message.
// key may be of any length, including zero.
func New(key []byte) *Cipher {
	c := &Cipher{}

	// Fibonacci numbers mod 2^32 seed the register.
	c.r[0] = 1
	c.r[1] = 1
	for i := 2; i < n; i++ {
		c.r[i] = c.r[i-1] + c.r[i-2]
	}

	c.konst = initKonst

	c.loadkey(key)
	c.genkonst()
	c.savestate()
	return c
}

// Nonce re-seeds the cipher's register for a new message, keeping the key
// schedule established by New. The partial-word buffer is reset.
func (c *Cipher) Nonce(n []byte) {
	c.r = c.initR
	c.konst = initKonst
	c.loadkey(n)
	c.genkonst()
	c.nbuf = 0
}

// NonceU32 seeds the cipher with a 32-bit nonce, big-endian encoded.
func (c *Cipher) NonceU32(v uint32) {
	var b [4]byte
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
	c.Nonce(b[:])
}

func (c *Cipher) genkonst() {
	c.konst = c.r[0]
}

func (c *Cipher) savestate() {
	c.initR = c.r
}

// Stream fills buf with raw keystream bytes. It does not affect the MAC.
func (c *Cipher) Stream(buf []byte) {
	c.process(buf, modeStream)
}

// MACOnly folds buf into the running MAC without producing output.
func (c *Cipher) MACOnly(buf []byte) {
	c.process(buf, modeMACOnly)
}

// Encrypt XORs buf with the keystream in place, folding the plaintext (the
// input, pre-XOR) into the MAC.
func (c *Cipher) Encrypt(buf []byte) {
	c.process(buf, modeEncrypt)
}

// Decrypt XORs buf with the keystream in place, folding the recovered
// plaintext (the output, post-XOR) into the MAC.
func (c *Cipher) Decrypt(buf []byte) {
	c.process(buf, modeDecrypt)
}

// Finish drains any pending partial word, perturbs the state so the MAC
// cannot be extended or reproduced by any plaintext, folds in the CRC, and
// emits len(out) bytes of MAC into out. After Finish the context is spent;
// call Nonce before processing another message.
func (c *Cipher) Finish(out []byte) {
	if c.nbuf != 0 {
		c.macfunc(c.mbuf)
	}

	c.cycle()
	c.r[keyp] ^= initKonst ^ (uint32(c.nbuf) << 3)
	c.nbuf = 0

	for i := 0; i < n; i++ {
		c.r[i] ^= c.crc[i]
	}
	c.diffuse()

	for len(out) > 0 {
		c.cycle()
		if len(out) >= 4 {
			out[0] = byte(c.sbuf)
			out[1] = byte(c.sbuf >> 8)
			out[2] = byte(c.sbuf >> 16)
			out[3] = byte(c.sbuf >> 24)
			out = out[4:]
		} else {
			for i := range out {
				out[i] = byte(c.sbuf >> (uint(i) * 8))
			}
			break
		}
	}
}

// CheckMAC finishes the message (as Finish would) and compares the
// resulting MAC against expected in constant time, returning true on
// authentication success. Like Finish, it spends the context.
func (c *Cipher) CheckMAC(expected []byte) bool {
	mac := make([]byte, len(expected))
	c.Finish(mac)
	return subtle.ConstantTimeCompare(mac, expected) == 1
}
