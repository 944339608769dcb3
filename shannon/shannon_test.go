package shannon

import (
	"bytes"
	"testing"
)

func samplePlaintexts() [][]byte {
	var out [][]byte
	for l := 0; l <= 40; l++ {
		p := make([]byte, l)
		for i := range p {
			p[i] = byte(i*7 + l)
		}
		out = append(out, p)
	}
	return out
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := []byte("test key 128bits")
	nonce := []byte{0, 0, 0, 0}

	for _, p := range samplePlaintexts() {
		a := New(key)
		a.Nonce(nonce)
		ct := append([]byte(nil), p...)
		a.Encrypt(ct)

		b := New(key)
		b.Nonce(nonce)
		pt := append([]byte(nil), ct...)
		b.Decrypt(pt)

		if !bytes.Equal(pt, p) {
			t.Fatalf("len %d: decrypt(encrypt(p)) != p", len(p))
		}

		macA := make([]byte, 4)
		macB := make([]byte, 4)
		a.Finish(macA)
		b.Finish(macB)
		if !bytes.Equal(macA, macB) {
			t.Fatalf("len %d: sender/receiver MAC mismatch", len(p))
		}
	}
}

func TestChunkingIndependence(t *testing.T) {
	key := []byte("another key")
	nonce := []byte("n0nce")
	p := make([]byte, 37)
	for i := range p {
		p[i] = byte(i * 13)
	}

	whole := New(key)
	whole.Nonce(nonce)
	ctWhole := append([]byte(nil), p...)
	whole.Encrypt(ctWhole)
	macWhole := make([]byte, 4)
	whole.Finish(macWhole)

	splits := [][]int{{0, 1, 36, 37}, {0, 3, 7, 20, 37}, {0, 8, 16, 24, 32, 37}, {0, 37}}
	for _, cuts := range splits {
		c := New(key)
		c.Nonce(nonce)
		ct := append([]byte(nil), p...)
		for i := 1; i < len(cuts); i++ {
			c.Encrypt(ct[cuts[i-1]:cuts[i]])
		}
		mac := make([]byte, 4)
		c.Finish(mac)

		if !bytes.Equal(ct, ctWhole) {
			t.Fatalf("cuts %v: ciphertext differs from single-call encrypt", cuts)
		}
		if !bytes.Equal(mac, macWhole) {
			t.Fatalf("cuts %v: MAC differs from single-call encrypt", cuts)
		}
	}
}

func TestMACOnlyMatchesEncryptMAC(t *testing.T) {
	key := []byte("k")
	nonce := []byte("n")
	p := []byte("the quick brown fox jumps over the lazy dog")

	enc := New(key)
	enc.Nonce(nonce)
	ct := append([]byte(nil), p...)
	enc.Encrypt(ct)
	macEnc := make([]byte, 4)
	enc.Finish(macEnc)

	mo := New(key)
	mo.Nonce(nonce)
	mo.MACOnly(append([]byte(nil), p...))
	macMO := make([]byte, 4)
	mo.Finish(macMO)

	if !bytes.Equal(macEnc, macMO) {
		t.Fatalf("MACOnly(p) MAC != Encrypt(p) MAC")
	}
}

func TestStreamDoesNotAffectMAC(t *testing.T) {
	key := []byte("k2")
	nonce := []byte("n2")
	p1 := []byte("hello, ")
	p2 := []byte("world!")

	plain := New(key)
	plain.Nonce(nonce)
	plain.MACOnly(append([]byte(nil), p1...))
	plain.MACOnly(append([]byte(nil), p2...))
	macPlain := make([]byte, 4)
	plain.Finish(macPlain)

	withStream := New(key)
	withStream.Nonce(nonce)
	withStream.MACOnly(append([]byte(nil), p1...))
	junk := make([]byte, 13)
	withStream.Stream(junk)
	withStream.MACOnly(append([]byte(nil), p2...))
	macWithStream := make([]byte, 4)
	withStream.Finish(macWithStream)

	if !bytes.Equal(macPlain, macWithStream) {
		t.Fatalf("interleaved Stream() call changed the MAC")
	}
}

func TestNonceChangesCiphertext(t *testing.T) {
	key := []byte("k3")
	p := []byte("same plaintext, different nonce")

	a := New(key)
	a.Nonce([]byte{0, 0, 0, 0})
	ctA := append([]byte(nil), p...)
	a.Encrypt(ctA)

	b := New(key)
	b.Nonce([]byte{0, 0, 0, 1})
	ctB := append([]byte(nil), p...)
	b.Encrypt(ctB)

	if bytes.Equal(ctA, ctB) {
		t.Fatalf("different nonces produced identical ciphertext")
	}
}

func TestFinishReseedAfterNonce(t *testing.T) {
	key := []byte("k4")
	nonce := []byte{1, 2, 3, 4}
	p := []byte("msg")

	c := New(key)
	c.Nonce(nonce)
	ct1 := append([]byte(nil), p...)
	c.Encrypt(ct1)
	mac1 := make([]byte, 4)
	c.Finish(mac1)

	c.Nonce(nonce)
	ct2 := append([]byte(nil), p...)
	c.Encrypt(ct2)
	mac2 := make([]byte, 4)
	c.Finish(mac2)

	if !bytes.Equal(ct1, ct2) || !bytes.Equal(mac1, mac2) {
		t.Fatalf("re-seeding with the same nonce did not reproduce the same stream/MAC")
	}
}

func TestLengthEncodingInFinish(t *testing.T) {
	key := []byte("k5")
	nonce := []byte{9, 9, 9, 9}

	seen := map[string]int{}
	for l := 0; l <= 5; l++ {
		c := New(key)
		c.Nonce(nonce)
		p := make([]byte, l)
		c.MACOnly(p)
		mac := make([]byte, 4)
		c.Finish(mac)
		key := string(mac)
		seen[key]++
	}
	for mac, count := range seen {
		if count > 1 {
			t.Fatalf("MAC %x repeated for %d distinct plaintext lengths 0..5", []byte(mac), count)
		}
	}
}

func TestCheckMAC(t *testing.T) {
	key := []byte("k6")
	nonce := []byte{1}
	p := []byte("payload")

	a := New(key)
	a.Nonce(nonce)
	ct := append([]byte(nil), p...)
	a.Encrypt(ct)
	mac := make([]byte, 4)
	a.Finish(mac)

	b := New(key)
	b.Nonce(nonce)
	pt := append([]byte(nil), ct...)
	b.Decrypt(pt)
	if !b.CheckMAC(mac) {
		t.Fatalf("CheckMAC rejected a valid MAC")
	}

	c := New(key)
	c.Nonce(nonce)
	pt2 := append([]byte(nil), ct...)
	c.Decrypt(pt2)
	badMAC := append([]byte(nil), mac...)
	badMAC[0] ^= 0xFF
	if c.CheckMAC(badMAC) {
		t.Fatalf("CheckMAC accepted a corrupted MAC")
	}

	d := New(key)
	d.Nonce(nonce)
	pt3 := append([]byte(nil), ct...)
	d.Decrypt(pt3)
	longMAC := append(append([]byte(nil), mac...), 0, 0, 0, 0)
	if d.CheckMAC(longMAC) {
		t.Fatalf("CheckMAC accepted a length-mismatched MAC")
	}
}
