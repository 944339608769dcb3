package shnnet

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/curve25519"

	hkex "blitter.com/go/shannon/internal/herradurakex"
)

// KEXAlg identifies a key-exchange algorithm a client may propose and a
// server must accept or refuse outright (never silently downgrade).
type KEXAlg uint8

const (
	// KEXHerradura is the default: a Herradura key exchange over a
	// 256-bit working field.
	KEXHerradura KEXAlg = iota
	// KEXX25519 is a Curve25519 ECDH exchange.
	KEXX25519
)

func (k KEXAlg) String() string {
	switch k {
	case KEXHerradura:
		return "KEX_HERRADURA"
	case KEXX25519:
		return "KEX_X25519"
	default:
		return fmt.Sprintf("KEX_UNKNOWN(%d)", uint8(k))
	}
}

var errUnknownKEX = errors.New("shnnet: unknown or refused KEX algorithm")

// clientKEx runs the client side of alg over rw, returning the raw shared
// secret bytes.
func clientKEx(rw io.ReadWriter, alg KEXAlg) ([]byte, error) {
	if _, err := rw.Write([]byte{byte(alg)}); err != nil {
		return nil, err
	}

	switch alg {
	case KEXHerradura:
		return herraduraClient(rw)
	case KEXX25519:
		return x25519Client(rw)
	default:
		return nil, errUnknownKEX
	}
}

// serverKEx reads the client's proposed algorithm from rw and runs the
// server side, returning the raw shared secret bytes.
func serverKEx(rw io.ReadWriter) ([]byte, KEXAlg, error) {
	var algByte [1]byte
	if _, err := io.ReadFull(rw, algByte[:]); err != nil {
		return nil, 0, err
	}
	alg := KEXAlg(algByte[0])

	switch alg {
	case KEXHerradura:
		secret, err := herraduraServer(rw)
		return secret, alg, err
	case KEXX25519:
		secret, err := x25519Server(rw)
		return secret, alg, err
	default:
		return nil, alg, errUnknownKEX
	}
}

func writeBigInt(w io.Writer, v *big.Int) error {
	b := v.Bytes()
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(b)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBigInt(r io.Reader) (*big.Int, error) {
	var length [2]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}
	b := make([]byte, binary.BigEndian.Uint16(length[:]))
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func herraduraClient(rw io.ReadWriter) ([]byte, error) {
	h := hkex.New(256, 64)
	if err := writeBigInt(rw, h.D()); err != nil {
		return nil, err
	}
	peerD, err := readBigInt(rw)
	if err != nil {
		return nil, err
	}
	h.SetPeerD(peerD)
	h.ComputeFA()
	return h.FA().Bytes(), nil
}

func herraduraServer(rw io.ReadWriter) ([]byte, error) {
	h := hkex.New(256, 64)
	peerD, err := readBigInt(rw)
	if err != nil {
		return nil, err
	}
	h.SetPeerD(peerD)
	if err := writeBigInt(rw, h.D()); err != nil {
		return nil, err
	}
	h.ComputeFA()
	return h.FA().Bytes(), nil
}

func x25519Client(rw io.ReadWriter) ([]byte, error) {
	var priv [32]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	if _, err := rw.Write(pub); err != nil {
		return nil, err
	}
	var peerPub [32]byte
	if _, err := io.ReadFull(rw, peerPub[:]); err != nil {
		return nil, err
	}
	return curve25519.X25519(priv[:], peerPub[:])
}

func x25519Server(rw io.ReadWriter) ([]byte, error) {
	var peerPub [32]byte
	if _, err := io.ReadFull(rw, peerPub[:]); err != nil {
		return nil, err
	}
	var priv [32]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	if _, err := rw.Write(pub); err != nil {
		return nil, err
	}
	return curve25519.X25519(priv[:], peerPub[:])
}

// deriveKeys stretches a raw shared secret into independent client->server
// and server->client Shannon keys via domain-separated SHA-256.
func deriveKeys(secret []byte) (c2s, s2c []byte) {
	hc := sha256.Sum256(append(append([]byte{}, secret...), []byte("shn-c2s")...))
	hs := sha256.Sum256(append(append([]byte{}, secret...), []byte("shn-s2c")...))
	return hc[:], hs[:]
}
