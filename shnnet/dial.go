package shnnet

import (
	"net"

	kcp "github.com/xtaci/kcp-go"
)

// TransportKind selects the underlying byte transport Dial/Listen use.
type TransportKind int

const (
	// TransportTCP dials/listens with the standard net package.
	TransportTCP TransportKind = iota
	// TransportKCP dials/listens with a reliable-UDP KCP session, useful
	// over lossy links; it satisfies Transport (and io.Closer) exactly
	// as a *net.TCPConn does.
	TransportKCP
)

// Dial connects to addr over the given transport kind, performs a KEX
// handshake (alg), derives independent send/recv Shannon keys from the
// resulting shared secret, and returns a ready Conn.
func Dial(kind TransportKind, addr string, alg KEXAlg) (*Conn, error) {
	transport, err := dialTransport(kind, addr)
	if err != nil {
		return nil, err
	}

	secret, err := clientKEx(transport, alg)
	if err != nil {
		if closer, ok := transport.(interface{ Close() error }); ok {
			closer.Close()
		}
		return nil, err
	}
	sendKey, recvKey := deriveKeys(secret)
	logDebug("shnnet: client KEX %s complete with %s", alg, addr)
	return New(transport, sendKey, recvKey), nil
}

func dialTransport(kind TransportKind, addr string) (Transport, error) {
	switch kind {
	case TransportKCP:
		return kcp.DialWithOptions(addr, nil, 0, 0)
	default:
		return net.Dial("tcp", addr)
	}
}

// Listener accepts incoming connections and performs the server side of
// the KEX handshake before handing back a ready Conn.
type Listener struct {
	kind TransportKind
	l    net.Listener
	kl   *kcp.Listener
}

// Listen starts listening on addr using the given transport kind.
func Listen(kind TransportKind, addr string) (*Listener, error) {
	switch kind {
	case TransportKCP:
		kl, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &Listener{kind: kind, kl: kl}, nil
	default:
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &Listener{kind: kind, l: l}, nil
	}
}

// Accept waits for and returns the next connection, performing the KEX
// handshake proposed by the client. The server has final say: an
// unrecognised KEXAlg is refused by closing the connection rather than
// silently downgrading.
func (hl *Listener) Accept() (*Conn, error) {
	var transport Transport
	var err error
	if hl.kind == TransportKCP {
		var sess *kcp.UDPSession
		sess, err = hl.kl.AcceptKCP()
		transport = sess
	} else {
		transport, err = hl.l.Accept()
	}
	if err != nil {
		return nil, err
	}

	secret, alg, err := serverKEx(transport)
	if err != nil {
		if closer, ok := transport.(interface{ Close() error }); ok {
			closer.Close()
		}
		return nil, err
	}
	// Server's send/recv are the client's recv/send: swap derivation order.
	recvKey, sendKey := deriveKeys(secret)
	logDebug("shnnet: server accepted KEX %s", alg)
	return New(transport, sendKey, recvKey), nil
}

// Close stops accepting new connections.
func (hl *Listener) Close() error {
	if hl.kind == TransportKCP {
		return hl.kl.Close()
	}
	return hl.l.Close()
}

// Addr returns the listener's network address.
func (hl *Listener) Addr() net.Addr {
	if hl.kind == TransportKCP {
		return hl.kl.Addr()
	}
	return hl.l.Addr()
}
