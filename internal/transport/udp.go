package transport

import (
	"fmt"
	"net"
)

// maxDatagramSize is generous for PokeProtocol's line-oriented text frames;
// no message type in package wire approaches it.
const maxDatagramSize = 4096

// UDPTransport owns one UDP socket and fans inbound datagrams out to a
// channel for the caller's single event loop to drain (spec.md §5: "the
// UDP socket is exclusively owned by the reliability layer" — this is
// that socket's concrete owner). Grounded on the teacher's
// NewNetworkController, which likewise wraps one net.Conn behind send/recv
// methods; generalized from TCP's connection-oriented net.Conn to a
// connectionless net.PacketConn addressed by peer string on every send.
type UDPTransport struct {
	conn    *net.UDPConn
	inbound chan Datagram
	done    chan struct{}
}

// Listen opens a UDP socket on addr (e.g. ":7777" or "0.0.0.0:0" for an
// ephemeral port) and starts its background read loop.
func Listen(addr string) (*UDPTransport, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %q: %w", addr, err)
	}
	t := &UDPTransport{
		conn:    conn,
		inbound: make(chan Datagram, 64),
		done:    make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// LocalAddr returns the socket's bound address, useful when addr was ":0".
func (t *UDPTransport) LocalAddr() string {
	return t.conn.LocalAddr().String()
}

func (t *UDPTransport) readLoop() {
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				close(t.inbound)
				return
			default:
			}
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case t.inbound <- Datagram{Src: from.String(), Payload: payload}:
		case <-t.done:
			close(t.inbound)
			return
		}
	}
}

// Transmit implements reliability.Transmitter, resolving dst freshly on
// every call (so a host name is looked up again each time). It always
// sends to the address string the caller passes; it does not follow a peer
// whose address or port changes mid-session.
func (t *UDPTransport) Transmit(dst string, payload []byte) error {
	raddr, err := net.ResolveUDPAddr("udp", dst)
	if err != nil {
		return fmt.Errorf("transport: resolve dst %q: %w", dst, err)
	}
	if _, err := t.conn.WriteToUDP(payload, raddr); err != nil {
		return fmt.Errorf("transport: write to %q: %w", dst, err)
	}
	return nil
}

// Inbound returns the channel of datagrams read off the socket.
func (t *UDPTransport) Inbound() <-chan Datagram { return t.inbound }

// Close stops the read loop and releases the socket.
func (t *UDPTransport) Close() error {
	close(t.done)
	return t.conn.Close()
}
