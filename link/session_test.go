package link

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket/layers"

	"github.com/fragglet/pppccp/kernel"
)

// pipeChannel adapts a net.Conn to io.ReadWriteCloser for Session, which
// is all Session actually needs.
type pipeChannel struct {
	net.Conn
}

func TestSessionRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	sess := NewSession(pipeChannel{a}, kernel.NewFakeConfig(), nil)

	received := make(chan []byte, 1)
	sess.RegisterProtocolHandler(layers.PPPType(0x80fd), func(payload []byte) {
		received <- payload
	})

	go sess.Run()

	go func() {
		// Simulate the peer by writing a raw PPP frame directly.
		frame := []byte{0x80, 0xfd, 0xde, 0xad}
		b.Write(frame)
	}()

	select {
	case payload := <-received:
		if len(payload) != 2 || payload[0] != 0xde || payload[1] != 0xad {
			t.Fatalf("unexpected payload: %x", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched frame")
	}

	go io.Copy(io.Discard, b)
	if err := sess.SendFrame(layers.PPPType(0x80fd), []byte{1, 2, 3}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	a.Close()
	b.Close()
}
