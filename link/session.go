package link

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/fragglet/pppccp/ccp"
)

// Session is a minimal demo implementation of ccp.Session: it multiplexes
// PPP frames across a single io.ReadWriteCloser (a link.TUN in the demo
// wiring) by protocol field, the way the teacher's ppp.Session multiplexes
// LCP/IPXCP/IPX frames over its own channel.
type Session struct {
	channel io.ReadWriteCloser
	kernel  ccp.KernelConfig
	logger  *log.Logger

	mu       sync.Mutex
	handlers map[layers.PPPType]func([]byte)

	terminated error
}

var _ ccp.Session = (*Session)(nil)

// NewSession wires channel (typically a *TUN) and kernel (typically a
// *kernel.Config for the same interface) into a usable ccp.Session.
func NewSession(channel io.ReadWriteCloser, kernel ccp.KernelConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		channel:  channel,
		kernel:   kernel,
		logger:   logger,
		handlers: make(map[layers.PPPType]func([]byte)),
	}
}

func (s *Session) RegisterProtocolHandler(pppType layers.PPPType, recv func([]byte)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[pppType] = recv
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, pppType)
	}
}

func (s *Session) SendFrame(pppType layers.PPPType, payload []byte) error {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.PPP{PPPType: pppType},
		gopacket.Payload(payload),
	)
	if err != nil {
		return fmt.Errorf("link: serialize PPP frame: %w", err)
	}
	_, err = s.channel.Write(buf.Bytes())
	return err
}

func (s *Session) ProtocolReject(pppType layers.PPPType, rejected []byte) {
	s.logger.Printf("link: Protocol-Reject for %v (%d bytes)", pppType, len(rejected))
}

func (s *Session) Terminate(err error) {
	s.mu.Lock()
	if s.terminated == nil {
		s.terminated = err
	}
	s.mu.Unlock()
	s.channel.Close()
}

func (s *Session) LayerStarted()  { s.logger.Printf("link: CCP layer started") }
func (s *Session) LayerFinished() { s.logger.Printf("link: CCP layer finished") }

func (s *Session) Kernel() ccp.KernelConfig { return s.kernel }

func (s *Session) Logf(format string, args ...interface{}) { s.logger.Printf(format, args...) }

// Run reads frames from the channel until it is closed, dispatching each
// by PPP protocol field to its registered handler. Unrecognized protocols
// are silently dropped at this layer; the caller is expected to register
// a handler for every protocol it cares about (CCP among them) before
// calling Run.
func (s *Session) Run() error {
	var buf [1500]byte
	for {
		n, err := s.channel.Read(buf[:])
		if err != nil {
			return err
		}
		pkt := gopacket.NewPacket(buf[:n], layers.LayerTypePPP, gopacket.Default)
		pppLayer, ok := pkt.Layer(layers.LayerTypePPP).(*layers.PPP)
		if !ok {
			continue
		}
		s.mu.Lock()
		handler := s.handlers[pppLayer.PPPType]
		s.mu.Unlock()
		if handler != nil {
			handler(pppLayer.LayerPayload())
		}
	}
}
