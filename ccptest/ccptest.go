// Package ccptest provides in-memory fakes for the narrow collaborator
// interfaces the ccp and mppe packages depend on (ccp.Session and
// ccp.KernelConfig), in the style of the teacher's own testing package.
package ccptest

import (
	"fmt"

	"github.com/google/gopacket/layers"

	"github.com/fragglet/pppccp/ccp"
)

// Session is a fake ccp.Session that records every frame handed to
// SendFrame and every upward report, and loops CCP-protocol frames sent
// to one Session into its Peer's registered handler when Peer is set.
type Session struct {
	Peer *Session

	Sent          [][]byte
	Rejected      [][]byte
	Terminated    error
	StartedCount  int
	FinishedCount int
	Logs          []string

	kernel *Kernel
	recv   func([]byte)
}

func NewSession() *Session {
	return &Session{kernel: NewKernel()}
}

func (s *Session) RegisterProtocolHandler(pppType layers.PPPType, recv func([]byte)) func() {
	s.recv = recv
	return func() { s.recv = nil }
}

// SendFrame records the frame and, if Peer is set, delivers it directly
// to the peer's registered handler — modelling the unit channel as a
// synchronous, lossless pipe for test purposes.
func (s *Session) SendFrame(pppType layers.PPPType, payload []byte) error {
	cp := append([]byte{}, payload...)
	s.Sent = append(s.Sent, cp)
	if s.Peer != nil && s.Peer.recv != nil {
		s.Peer.recv(cp)
	}
	return nil
}

func (s *Session) ProtocolReject(pppType layers.PPPType, rejected []byte) {
	s.Rejected = append(s.Rejected, append([]byte{}, rejected...))
}

func (s *Session) Terminate(err error) {
	if s.Terminated == nil {
		s.Terminated = err
	}
}

func (s *Session) LayerStarted()  { s.StartedCount++ }
func (s *Session) LayerFinished() { s.FinishedCount++ }

func (s *Session) Kernel() ccp.KernelConfig { return s.kernel }

func (s *Session) Logf(format string, args ...interface{}) {
	s.Logs = append(s.Logs, fmt.Sprintf(format, args...))
}

// Deliver feeds a raw frame into this session's registered CCP handler
// directly, without going through a Peer.
func (s *Session) Deliver(frame []byte) {
	if s.recv != nil {
		s.recv(frame)
	}
}

// Kernel is a fake ccp.KernelConfig that records installed compression
// configuration and lets tests inject failures.
type Kernel struct {
	MTU int

	TxInstalled *Installed
	RxInstalled *Installed

	CCPOpen bool
	CCPUp   bool

	FailCompression bool
	FailMTU         bool
}

// Installed captures one InstallCompression call.
type Installed struct {
	OptBytes []byte
	Key      [16]byte
}

func NewKernel() *Kernel {
	return &Kernel{MTU: 1500}
}

func (k *Kernel) InstallCompression(transmit bool, optBytes []byte, key [16]byte) error {
	if k.FailCompression {
		return fmt.Errorf("ccptest: compression install disabled for this test")
	}
	installed := &Installed{OptBytes: append([]byte{}, optBytes...), Key: key}
	if transmit {
		k.TxInstalled = installed
	} else {
		k.RxInstalled = installed
	}
	return nil
}

func (k *Kernel) SetCCPFlags(open, up bool) error {
	k.CCPOpen = open
	k.CCPUp = up
	return nil
}

func (k *Kernel) GetMTU() (int, error) {
	if k.FailMTU {
		return 0, fmt.Errorf("ccptest: MTU get disabled for this test")
	}
	return k.MTU, nil
}

func (k *Kernel) SetMTU(mtu int) error {
	if k.FailMTU {
		return fmt.Errorf("ccptest: MTU set disabled for this test")
	}
	k.MTU = mtu
	return nil
}
