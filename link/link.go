// Package link provides the concrete PPP network interface used by the
// demo wiring: a TUN device opened via songgao/water, plus a minimal
// unit-channel implementation (ccp.Session) that demultiplexes inbound
// frames by their 2-byte PPP protocol field and lets registered
// protocols (CCP among them) write framed output back out.
//
// This is a demonstration harness, not a full PPP daemon: it carries
// only the protocol-field framing and multiplexing CCP needs, not LCP
// link establishment, authentication, or IPCP.
package link

import (
	"io"

	"github.com/songgao/water"
)

// TUN wraps a water.Interface opened in TUN mode, the same way the
// teacher's phys.NewTap wraps one in TAP mode.
type TUN struct {
	ifce *water.Interface
}

var _ io.ReadWriteCloser = (*TUN)(nil)

// NewTUN creates a TUN-mode network interface.
func NewTUN(cfg water.Config) (*TUN, error) {
	cfg.DeviceType = water.TUN

	ifce, err := water.New(cfg)
	if err != nil {
		return nil, err
	}
	return &TUN{ifce: ifce}, nil
}

func (t *TUN) Read(buf []byte) (int, error)  { return t.ifce.Read(buf) }
func (t *TUN) Write(buf []byte) (int, error) { return t.ifce.Write(buf) }
func (t *TUN) Close() error                  { return t.ifce.Close() }

// Name returns the OS-assigned interface name, used as kernel.Config's
// IfName for the MTU ioctls.
func (t *TUN) Name() string { return t.ifce.Name() }
