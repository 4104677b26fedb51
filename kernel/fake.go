package kernel

import (
	"fmt"

	"github.com/fragglet/pppccp/ccp"
)

var _ ccp.KernelConfig = (*FakeConfig)(nil)

// FakeConfig is an in-memory ccp.KernelConfig with no real kernel
// backing. InstallCompression always fails, the documented graceful
// degradation path (spec.md §6): MPPE negotiation proceeds but the
// option is never actually accepted/offered successfully. GetMTU/SetMTU
// and SetCCPFlags are tracked in memory, useful for demo wiring on
// platforms (or in contexts) with no PPP generic-driver unit fd.
type FakeConfig struct {
	MTU     int
	CCPOpen bool
	CCPUp   bool
}

// NewFakeConfig returns a FakeConfig with a conventional default PPP MTU.
func NewFakeConfig() *FakeConfig {
	return &FakeConfig{MTU: 1500}
}

func (f *FakeConfig) InstallCompression(transmit bool, optBytes []byte, key [16]byte) error {
	return fmt.Errorf("kernel: no PPP unit available, MPPE requested but not supported")
}

func (f *FakeConfig) SetCCPFlags(open, up bool) error {
	f.CCPOpen, f.CCPUp = open, up
	return nil
}

func (f *FakeConfig) GetMTU() (int, error) { return f.MTU, nil }

func (f *FakeConfig) SetMTU(mtu int) error {
	f.MTU = mtu
	return nil
}
