package ccp

import "github.com/google/gopacket/layers"

// Session is the narrow slice of the outer PPP session lifecycle that
// the CCP layer needs (spec.md §2: "the outer PPP session lifecycle...
// [is] external"). The outer engine implements this; CCP never reaches
// further into it.
type Session interface {
	// RegisterProtocolHandler arranges for recv to be called with the
	// payload of every frame received for pppType (here, CCP's own
	// 0x80fd). Returning the unregister function lets Free() undo it.
	RegisterProtocolHandler(pppType layers.PPPType, recv func([]byte)) (unregister func())

	// SendFrame transmits payload as the body of a PPP frame tagged
	// with pppType over the session's unit channel.
	SendFrame(pppType layers.PPPType, payload []byte) error

	// ProtocolReject asks the outer LCP instance to send an upstream
	// LCP Protocol-Reject for pppType, used when CCP data arrives while
	// the CCP FSM is not yet willing to process it (spec.md §4.1 step 1).
	ProtocolReject(pppType layers.PPPType, rejected []byte)

	// Terminate tears down the whole PPP session due to a fatal CCP
	// error (spec.md §4.1, "terminate the PPP session").
	Terminate(err error)

	// LayerStarted and LayerFinished are the two upward reports the
	// outer PPP engine's layer bring-up/tear-down accounting expects
	// (spec.md §6, "Upward reports"). LayerFinished may be called
	// without a preceding LayerStarted (spec.md §4.1, layer_finished
	// "also reports started if the layer never opened").
	LayerStarted()
	LayerFinished()

	// Kernel returns the kernel data-path configuration side-channel
	// for this session (spec.md §6).
	Kernel() KernelConfig

	// Logf reports a diagnostic message; implementations typically
	// forward to a *log.Logger the way module.Parameters.Logger does
	// in the teacher repo.
	Logf(format string, args ...interface{})
}

// KernelConfig is the narrow interface onto the kernel data-path
// configuration side-channel (spec.md §6): installing per-direction MPPE
// keys, reading/writing PPP interface flags, and getting/setting MTU. A
// missing or failing implementation of the compression half is expected
// and must be handled gracefully (graceful MPPE disablement); the
// concrete implementations live in package kernel.
type KernelConfig interface {
	// InstallCompression configures one direction (transmit or receive)
	// of MPPE compression with the given option bytes (id, len, flags)
	// and 16-byte key. A non-nil error means the kernel has no (or a
	// failing) compression facility.
	InstallCompression(transmit bool, optBytes []byte, key [16]byte) error

	// SetCCPFlags asserts or clears the kernel's CCP_OPEN and CCP_UP
	// interface flags.
	SetCCPFlags(open, up bool) error

	// GetMTU and SetMTU read and write the PPP interface's MTU.
	GetMTU() (int, error)
	SetMTU(int) error
}
