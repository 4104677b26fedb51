// Package mppe implements the MPPE (Microsoft Point-to-Point Encryption,
// RFC 3078) CCP option: stateless, 128-bit session keys only. It registers
// itself with the ccp package's handler registry on import.
package mppe

import (
	"encoding/binary"
	"fmt"

	"github.com/fragglet/pppccp/ccp"
	"github.com/fragglet/pppccp/kernel"
)

// Flag bits within the 4-byte MPPE option payload (spec.md §6).
const (
	flagH uint32 = 1 << 24 // stateless
	flagM uint32 = 1 << 7  // 56-bit (unsupported)
	flagS uint32 = 1 << 6  // 128-bit
	flagL uint32 = 1 << 5  // 40-bit (unsupported)
	flagD uint32 = 1 << 4  // obsolete/debug
	flagC uint32 = 1 << 0  // compression (unsupported standalone)

	wantedFlags = flagS | flagH
)

// optionLen is this option's fixed encoded length (2-byte header + 4-byte
// flag word); the source stores the same value once in mppe_init.
const optionLen = 6

// mtuPadding is the fixed interface MTU allowance MPPE framing consumes
// once negotiated (spec.md §4.4).
const mtuPadding = 4

// desired is the tri-state mirror of the source's mppe_opt->mppe (-1, 0, 1).
type desired int

const (
	desiredUnset desired = iota - 1
	desiredOff
	desiredOn
)

// Policy is the operator-declared stance on MPPE for one session.
type Policy int

const (
	PolicyNone Policy = iota
	PolicyAllowed
	PolicyRequired
)

// optionID is the well-known CCP option id for MPPE (spec.md §6).
const optionID = 18

func init() {
	ccp.Register(&handler{})
}

// state is the per-session MPPE state block (spec.md §3, "MPPE State
// Block"). It is created fresh by Init for every CCP Instance and is the
// opaque Data carried on that instance's LocalOption.
type state struct {
	desired  desired
	policy   Policy
	recvKey  [16]byte
	sendKey  [16]byte
	hasKeys  bool
	mtuTaken bool
}

// handler is the stateless ccp.Handler implementation; all actual state
// lives in the per-session *state value threaded through every call.
type handler struct{}

var (
	_ ccp.Handler        = (*handler)(nil)
	_ ccp.ConfRejReactor = (*handler)(nil)
)

func (*handler) OptionID() byte { return optionID }

func (*handler) Init(inst *ccp.Instance) (interface{}, int, bool) {
	return &state{desired: desiredUnset, policy: PolicyNone}, optionLen, true
}

func (*handler) Free(inst *ccp.Instance, s interface{}) {}

// SendConfReq implements spec.md §4.4: emit the option only when the
// policy is required or a desired value has been set; install the receive key first when offering
// MPPE on, since the peer will start encrypting toward us the moment it
// ACKs.
func (h *handler) SendConfReq(inst *ccp.Instance, data interface{}, out []byte) int {
	st := data.(*state)

	if st.policy != PolicyRequired && st.desired == desiredUnset {
		return 0
	}

	// A required policy always tries to offer S|H, even before any
	// key event has explicitly set desired=on (mirrors the source's
	// mppe_opt->mppe starting at -1, which its truthiness check treats
	// the same as "on" until an allowed-policy exchange explicitly
	// turns it off).
	wantsOn := st.desired == desiredOn || (st.policy == PolicyRequired && st.desired != desiredOff)

	var flags uint32
	if wantsOn {
		flags = wantedFlags

		if !st.hasKeys {
			inst.Logf("mppe: desired but no session keys available, omitting option")
			return 0
		}
		if err := inst.KernelConfig().InstallCompression(false, encode(flags), st.recvKey); err != nil {
			inst.Logf("mppe: MPPE requested but not supported by kernel: %v", err)
			return 0
		}
		inst.Logf("mppe: installed receive key fp=%s", kernel.KeyFingerprint(st.recvKey))
	}

	return writeOption(out, flags)
}

// SendConfNak is aliased directly to SendConfReq, matching
// mppe_opt_hnd.send_conf_nak in the source.
func (h *handler) SendConfNak(inst *ccp.Instance, data interface{}, out []byte) int {
	return h.SendConfReq(inst, data, out)
}

// RecvConfReq implements the policy table from spec.md §4.4.
func (h *handler) RecvConfReq(inst *ccp.Instance, data interface{}, in []byte) ccp.OptState {
	st := data.(*state)

	if len(in) != optionLen || in[1] != optionLen {
		return ccp.OptReject
	}
	flags := binary.BigEndian.Uint32(in[2:6])

	switch st.policy {
	case PolicyRequired:
		if flags != wantedFlags {
			return ccp.OptNak
		}

	case PolicyAllowed:
		switch {
		case flags == wantedFlags:
			st.desired = desiredOn
		case flags&wantedFlags == wantedFlags:
			st.desired = desiredOn
			return ccp.OptNak
		case flags != 0:
			st.desired = desiredOff
			return ccp.OptNak
		default:
			st.desired = desiredOff
		}

	default: // PolicyNone
		return ccp.OptReject
	}

	if !st.hasKeys {
		inst.Logf("mppe: accept requires a send key but none is available")
		return ccp.OptReject
	}
	if err := inst.KernelConfig().InstallCompression(true, encode(wantedFlags), st.sendKey); err != nil {
		inst.Logf("mppe: failed to install send key: %v", err)
		return ccp.OptReject
	}
	inst.Logf("mppe: installed send key fp=%s", kernel.KeyFingerprint(st.sendKey))
	reduceMTU(inst, st)

	return ccp.OptAck
}

// RecvConfNak is a no-op: the source never reacts to an MPPE Configure-Nak
// beyond what the next outbound send_conf_req will naturally redo.
func (*handler) RecvConfNak(inst *ccp.Instance, data interface{}, in []byte) error {
	return nil
}

// RecvConfRej treats any rejection of a required MPPE proposal as fatal,
// matching the source's documented fallback for handlers with no explicit
// recv_conf_rej (spec.md §4.3); an allowed-policy rejection is tolerated.
func (*handler) RecvConfRej(inst *ccp.Instance, data interface{}, in []byte) error {
	st := data.(*state)
	if st.policy == PolicyRequired {
		return fmt.Errorf("mppe: peer rejected required MPPE option")
	}
	return nil
}

func (*handler) Print(data interface{}, in []byte) string {
	var flags uint32
	if len(in) >= 6 {
		flags = binary.BigEndian.Uint32(in[2:6])
	} else if st, ok := data.(*state); ok && st.desired == desiredOn {
		flags = wantedFlags
	}
	return fmt.Sprintf("<mppe %sH %sM %sS %sL %sD %sC>",
		sign(flags&flagH != 0), sign(flags&flagM != 0), sign(flags&flagS != 0),
		sign(flags&flagL != 0), sign(flags&flagD != 0), sign(flags&flagC != 0))
}

func sign(set bool) string {
	if set {
		return "+"
	}
	return "-"
}

func writeOption(out []byte, flags uint32) int {
	if len(out) < optionLen {
		return -1
	}
	out[0] = optionID
	out[1] = optionLen
	binary.BigEndian.PutUint32(out[2:6], flags)
	return optionLen
}

func encode(flags uint32) []byte {
	buf := make([]byte, optionLen)
	writeOption(buf, flags)
	return buf
}

// reduceMTU applies the MPPE padding allowance at most once per session
// (spec.md §8 invariant), matching the source's decrease_mtu.
func reduceMTU(inst *ccp.Instance, st *state) {
	if st.mtuTaken {
		return
	}
	mtu, err := inst.KernelConfig().GetMTU()
	if err != nil {
		inst.Logf("mppe: failed to get MTU: %v", err)
		return
	}
	if err := inst.KernelConfig().SetMTU(mtu - mtuPadding); err != nil {
		inst.Logf("mppe: failed to set MTU: %v", err)
		return
	}
	st.mtuTaken = true
}
