package ccp

import (
	"fmt"

	"github.com/fragglet/pppccp/fsm"
)

// Instance is one CCP layer: one per PPP session (spec.md §3, "CCP
// Instance"). It owns the embedded generic FSM, the ordered Local Option
// list, and (transiently, only while processing one inbound
// Configure-Request) the Received Option list.
type Instance struct {
	session Session
	fsm     *fsm.FSM
	options []*LocalOption

	received       []*ReceivedOption
	lastConfReqRaw []byte
	confReqLen     int
	started        bool
	passive        bool
	needReq        bool
	unregister     func()
	verboseLog     bool
}

var _ fsm.Callbacks = (*Instance)(nil)

// Init allocates the CCP layer for session, registers a protocol handler
// for PPP protocol 0x80fd on its unit channel, and builds the Local
// Option list from the process-wide registry (spec.md §4.1 "init").
func Init(session Session) *Instance {
	inst := &Instance{session: session}
	inst.unregister = session.RegisterProtocolHandler(PPPProtocolNumber, inst.recv)

	inst.confReqLen = headerLen
	for _, h := range registeredHandlers() {
		state, length, ok := h.Init(inst)
		if !ok {
			continue
		}
		lopt := &LocalOption{
			ID:      h.OptionID(),
			Len:     length,
			Handler: h,
			State:   OptNone,
			Data:    state,
		}
		inst.options = append(inst.options, lopt)
		inst.confReqLen += lopt.Len
	}

	inst.fsm = fsm.New(inst)
	return inst
}

// LocalOption returns the Local Option entry for the given option id, or
// false if no handler registered one for this session. Mirrors the
// source's ccp_find_option container-of lookup (spec.md §12): callers
// that expect the option to exist (the MPPE key-event subscriber, in
// particular) should treat a false return as a programmer error.
func (inst *Instance) LocalOption(id byte) (*LocalOption, bool) {
	for _, o := range inst.options {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Logf reports a diagnostic message via the owning Session, for use by
// option handlers that only ever see an *Instance.
func (inst *Instance) Logf(format string, args ...interface{}) {
	inst.session.Logf(format, args...)
}

// KernelConfig returns the kernel data-path configuration side-channel for
// this session, for use by option handlers (e.g. package mppe) that need
// to install keys or adjust the interface MTU.
func (inst *Instance) KernelConfig() KernelConfig {
	return inst.session.Kernel()
}

// SetVerbose toggles the per-option Print() log line on every outbound
// Configure-Request, matching the source's conf_ppp_verbose flag.
func (inst *Instance) SetVerbose(v bool) {
	inst.verboseLog = v
}

// MustLocalOption is LocalOption but panics on a miss, matching the
// source's log_emerg+abort() for ccp_find_option on an unregistered
// handler (spec.md §7, "Programmer error").
func (inst *Instance) MustLocalOption(id byte) *LocalOption {
	o, ok := inst.LocalOption(id)
	if !ok {
		panic(fmt.Sprintf("ccp: BUG: option %d not found", id))
	}
	return o
}

// Start begins CCP negotiation (spec.md §4.1 "start"). If no options are
// registered for this session, it completes immediately as a no-op.
func (inst *Instance) Start() error {
	if len(inst.options) == 0 {
		inst.session.LayerStarted()
		return nil
	}
	inst.fsm.LowerUp()
	if err := inst.fsm.Open(); err != nil {
		return err
	}
	if err := inst.session.Kernel().SetCCPFlags(true, false); err != nil {
		inst.fsm.Close()
		return fmt.Errorf("ccp: failed to set CCP_OPEN: %w", err)
	}
	return nil
}

// Finish clears kernel CCP_OPEN/CCP_UP, forces the FSM directly to
// Closed without further I/O, and reports upward that the layer has
// finished (spec.md §4.1 "finish" — invoked while the outer engine is
// tearing down).
func (inst *Instance) Finish() {
	inst.session.Kernel().SetCCPFlags(false, false)
	inst.fsm.ForceClosed()
	inst.session.LayerFinished()
}

// Free unregisters the protocol handler, frees every Local Option via
// its handler, and releases the option list (spec.md §4.1 "free"). The
// FSM itself holds no resources beyond its timer, which ForceClosed/
// the timer firing already stop.
func (inst *Instance) Free() {
	if inst.unregister != nil {
		inst.unregister()
	}
	for _, o := range inst.options {
		o.Handler.Free(inst, o.Data)
	}
	inst.options = nil
}

// --- fsm.Callbacks ---

// LayerUp asserts kernel CCP_UP on first entry and reports "layer
// started" upward the first time it happens (spec.md §4.1 "layer_up").
func (inst *Instance) LayerUp() {
	if inst.started {
		return
	}
	inst.started = true
	if err := inst.session.Kernel().SetCCPFlags(true, true); err != nil {
		inst.session.Terminate(fmt.Errorf("ccp: failed to set CCP_UP: %w", err))
		return
	}
	inst.session.LayerStarted()
}

// LayerFinished reports "layer finished" upward, plus "started" too if
// the layer never actually opened, so the outer engine's layer-bringup
// counters stay balanced (spec.md §4.1 "layer_finished").
func (inst *Instance) LayerFinished() {
	if !inst.started {
		inst.session.LayerStarted()
	}
	inst.started = false
	inst.session.LayerFinished()
}

func (inst *Instance) SendTermReq() {
	id := inst.fsm.NextID()
	pkt := &Packet{Code: CodeTermReq, ID: id}
	inst.send(pkt)
}

func (inst *Instance) SendTermAck() {
	pkt := &Packet{Code: CodeTermAck, ID: inst.fsm.RecvID}
	inst.send(pkt)
}

func (inst *Instance) send(pkt *Packet) {
	payload, err := pkt.MarshalBinary()
	if err != nil {
		return
	}
	if err := inst.session.SendFrame(PPPProtocolNumber, payload); err != nil {
		inst.session.Logf("ccp: send failed: %v", err)
	}
}
