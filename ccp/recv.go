package ccp

import (
	"fmt"

	"github.com/fragglet/pppccp/fsm"
)

// recv is registered with the session's unit channel for PPP protocol
// 0x80fd and implements spec.md §4.1 "Packet reception".
func (inst *Instance) recv(frame []byte) {
	if st := inst.fsm.State(); st == fsm.StateInitial || st == fsm.StateClosed {
		inst.session.ProtocolReject(PPPProtocolNumber, frame)
		return
	}

	if len(frame) < headerLen {
		inst.session.Logf("ccp: short packet received (%d bytes)", len(frame))
		return
	}

	pkt := &Packet{}
	if err := pkt.UnmarshalBinary(frame); err != nil {
		inst.session.Logf("ccp: %v", err)
		return
	}

	inst.fsm.RecvID = pkt.ID

	switch pkt.Code {
	case CodeConfReq:
		result := inst.processConfReq(frame, pkt.Options)
		switch result {
		case OptAck:
			inst.fsm.RecvConfReq(fsm.ConfReqAck)
		case OptNak:
			inst.fsm.RecvConfReq(fsm.ConfReqNak)
		case OptReject:
			inst.fsm.RecvConfReq(fsm.ConfReqRej)
		}
		wasPassive := inst.passive
		inst.received = inst.received[:0]
		if result == OptAck && wasPassive {
			inst.passive = false
			inst.SendConfReq()
		}
		if result == OptFail {
			inst.session.Terminate(fmt.Errorf("ccp: Configure-Request processing failed"))
		}

	case CodeConfAck:
		if inst.fsm.RecvID != inst.fsm.LastID() {
			inst.session.Logf("ccp: ConfAck id mismatch (got %d, want %d)", pkt.ID, inst.fsm.LastID())
			return
		}
		if err := inst.perOptionConfAck(pkt.Options); err != nil {
			inst.session.Terminate(fmt.Errorf("ccp: %w", err))
			return
		}
		inst.fsm.RecvConfAck()
		if inst.needReq {
			inst.SendConfReq()
		}

	case CodeConfNak:
		if inst.fsm.RecvID != inst.fsm.LastID() {
			inst.session.Logf("ccp: ConfNak id mismatch (got %d, want %d)", pkt.ID, inst.fsm.LastID())
			return
		}
		inst.perOptionConfNak(pkt.Options)
		inst.fsm.RecvConfRej()

	case CodeConfRej:
		if inst.fsm.RecvID != inst.fsm.LastID() {
			inst.session.Logf("ccp: ConfRej id mismatch (got %d, want %d)", pkt.ID, inst.fsm.LastID())
			return
		}
		if err := inst.perOptionConfRej(pkt.Options); err != nil {
			inst.session.Terminate(fmt.Errorf("ccp: %w", err))
			return
		}
		inst.fsm.RecvConfRej()

	case CodeTermReq:
		inst.fsm.RecvTermReq()
		inst.fsm.Close()

	case CodeTermAck:
		inst.fsm.RecvTermAck()

	case CodeCodeRej:
		inst.fsm.RecvCodeRejectBad()

	default:
		inst.fsm.RecvUnknownCode()
	}
}

// perOptionConfAck feeds each matching Local Option's optional
// RecvConfAck hook, if it implements one.
func (inst *Instance) perOptionConfAck(body []byte) error {
	for _, entry := range walkOptions(body) {
		lopt, ok := inst.LocalOption(entry[0])
		if !ok {
			continue
		}
		reactor, ok := lopt.Handler.(ConfAckReactor)
		if !ok {
			continue
		}
		if err := reactor.RecvConfAck(inst, lopt.Data, entry); err != nil {
			return err
		}
	}
	return nil
}

// perOptionConfNak feeds each matching Local Option's RecvConfNak hook.
// Errors are logged but not fatal (spec.md §4.1, ConfNak row).
func (inst *Instance) perOptionConfNak(body []byte) {
	for _, entry := range walkOptions(body) {
		lopt, ok := inst.LocalOption(entry[0])
		if !ok {
			continue
		}
		if err := lopt.Handler.RecvConfNak(inst, lopt.Data, entry); err != nil {
			inst.session.Logf("ccp: option %d rejected its own Configure-Nak: %v", entry[0], err)
		}
	}
}

// perOptionConfRej feeds each matching Local Option's RecvConfRej hook.
// A handler with no RecvConfRej implementation is treated as fatal for
// that option, matching spec.md §4.3's "May be absent, in which case a
// REJ of this option is treated as fatal".
func (inst *Instance) perOptionConfRej(body []byte) error {
	for _, entry := range walkOptions(body) {
		lopt, ok := inst.LocalOption(entry[0])
		if !ok {
			continue
		}
		reactor, ok := lopt.Handler.(ConfRejReactor)
		if !ok {
			return fmt.Errorf("option %d has no RecvConfRej handler", entry[0])
		}
		if err := reactor.RecvConfRej(inst, lopt.Data, entry); err != nil {
			return err
		}
	}
	return nil
}
