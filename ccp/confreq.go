package ccp

import "fmt"

// lastConfReqRaw and received round out Instance's transient-per-exchange
// state: the raw bytes of the most recently received Configure-Request
// (needed verbatim to build the Configure-Ack echo) and the Received
// Option list built while processing it (spec.md §3, "Received Option").

// SendConfReq is the fsm.Callbacks hook invoked whenever the state
// machine wants a Configure-Request transmitted. It walks the Local
// Option list, lets each handler write its own bytes, and aborts the
// whole send and terminates the session if any handler returns negative
// (spec.md §4.1, "Outbound ConfReq").
func (inst *Instance) SendConfReq() {
	inst.needReq = false
	if inst.passive {
		return
	}

	buf := make([]byte, inst.confReqLen-headerLen)
	cursor := 0
	for _, lopt := range inst.options {
		n := lopt.Handler.SendConfReq(inst, lopt.Data, buf[cursor:])
		if n < 0 {
			inst.session.Logf("ccp: option %d aborted Configure-Request emission", lopt.ID)
			inst.session.Terminate(fmt.Errorf("ccp: option %d aborted Configure-Request emission", lopt.ID))
			return
		}
		if n > 0 && inst.verboseLog {
			inst.session.Logf("ccp: send option %s", lopt.Handler.Print(lopt.Data, nil))
		}
		cursor += n
	}

	id := inst.fsm.NextID()
	pkt := &Packet{Code: CodeConfReq, ID: id, Options: buf[:cursor]}
	inst.send(pkt)
}

// SendConfAck echoes the originally received Configure-Request with only
// the code field rewritten (spec.md §4.1).
func (inst *Instance) SendConfAck() {
	raw := append([]byte{}, inst.lastConfReqRaw...)
	if len(raw) < headerLen {
		// Nothing to echo; should not happen if processConfReq ran.
		return
	}
	raw[0] = byte(CodeConfAck)
	if err := inst.session.SendFrame(PPPProtocolNumber, raw); err != nil {
		inst.session.Logf("ccp: send failed: %v", err)
	}
}

// SendConfNak writes back only the Received Options currently marked NAK,
// delegating each one's body to its matching Local Option's SendConfNak
// (spec.md §4.1).
func (inst *Instance) SendConfNak() {
	buf := make([]byte, 0, inst.confReqLen-headerLen)
	for _, ropt := range inst.received {
		if ropt.State != OptNak || ropt.Local == nil {
			continue
		}
		scratch := make([]byte, len(ropt.Raw)+32)
		n := ropt.Local.Handler.SendConfNak(inst, ropt.Local.Data, scratch)
		if n > 0 {
			buf = append(buf, scratch[:n]...)
		}
	}
	pkt := &Packet{Code: CodeConfNak, ID: inst.fsm.RecvID, Options: buf}
	inst.send(pkt)
}

// SendConfRej writes back the original bytes of every Received Option
// marked REJ, including unrecognized ones, verbatim (spec.md §4.1).
func (inst *Instance) SendConfRej() {
	buf := make([]byte, 0, inst.confReqLen-headerLen)
	for _, ropt := range inst.received {
		if ropt.State != OptReject {
			continue
		}
		buf = append(buf, ropt.Raw...)
	}
	pkt := &Packet{Code: CodeConfRej, ID: inst.fsm.RecvID, Options: buf}
	inst.send(pkt)
}

// processConfReq implements the inbound Configure-Request option walk
// (spec.md §4.2): parse every option entry (clamping malformed lengths),
// match each against the Local Option list, apply the "once any entry
// has been resolved, force everything after it to REJ" aggregation
// rule, and return the overall result under the REJ < NAK < ACK
// ordering (most-negative wins). raw is the whole packet (header
// included, for the ConfAck echo); body is the option bytes after the
// header.
//
// forceReject latches on the first resolved entry regardless of its
// state, not only on ACK/NAK: an unrecognized option rejected outright
// must also force every later, otherwise-ACKable option back to REJ so
// they're echoed together in one Configure-Reject (spec.md §8).
func (inst *Instance) processConfReq(raw, body []byte) OptState {
	inst.lastConfReqRaw = append([]byte{}, raw...)
	inst.received = inst.received[:0]
	inst.needReq = false

	for _, entry := range walkOptions(body) {
		ropt := &ReceivedOption{
			ID:    entry[0],
			Raw:   entry,
			State: OptNone,
		}
		inst.received = append(inst.received, ropt)
	}

	result := OptAck
	forceReject := false
	for _, ropt := range inst.received {
		lopt, ok := inst.LocalOption(ropt.ID)
		if !ok {
			ropt.State = OptReject
			if result != OptFail && OptReject < result {
				result = OptReject
			}
			forceReject = true
			continue
		}
		ropt.Local = lopt

		if result == OptFail {
			lopt.State = OptReject
			ropt.State = OptReject
			continue
		}

		if forceReject {
			lopt.State = OptReject
			ropt.State = OptReject
			if OptReject < result {
				result = OptReject
			}
			continue
		}

		r := lopt.Handler.RecvConfReq(inst, lopt.Data, ropt.Raw)
		if r == OptAck && lopt.State == OptNak {
			inst.needReq = true
		}
		lopt.State = r
		ropt.State = r
		if r == OptFail {
			// Out-of-band: a handler demanding outright session failure
			// overrides whatever has been aggregated so far.
			result = OptFail
			continue
		}
		if r < result {
			result = r
		}
		forceReject = true
	}

	return result
}
