package mppe

import "github.com/fragglet/pppccp/ccp"

// KeyEvent carries the session's authenticated MPPE material, delivered
// at most once per session, strictly before CCP negotiation starts
// (spec.md §5, "key-event is delivered at most once... before CCP
// starts"). It mirrors the source's struct ev_mppe_keys_t.
type KeyEvent struct {
	// Type's 0x04 bit indicates 128-bit session keys are available; no
	// other bit is interpreted by this module.
	Type byte

	Policy  Policy
	RecvKey [16]byte
	SendKey [16]byte
}

// HandleKeyEvent is the Key-Event Subscriber (spec.md §4.4, "Key-event
// handler"): it stores keys and policy on this session's MPPE Local
// Option and, for a required policy, immediately sets desired=on so the
// very first outbound Configure-Request already offers MPPE.
//
// inst must have an MPPE Local Option (i.e. the MPPE handler's Init ran
// for it); a miss is a
// programmer error in the caller's wiring of the authentication
// subsystem to the PPP engine, hence MustLocalOption's panic.
func HandleKeyEvent(inst *ccp.Instance, ev KeyEvent) {
	lopt := inst.MustLocalOption(optionID)
	st := lopt.Data.(*state)

	if ev.Type&0x04 == 0 {
		inst.Logf("mppe: 128-bit session keys not allowed, disabling mppe")
		return
	}

	st.recvKey = ev.RecvKey
	st.sendKey = ev.SendKey
	st.policy = ev.Policy
	st.hasKeys = true

	if ev.Policy == PolicyRequired {
		st.desired = desiredOn
	}
}
