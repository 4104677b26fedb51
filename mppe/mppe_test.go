package mppe

import (
	"bytes"
	"testing"

	"github.com/fragglet/pppccp/ccp"
	"github.com/fragglet/pppccp/ccptest"
)

func newInstance(t *testing.T) (*ccp.Instance, *ccptest.Session) {
	t.Helper()
	sess := ccptest.NewSession()
	inst := ccp.Init(sess)
	return inst, sess
}

func setKeys(t *testing.T, inst *ccp.Instance, policy Policy, recv, send byte) {
	t.Helper()
	ev := KeyEvent{Type: 0x04, Policy: policy}
	ev.RecvKey[0] = recv
	ev.SendKey[0] = send
	HandleKeyEvent(inst, ev)
}

func TestRequiredMeetsRequired(t *testing.T) {
	inst, sess := newInstance(t)
	setKeys(t, inst, PolicyRequired, 0xaa, 0xbb)

	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)

	in := []byte{18, 6, 0x01, 0x00, 0x00, 0x40} // S|H
	result := h.RecvConfReq(inst, st, in)
	if result != ccp.OptAck {
		t.Fatalf("want ACK, got %v", result)
	}
	k := sess.Kernel().(*ccptest.Kernel)
	if k.TxInstalled == nil || k.TxInstalled.Key[0] != 0xbb {
		t.Fatalf("expected send key installed, got %+v", k.TxInstalled)
	}
	if k.MTU != 1496 {
		t.Fatalf("want MTU 1496, got %d", k.MTU)
	}
}

func TestAllowedMeetsExtraBits(t *testing.T) {
	inst, _ := newInstance(t)
	setKeys(t, inst, PolicyAllowed, 0xaa, 0xbb)

	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)

	in := []byte{18, 6, 0x01, 0x00, 0x00, 0xe0} // S|H|L|D
	result := h.RecvConfReq(inst, st, in)
	if result != ccp.OptNak {
		t.Fatalf("want NAK, got %v", result)
	}
	if st.desired != desiredOn {
		t.Fatalf("want desired=on, got %v", st.desired)
	}

	out := make([]byte, 6)
	n := h.SendConfNak(inst, st, out)
	if n != 6 {
		t.Fatalf("want 6 bytes written, got %d", n)
	}
	want := []byte{18, 6, 0x01, 0x00, 0x00, 0x40}
	if !bytes.Equal(out, want) {
		t.Fatalf("want %x, got %x", want, out)
	}
}

func TestAllowedMeetsBareStateful(t *testing.T) {
	inst, _ := newInstance(t)
	setKeys(t, inst, PolicyAllowed, 0xaa, 0xbb)

	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)

	in := []byte{18, 6, 0x00, 0x00, 0x00, 0x40} // S without H
	result := h.RecvConfReq(inst, st, in)
	if result != ccp.OptNak {
		t.Fatalf("want NAK, got %v", result)
	}
	if st.desired != desiredOff {
		t.Fatalf("want desired=off, got %v", st.desired)
	}

	out := make([]byte, 6)
	n := h.SendConfNak(inst, st, out)
	if n != 6 {
		t.Fatalf("want 6 bytes written (policy allowed, desired off), got %d", n)
	}
	want := []byte{18, 6, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("want zero-flag counter-proposal %x, got %x", want, out)
	}
}

func TestPolicyNoneRejectsEverything(t *testing.T) {
	inst, _ := newInstance(t)
	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)
	st.policy = PolicyNone

	in := []byte{18, 6, 0x01, 0x00, 0x00, 0x40}
	if result := h.RecvConfReq(inst, st, in); result != ccp.OptReject {
		t.Fatalf("want REJ, got %v", result)
	}
}

func TestOptionLengthBoundaries(t *testing.T) {
	inst, _ := newInstance(t)
	setKeys(t, inst, PolicyRequired, 0xaa, 0xbb)
	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)

	for _, length := range []int{0, 1, 5, 7} {
		in := make([]byte, length)
		if length >= 2 {
			in[0], in[1] = 18, byte(length)
		}
		if result := h.RecvConfReq(inst, st, in); result != ccp.OptReject {
			t.Errorf("length %d: want REJ, got %v", length, result)
		}
	}
}

func TestKeyEventWithout128Bit(t *testing.T) {
	inst, _ := newInstance(t)
	ev := KeyEvent{Type: 0x03, Policy: PolicyRequired}
	HandleKeyEvent(inst, ev)

	st := inst.MustLocalOption(optionID).Data.(*state)
	if st.hasKeys {
		t.Fatalf("expected keys not to be stored")
	}

	h := &handler{}
	out := make([]byte, 6)
	st.policy = PolicyRequired
	n := h.SendConfReq(inst, st, out)
	if n != 0 {
		t.Fatalf("want option omitted (no keys), got %d bytes", n)
	}
}

func TestSendConfReqInstallsReceiveKeyWhenDesiredOn(t *testing.T) {
	inst, sess := newInstance(t)
	setKeys(t, inst, PolicyRequired, 0xaa, 0xbb)

	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)
	out := make([]byte, 6)
	n := h.SendConfReq(inst, st, out)
	if n != 6 {
		t.Fatalf("want 6 bytes, got %d", n)
	}
	want := []byte{18, 6, 0x01, 0x00, 0x00, 0x40}
	if !bytes.Equal(out, want) {
		t.Fatalf("want %x, got %x", want, out)
	}
	k := sess.Kernel().(*ccptest.Kernel)
	if k.RxInstalled == nil || k.RxInstalled.Key[0] != 0xaa {
		t.Fatalf("expected receive key installed, got %+v", k.RxInstalled)
	}
}

func TestMTUReducedAtMostOnce(t *testing.T) {
	inst, sess := newInstance(t)
	setKeys(t, inst, PolicyRequired, 0xaa, 0xbb)
	h := &handler{}
	st := inst.MustLocalOption(optionID).Data.(*state)

	in := []byte{18, 6, 0x01, 0x00, 0x00, 0x40}
	h.RecvConfReq(inst, st, in)
	h.RecvConfReq(inst, st, in)

	k := sess.Kernel().(*ccptest.Kernel)
	if k.MTU != 1496 {
		t.Fatalf("want MTU reduced exactly once to 1496, got %d", k.MTU)
	}
}

func TestPrint(t *testing.T) {
	h := &handler{}
	got := h.Print(nil, []byte{18, 6, 0x01, 0x00, 0x00, 0x40})
	want := "<mppe +H -M +S -L -D -C>"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestRecvConfRejFatalWhenRequired(t *testing.T) {
	h := &handler{}
	st := &state{policy: PolicyRequired}
	if err := h.RecvConfRej(nil, st, nil); err == nil {
		t.Fatalf("expected error for rejected required option")
	}

	st2 := &state{policy: PolicyAllowed}
	if err := h.RecvConfRej(nil, st2, nil); err != nil {
		t.Fatalf("expected no error for rejected allowed option, got %v", err)
	}
}
