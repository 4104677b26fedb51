package fsm

import (
	"testing"
	"time"
)

func timeoutAfter(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}

type recorder struct {
	events []string
}

func (r *recorder) LayerUp()       { r.events = append(r.events, "up") }
func (r *recorder) LayerFinished() { r.events = append(r.events, "finished") }
func (r *recorder) SendConfReq()   { r.events = append(r.events, "confreq") }
func (r *recorder) SendConfAck()   { r.events = append(r.events, "confack") }
func (r *recorder) SendConfNak()   { r.events = append(r.events, "confnak") }
func (r *recorder) SendConfRej()   { r.events = append(r.events, "confrej") }
func (r *recorder) SendTermReq()   { r.events = append(r.events, "termreq") }
func (r *recorder) SendTermAck()   { r.events = append(r.events, "termack") }

func TestBasicOpenToOpened(t *testing.T) {
	r := &recorder{}
	f := New(r)
	if f.State() != StateInitial {
		t.Fatalf("want Initial, got %v", f.State())
	}
	f.Open()
	if f.State() != StateStarting {
		t.Fatalf("want Starting, got %v", f.State())
	}
	f.LowerUp()
	if f.State() != StateReqSent {
		t.Fatalf("want Req-Sent, got %v", f.State())
	}
	f.RecvConfAck()
	if f.State() != StateAckRcvd {
		t.Fatalf("want Ack-Rcvd, got %v", f.State())
	}
	f.RecvConfReq(ConfReqAck)
	if f.State() != StateOpened {
		t.Fatalf("want Opened, got %v", f.State())
	}
	found := false
	for _, e := range r.events {
		if e == "up" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected LayerUp callback, got %v", r.events)
	}
}

func TestCloseFromOpened(t *testing.T) {
	r := &recorder{}
	f := New(r)
	f.Open()
	f.LowerUp()
	f.RecvConfAck()
	f.RecvConfReq(ConfReqAck)
	if f.State() != StateOpened {
		t.Fatalf("setup failed, state=%v", f.State())
	}
	f.Close()
	if f.State() != StateClosing {
		t.Fatalf("want Closing, got %v", f.State())
	}
	f.RecvTermAck()
	if f.State() != StateClosed {
		t.Fatalf("want Closed, got %v", f.State())
	}
}

func TestForceClosed(t *testing.T) {
	r := &recorder{}
	f := New(r)
	f.Open()
	f.LowerUp()
	f.ForceClosed()
	if f.State() != StateClosed {
		t.Fatalf("want Closed, got %v", f.State())
	}
}

// reentrantCallbacks models a real Callbacks implementation whose
// SendConfReq/SendTermReq call back into the FSM on the same goroutine
// (as Instance.SendConfReq/SendTermReq do via NextID). Event must not
// hold f.mu while invoking these, or this test hangs.
type reentrantCallbacks struct {
	f    *FSM
	ids  []uint8
	done chan struct{}
}

func (r *reentrantCallbacks) LayerUp()       {}
func (r *reentrantCallbacks) LayerFinished() {}
func (r *reentrantCallbacks) SendConfReq()   { r.ids = append(r.ids, r.f.NextID()) }
func (r *reentrantCallbacks) SendConfAck()   {}
func (r *reentrantCallbacks) SendConfNak()   {}
func (r *reentrantCallbacks) SendConfRej()   {}
func (r *reentrantCallbacks) SendTermReq()   { r.ids = append(r.ids, r.f.NextID()) }
func (r *reentrantCallbacks) SendTermAck()   {}

func TestEventDoesNotDeadlockOnReentrantCallbacks(t *testing.T) {
	r := &reentrantCallbacks{done: make(chan struct{})}
	f := New(r)
	r.f = f

	go func() {
		f.Open()
		f.LowerUp()
		f.Close()
		close(r.done)
	}()

	select {
	case <-r.done:
	case <-timeoutAfter(t):
		t.Fatalf("Event deadlocked calling back into the FSM from a callback")
	}

	if len(r.ids) == 0 {
		t.Fatalf("expected SendConfReq/SendTermReq to have called NextID")
	}
}
