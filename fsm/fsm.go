// Package fsm implements the generic PPP control-protocol finite-state
// machine described in RFC 1661 §4. It is deliberately protocol-agnostic:
// CCP drives one instance of it in this module, and the same shape is
// meant to be reusable for LCP, IPCP or any other PPP control protocol that
// negotiates options via Configure-Request/Ack/Nak/Reject.
//
// The machine owns its own restart timer and retry counters but knows
// nothing about option semantics or wire formats; the owning protocol
// supplies those through the Callbacks interface.
package fsm

import (
	"sync"
	"time"
)

// State is one of the ten states of the RFC 1661 §4.1 state table.
type State int

const (
	StateInitial State = iota
	StateStarting
	StateClosed
	StateStopped
	StateClosing
	StateStopping
	StateReqSent
	StateAckRcvd
	StateAckSent
	StateOpened
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateStarting:
		return "Starting"
	case StateClosed:
		return "Closed"
	case StateStopped:
		return "Stopped"
	case StateClosing:
		return "Closing"
	case StateStopping:
		return "Stopping"
	case StateReqSent:
		return "Req-Sent"
	case StateAckRcvd:
		return "Ack-Rcvd"
	case StateAckSent:
		return "Ack-Sent"
	case StateOpened:
		return "Opened"
	default:
		return "Unknown"
	}
}

// Event is one of the inputs to the state table: either a local request
// (Open/Close/lower layer up-down) or the classification of a received
// packet (RCR+/RCR-/RCA/RCN/RTR/RTA/RUC/RXJ+/RXJ-), plus the internally
// generated restart-timer expiry (TO+/TO-).
type Event int

const (
	EventUp Event = iota
	EventDown
	EventOpen
	EventClose
	EventTOPlus
	EventTOMinus
	// EventRCRAck is RFC 1661's RCR+: the peer's Configure-Request was
	// fully acceptable.
	EventRCRAck
	// EventRCRNak and EventRCRRej both implement RFC 1661's RCR-: the
	// peer's Configure-Request needs to be answered with a counter-
	// proposal (Nak) or an outright rejection (Rej). They drive
	// identical state transitions but tell the owning protocol which of
	// SendConfNak/SendConfRej to invoke (spec.md §4.1's ConfReq row
	// maps to "recv_conf_req_{ack,nak,rej}", three distinct events).
	EventRCRNak
	EventRCRRej
	EventRCA
	EventRCN
	EventRTR
	EventRTA
	EventRUC
	EventRXJPlus
	EventRXJMinus
)

// Callbacks is implemented by the protocol layered over the FSM (CCP, in
// this module). The FSM invokes these at the points mandated by the RFC
// 1661 state table; none of them may block.
type Callbacks interface {
	LayerUp()
	LayerFinished()
	SendConfReq()
	SendConfAck()
	SendConfNak()
	SendConfRej()
	SendTermReq()
	SendTermAck()
}

const (
	DefaultMaxConfigure = 10
	DefaultMaxTerminate = 2
	DefaultMaxFailure   = 5
	DefaultTimeout      = 3 * time.Second
)

// FSM is one instance of the RFC 1661 §4 state machine.
type FSM struct {
	MaxConfigure int
	MaxTerminate int
	MaxFailure   int
	Timeout      time.Duration

	// AfterFunc lets tests substitute a deterministic timer; defaults to
	// time.AfterFunc.
	AfterFunc func(time.Duration, func()) *time.Timer

	cb Callbacks

	mu            sync.Mutex
	state         State
	restartCount  int
	failureCount  int
	id            uint8 // last id we sent in a Configure-Request
	RecvID        uint8 // id of the most recently received packet
	timer         *time.Timer
	timerRunning  bool
}

// New creates an FSM in the Initial state.
func New(cb Callbacks) *FSM {
	return &FSM{
		MaxConfigure: DefaultMaxConfigure,
		MaxTerminate: DefaultMaxTerminate,
		MaxFailure:   DefaultMaxFailure,
		Timeout:      DefaultTimeout,
		AfterFunc:    time.AfterFunc,
		cb:           cb,
		state:        StateInitial,
	}
}

// State returns the current state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// NextID increments and returns the identifier to use in the next
// Configure-Request or Terminate-Request this protocol sends.
func (f *FSM) NextID() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id++
	return f.id
}

// LastID returns the identifier of the last Configure-Request/Terminate-
// Request sent, used to match incoming Ack/Nak/Rej frames.
func (f *FSM) LastID() uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *FSM) setState(s State) {
	f.state = s
}

func (f *FSM) stopTimer() {
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timerRunning = false
}

func (f *FSM) startTimer() {
	f.stopTimer()
	f.restartCount--
	f.timerRunning = true
	f.timer = f.AfterFunc(f.Timeout, func() {
		f.mu.Lock()
		running := f.timerRunning
		f.mu.Unlock()
		if !running {
			return
		}
		if f.restartCount > 0 {
			f.Event(EventTOPlus)
		} else {
			f.Event(EventTOMinus)
		}
	})
}

// LowerUp signals that the lower layer (the link itself) has come up.
func (f *FSM) LowerUp() {
	f.Event(EventUp)
}

// LowerDown signals the lower layer going away.
func (f *FSM) LowerDown() {
	f.Event(EventDown)
}

// Open requests that this protocol start (or continue) negotiating.
func (f *FSM) Open() error {
	f.Event(EventOpen)
	return nil
}

// Close requests that this protocol stop negotiating and terminate any
// open connection.
func (f *FSM) Close() {
	f.Event(EventClose)
}

// ForceClosed drives the state directly to Closed without sending any
// packets or invoking callbacks; used when the outer session is tearing
// down and I/O is no longer possible.
func (f *FSM) ForceClosed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopTimer()
	f.setState(StateClosed)
}

// RecvConfReqResult is the three-way outcome of the inbound Configure-
// Request option walk (spec.md §4.2), fed to RecvConfReq.
type RecvConfReqResult int

const (
	ConfReqAck RecvConfReqResult = iota
	ConfReqNak
	ConfReqRej
)

// RecvConfReq feeds the result of processing an inbound Configure-Request.
// Spec.md §4.1 maps the aggregate option-walk result onto three distinct
// FSM events rather than RFC 1661's collapsed RCR+/RCR-, because the
// owning protocol needs to know whether to call SendConfNak or
// SendConfRej next.
func (f *FSM) RecvConfReq(result RecvConfReqResult) {
	switch result {
	case ConfReqAck:
		f.Event(EventRCRAck)
	case ConfReqNak:
		f.Event(EventRCRNak)
	case ConfReqRej:
		f.Event(EventRCRRej)
	}
}

// RecvConfAck feeds a received Configure-Ack.
func (f *FSM) RecvConfAck() { f.Event(EventRCA) }

// RecvConfRej feeds a received Configure-Nak or Configure-Reject; per
// RFC 1661 both drive the RCN transition (the FSM does not distinguish
// them beyond that point).
func (f *FSM) RecvConfRej() { f.Event(EventRCN) }

// RecvTermReq feeds a received Terminate-Request.
func (f *FSM) RecvTermReq() { f.Event(EventRTR) }

// RecvTermAck feeds a received Terminate-Ack.
func (f *FSM) RecvTermAck() { f.Event(EventRTA) }

// RecvUnknownCode feeds an unrecognized code.
func (f *FSM) RecvUnknownCode() { f.Event(EventRUC) }

// RecvCodeRejectBad feeds a Code-Reject for a code we consider
// catastrophic (our own Configure-Request code was rejected).
func (f *FSM) RecvCodeRejectBad() { f.Event(EventRXJMinus) }

// RecvCodeRejectOK feeds a Code-Reject for a code we can tolerate.
func (f *FSM) RecvCodeRejectOK() { f.Event(EventRXJPlus) }

// Event drives the state machine with a single input. It implements the
// RFC 1661 §4.1 state transition table.
//
// f.mu is held only for the bookkeeping below (state, counters, timer);
// every Callbacks invocation is queued into actions and run after the
// lock is released. Callbacks routinely call back into the FSM on the
// same goroutine (Instance.SendConfReq/SendTermReq call NextID, for
// instance), so invoking them while still holding f.mu would self-
// deadlock on the very first real session, since mu is not reentrant.
func (f *FSM) Event(e Event) {
	f.mu.Lock()

	var actions []func()
	call := func(fn func()) {
		if fn != nil {
			actions = append(actions, fn)
		}
	}

	switch f.state {
	case StateInitial:
		switch e {
		case EventUp:
			f.setState(StateClosed)
		case EventOpen:
			f.setState(StateStarting)
		}
	case StateStarting:
		switch e {
		case EventUp:
			f.restartCount = f.MaxConfigure
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventClose:
			f.setState(StateInitial)
		}
	case StateClosed:
		switch e {
		case EventDown:
			f.setState(StateInitial)
		case EventOpen:
			f.restartCount = f.MaxConfigure
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventRCRAck, EventRCRNak, EventRCRRej:
			call(f.cb.SendTermAck)
		}
	case StateStopped:
		switch e {
		case EventDown:
			f.setState(StateStarting)
		case EventClose:
			f.setState(StateClosed)
		case EventRCRAck, EventRCRNak, EventRCRRej:
			f.restartCount = f.MaxConfigure
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
			call(f.sendRCR(e))
		case EventRXJPlus:
			f.restartCount = f.MaxConfigure
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		}
	case StateClosing:
		switch e {
		case EventDown:
			f.setState(StateInitial)
		case EventOpen:
			f.setState(StateStopping)
		case EventTOPlus:
			call(f.cb.SendTermReq)
			f.startTimer()
		case EventTOMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateClosed)
		case EventRTR:
			call(f.cb.SendTermAck)
		case EventRTA, EventRUC, EventRXJMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateClosed)
		}
	case StateStopping:
		switch e {
		case EventDown:
			f.setState(StateStarting)
		case EventClose:
			f.setState(StateClosing)
		case EventTOPlus:
			call(f.cb.SendTermReq)
			f.startTimer()
		case EventTOMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		case EventRTR:
			call(f.cb.SendTermAck)
		case EventRTA, EventRUC, EventRXJMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		}
	case StateReqSent:
		switch e {
		case EventDown:
			f.setState(StateStarting)
		case EventClose:
			f.stopTimer()
			call(f.cb.SendTermReq)
			f.restartCount = f.MaxTerminate
			f.startTimer()
			f.setState(StateClosing)
		case EventTOPlus:
			call(f.cb.SendConfReq)
			f.startTimer()
		case EventTOMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		case EventRCRAck:
			call(f.cb.SendConfAck)
			f.setState(StateAckSent)
		case EventRCRNak, EventRCRRej:
			call(f.sendRCR(e))
		case EventRCA:
			f.restartCount = f.MaxConfigure
			f.setState(StateAckRcvd)
		case EventRCN:
			f.restartCount = f.MaxConfigure
			call(f.cb.SendConfReq)
			f.startTimer()
		case EventRTR:
			call(f.cb.SendTermAck)
		case EventRTA:
			// ignored
		case EventRUC:
			// handled upstream (Code-Reject sent by protocol, if any)
		case EventRXJMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		}
	case StateAckRcvd:
		switch e {
		case EventDown:
			f.setState(StateStarting)
		case EventClose:
			f.stopTimer()
			call(f.cb.SendTermReq)
			f.restartCount = f.MaxTerminate
			f.startTimer()
			f.setState(StateClosing)
		case EventTOPlus, EventTOMinus:
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventRCRAck:
			f.stopTimer()
			call(f.cb.SendConfAck)
			call(f.cb.LayerUp)
			f.setState(StateOpened)
		case EventRCRNak, EventRCRRej:
			call(f.sendRCR(e))
		case EventRCA, EventRCN:
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventRTR:
			call(f.cb.SendTermAck)
		case EventRXJMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		}
	case StateAckSent:
		switch e {
		case EventDown:
			f.setState(StateStarting)
		case EventClose:
			f.stopTimer()
			call(f.cb.SendTermReq)
			f.restartCount = f.MaxTerminate
			f.startTimer()
			f.setState(StateClosing)
		case EventTOPlus:
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventTOMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		case EventRCRAck:
			call(f.cb.SendConfAck)
		case EventRCRNak, EventRCRRej:
			call(f.sendRCR(e))
			f.setState(StateReqSent)
		case EventRCA:
			f.stopTimer()
			call(f.cb.LayerUp)
			f.setState(StateOpened)
		case EventRCN:
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventRTR:
			call(f.cb.SendTermAck)
			f.setState(StateReqSent)
		case EventRXJMinus:
			f.stopTimer()
			call(f.cb.LayerFinished)
			f.setState(StateStopped)
		}
	case StateOpened:
		switch e {
		case EventDown:
			call(f.cb.LayerFinished)
			f.setState(StateStarting)
		case EventClose:
			call(f.cb.SendTermReq)
			f.restartCount = f.MaxTerminate
			f.startTimer()
			f.setState(StateClosing)
		case EventRCRAck:
			call(f.cb.LayerFinished)
			call(f.cb.SendConfReq)
			call(f.cb.SendConfAck)
			f.startTimer()
			f.setState(StateAckSent)
		case EventRCRNak, EventRCRRej:
			call(f.cb.LayerFinished)
			call(f.cb.SendConfReq)
			call(f.sendRCR(e))
			f.startTimer()
			f.setState(StateReqSent)
		case EventRCA, EventRCN:
			call(f.cb.LayerFinished)
			call(f.cb.SendConfReq)
			f.startTimer()
			f.setState(StateReqSent)
		case EventRTR:
			call(f.cb.LayerFinished)
			call(f.cb.SendTermAck)
			f.setState(StateStopping)
		case EventRXJMinus:
			call(f.cb.LayerFinished)
			f.stopTimer()
			f.setState(StateStopped)
		}
	}

	f.mu.Unlock()
	for _, fn := range actions {
		fn()
	}
}

// sendRCR returns the Callbacks method to invoke for whichever RCR event
// fired (SendConfAck, SendConfNak or SendConfRej), for the caller to queue
// via call() rather than invoke directly; kept as a helper to avoid
// duplicating the dispatch in every state's RCRNak/RCRRej case body.
func (f *FSM) sendRCR(e Event) func() {
	switch e {
	case EventRCRAck:
		return f.cb.SendConfAck
	case EventRCRNak:
		return f.cb.SendConfNak
	case EventRCRRej:
		return f.cb.SendConfRej
	}
	return nil
}
