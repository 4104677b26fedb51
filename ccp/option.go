package ccp

// OptState is the negotiation state of one option, either as last
// observed on a Local Option or as resolved for one Received Option
// while walking an inbound Configure-Request.
type OptState int

// Ordering matters: processConfReq picks the minimum of all Received
// Option states under this ordering (most-negative wins), and its "once
// any option has been resolved, everything after is forced to REJ" rule
// depends on OptReject sorting below OptNak/OptAck.
const (
	OptNone OptState = iota
	OptReject
	OptNak
	OptAck
	// OptFail is a distinguished aggregate result that, if ever produced by
	// a handler, causes the whole ConfReq walk to fail the session. No
	// handler in this module returns it; spec.md §9 flags its numeric
	// relationship to the ACK/NAK/REJ ordering as unconfirmed, so it is
	// kept out of the normal ordering entirely and checked for explicitly.
	OptFail
)

func (s OptState) String() string {
	switch s {
	case OptNone:
		return "NONE"
	case OptReject:
		return "REJ"
	case OptNak:
		return "NAK"
	case OptAck:
		return "ACK"
	case OptFail:
		return "FAIL"
	default:
		return "?"
	}
}

// Handler is the polymorphic contract every CCP option module satisfies
// (spec.md §4.3). A process-wide, append-only list of handlers is built
// by Register; each handler contributes at most one Local Option per CCP
// Instance.
type Handler interface {
	// OptionID is the one-byte CCP option id this handler negotiates
	// (e.g. 18 for MPPE).
	OptionID() byte

	// Init creates per-session state for this option, returning its
	// encoded Configure-Request length (2-byte header included) and
	// true, or (_, _, false) to decline participation entirely for this
	// session. The length mirrors the source's opt.len field, set once
	// by the handler's own init and cached by the CCP layer.
	Init(inst *Instance) (state interface{}, length int, ok bool)

	// Free releases per-session state created by Init.
	Free(inst *Instance, state interface{})

	// SendConfReq writes 0..N bytes of this option's Configure-Request
	// form into out, returning the number of bytes written. Returning 0
	// omits the option this round; a negative return aborts the entire
	// outbound Configure-Request (treated as fatal by the CCP layer).
	SendConfReq(inst *Instance, state interface{}, out []byte) int

	// SendConfNak writes this option's counter-proposal into out, used
	// when the peer's last Configure-Request needs a Configure-Nak
	// reply. A handler may alias this directly to SendConfReq.
	SendConfNak(inst *Instance, state interface{}, out []byte) int

	// RecvConfReq judges one option entry from a peer's Configure-Request.
	RecvConfReq(inst *Instance, state interface{}, in []byte) OptState

	// RecvConfNak reacts to the peer NAK-ing what we proposed. A non-nil
	// return is fatal for the session.
	RecvConfNak(inst *Instance, state interface{}, in []byte) error

	// Print renders a human-readable form of the option. If in is nil,
	// the handler should synthesize a description of its own local
	// state instead of parsing wire bytes.
	Print(state interface{}, in []byte) string
}

// ConfRejReactor is implemented by handlers that want to react when the
// peer rejects an option they proposed (spec.md §4.3 recv_conf_rej). A
// handler that does not implement it gets the source's documented
// fallback: any REJ of that option is itself treated as fatal for the
// session.
type ConfRejReactor interface {
	RecvConfRej(inst *Instance, state interface{}, in []byte) error
}

// ConfAckReactor is implemented by handlers that want an optional
// confirmation hook when the peer acknowledges an option they proposed
// (spec.md §4.3 recv_conf_ack). Handlers that don't need it simply don't
// implement this interface.
type ConfAckReactor interface {
	RecvConfAck(inst *Instance, state interface{}, in []byte) error
}

// LocalOption is one entry in a CCP Instance's ordered option list,
// contributed by exactly one registered Handler.
type LocalOption struct {
	ID      byte
	Len     int // encoded length, cached once per session
	Handler Handler
	State   OptState
	Data    interface{} // opaque, owned by Handler
}

// ReceivedOption is a parsed view over one option entry inside an
// incoming Configure-Request. It is valid only for the duration of
// processing that single packet.
type ReceivedOption struct {
	ID    byte
	Raw   []byte // header + data, length clamped to remaining packet size
	State OptState
	Local *LocalOption // nil if this option id has no matching handler
}
