package ccp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// PPPProtocolNumber is the PPP protocol field value that identifies a
// frame as carrying a CCP packet (spec.md §6).
const PPPProtocolNumber = layers.PPPType(0x80fd)

// Code identifies the type of one CCP packet, reusing the generic PPP
// configure-protocol code space (RFC 1661 §5).
type Code uint8

const (
	CodeConfReq Code = iota + 1
	CodeConfAck
	CodeConfNak
	CodeConfRej
	CodeTermReq
	CodeTermAck
	CodeCodeRej
)

func (c Code) String() string {
	switch c {
	case CodeConfReq:
		return "ConfReq"
	case CodeConfAck:
		return "ConfAck"
	case CodeConfNak:
		return "ConfNak"
	case CodeConfRej:
		return "ConfRej"
	case CodeTermReq:
		return "TermReq"
	case CodeTermAck:
		return "TermAck"
	case CodeCodeRej:
		return "CodeRej"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// headerLen is the size of the fixed CCP header: code, id, length.
const headerLen = 4

var ErrShortPacket = errors.New("ccp: packet shorter than header")

// LayerTypeCCP registers the gopacket layer used to decode and serialize
// CCP packets, following the same registration pattern as the teacher's
// LCP layer (pptp/lcp/lcp.go).
var LayerTypeCCP = gopacket.RegisterLayerType(1819, gopacket.LayerTypeMetadata{
	Name:    "CCP",
	Decoder: gopacket.DecodeFunc(decodeCCP),
})

// Packet is a gopacket layer representing one CCP message: the 4-byte
// header plus the raw option bytes that follow it. Per-option semantics
// are handled above this layer by the option walk in confreq.go; Packet
// only knows about the envelope.
type Packet struct {
	layers.BaseLayer
	Code    Code
	ID      uint8
	Options []byte // raw bytes after the header, for ConfReq/Ack/Nak/Rej
}

func (p *Packet) LayerType() gopacket.LayerType { return LayerTypeCCP }

// UnmarshalBinary parses a CCP packet from data, which must be at least
// headerLen bytes. The declared length field is validated but clamping of
// individual option entries happens in walkOptions, not here.
func (p *Packet) UnmarshalBinary(data []byte) error {
	if len(data) < headerLen {
		return ErrShortPacket
	}
	p.Code = Code(data[0])
	p.ID = data[1]
	declared := binary.BigEndian.Uint16(data[2:4])
	if int(declared) < headerLen {
		return fmt.Errorf("ccp: declared length %d below header size", declared)
	}
	end := int(declared)
	if end > len(data) {
		end = len(data)
	}
	p.Options = append([]byte{}, data[headerLen:end]...)
	p.Contents = data[:end]
	p.Payload = nil
	return nil
}

// MarshalBinary serializes the packet to wire format. Unlike the
// teacher's LCP layer (which left `// TODO: Implement SerializeTo` as a
// stub), CCP's outbound paths need a working marshaler: it backs the
// ConfReq/ConfNak/ConfRej sends in confreq.go and the TermReq/TermAck
// sends in layer.go (ConfAck echoes the received bytes directly).
func (p *Packet) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerLen+len(p.Options))
	buf[0] = byte(p.Code)
	buf[1] = p.ID
	binary.BigEndian.PutUint16(buf[2:4], uint16(headerLen+len(p.Options)))
	copy(buf[headerLen:], p.Options)
	return buf, nil
}

// SerializeTo implements gopacket.SerializableLayer.
func (p *Packet) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	bytes, err := b.PrependBytes(len(data))
	if err != nil {
		return err
	}
	copy(bytes, data)
	return nil
}

var (
	_ gopacket.SerializableLayer = (*Packet)(nil)
	_ gopacket.Layer             = (*Packet)(nil)
)

func decodeCCP(data []byte, p gopacket.PacketBuilder) error {
	pkt := &Packet{}
	if err := pkt.UnmarshalBinary(data); err != nil {
		return err
	}
	p.AddLayer(pkt)
	return nil
}

// optHeaderLen is the size of one option's id+len prefix.
const optHeaderLen = 2

// walkOptions splits a raw option byte region into a sequence of
// (headerAndData) slices, clamping any option whose declared length
// exceeds what remains in the buffer (spec.md §4.2 step 1, §7
// "wire-malformed"). It never returns an error: malformed-but-parseable
// suffixes are preserved so they can be rejected by the caller, exactly
// as a peer's Configure-Request should be.
func walkOptions(data []byte) [][]byte {
	var out [][]byte
	for len(data) > 0 {
		if len(data) < optHeaderLen {
			// A single dangling byte: clamp it into its own malformed
			// entry so it still shows up (and gets rejected) rather
			// than silently vanishing.
			out = append(out, data)
			break
		}
		declared := int(data[1])
		if declared < optHeaderLen {
			declared = optHeaderLen
		}
		n := declared
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
