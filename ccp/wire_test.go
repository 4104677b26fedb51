package ccp

import (
	"bytes"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	pkt := &Packet{Code: CodeConfReq, ID: 7, Options: []byte{18, 6, 1, 0, 0, 0x40}}
	raw, err := pkt.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	got := &Packet{}
	if err := got.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.Code != pkt.Code || got.ID != pkt.ID || !bytes.Equal(got.Options, pkt.Options) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, pkt)
	}
}

func TestUnmarshalShortPacket(t *testing.T) {
	pkt := &Packet{}
	if err := pkt.UnmarshalBinary([]byte{1, 2, 3}); err != ErrShortPacket {
		t.Fatalf("want ErrShortPacket, got %v", err)
	}
}

func TestUnmarshalClampsDeclaredLength(t *testing.T) {
	// Declared length says 100 bytes, but only 6 are actually present.
	data := []byte{1, 5, 0, 100, 18, 6}
	pkt := &Packet{}
	if err := pkt.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !bytes.Equal(pkt.Options, []byte{18, 6}) {
		t.Fatalf("want clamped options [18 6], got %x", pkt.Options)
	}
}

func TestWalkOptionsClampsOverlongOption(t *testing.T) {
	// opt-id=18, opt-len declared as 10, but only 4 bytes remain.
	entries := walkOptions([]byte{18, 10, 1, 2})
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	if !bytes.Equal(entries[0], []byte{18, 10, 1, 2}) {
		t.Fatalf("want clamped entry, got %x", entries[0])
	}
}

func TestWalkOptionsDanglingByte(t *testing.T) {
	entries := walkOptions([]byte{18, 4, 1, 2, 3})
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
}

func TestWalkOptionsMultiple(t *testing.T) {
	entries := walkOptions([]byte{0xfe, 4, 0xaa, 0xbb, 18, 6, 1, 0, 0, 0x40})
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	if !bytes.Equal(entries[0], []byte{0xfe, 4, 0xaa, 0xbb}) {
		t.Fatalf("unexpected first entry: %x", entries[0])
	}
	if !bytes.Equal(entries[1], []byte{18, 6, 1, 0, 0, 0x40}) {
		t.Fatalf("unexpected second entry: %x", entries[1])
	}
}
