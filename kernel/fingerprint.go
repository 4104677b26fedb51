package kernel

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// KeyFingerprint returns a short, non-reversible fingerprint of an MPPE
// session key suitable for diagnostic log lines ("mppe: installed send
// key fp=..."); the raw key itself must never be logged.
func KeyFingerprint(key [16]byte) string {
	sum := blake2b.Sum256(key[:])
	return hex.EncodeToString(sum[:8])
}
