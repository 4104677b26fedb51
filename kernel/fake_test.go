package kernel

import "testing"

func TestFakeConfigInstallCompressionFails(t *testing.T) {
	f := NewFakeConfig()
	var key [16]byte
	if err := f.InstallCompression(true, nil, key); err == nil {
		t.Fatalf("expected InstallCompression to fail gracefully")
	}
}

func TestFakeConfigMTU(t *testing.T) {
	f := NewFakeConfig()
	if mtu, _ := f.GetMTU(); mtu != 1500 {
		t.Fatalf("want default MTU 1500, got %d", mtu)
	}
	if err := f.SetMTU(1496); err != nil {
		t.Fatalf("SetMTU: %v", err)
	}
	if mtu, _ := f.GetMTU(); mtu != 1496 {
		t.Fatalf("want MTU 1496, got %d", mtu)
	}
}

func TestKeyFingerprintIsStableAndNonReversible(t *testing.T) {
	var key [16]byte
	key[0] = 0xaa
	fp1 := KeyFingerprint(key)
	fp2 := KeyFingerprint(key)
	if fp1 != fp2 {
		t.Fatalf("fingerprint not stable: %q vs %q", fp1, fp2)
	}
	if fp1 == "aa00000000000000" {
		t.Fatalf("fingerprint looks like the raw key, not a hash")
	}
}
