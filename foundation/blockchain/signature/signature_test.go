package signature_test

import (
	"strings"
	"testing"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/qbitcoin/qbitcoin/foundation/blockchain/signature"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	var seed [mode3.SeedSize]byte
	copy(seed[:], "qbitcoin signature test seed")

	pub, sec := signature.KeysFromSeed(seed)
	msg := []byte(`{"amount":12.5,"fee":0.0001,"recipient":"bob","sender":"alice"}`)

	sig, err := signature.Sign(msg, sec)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.Verify(msg, sig, pub) {
		t.Fatal("Should be able to verify the signature.")
	}

	if signature.Verify([]byte("tampered"), sig, pub) {
		t.Fatal("Should not verify a signature over different data.")
	}

	otherPub, _ := signature.KeysFromSeed([mode3.SeedSize]byte{1})
	if signature.Verify(msg, sig, otherPub) {
		t.Fatal("Should not verify a signature against a different public key.")
	}
}

func Test_VerifyMalformed(t *testing.T) {
	pub, sec := signature.KeysFromSeed([mode3.SeedSize]byte{2})

	sig, err := signature.Sign([]byte("data"), sec)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	cases := []struct {
		name string
		msg  []byte
		sig  string
		pub  string
	}{
		{"empty signature", []byte("data"), "", pub},
		{"non-hex signature", []byte("data"), "zzzz", pub},
		{"truncated signature", []byte("data"), sig[:64], pub},
		{"empty public key", []byte("data"), sig, ""},
		{"non-hex public key", []byte("data"), sig, "not-hex"},
		{"short public key", []byte("data"), sig, "abcd"},
	}

	for _, tc := range cases {
		if signature.Verify(tc.msg, tc.sig, tc.pub) {
			t.Errorf("Should return false for %s.", tc.name)
		}
	}
}

func Test_Hash(t *testing.T) {
	h1 := signature.Hash([]byte("qbitcoin"))
	h2 := signature.Hash([]byte("qbitcoin"))

	if h1 != h2 {
		t.Fatal("Should produce the same hash for the same data.")
	}

	if len(h1) != 64 {
		t.Fatalf("Should produce a 64 hex character digest, got %d.", len(h1))
	}

	if h1 == signature.Hash([]byte("qbitcoin2")) {
		t.Fatal("Should produce different hashes for different data.")
	}
}

func Test_PowDigest(t *testing.T) {
	p := signature.PowParams{Time: 1, MemoryKiB: 1024, Threads: 1}

	d1 := signature.PowDigest([]byte("header0"), p)
	d2 := signature.PowDigest([]byte("header0"), p)

	if d1 != d2 {
		t.Fatal("Should produce a deterministic proof of work digest.")
	}

	if len(d1) != 64 || strings.ToLower(d1) != d1 {
		t.Fatal("Should produce a 64 lowercase hex character digest.")
	}

	if d1 == signature.PowDigest([]byte("header1"), p) {
		t.Fatal("Should produce different digests for different nonces.")
	}
}
