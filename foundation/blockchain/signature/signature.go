// Package signature provides the cryptographic primitives for the blockchain:
// SHA3-256 content hashing, Dilithium post-quantum signatures, and the
// Argon2id memory-hard digest used by the proof of work.
package signature

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/sha3"
)

// ZeroAccount represents the sender of a coinbase transaction. Coinbase
// transactions mint new coin so there is no account to debit.
const ZeroAccount = "0000000000000000000000000000000000000000000000000000000000000000"

// ZeroHash represents the previous hash of the genesis block.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Hash returns the SHA3-256 hash of the data as a lowercase hex string.
func Hash(data []byte) string {
	hash := sha3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// GenerateKeys constructs a new Dilithium mode3 keypair. The hex encoding of
// the public key is the account identity on the chain.
func GenerateKeys() (publicHex string, secretHex string, err error) {
	pk, sk, err := mode3.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate keys: %w", err)
	}

	return hex.EncodeToString(pk.Bytes()), hex.EncodeToString(sk.Bytes()), nil
}

// KeysFromSeed derives a keypair from a fixed seed. This exists to produce
// stable accounts inside tests.
func KeysFromSeed(seed [mode3.SeedSize]byte) (publicHex string, secretHex string) {
	pk, sk := mode3.NewKeyFromSeed(&seed)
	return hex.EncodeToString(pk.Bytes()), hex.EncodeToString(sk.Bytes())
}

// Sign signs the message with the hex encoded secret key and returns the
// hex encoded signature.
func Sign(msg []byte, secretHex string) (string, error) {
	skData, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("decode secret key: %w", err)
	}

	var sk mode3.PrivateKey
	if err := sk.UnmarshalBinary(skData); err != nil {
		return "", fmt.Errorf("unmarshal secret key: %w", err)
	}

	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(&sk, msg, sig)

	return hex.EncodeToString(sig), nil
}

// Verify reports whether the hex encoded signature over the message was
// produced by the hex encoded public key. Malformed input of any kind
// yields false, never an error or panic.
func Verify(msg []byte, signatureHex string, publicHex string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != mode3.SignatureSize {
		return false
	}

	pkData, err := hex.DecodeString(publicHex)
	if err != nil {
		return false
	}

	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(pkData); err != nil {
		return false
	}

	return mode3.Verify(&pk, msg, sig)
}

// =============================================================================

// PowParams carries the Argon2id tuning used by the proof of work. The
// values ship in the genesis file so all nodes run the same puzzle.
type PowParams struct {
	Time      uint32 `json:"time"`
	MemoryKiB uint32 `json:"memory_kib"`
	Threads   uint8  `json:"threads"`
}

// PowDigest runs the two stage proof of work digest: an Argon2id pass over
// the data makes the work memory-bound, then a SHA3-256 of the textual
// Argon2 output produces the cheap-to-compare hex digest. The salt is
// derived from the data itself so the digest is deterministic and any node
// can re-run the same check for a single nonce.
func PowDigest(data []byte, p PowParams) string {
	salt := sha3.Sum256(data)
	key := argon2.IDKey(data, salt[:16], p.Time, p.MemoryKiB, p.Threads, 32)

	text := base64.RawStdEncoding.EncodeToString(key)
	return Hash([]byte(text))
}
