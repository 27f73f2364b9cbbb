package aes

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

// TestEncryptBlockKnownAnswer checks S1 from the spec: the NIST SP 800-38A
// AES-128 ECB-mode test vector.
func TestEncryptBlockKnownAnswer(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	plain := mustHex(t, "6bc1bee22e409f96e93d7e117393172a")
	want := mustHex(t, "3ad77bb40d7a3660a89ecaf32466ef97")

	rk, err := ExpandKey(key)
	if err != nil {
		t.Fatalf("ExpandKey: %v", err)
	}

	var block Block
	copy(block[:], plain)

	if err := EncryptBlock(&block, rk); err != nil {
		t.Fatalf("EncryptBlock: %v", err)
	}

	if !bytes.Equal(block[:], want) {
		t.Fatalf("ciphertext mismatch:\n got: %x\nwant: %x", block, want)
	}
}

// TestRoundTripAllKeySizes checks invariant 1: decrypt(encrypt(b)) == b for
// every supported key size.
func TestRoundTripAllKeySizes(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		keyLen := keyLen
		t.Run(string(rune('0'+keyLen/8)), func(t *testing.T) {
			key := bytes.Repeat([]byte{0x42}, keyLen)
			plain := [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

			rk, err := ExpandKey(key)
			if err != nil {
				t.Fatalf("ExpandKey: %v", err)
			}

			block := Block(plain)
			if err := EncryptBlock(&block, rk); err != nil {
				t.Fatalf("EncryptBlock: %v", err)
			}
			if err := DecryptBlock(&block, rk); err != nil {
				t.Fatalf("DecryptBlock: %v", err)
			}

			if block != Block(plain) {
				t.Fatalf("round trip mismatch: got %x, want %x", block, plain)
			}
		})
	}
}

func TestExpandKeyRejectsBadLength(t *testing.T) {
	if _, err := ExpandKey(make([]byte, 20)); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}
