package rsa

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrMessageTooLarge is returned by Encrypt when the plaintext, read as a
// big-endian integer, is not smaller than the modulus.
var ErrMessageTooLarge = errors.New("rsa: message too large for modulus")

// MinKeyBits is the smallest key size GenerateKeyPair accepts.
// Textbook RSA without padding is only safe here because the only
// plaintexts ever encrypted are short, high-entropy values (a username, or
// a serialized AES key) — this is not a general-purpose encryption scheme.
const MinKeyBits = 512

// PublicKey is (n, e).
type PublicKey struct {
	N *big.Int
	E *big.Int
}

// PrivateKey is (n, d). Held by one side only; never serialized.
type PrivateKey struct {
	N *big.Int
	D *big.Int
}

// GenerateKeyPair generates an RSA key pair from two distinct primes of
// bits/2 bits each, so the modulus is bits or bits-1 bits long, using
// iterations rounds of Fermat testing per prime candidate. The public
// exponent starts at 65537 and is incremented by 2 until it is coprime with
// phi(n).
func GenerateKeyPair(bits, iterations int) (*PrivateKey, *PublicKey, error) {
	if bits < MinKeyBits {
		return nil, nil, fmt.Errorf("rsa: key size must be at least %d bits, got %d", MinKeyBits, bits)
	}

	half := bits / 2

	var p, q *big.Int
	for {
		var err error
		p, err = generatePrime(half, iterations)
		if err != nil {
			return nil, nil, err
		}
		q, err = generatePrime(half, iterations)
		if err != nil {
			return nil, nil, err
		}
		if p.Cmp(q) != 0 {
			break
		}
	}

	n := new(big.Int).Mul(p, q)

	pMinus1 := new(big.Int).Sub(p, big1)
	qMinus1 := new(big.Int).Sub(q, big1)
	phi := new(big.Int).Mul(pMinus1, qMinus1)

	e := big.NewInt(65537)
	gcd := new(big.Int)
	for {
		gcd.GCD(nil, nil, e, phi)
		if gcd.Cmp(big1) == 0 {
			break
		}
		e = new(big.Int).Add(e, big2)
	}

	d := new(big.Int).ModInverse(e, phi)
	if d == nil {
		return nil, nil, errors.New("rsa: public exponent has no modular inverse")
	}

	return &PrivateKey{N: n, D: d}, &PublicKey{N: n, E: e}, nil
}

// Encrypt interprets message as a big-endian integer m and returns the
// big-endian encoding of m^e mod n.
//
// This is raw textbook RSA: no OAEP or PKCS#1 padding is applied. It is
// acceptable here only because every message ever passed to Encrypt in this
// protocol is short and already high-entropy (a username or a freshly
// generated AES key) — it must not be reused as a general-purpose cipher.
func (pub *PublicKey) Encrypt(message []byte) ([]byte, error) {
	m := new(big.Int).SetBytes(message)
	if m.Cmp(pub.N) >= 0 {
		return nil, ErrMessageTooLarge
	}

	c := new(big.Int).Exp(m, pub.E, pub.N)
	return c.Bytes(), nil
}

// Decrypt interprets cipherText as a big-endian integer c and returns the
// big-endian encoding of c^d mod n.
func (priv *PrivateKey) Decrypt(cipherText []byte) []byte {
	c := new(big.Int).SetBytes(cipherText)
	m := new(big.Int).Exp(c, priv.D, priv.N)
	return m.Bytes()
}

// Serialize encodes the public key as a 4-byte big-endian e followed by the
// big-endian encoding of n.
func (pub *PublicKey) Serialize() []byte {
	eBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(eBytes, uint32(pub.E.Uint64()))
	return append(eBytes, pub.N.Bytes()...)
}

// DeserializePublicKey parses the wire format written by Serialize, inferring
// the length of n from the remaining bytes.
func DeserializePublicKey(data []byte) (*PublicKey, error) {
	if len(data) < 4 {
		return nil, errors.New("rsa: serialized public key too short")
	}

	e := new(big.Int).SetUint64(uint64(binary.BigEndian.Uint32(data[:4])))
	n := new(big.Int).SetBytes(data[4:])

	return &PublicKey{N: n, E: e}, nil
}
