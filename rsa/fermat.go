// Package rsa implements textbook RSA from scratch over math/big: Fermat
// probable-primality testing, key generation with public exponent 65537,
// and raw (unpadded) encrypt/decrypt. It is deliberately not a
// general-purpose RSA implementation — see the package doc on Encrypt.
package rsa

import (
	"crypto/rand"
	"io"
	"math/big"
)

var (
	big1 = big.NewInt(1)
	big2 = big.NewInt(2)
	big3 = big.NewInt(3)
)

// isProbablyPrime runs the Fermat test k times: for each trial it draws a
// uniformly in [2, n-2] and rejects n if a^(n-1) mod n != 1.
func isProbablyPrime(n *big.Int, k int) bool {
	if n.Cmp(big1) <= 0 {
		return false
	}
	if n.Cmp(big3) <= 0 {
		return true
	}

	nMinus1 := new(big.Int).Sub(n, big1)

	// a is drawn from [2, n-2], a range of (n-3) values starting at 2.
	span := new(big.Int).Sub(n, big.NewInt(3))

	for i := 0; i < k; i++ {
		r, err := rand.Int(rand.Reader, span)
		if err != nil {
			return false
		}
		a := new(big.Int).Add(r, big2)

		result := new(big.Int).Exp(a, nMinus1, n)
		if result.Cmp(big1) != 0 {
			return false
		}
	}

	return true
}

// generatePrime draws a probable prime of exactly bits bits: bit (bits-1)
// and bit 0 are forced to 1 to fix the magnitude and parity, then the
// candidate is retried until it survives iterations rounds of the Fermat
// test.
func generatePrime(bits, iterations int) (*big.Int, error) {
	if bits < 2 {
		bits = 2
	}

	numBytes := (bits + 7) / 8
	topBits := uint(bits % 8)

	buf := make([]byte, numBytes)
	for {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return nil, err
		}

		if topBits != 0 {
			buf[0] &= byte(1<<topBits) - 1
		}

		n := new(big.Int).SetBytes(buf)
		n.SetBit(n, bits-1, 1)
		n.SetBit(n, 0, 1)

		if isProbablyPrime(n, iterations) {
			return n, nil
		}
	}
}
