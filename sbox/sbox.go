// Package sbox builds the AES substitution tables.
package sbox

import "github.com/rbkdev/securechat/galois"

// Box is a byte permutation: the forward S-Box or its inverse.
type Box [256]byte

func rotL8(x byte, shift uint) byte {
	return byte((x << shift) | (x >> (8 - shift)))
}

// inverse returns the multiplicative inverse of a in GF(2^8), or 0 for a==0
// (the AES convention). The field's nonzero elements form a group of order
// 255, so by Fermat's little theorem a^254 = a^-1; this computes that power
// by repeated squaring over galois.Mul, the same primitive AES's MixColumns
// is built on.
func inverse(a byte) byte {
	if a == 0 {
		return 0
	}

	const exponent = 254 // |GF(2^8)*| - 1
	result := byte(1)
	base := a
	for e := exponent; e > 0; e >>= 1 {
		if e&1 != 0 {
			result = galois.Mul(result, base)
		}
		base = galois.Mul(base, base)
	}
	return result
}

// affine applies the AES S-Box's fixed affine transform over GF(2).
func affine(b byte) byte {
	return b ^ rotL8(b, 1) ^ rotL8(b, 2) ^ rotL8(b, 3) ^ rotL8(b, 4) ^ 0x63
}

// New computes the forward AES S-Box: the multiplicative inverse of every
// byte in GF(2^8), followed by the fixed affine transform (no hardcoded
// table).
func New() *Box {
	box := new(Box)
	for i := 0; i < 256; i++ {
		box[i] = affine(inverse(byte(i)))
	}
	return box
}

// Invert returns the inverse permutation of box.
func Invert(box *Box) *Box {
	inv := new(Box)
	for i, v := range box {
		inv[v] = byte(i)
	}
	return inv
}
