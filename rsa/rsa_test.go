package rsa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFermatSmallCases checks the small-n fast paths from the spec.
func TestFermatSmallCases(t *testing.T) {
	cases := map[int64]bool{
		-5: false,
		0:  false,
		1:  false,
		2:  true,
		3:  true,
	}

	for n, want := range cases {
		got := isProbablyPrime(big.NewInt(n), 8)
		require.Equalf(t, want, got, "isProbablyPrime(%d)", n)
	}
}

func TestGeneratePrimeHasRequestedBitLength(t *testing.T) {
	for _, bits := range []int{64, 128, 256} {
		p, err := generatePrime(bits, 16)
		require.NoError(t, err)

		require.Equal(t, bits, p.BitLen(), "bit length")
		require.True(t, p.Bit(0) == 1, "must be odd")
		require.True(t, isProbablyPrime(p, 16), "must be probably prime")
	}
}

// TestRoundTrip checks invariant 6: for generated key pairs and byte
// strings m with int(m) < n, Decrypt(Encrypt(m)) == m.
func TestRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair(1024, 12)
	require.NoError(t, err)

	messages := [][]byte{
		[]byte("alice"),
		[]byte(""),
		[]byte{0x01},
		make([]byte, 49), // max serialized AES-256 key+iv
	}

	for _, m := range messages {
		cipherText, err := pub.Encrypt(m)
		require.NoError(t, err)

		got := priv.Decrypt(cipherText)
		want := new(big.Int).SetBytes(m).Bytes()
		require.Equal(t, want, got)
	}
}

func TestEncryptRejectsTooLarge(t *testing.T) {
	_, pub, err := GenerateKeyPair(512, 8)
	require.NoError(t, err)

	tooBig := pub.N.Bytes()
	_, err = pub.Encrypt(tooBig)
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestPublicKeySerializeRoundTrip(t *testing.T) {
	_, pub, err := GenerateKeyPair(512, 8)
	require.NoError(t, err)

	data := pub.Serialize()
	got, err := DeserializePublicKey(data)
	require.NoError(t, err)

	require.Equal(t, 0, pub.N.Cmp(got.N))
	require.Equal(t, 0, pub.E.Cmp(got.E))
}

func TestGenerateKeyPairRejectsSmallModulus(t *testing.T) {
	_, _, err := GenerateKeyPair(256, 8)
	require.Error(t, err)
}
