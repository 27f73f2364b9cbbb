// Key expansion, following the AES key schedule: Sam Trenholme's write-up
// (https://www.samiam.org/key-schedule.html) is what the teacher library
// credits for this layout, generalized here to all three NK values instead
// of the fixed NK=8 case.
package aes

import (
	"github.com/rbkdev/securechat/galois"
	"github.com/rbkdev/securechat/sbox"
)

var (
	forwardBox = sbox.New()
	inverseBox = sbox.Invert(forwardBox)
)

// roundKey is one 16-byte round key in column-major order.
type roundKey [BlockSize]byte

// RoundKeys is the full schedule: rounds+1 round keys.
type RoundKeys []roundKey

func rotWord(w [WordSize]byte) [WordSize]byte {
	return [WordSize]byte{w[1], w[2], w[3], w[0]}
}

func subWord(w [WordSize]byte) [WordSize]byte {
	var out [WordSize]byte
	for i, b := range w {
		out[i] = forwardBox[b]
	}
	return out
}

// ExpandKey derives the round-key schedule for a 16/24/32-byte master key.
func ExpandKey(key []byte) (RoundKeys, error) {
	rounds, err := roundsForKeyLen(len(key))
	if err != nil {
		return nil, err
	}

	nk := len(key) / WordSize
	totalWords := NB * (rounds + 1)

	words := make([][WordSize]byte, totalWords)
	for i := 0; i < nk; i++ {
		copy(words[i][:], key[WordSize*i:WordSize*i+WordSize])
	}

	var rc byte = 1
	for i := nk; i < totalWords; i++ {
		temp := words[i-1]

		switch {
		case i%nk == 0:
			temp = subWord(rotWord(temp))
			temp[0] ^= rc
			rc = galois.Mul(rc, 2)
		case nk > 6 && i%nk == 4:
			temp = subWord(temp)
		}

		for j := 0; j < WordSize; j++ {
			words[i][j] = words[i-nk][j] ^ temp[j]
		}
	}

	schedule := make(RoundKeys, rounds+1)
	for r := 0; r <= rounds; r++ {
		for c := 0; c < NB; c++ {
			word := words[r*NB+c]
			for row := 0; row < WordSize; row++ {
				schedule[r][row+4*c] = word[row]
			}
		}
	}

	return schedule, nil
}
