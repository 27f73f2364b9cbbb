package aes

import (
	"fmt"

	"github.com/rbkdev/securechat/galois"
)

// CBCEncrypt encrypts message (which must already be a multiple of
// BlockSize) under key/iv and returns the ciphertext along with the chain
// value after the last block — the new IV. Neither key nor iv is mutated.
func CBCEncrypt(message, iv, key []byte) ([]byte, []byte, error) {
	if len(iv) != IVSize {
		return nil, nil, fmt.Errorf("aes: iv must be %d bytes: %w", IVSize, ErrInvalidLength)
	}
	if len(message)%BlockSize != 0 {
		return nil, nil, fmt.Errorf("aes: message length %d not a multiple of %d: %w", len(message), BlockSize, ErrInvalidLength)
	}

	rk, err := ExpandKey(key)
	if err != nil {
		return nil, nil, err
	}

	chain := make([]byte, IVSize)
	copy(chain, iv)

	cipherText := make([]byte, 0, len(message))
	for i := 0; i < len(message); i += BlockSize {
		var block Block
		copy(block[:], galois.XORBytes(chain, message[i:i+BlockSize]))

		if err := EncryptBlock(&block, rk); err != nil {
			return nil, nil, err
		}

		cipherText = append(cipherText, block[:]...)
		copy(chain, block[:])
	}

	return cipherText, chain, nil
}

// CBCDecrypt is the inverse of CBCEncrypt: cipherText must be a nonzero
// multiple of BlockSize.
func CBCDecrypt(cipherText, iv, key []byte) ([]byte, []byte, error) {
	if len(iv) != IVSize {
		return nil, nil, fmt.Errorf("aes: iv must be %d bytes: %w", IVSize, ErrInvalidLength)
	}
	if len(cipherText) == 0 || len(cipherText)%BlockSize != 0 {
		return nil, nil, fmt.Errorf("aes: ciphertext length %d not a nonzero multiple of %d: %w", len(cipherText), BlockSize, ErrInvalidLength)
	}

	rk, err := ExpandKey(key)
	if err != nil {
		return nil, nil, err
	}

	chain := make([]byte, IVSize)
	copy(chain, iv)

	plainText := make([]byte, 0, len(cipherText))
	for i := 0; i < len(cipherText); i += BlockSize {
		var block Block
		copy(block[:], cipherText[i:i+BlockSize])

		decoded := block
		if err := DecryptBlock(&decoded, rk); err != nil {
			return nil, nil, err
		}

		plainBlock := galois.XORBytes(decoded[:], chain)
		plainText = append(plainText, plainBlock...)

		copy(chain, cipherText[i:i+BlockSize])
	}

	return plainText, chain, nil
}
