package aes

// pkcs7Pad appends 16-(len(data)%16) bytes, each holding that count, so the
// result is always a nonzero multiple of BlockSize (a full padding block of
// 16 is appended when len(data) is already a multiple of 16).
func pkcs7Pad(data []byte) []byte {
	padLen := BlockSize - len(data)%BlockSize
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// pkcs7Unpad strips the trailing padding written by pkcs7Pad. A pad count
// larger than data (only possible for corrupted input) yields an empty slice.
func pkcs7Unpad(data []byte) []byte {
	padLen := int(data[len(data)-1])
	if padLen > len(data) {
		return data[:0]
	}
	return data[:len(data)-padLen]
}
