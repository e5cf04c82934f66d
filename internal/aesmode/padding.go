package aesmode

import (
	"crypto/aes"
	"fmt"

	"github.com/idelchi/idxcrypt/internal/crypterr"
)

// padBlock fills block[n:] with PKCS#7 padding, where n is the number of data bytes already present.
// A block with n == 0 becomes a full padding block.
func padBlock(block []byte, n int) {
	padding := byte(aes.BlockSize - n)

	for i := n; i < aes.BlockSize; i++ {
		block[i] = padding
	}
}

// unpadLen validates PKCS#7 padding at the end of data and returns the unpadded length.
func unpadLen(data []byte) (int, error) {
	length := len(data)
	if length == 0 || length%aes.BlockSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a whole number of blocks", crypterr.ErrInvalidPadding, length)
	}

	padding := int(data[length-1])
	if padding < 1 || padding > aes.BlockSize {
		return 0, fmt.Errorf("%w: pad value %d", crypterr.ErrInvalidPadding, padding)
	}

	for i := length - padding; i < length; i++ {
		if data[i] != byte(padding) {
			return 0, fmt.Errorf("%w: inconsistent pad bytes", crypterr.ErrInvalidPadding)
		}
	}

	return length - padding, nil
}

// PaddedLen returns the size of n bytes after PKCS#7 padding.
func PaddedLen(n int) int {
	return n + aes.BlockSize - n%aes.BlockSize
}
