package encryption

import (
	"crypto/aes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
)

// Container layout:
//
//	[salt: SaltSize(hash)] [iv: 16] [E(Magic): 16] [payload: n*16, PKCS#7]
const (
	// Magic is the plaintext of the first encrypted block.
	Magic = "IDXCRYPTTPYRCXDI"
	// Extension is appended to encrypted files.
	Extension = ".idx"

	// IVSize is the length of the CBC initialization vector.
	IVSize = aes.BlockSize
	// HeaderSize is the length of the encrypted magic block.
	HeaderSize = len(Magic)

	shortSaltSize = 16
	longSaltSize  = 64
	sha256Size    = 32
)

// SaltSize returns the salt length stored in front of a container whose key was derived with hash.
func SaltSize(hash digest.Algorithm) int {
	if hash.Size() == sha256Size {
		return shortSaltSize
	}

	return longSaltSize
}

// PrefixSize returns the length of salt, iv and encrypted magic.
func PrefixSize(hash digest.Algorithm) int {
	return SaltSize(hash) + IVSize + HeaderSize
}

// MinSize is the smallest valid container: the prefix plus one padding block.
func MinSize(hash digest.Algorithm) int64 {
	return int64(PrefixSize(hash) + aes.BlockSize)
}

// EncryptedSize returns the container size for a plaintext of n bytes.
func EncryptedSize(hash digest.Algorithm, n int64) int64 {
	return int64(PrefixSize(hash)) + n + aes.BlockSize - n%aes.BlockSize
}

// ValidateSize rejects container sizes that cannot hold a valid encryption.
func ValidateSize(hash digest.Algorithm, size int64) error {
	if size < MinSize(hash) {
		return fmt.Errorf("%w: %d bytes is shorter than the minimum of %d",
			crypterr.ErrMalformedContainer, size, MinSize(hash))
	}

	if (size-int64(IVSize+SaltSize(hash)))%aes.BlockSize != 0 {
		return fmt.Errorf("%w: payload of %d bytes is not block aligned",
			crypterr.ErrMalformedContainer, size-int64(IVSize+SaltSize(hash)))
	}

	return nil
}

// OutputName maps an input file name to the name the operation writes.
// Encryption appends Extension unless it is already present.
// Decryption strips Extension and refuses names that lack it.
func OutputName(name string, decrypt bool) (string, error) {
	if !decrypt {
		if strings.HasSuffix(name, Extension) {
			return name, nil
		}

		return name + Extension, nil
	}

	trimmed := strings.TrimSuffix(name, Extension)
	if trimmed == name || trimmed == "" || strings.HasSuffix(trimmed, "/") ||
		strings.HasSuffix(trimmed, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q does not end in %s", crypterr.ErrMalformedContainer, name, Extension)
	}

	return trimmed, nil
}
