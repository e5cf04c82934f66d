// Package pbkdf2 derives keys from passwords as specified in RFC 8018 section 5.2.
package pbkdf2

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/hmac"
	"github.com/idelchi/idxcrypt/internal/secret"
)

const (
	// DefaultIterations is the work factor applied when none is configured.
	DefaultIterations = 500000
	// DefaultKeyLen yields an AES-256 key.
	DefaultKeyLen = 32

	maxBlocks = 1<<32 - 1
)

// PRF adapts an HMAC instance to the pseudo-random function PBKDF2 iterates.
type PRF struct {
	mac *hmac.MAC
}

// NewPRF returns an HMAC-based PRF over alg.
func NewPRF(alg digest.Algorithm) (*PRF, error) {
	mac, err := hmac.New(alg)
	if err != nil {
		return nil, err
	}

	return &PRF{mac: mac}, nil
}

// Size returns hLen, the output length of the PRF.
func (p *PRF) Size() int {
	return p.mac.Size()
}

// Algorithm returns the hash the PRF is built on.
func (p *PRF) Algorithm() digest.Algorithm {
	return p.mac.Algorithm()
}

// SetKey keys the PRF.
func (p *PRF) SetKey(key []byte) error {
	return p.mac.SetKey(key)
}

// Apply writes PRF(key, parts...) into dst[:Size()].
func (p *PRF) Apply(dst []byte, parts ...[]byte) error {
	return p.mac.Compute(dst, parts...)
}

// Clean wipes the PRF key material.
func (p *PRF) Clean() {
	p.mac.Clean()
}

// Derive returns a keyLen-byte key. See DeriveInto.
func Derive(prf *PRF, iterations int, password, salt []byte, keyLen int) ([]byte, error) {
	if keyLen <= 0 {
		return nil, fmt.Errorf("%w: key length %d", crypterr.ErrInvalidParameters, keyLen)
	}

	key := make([]byte, keyLen)

	if err := DeriveInto(key, prf, iterations, password, salt); err != nil {
		return nil, err
	}

	return key, nil
}

// DeriveInto fills dst with PBKDF2(prf, password, salt, iterations, len(dst)).
// The PRF is re-keyed with password; callers should Clean it when done.
func DeriveInto(dst []byte, prf *PRF, iterations int, password, salt []byte) error {
	if prf == nil {
		return fmt.Errorf("%w: nil prf", crypterr.ErrInvalidParameters)
	}

	if iterations < 1 {
		return fmt.Errorf("%w: iteration count %d", crypterr.ErrInvalidParameters, iterations)
	}

	hLen := prf.Size()
	keyLen := len(dst)

	if keyLen == 0 {
		return fmt.Errorf("%w: key length 0", crypterr.ErrInvalidParameters)
	}

	if uint64(keyLen) > uint64(hLen)*maxBlocks {
		return fmt.Errorf("%w: key length %d exceeds %d blocks of %d bytes",
			crypterr.ErrInvalidParameters, keyLen, uint64(maxBlocks), hLen)
	}

	if err := prf.SetKey(password); err != nil {
		return fmt.Errorf("keying prf: %w", err)
	}

	u := make([]byte, hLen)
	t := make([]byte, hLen)

	defer secret.Wipe(u, t)

	var index [4]byte

	blocks := (keyLen + hLen - 1) / hLen

	for block := 1; block <= blocks; block++ {
		binary.BigEndian.PutUint32(index[:], uint32(block)) //nolint:gosec // bounded by maxBlocks above

		if err := prf.Apply(u, salt, index[:]); err != nil {
			return fmt.Errorf("computing U1 of block %d: %w", block, err)
		}

		copy(t, u)

		for range iterations - 1 {
			if err := prf.Apply(u, u); err != nil {
				return fmt.Errorf("iterating block %d: %w", block, err)
			}

			subtle.XORBytes(t, t, u)
		}

		copy(dst[(block-1)*hLen:], t)
	}

	return nil
}
