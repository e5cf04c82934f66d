// Package hmac implements the keyed-hash message authentication code of FIPS 198-1
// over the algorithms in the digest package.
//
// A MAC owns its hash state and pads, so a single instance can be keyed once and
// applied to many messages without allocating.
package hmac

import (
	"fmt"
	"hash"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/secret"
)

const (
	innerPadByte = 0x36
	outerPadByte = 0x5c
)

// MAC is a re-keyable HMAC instance. It is not safe for concurrent use.
type MAC struct {
	alg   digest.Algorithm
	h     hash.Hash
	k0    []byte
	ipad  []byte
	opad  []byte
	inner []byte
	keyed bool
}

// New creates an unkeyed MAC over alg.
func New(alg digest.Algorithm) (*MAC, error) {
	h, err := alg.New()
	if err != nil {
		return nil, fmt.Errorf("creating hmac: %w", err)
	}

	blockSize := alg.BlockSize()

	return &MAC{
		alg:   alg,
		h:     h,
		k0:    make([]byte, blockSize),
		ipad:  make([]byte, blockSize),
		opad:  make([]byte, blockSize),
		inner: make([]byte, 0, alg.Size()),
	}, nil
}

// Algorithm returns the underlying hash algorithm.
func (m *MAC) Algorithm() digest.Algorithm {
	return m.alg
}

// Size returns the tag length in bytes.
func (m *MAC) Size() int {
	return m.alg.Size()
}

// BlockSize returns the block size of the underlying hash.
func (m *MAC) BlockSize() int {
	return m.alg.BlockSize()
}

// Keyed reports whether SetKey has been called since creation or the last Clean.
func (m *MAC) Keyed() bool {
	return m.keyed
}

// SetKey derives K0 from key and recomputes both pads.
// Keys longer than the block size are hashed first; shorter keys are zero-padded.
// It may be called any number of times.
func (m *MAC) SetKey(key []byte) error {
	if m.h == nil {
		return fmt.Errorf("%w: hmac has no hash instance", crypterr.ErrInvalidState)
	}

	blockSize := len(m.k0)

	if len(key) > blockSize {
		m.h.Reset()
		m.h.Write(key)
		sum := m.h.Sum(m.k0[:0])
		clear(m.k0[len(sum):])
		m.h.Reset()
	} else {
		copy(m.k0, key)
		clear(m.k0[len(key):])
	}

	for i, b := range m.k0 {
		m.ipad[i] = b ^ innerPadByte
		m.opad[i] = b ^ outerPadByte
	}

	m.keyed = true

	return nil
}

// Compute writes HMAC(K, parts[0] || parts[1] || ...) into dst[:Size()].
// dst may alias one of the parts.
func (m *MAC) Compute(dst []byte, parts ...[]byte) error {
	if !m.keyed {
		return fmt.Errorf("%w: hmac used before SetKey", crypterr.ErrInvalidState)
	}

	if len(dst) < m.Size() {
		return fmt.Errorf("%w: need %d bytes, have %d", crypterr.ErrBufferTooSmall, m.Size(), len(dst))
	}

	m.h.Reset()
	m.h.Write(m.ipad)

	for _, p := range parts {
		m.h.Write(p)
	}

	m.inner = m.h.Sum(m.inner[:0])

	m.h.Reset()
	m.h.Write(m.opad)
	m.h.Write(m.inner)
	m.h.Sum(dst[:0])

	secret.Wipe(m.inner)
	m.h.Reset()

	return nil
}

// Sum is Compute into a freshly allocated slice.
func (m *MAC) Sum(parts ...[]byte) ([]byte, error) {
	out := make([]byte, m.Size())

	if err := m.Compute(out, parts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Clean zeroes K0, both pads and the scratch digest and resets the hash.
// The MAC is unkeyed afterwards and can be keyed again.
func (m *MAC) Clean() {
	secret.Wipe(m.k0, m.ipad, m.opad, m.inner[:cap(m.inner)])

	if m.h != nil {
		m.h.Reset()
	}

	m.keyed = false
}
