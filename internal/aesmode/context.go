// Package aesmode runs AES in the ECB, CBC, CFB, OFB and CTR modes of operation
// over arbitrarily chunked input.
//
// A Context carries the chaining state between calls to Apply, so feeding a message
// in pieces of any size produces exactly the bytes a single call would.
// ECB and CBC buffer unaligned residue internally and optionally apply PKCS#7 padding
// on the final call. CFB, OFB and CTR are byte oriented.
package aesmode

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"fmt"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/secret"
)

// BlockSize is the AES block size in bytes.
const BlockSize = aes.BlockSize

// Option configures a Context.
type Option func(*Context)

// WithPadding enables PKCS#7 padding. Only ECB and CBC accept it.
func WithPadding(padded bool) Option {
	return func(c *Context) {
		c.padded = padded
	}
}

// Context is the state of a single AES operation. It is not safe for concurrent use.
type Context struct {
	mode   CipherMode
	block  cipher.Block
	key    []byte
	dir    Direction
	padded bool

	originalIV [BlockSize]byte
	iv         [BlockSize]byte
	stream     [BlockSize]byte
	offset     int

	// residue holds input not yet transformed by ECB/CBC. While decrypting with
	// padding it keeps back the last whole block until the final call.
	residue    [BlockSize]byte
	residueLen int

	cleaned bool
}

// New creates a context for mode with the given key and IV. The IV is ignored for ECB.
func New(mode CipherMode, key, iv []byte, dir Direction, opts ...Option) (*Context, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}

	if len(key) != mode.KeySize.Bytes() {
		return nil, fmt.Errorf("%w: %s needs a %d byte key, got %d",
			crypterr.ErrInvalidParameters, mode, mode.KeySize.Bytes(), len(key))
	}

	if dir != Encrypt && dir != Decrypt {
		return nil, fmt.Errorf("%w: direction %d", crypterr.ErrInvalidParameters, dir)
	}

	ctx := &Context{
		mode: mode,
		key:  append([]byte(nil), key...),
		dir:  dir,
	}

	for _, opt := range opts {
		opt(ctx)
	}

	if ctx.padded && !mode.Mode.Block() {
		ctx.Clean()

		return nil, fmt.Errorf("%w: padding is not supported in %s", crypterr.ErrInvalidParameters, mode.Mode)
	}

	if mode.Mode != ECB {
		if len(iv) != BlockSize {
			ctx.Clean()

			return nil, fmt.Errorf("%w: %s needs a %d byte iv, got %d",
				crypterr.ErrInvalidParameters, mode.Mode, BlockSize, len(iv))
		}

		copy(ctx.originalIV[:], iv)
		copy(ctx.iv[:], iv)
	}

	block, err := aes.NewCipher(ctx.key)
	if err != nil {
		ctx.Clean()

		return nil, fmt.Errorf("%w: %w", crypterr.ErrInvalidParameters, err)
	}

	ctx.block = block

	return ctx, nil
}

// SetPadding switches padding on or off between calls.
// It fails while input is buffered, since the buffered bytes were accepted under the old setting.
func (c *Context) SetPadding(padded bool) error {
	if c.cleaned {
		return fmt.Errorf("%w: context has been cleaned", crypterr.ErrInvalidState)
	}

	if padded && !c.mode.Mode.Block() {
		return fmt.Errorf("%w: padding is not supported in %s", crypterr.ErrInvalidParameters, c.mode.Mode)
	}

	if c.residueLen != 0 {
		return fmt.Errorf("%w: %d bytes buffered", crypterr.ErrInvalidState, c.residueLen)
	}

	c.padded = padded

	return nil
}

// Reset rewinds the chaining state to the original IV and drops buffered input.
func (c *Context) Reset() {
	c.iv = c.originalIV
	secret.Wipe(c.stream[:], c.residue[:])
	c.offset = 0
	c.residueLen = 0
}

// OutputSize returns the largest number of bytes Apply can write for n input bytes.
func (c *Context) OutputSize(n int, final bool) int {
	if c.cleaned || n < 0 {
		return 0
	}

	if !c.mode.Mode.Block() {
		return n
	}

	avail := c.residueLen + n

	if !final {
		return avail - c.keep(avail)
	}

	if c.dir == Encrypt && c.padded {
		return PaddedLen(avail)
	}

	return avail
}

// keep returns how many of avail pending bytes a non-final block-mode call must hold back.
func (c *Context) keep(avail int) int {
	keep := avail % BlockSize

	if keep == 0 && avail > 0 && c.dir == Decrypt && c.padded {
		keep = BlockSize
	}

	return keep
}

// Apply transforms src into dst and returns the number of bytes written.
// final marks the last call of the message: padding is added or verified and
// ECB/CBC residue must resolve into whole blocks.
//
// dst must hold OutputSize(len(src), final) bytes, otherwise Apply fails with
// ErrBufferTooSmall and leaves the context unchanged. For ECB and CBC dst must not
// overlap src; CFB, OFB and CTR may work in place.
func (c *Context) Apply(dst, src []byte, final bool) (int, error) {
	if c.cleaned || c.block == nil {
		return 0, fmt.Errorf("%w: context has been cleaned", crypterr.ErrInvalidState)
	}

	if need := c.OutputSize(len(src), final); len(dst) < need {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", crypterr.ErrBufferTooSmall, need, len(dst))
	}

	if !c.mode.Mode.Block() {
		c.applyStream(dst, src)

		return len(src), nil
	}

	return c.applyBlocks(dst, src, final)
}

func (c *Context) applyBlocks(dst, src []byte, final bool) (int, error) {
	avail := c.residueLen + len(src)
	rem := avail % BlockSize

	var emit int

	switch {
	case !final:
		emit = avail - c.keep(avail)
	case c.dir == Encrypt && c.padded:
		emit = avail - rem
	case c.dir == Decrypt && c.padded:
		if avail == 0 || rem != 0 {
			return 0, fmt.Errorf("%w: %d bytes is not a whole number of blocks", crypterr.ErrInvalidPadding, avail)
		}

		emit = avail
	default:
		if rem != 0 {
			return 0, fmt.Errorf("%w: %d trailing bytes do not fill a block and padding is off",
				crypterr.ErrInvalidParameters, rem)
		}

		emit = avail
	}

	written, consumed := 0, 0

	if c.residueLen > 0 && emit > 0 {
		consumed = copy(c.residue[c.residueLen:], src)
		c.cryptBlock(dst[:BlockSize], c.residue[:])
		secret.Wipe(c.residue[:])
		c.residueLen = 0
		written = BlockSize
	}

	for ; written < emit; written += BlockSize {
		c.cryptBlock(dst[written:written+BlockSize], src[consumed:consumed+BlockSize])
		consumed += BlockSize
	}

	c.residueLen += copy(c.residue[c.residueLen:], src[consumed:])

	if !final || !c.padded {
		return written, nil
	}

	if c.dir == Encrypt {
		padBlock(c.residue[:], c.residueLen)
		c.cryptBlock(dst[written:written+BlockSize], c.residue[:])
		secret.Wipe(c.residue[:])
		c.residueLen = 0

		return written + BlockSize, nil
	}

	n, err := unpadLen(dst[:written])
	if err != nil {
		secret.Wipe(dst[:written])

		return 0, err
	}

	return n, nil
}

func (c *Context) cryptBlock(dst, src []byte) {
	switch {
	case c.mode.Mode == ECB && c.dir == Encrypt:
		c.block.Encrypt(dst, src)
	case c.mode.Mode == ECB:
		c.block.Decrypt(dst, src)
	case c.dir == Encrypt:
		subtle.XORBytes(c.iv[:], c.iv[:], src[:BlockSize])
		c.block.Encrypt(c.iv[:], c.iv[:])
		copy(dst, c.iv[:])
	default:
		var saved [BlockSize]byte

		copy(saved[:], src)
		c.block.Decrypt(dst, src)
		subtle.XORBytes(dst[:BlockSize], dst[:BlockSize], c.iv[:])
		c.iv = saved
	}
}

func (c *Context) applyStream(dst, src []byte) {
	for i := 0; i < len(src); {
		if c.offset == 0 {
			c.refill()
		}

		n := min(BlockSize-c.offset, len(src)-i)
		in, out := src[i:i+n], dst[i:i+n]

		switch {
		case c.mode.Mode == CFB && c.dir == Decrypt:
			copy(c.iv[c.offset:], in)
			subtle.XORBytes(out, in, c.stream[c.offset:c.offset+n])
		case c.mode.Mode == CFB:
			subtle.XORBytes(out, in, c.stream[c.offset:c.offset+n])
			copy(c.iv[c.offset:], out)
		default:
			subtle.XORBytes(out, in, c.stream[c.offset:c.offset+n])
		}

		c.offset = (c.offset + n) % BlockSize
		i += n
	}
}

// refill produces the next keystream block.
func (c *Context) refill() {
	switch c.mode.Mode {
	case OFB:
		c.block.Encrypt(c.iv[:], c.iv[:])
		c.stream = c.iv
	case CTR:
		c.block.Encrypt(c.stream[:], c.iv[:])
		incrementCounter(&c.iv)
	default:
		c.block.Encrypt(c.stream[:], c.iv[:])
	}
}

// incrementCounter adds one to the big-endian counter, wrapping at 2^128.
func incrementCounter(ctr *[BlockSize]byte) {
	for i := BlockSize - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			return
		}
	}
}

// Clean zeroes the key copy, IVs, keystream and residue and drops the block cipher.
// The context is unusable afterwards. It is safe to call more than once.
func (c *Context) Clean() {
	if c == nil {
		return
	}

	secret.Wipe(c.key, c.originalIV[:], c.iv[:], c.stream[:], c.residue[:])

	c.key = nil
	c.block = nil
	c.offset = 0
	c.residueLen = 0
	c.cleaned = true
}
