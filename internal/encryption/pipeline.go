package encryption

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/idelchi/idxcrypt/internal/aesmode"
	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/pbkdf2"
	"github.com/idelchi/idxcrypt/internal/secret"
)

// Pipeline streams files through AES-256-CBC with a PBKDF2 derived key.
// The zero value is not usable; set at least Hash and Iterations.
// A Pipeline holds no per-file state and may be shared between goroutines
// as long as Progress is safe for concurrent use.
type Pipeline struct {
	// Hash selects the PBKDF2 pseudo-random function.
	Hash digest.Algorithm
	// Iterations is the PBKDF2 work factor.
	Iterations int
	// Rand supplies salt and IV. Defaults to crypto/rand.Reader.
	Rand io.Reader
	// Progress, if set, receives throttled progress events.
	Progress ProgressFunc
	// Interval is the minimum time between progress events. Defaults to DefaultProgressInterval.
	Interval time.Duration

	now func() time.Time
}

// NewPipeline returns a pipeline with the default work factor.
func NewPipeline(hash digest.Algorithm) *Pipeline {
	return &Pipeline{Hash: hash, Iterations: pbkdf2.DefaultIterations}
}

func (p *Pipeline) validate() error {
	if !p.Hash.Valid() {
		return fmt.Errorf("%w: %s", crypterr.ErrInvalidAlgorithm, p.Hash)
	}

	if p.Iterations < 1 {
		return fmt.Errorf("%w: iteration count %d", crypterr.ErrInvalidParameters, p.Iterations)
	}

	return nil
}

func (p *Pipeline) entropy() io.Reader {
	if p.Rand != nil {
		return p.Rand
	}

	return rand.Reader
}

// session bundles the secrets of one file operation.
type session struct {
	prf    *pbkdf2.PRF
	key    *secret.Buffer
	cipher *aesmode.Context
}

func (p *Pipeline) open(password, salt, iv []byte, dir aesmode.Direction) (_ *session, err error) {
	s := &session{}

	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if s.prf, err = pbkdf2.NewPRF(p.Hash); err != nil {
		return nil, err
	}

	s.key = secret.New(pbkdf2.DefaultKeyLen)

	if err := pbkdf2.DeriveInto(s.key.Bytes(), s.prf, p.Iterations, password, salt); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	s.prf.Clean()

	mode := aesmode.CipherMode{Mode: aesmode.CBC, KeySize: aesmode.AES256}

	if s.cipher, err = aesmode.New(mode, s.key.Bytes(), iv, dir); err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return s, nil
}

func (s *session) close() {
	s.cipher.Clean()
	s.key.Destroy()

	if s.prf != nil {
		s.prf.Clean()
	}
}

// Encrypt reads plaintext from src and writes a container to dst.
// size is the plaintext length if known, or -1; it only feeds progress reporting.
// It returns the number of bytes written.
func (p *Pipeline) Encrypt(ctx context.Context, dst io.Writer, src io.Reader, size int64, password []byte) (int64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	saltSize := SaltSize(p.Hash)

	prefix := make([]byte, saltSize+IVSize)
	if _, err := io.ReadFull(p.entropy(), prefix); err != nil {
		return 0, fmt.Errorf("generating salt and iv: %w", err)
	}

	sess, err := p.open(password, prefix[:saltSize], prefix[saltSize:], aesmode.Encrypt)
	if err != nil {
		return 0, err
	}
	defer sess.close()

	out := &countingWriter{w: dst}

	if err := out.write(prefix); err != nil {
		return out.n, err
	}

	if err := p.transformHeader(sess.cipher, out, []byte(Magic)); err != nil {
		return out.n, err
	}

	if err := p.stream(ctx, sess.cipher, out, src, newThrottle(p.Progress, p.Interval, size, p.now)); err != nil {
		return out.n, err
	}

	return out.n, nil
}

// Decrypt reads a container from src and writes the plaintext to dst.
// size is the container length if known, or -1. A known size is validated
// before the key is derived.
// It returns the number of plaintext bytes written.
func (p *Pipeline) Decrypt(ctx context.Context, dst io.Writer, src io.Reader, size int64, password []byte) (int64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	if size >= 0 {
		if err := ValidateSize(p.Hash, size); err != nil {
			return 0, err
		}
	}

	saltSize := SaltSize(p.Hash)

	prefix := make([]byte, saltSize+IVSize+HeaderSize)
	if err := readPrefix(src, prefix); err != nil {
		return 0, err
	}

	sess, err := p.open(password, prefix[:saltSize], prefix[saltSize:saltSize+IVSize], aesmode.Decrypt)
	if err != nil {
		return 0, err
	}
	defer sess.close()

	header := make([]byte, HeaderSize)

	if _, err := sess.cipher.Apply(header, prefix[saltSize+IVSize:], false); err != nil {
		return 0, fmt.Errorf("decrypting header: %w", err)
	}

	if subtle.ConstantTimeCompare(header, []byte(Magic)) != 1 {
		return 0, crypterr.ErrWrongPasswordOrCorruptFile
	}

	if err := sess.cipher.SetPadding(true); err != nil {
		return 0, err
	}

	out := &countingWriter{w: dst}

	progress := newThrottle(p.Progress, p.Interval, size, p.now)
	progress.add(len(prefix))

	if err := p.stream(ctx, sess.cipher, out, src, progress); err != nil {
		return out.n, err
	}

	return out.n, nil
}

func readPrefix(src io.Reader, prefix []byte) error {
	_, err := io.ReadFull(src, prefix)

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: truncated before the end of the header", crypterr.ErrMalformedContainer)
	case err != nil:
		return crypterr.NewIOError("read", "", err)
	}

	return nil
}

// transformHeader encrypts the magic block with padding off, then turns padding on for the payload.
func (p *Pipeline) transformHeader(c *aesmode.Context, out *countingWriter, magic []byte) error {
	block := make([]byte, HeaderSize)

	if _, err := c.Apply(block, magic, false); err != nil {
		return fmt.Errorf("encrypting header: %w", err)
	}

	if err := out.write(block); err != nil {
		return err
	}

	return c.SetPadding(true)
}

// stream feeds src through c chunk by chunk and finishes with a final call.
func (p *Pipeline) stream(ctx context.Context, c *aesmode.Context, out *countingWriter, src io.Reader, progress *throttle) error {
	in := getChunk()
	defer putChunk(in)

	buf := getChunk()
	defer putChunk(buf)

	chunk := (*in)[:ChunkSize]

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("aborted: %w", err)
		}

		n, err := io.ReadFull(src, chunk)

		eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !eof {
			return crypterr.NewIOError("read", "", err)
		}

		if n > 0 {
			written, err := c.Apply(*buf, chunk[:n], false)
			if err != nil {
				return err
			}

			if err := out.write((*buf)[:written]); err != nil {
				return err
			}

			progress.add(n)
		}

		if eof {
			break
		}
	}

	written, err := c.Apply(*buf, nil, true)
	if err != nil {
		return err
	}

	if err := out.write((*buf)[:written]); err != nil {
		return err
	}

	progress.finish()

	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) write(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	n, err := c.w.Write(b)
	c.n += int64(n)

	if err != nil {
		return crypterr.NewIOError("write", "", err)
	}

	return nil
}
