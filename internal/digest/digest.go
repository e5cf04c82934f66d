// Package digest enumerates the hash algorithms usable as the PBKDF2 pseudo-random function.
package digest

import (
	"crypto/md5"  //nolint:gosec // selectable for compatibility with existing containers
	"crypto/sha1" //nolint:gosec // selectable for compatibility with existing containers
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/idelchi/idxcrypt/internal/crypterr"
)

// Algorithm identifies one of the supported hash functions.
type Algorithm uint8

const (
	// MD5 is RFC 1321 MD5.
	MD5 Algorithm = iota
	// SHA1 is FIPS 180-4 SHA-1.
	SHA1
	// SHA256 is FIPS 180-4 SHA-256, the default.
	SHA256
	// SHA384 is FIPS 180-4 SHA-384.
	SHA384
	// SHA512 is FIPS 180-4 SHA-512.
	SHA512
)

// Default is the algorithm used when none is selected.
const Default = SHA256

type properties struct {
	name      string
	blockSize int
	size      int
	newFunc   func() hash.Hash
}

//nolint:gochecknoglobals // fixed lookup table
var table = [...]properties{
	MD5:    {"md5", md5.BlockSize, md5.Size, md5.New},
	SHA1:   {"sha1", sha1.BlockSize, sha1.Size, sha1.New},
	SHA256: {"sha256", sha256.BlockSize, sha256.Size, sha256.New},
	SHA384: {"sha384", sha512.BlockSize, sha512.Size384, sha512.New384},
	SHA512: {"sha512", sha512.BlockSize, sha512.Size, sha512.New},
}

// Algorithms returns all supported algorithms in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{MD5, SHA1, SHA256, SHA384, SHA512}
}

// Names returns the names accepted by Parse.
func Names() []string {
	names := make([]string, 0, len(table))

	for _, alg := range Algorithms() {
		names = append(names, alg.String())
	}

	return names
}

// Parse resolves a case-insensitive algorithm name such as "sha256".
func Parse(name string) (Algorithm, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")

	for _, alg := range Algorithms() {
		if alg.String() == normalized {
			return alg, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown hash %q (want one of %s)",
		crypterr.ErrInvalidAlgorithm, name, strings.Join(Names(), ", "))
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return int(a) < len(table)
}

func (a Algorithm) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Algorithm(%d)", a)
	}

	return table[a].name
}

// BlockSize returns the input block size of the compression function in bytes.
func (a Algorithm) BlockSize() int {
	if !a.Valid() {
		return 0
	}

	return table[a].blockSize
}

// Size returns the digest size in bytes.
func (a Algorithm) Size() int {
	if !a.Valid() {
		return 0
	}

	return table[a].size
}

// New instantiates the hash primitive.
func (a Algorithm) New() (hash.Hash, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s", crypterr.ErrInvalidAlgorithm, a)
	}

	return table[a].newFunc(), nil
}

// Sum hashes the concatenation of parts in one shot.
func (a Algorithm) Sum(parts ...[]byte) ([]byte, error) {
	h, err := a.New()
	if err != nil {
		return nil, err
	}

	for _, p := range parts {
		h.Write(p)
	}

	return h.Sum(nil), nil
}

// Set implements pflag.Value.
func (a *Algorithm) Set(name string) error {
	alg, err := Parse(name)
	if err != nil {
		return err
	}

	*a = alg

	return nil
}

// Type implements pflag.Value.
func (a *Algorithm) Type() string {
	return "hash"
}

// UnmarshalText implements encoding.TextUnmarshaler so configuration decoders accept names.
func (a *Algorithm) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s", crypterr.ErrInvalidAlgorithm, a)
	}

	return []byte(a.String()), nil
}
