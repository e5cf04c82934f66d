// Package selftest validates the cryptographic building blocks against published
// known-answer vectors before any file is touched.
package selftest

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/idelchi/idxcrypt/internal/aesmode"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/hmac"
	"github.com/idelchi/idxcrypt/internal/pbkdf2"
)

// ErrFailed is wrapped by Run when at least one vector does not reproduce.
var ErrFailed = errors.New("self-test failed")

//go:embed vectors.yml
var embedded []byte

// Vectors is the on-disk layout of the vector file.
type Vectors struct {
	Hashes []struct {
		Name   string `yaml:"name"`
		Alg    string `yaml:"alg"`
		Input  string `yaml:"input"`
		Digest string `yaml:"digest"`
	} `yaml:"hashes"`
	HMAC []struct {
		Name string `yaml:"name"`
		Alg  string `yaml:"alg"`
		Key  string `yaml:"key"`
		Data string `yaml:"data"`
		MAC  string `yaml:"mac"`
	} `yaml:"hmac"`
	PBKDF2 []struct {
		Name       string `yaml:"name"`
		Alg        string `yaml:"alg"`
		Password   string `yaml:"password"`
		Salt       string `yaml:"salt"`
		Iterations int    `yaml:"iterations"`
		Key        string `yaml:"key"`
	} `yaml:"pbkdf2"`
	AES []struct {
		Name       string `yaml:"name"`
		Mode       string `yaml:"mode"`
		Key        string `yaml:"key"`
		IV         string `yaml:"iv"`
		Plaintext  string `yaml:"plaintext"`
		Ciphertext string `yaml:"ciphertext"`
	} `yaml:"aes"`
}

// Check is the outcome of one vector.
type Check struct {
	Kind string
	Name string
	Err  error
}

// Report lists every check performed.
type Report struct {
	Checks   []Check
	Duration time.Duration
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []Check {
	var failed []Check

	for _, c := range r.Checks {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}

	return failed
}

// Load parses a vector file.
func Load(data []byte) (*Vectors, error) {
	var v Vectors

	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing vectors: %w", err)
	}

	return &v, nil
}

// Run checks the built-in vectors.
func Run() (Report, error) {
	v, err := Load(embedded)
	if err != nil {
		return Report{}, err
	}

	return v.Run()
}

// Run checks every vector in v. The error joins all failures.
func (v *Vectors) Run() (Report, error) {
	start := time.Now()

	var report Report

	record := func(kind, name string, err error) {
		report.Checks = append(report.Checks, Check{Kind: kind, Name: name, Err: err})
	}

	for _, tc := range v.Hashes {
		record("hash", tc.Name, checkHash(tc.Alg, tc.Input, tc.Digest))
	}

	for _, tc := range v.HMAC {
		record("hmac", tc.Name, checkHMAC(tc.Alg, tc.Key, tc.Data, tc.MAC))
	}

	for _, tc := range v.PBKDF2 {
		record("pbkdf2", tc.Name, checkPBKDF2(tc.Alg, tc.Password, tc.Salt, tc.Iterations, tc.Key))
	}

	for _, tc := range v.AES {
		record("aes", tc.Name, checkAES(tc.Mode, tc.Key, tc.IV, tc.Plaintext, tc.Ciphertext))
	}

	report.Duration = time.Since(start)

	var errs []error

	for _, c := range report.Failed() {
		errs = append(errs, fmt.Errorf("%s %s: %w", c.Kind, c.Name, c.Err))
	}

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %w", ErrFailed, errors.Join(errs...))
	}

	return report, nil
}

func decodeAll(fields ...string) ([][]byte, error) {
	out := make([][]byte, len(fields))

	for i, f := range fields {
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %q: %w", f, err)
		}

		out[i] = b
	}

	return out, nil
}

func mismatch(got, want []byte) error {
	if bytes.Equal(got, want) {
		return nil
	}

	return fmt.Errorf("got %x, want %x", got, want)
}

func checkHash(name, input, want string) error {
	alg, err := digest.Parse(name)
	if err != nil {
		return err
	}

	b, err := decodeAll(input, want)
	if err != nil {
		return err
	}

	sum, err := alg.Sum(b[0])
	if err != nil {
		return err
	}

	return mismatch(sum, b[1])
}

func checkHMAC(name, key, data, want string) error {
	alg, err := digest.Parse(name)
	if err != nil {
		return err
	}

	b, err := decodeAll(key, data, want)
	if err != nil {
		return err
	}

	mac, err := hmac.New(alg)
	if err != nil {
		return err
	}
	defer mac.Clean()

	if err := mac.SetKey(b[0]); err != nil {
		return err
	}

	got, err := mac.Sum(b[1])
	if err != nil {
		return err
	}

	return mismatch(got, b[2])
}

func checkPBKDF2(name, password, salt string, iterations int, want string) error {
	alg, err := digest.Parse(name)
	if err != nil {
		return err
	}

	b, err := decodeAll(password, salt, want)
	if err != nil {
		return err
	}

	prf, err := pbkdf2.NewPRF(alg)
	if err != nil {
		return err
	}
	defer prf.Clean()

	got, err := pbkdf2.Derive(prf, iterations, b[0], b[1], len(b[2]))
	if err != nil {
		return err
	}

	return mismatch(got, b[2])
}

// checkAES verifies both directions in one call and in odd-sized chunks.
func checkAES(name, key, iv, plaintext, ciphertext string) error {
	mode, err := aesmode.ParseMode(name)
	if err != nil {
		return err
	}

	b, err := decodeAll(key, iv, plaintext, ciphertext)
	if err != nil {
		return err
	}

	cm := aesmode.CipherMode{Mode: mode, KeySize: aesmode.KeySize(len(b[0]) * 8)} //nolint:mnd

	for _, chunk := range []int{len(b[2]), 1, 5, aesmode.BlockSize + 1} {
		got, err := apply(cm, b[0], b[1], aesmode.Encrypt, b[2], chunk)
		if err != nil {
			return err
		}

		if err := mismatch(got, b[3]); err != nil {
			return fmt.Errorf("encrypt in %d byte chunks: %w", chunk, err)
		}

		got, err = apply(cm, b[0], b[1], aesmode.Decrypt, b[3], chunk)
		if err != nil {
			return err
		}

		if err := mismatch(got, b[2]); err != nil {
			return fmt.Errorf("decrypt in %d byte chunks: %w", chunk, err)
		}
	}

	return nil
}

func apply(cm aesmode.CipherMode, key, iv []byte, dir aesmode.Direction, in []byte, chunk int) ([]byte, error) {
	ctx, err := aesmode.New(cm, key, iv, dir)
	if err != nil {
		return nil, err
	}
	defer ctx.Clean()

	out := make([]byte, 0, len(in))
	buf := make([]byte, len(in)+aesmode.BlockSize)

	for off := 0; off < len(in); off += chunk {
		end := min(off+chunk, len(in))

		n, err := ctx.Apply(buf, in[off:end], false)
		if err != nil {
			return nil, err
		}

		out = append(out, buf[:n]...)
	}

	n, err := ctx.Apply(buf, nil, true)
	if err != nil {
		return nil, err
	}

	return append(out, buf[:n]...), nil
}
