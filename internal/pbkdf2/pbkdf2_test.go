package pbkdf2_test

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // reference implementation for RFC 6070
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"testing"

	xpbkdf2 "golang.org/x/crypto/pbkdf2"

	"github.com/idelchi/idxcrypt/internal/crypterr"
	"github.com/idelchi/idxcrypt/internal/digest"
	"github.com/idelchi/idxcrypt/internal/pbkdf2"
)

func TestRFC6070(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		password   string
		salt       string
		iterations int
		keyLen     int
		want       string
	}{
		{"c=1", "password", "salt", 1, 20, "0c60c80f961f0e71f3a9b524af6012062fe037a6"},
		{"c=2", "password", "salt", 2, 20, "ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957"},
		{"c=4096", "password", "salt", 4096, 20, "4b007901b765489abead49d926f721d065a429c1"},
		{
			"long", "passwordPASSWORDpassword", "saltSALTsaltSALTsaltSALTsaltSALTsalt", 4096, 25,
			"3d2eec4fe41c849b80c8d83662c0e44a8b291a964cf2f07038",
		},
		{"nul", "pass\x00word", "sa\x00lt", 4096, 16, "56fa6aa75548099dcc37d7f03425e0c3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			prf, err := pbkdf2.NewPRF(digest.SHA1)
			if err != nil {
				t.Fatalf("NewPRF() error: %v", err)
			}
			defer prf.Clean()

			got, err := pbkdf2.Derive(prf, tc.iterations, []byte(tc.password), []byte(tc.salt), tc.keyLen)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}

			if hex.EncodeToString(got) != tc.want {
				t.Errorf("got %x, want %s", got, tc.want)
			}
		})
	}
}

func TestAgainstXCrypto(t *testing.T) {
	t.Parallel()

	oracles := map[digest.Algorithm]func() hash.Hash{
		digest.SHA1:   sha1.New,
		digest.SHA256: sha256.New,
		digest.SHA384: sha512.New384,
		digest.SHA512: sha512.New,
	}

	password := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	for alg, newHash := range oracles {
		for _, keyLen := range []int{1, 16, 32, 33, 100} {
			prf, err := pbkdf2.NewPRF(alg)
			if err != nil {
				t.Fatalf("NewPRF(%s) error: %v", alg, err)
			}

			got, err := pbkdf2.Derive(prf, 7, password, salt, keyLen)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}

			want := xpbkdf2.Key(password, salt, 7, keyLen, newHash)
			if !bytes.Equal(got, want) {
				t.Errorf("%s keyLen %d: got %x, want %x", alg, keyLen, got, want)
			}

			prf.Clean()
		}
	}
}

func TestParameters(t *testing.T) {
	t.Parallel()

	prf, err := pbkdf2.NewPRF(digest.SHA256)
	if err != nil {
		t.Fatalf("NewPRF() error: %v", err)
	}

	tests := []struct {
		name       string
		prf        *pbkdf2.PRF
		iterations int
		keyLen     int
	}{
		{"zero iterations", prf, 0, 32},
		{"negative iterations", prf, -1, 32},
		{"zero length", prf, 1, 0},
		{"negative length", prf, 1, -5},
		{"nil prf", nil, 1, 32},
	}

	for _, tc := range tests {
		_, err := pbkdf2.Derive(tc.prf, tc.iterations, []byte("p"), []byte("s"), tc.keyLen)
		if !errors.Is(err, crypterr.ErrInvalidParameters) {
			t.Errorf("%s: error = %v, want ErrInvalidParameters", tc.name, err)
		}
	}

	if _, err := pbkdf2.NewPRF(digest.Algorithm(200)); !errors.Is(err, crypterr.ErrInvalidAlgorithm) {
		t.Errorf("NewPRF(200) error = %v, want ErrInvalidAlgorithm", err)
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()

	prf, err := pbkdf2.NewPRF(digest.SHA256)
	if err != nil {
		t.Fatalf("NewPRF() error: %v", err)
	}

	a, _ := pbkdf2.Derive(prf, 10, []byte("pw"), []byte("salt"), pbkdf2.DefaultKeyLen)
	b, _ := pbkdf2.Derive(prf, 10, []byte("pw"), []byte("salt"), pbkdf2.DefaultKeyLen)
	c, _ := pbkdf2.Derive(prf, 10, []byte("pw"), []byte("tlas"), pbkdf2.DefaultKeyLen)

	if !bytes.Equal(a, b) {
		t.Errorf("same inputs produced different keys")
	}

	if bytes.Equal(a, c) {
		t.Errorf("different salts produced the same key")
	}
}
