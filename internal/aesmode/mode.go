package aesmode

import (
	"fmt"
	"strings"

	"github.com/idelchi/idxcrypt/internal/crypterr"
)

// Mode is a block cipher mode of operation.
type Mode uint8

const (
	// ECB encrypts every block independently.
	ECB Mode = iota
	// CBC chains each plaintext block with the previous ciphertext block.
	CBC
	// CFB is 128-bit cipher feedback.
	CFB
	// OFB is output feedback.
	OFB
	// CTR is counter mode with the whole IV as a big-endian 128-bit counter.
	CTR
)

//nolint:gochecknoglobals // fixed lookup table
var modeNames = [...]string{ECB: "ecb", CBC: "cbc", CFB: "cfb", OFB: "ofb", CTR: "ctr"}

// Modes returns every supported mode.
func Modes() []Mode {
	return []Mode{ECB, CBC, CFB, OFB, CTR}
}

func (m Mode) String() string {
	if int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", m)
	}

	return modeNames[m]
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return int(m) < len(modeNames)
}

// Block reports whether the mode works on whole blocks and therefore supports padding.
func (m Mode) Block() bool {
	return m == ECB || m == CBC
}

// ParseMode resolves a case-insensitive mode name.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes() {
		if strings.EqualFold(strings.TrimSpace(name), m.String()) {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown mode %q", crypterr.ErrInvalidParameters, name)
}

// KeySize is an AES key length in bits.
type KeySize int

// Supported AES key sizes.
const (
	AES128 KeySize = 128
	AES192 KeySize = 192
	AES256 KeySize = 256
)

// Bytes returns the key length in bytes.
func (k KeySize) Bytes() int {
	return int(k) / 8 //nolint:mnd
}

// Valid reports whether k is one of the AES key sizes.
func (k KeySize) Valid() bool {
	return k == AES128 || k == AES192 || k == AES256
}

// CipherMode selects a mode and key size.
type CipherMode struct {
	Mode    Mode
	KeySize KeySize
}

// Validate checks both fields.
func (cm CipherMode) Validate() error {
	if !cm.Mode.Valid() {
		return fmt.Errorf("%w: %s", crypterr.ErrInvalidParameters, cm.Mode)
	}

	if !cm.KeySize.Valid() {
		return fmt.Errorf("%w: key size %d bits", crypterr.ErrInvalidParameters, cm.KeySize)
	}

	return nil
}

func (cm CipherMode) String() string {
	return fmt.Sprintf("aes-%d-%s", cm.KeySize, cm.Mode)
}

// Direction selects encryption or decryption.
type Direction uint8

const (
	// Encrypt transforms plaintext into ciphertext.
	Encrypt Direction = iota
	// Decrypt transforms ciphertext into plaintext.
	Decrypt
)

func (d Direction) String() string {
	if d == Decrypt {
		return "decrypt"
	}

	return "encrypt"
}
