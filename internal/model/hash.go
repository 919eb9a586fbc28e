package model

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// CryptoHash is a 32-byte chain hash. Its text form is base58.
type CryptoHash [32]byte

// ParseCryptoHash decodes a base58 hash string.
func ParseCryptoHash(input string) (CryptoHash, error) {
	var h CryptoHash
	if input == "" {
		return h, fmt.Errorf("empty hash")
	}
	raw := base58.Decode(input)
	if len(raw) != len(h) {
		return h, fmt.Errorf("invalid hash %q: decoded to %d bytes", input, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// MustParseCryptoHash is ParseCryptoHash for constants and tests.
func MustParseCryptoHash(input string) CryptoHash {
	h, err := ParseCryptoHash(input)
	if err != nil {
		panic(err)
	}
	return h
}

func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

func (h CryptoHash) IsZero() bool {
	return h == CryptoHash{}
}

// MarshalText encodes the hash as base58.
func (h CryptoHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a base58 hash.
func (h *CryptoHash) UnmarshalText(data []byte) error {
	parsed, err := ParseCryptoHash(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
