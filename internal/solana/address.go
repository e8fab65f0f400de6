package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrInvalidPublicKey is returned for strings that are not 32-byte base58 keys.
var ErrInvalidPublicKey = errors.New("Invalid public key input")

// DecodeAddress decodes a base58 account address.
func DecodeAddress(addr string) ([]byte, error) {
	if addr == "" {
		return nil, ErrInvalidPublicKey
	}
	b, err := base58.Decode(addr)
	if err != nil || len(b) != 32 {
		return nil, ErrInvalidPublicKey
	}
	return b, nil
}

// ValidateAddress reports whether addr is a well-formed account address.
func ValidateAddress(addr string) error {
	_, err := DecodeAddress(addr)
	return err
}

// FindProgramAddress derives a Program Derived Address and its bump seed.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	programBytes, err := DecodeAddress(programID)
	if err != nil {
		return "", 0, fmt.Errorf("program id: %w", err)
	}
	for _, seed := range seeds {
		if len(seed) > 32 {
			return "", 0, fmt.Errorf("seed longer than 32 bytes")
		}
	}

	// sha256(seeds || bump || programID || "ProgramDerivedAddress"), first off-curve hit wins
	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, programBytes...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !IsOnCurve(hash[:]) {
			return base58.Encode(hash[:]), uint8(bump), nil
		}
	}

	return "", 0, fmt.Errorf("no viable bump seed")
}

// IsOnCurve reports whether point decodes to an ed25519 curve point.
func IsOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
