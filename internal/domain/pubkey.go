package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const (
	// PublicKeyLength is the byte length of a Solana account address.
	PublicKeyLength = 32
	// SignatureLength is the byte length of a Solana transaction signature.
	SignatureLength = 64
)

// ErrInvalidLength is returned when decoded bytes have the wrong size.
var ErrInvalidLength = errors.New("invalid length")

// PublicKey is a 32-byte Solana account address.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 account address.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode public key %q: %w", s, err)
	}
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("public key %q: %w: got %d bytes", s, ErrInvalidLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// MustParsePublicKey is like ParsePublicKey but panics on error.
// Intended for package-level constants.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// PublicKeyFromBytes copies raw bytes into a PublicKey.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeyLength {
		return pk, fmt.Errorf("public key: %w: got %d bytes", ErrInvalidLength, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the base58 encoding.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsZero reports whether the key is all zeros.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// IsOnCurve reports whether the key is a valid ed25519 point.
// Wallet keys are on the curve; program-derived addresses (pools, vaults) are not.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// Signature is a 64-byte transaction signature.
type Signature [SignatureLength]byte

// ParseSignature decodes a base58 transaction signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("decode signature: %w", err)
	}
	if len(b) != SignatureLength {
		return sig, fmt.Errorf("signature: %w: got %d bytes", ErrInvalidLength, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

// String returns the base58 encoding.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether the signature is unset.
func (s Signature) IsZero() bool {
	return s == Signature{}
}
