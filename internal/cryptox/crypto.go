// Package cryptox implements the cryptographic primitives of the vault:
// salt and nonce generation, Argon2id password hashing and verification,
// master-key derivation, and AES-GCM authenticated encryption of entry
// payloads and export envelopes.
//
// Salts, nonces and ciphertexts cross package boundaries as standard base64
// text so they can be stored and transported without further encoding.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/pwdbox/pwdbox/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the raw size of generated salts.
	SaltSize = 32
	// NonceSize is the AES-GCM nonce size.
	NonceSize = 12
	// KeySize is the AES-256 key size and the Argon2id output length.
	KeySize = 32

	// minSaltSize is the smallest raw salt accepted for key derivation.
	minSaltSize = 16

	// Key-derivation parameters. Deliberately cheaper than the hashing
	// parameters in hash.go: derivation runs on every vault operation that
	// opens a session, hashing only on setup and password rotation.
	deriveTime    = 1
	deriveMemory  = 64 * 1024
	deriveThreads = 4
)

// GenerateSalt returns a fresh random salt encoded as standard base64.
func GenerateSalt() string {
	return base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(SaltSize))
}

// GenerateNonce returns a fresh random 12-byte AES-GCM nonce encoded as
// standard base64. Nonces are always drawn from the system CSPRNG, never
// from a counter, so a nonce is unique per call with overwhelming
// probability and must never be reused with the same key.
func GenerateNonce() string {
	return base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(NonceSize))
}

// DeriveKey derives a 32-byte symmetric key from a password and a base64
// salt using Argon2id. The derivation is deterministic: the same
// (password, salt) pair always yields the same key, which is what lets a
// later login reproduce the key derived at setup.
//
// The salt must decode to at least 16 raw bytes.
func DeriveKey(password string, salt string) ([]byte, error) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed salt", common.ErrorValidation)
	}
	if len(saltBytes) < minSaltSize {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes", common.ErrorValidation, minSaltSize)
	}
	return argon2.IDKey([]byte(password), saltBytes, deriveTime, deriveMemory, deriveThreads, KeySize), nil
}

// Encrypt encrypts plaintext with AES-256-GCM under the given key and
// base64 nonce and returns the ciphertext as standard base64. The nonce
// must decode to exactly 12 bytes and the key must be 32 bytes.
func Encrypt(plaintext string, key []byte, nonce string) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: invalid key length", common.ErrorValidation)
	}
	nonceBytes, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil || len(nonceBytes) != NonceSize {
		return "", fmt.Errorf("%w: invalid nonce", common.ErrorValidation)
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	ciphertext := aesgcm.Seal(nil, nonceBytes, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails closed: on a wrong key, wrong nonce,
// or tampered ciphertext it returns common.ErrorCryptoFailure and never
// partial plaintext. The error carries no detail about which of the three
// was at fault.
func Decrypt(ciphertext string, key []byte, nonce string) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: invalid key length", common.ErrorValidation)
	}
	nonceBytes, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil || len(nonceBytes) != NonceSize {
		return "", fmt.Errorf("%w: invalid nonce", common.ErrorValidation)
	}
	ciphertextBytes, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", common.ErrorCryptoFailure
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aesgcm.Open(nil, nonceBytes, ciphertextBytes, nil)
	if err != nil {
		return "", common.ErrorCryptoFailure
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.ErrorCryptoFailure
	}
	return aesgcm, nil
}

// Wipe overwrites the contents of the provided byte slice with zeros.
// Callers holding key material must arrange for this to run on every exit
// path before the buffer goes out of scope. If the slice is nil, Wipe does
// nothing.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
