// Package common defines shared constants and sentinel errors used across
// PwdBox components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Vault lifecycle errors.
	ErrorNotInitialized     = errors.New("vault is not initialized")
	ErrorAlreadyInitialized = errors.New("vault is already set up")

	// ErrorCryptoFailure is the single failure surfaced for any cryptographic
	// root cause (bad key, bad ciphertext, bad tag, malformed hash). Outer
	// layers must not learn which one it was.
	ErrorCryptoFailure = errors.New("operation failed")

	// Validation errors: malformed key length, malformed export token,
	// missing required field. Rejected before any cryptographic work.
	ErrorValidation = errors.New("validation error")

	// Storage / internal flow control.
	ErrorInternal = errors.New("internal error")
)
