package cryptox

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pwdbox/pwdbox/internal/common"
)

// EncryptExport encrypts data under a key derived from the passphrase and a
// fresh salt, and packs everything needed for decryption into one opaque
// token: base64("SALT:NONCE:CIPHERTEXT"), each field itself base64. The
// passphrase is independent of the vault's master password, which is what
// makes exports portable.
func EncryptExport(data string, passphrase string) (string, error) {
	salt := GenerateSalt()
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}
	defer Wipe(key)

	nonce := GenerateNonce()
	ciphertext, err := Encrypt(data, key, nonce)
	if err != nil {
		return "", err
	}

	envelope := fmt.Sprintf("%s:%s:%s", salt, nonce, ciphertext)
	return base64.StdEncoding.EncodeToString([]byte(envelope)), nil
}

// DecryptExport reverses EncryptExport. A token that does not split into
// exactly three fields is a validation error; every cryptographic failure
// after that (wrong passphrase, tampered ciphertext) collapses to
// common.ErrorCryptoFailure.
func DecryptExport(envelope string, passphrase string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envelope))
	if err != nil {
		return "", fmt.Errorf("%w: malformed export token", common.ErrorValidation)
	}

	parts := strings.SplitN(string(decoded), ":", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed export token", common.ErrorValidation)
	}
	salt, nonce, ciphertext := parts[0], parts[1], parts[2]

	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return "", common.ErrorCryptoFailure
	}
	defer Wipe(key)

	plaintext, err := Decrypt(ciphertext, key, nonce)
	if err != nil {
		return "", common.ErrorCryptoFailure
	}
	return plaintext, nil
}
