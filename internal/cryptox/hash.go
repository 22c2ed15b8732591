package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pwdbox/pwdbox/internal/common"
	"golang.org/x/crypto/argon2"
)

// Password-hashing parameters. Heavier than the derivation parameters in
// crypto.go: these hashes gate setup and password changes only.
const (
	hashTime    = 3
	hashMemory  = 64 * 1024
	hashThreads = 4
	hashLen     = 32

	phcVariant = "argon2id"
)

// HashPassword hashes a password with Argon2id and the given base64 salt and
// returns a self-describing PHC string of the form
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//
// where salt and hash are unpadded base64. The embedded parameters make the
// string verifiable without any external configuration, so parameter changes
// never invalidate stored hashes.
func HashPassword(password string, salt string) (string, error) {
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("%w: malformed salt", common.ErrorValidation)
	}
	if len(saltBytes) < minSaltSize {
		return "", fmt.Errorf("%w: salt must be at least %d bytes", common.ErrorValidation, minSaltSize)
	}

	hash := argon2.IDKey([]byte(password), saltBytes, hashTime, hashMemory, hashThreads, hashLen)

	encoded := fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcVariant, argon2.Version, hashMemory, hashTime, hashThreads,
		base64.RawStdEncoding.EncodeToString(saltBytes),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword checks a password against a stored PHC hash string.
// It recomputes the hash with the parameters embedded in the string and
// compares in constant time. A mismatch is (false, nil); an error is
// returned only for a hash string that cannot be parsed.
func VerifyPassword(password string, encoded string) (bool, error) {
	salt, hash, time, memory, threads, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// parsePHC splits a $argon2id$v=19$m=..,t=..,p=..$salt$hash string into its
// components. Every malformed shape maps to the same validation error.
func parsePHC(encoded string) (salt, hash []byte, time, memory uint32, threads uint8, err error) {
	malformed := fmt.Errorf("%w: malformed password hash", common.ErrorValidation)

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcVariant {
		return nil, nil, 0, 0, 0, malformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, malformed
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, malformed
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, malformed
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, nil, 0, 0, 0, malformed
	}
	return salt, hash, time, memory, threads, nil
}
