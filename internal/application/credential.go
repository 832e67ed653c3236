package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

var (
	ErrInvalidCredentialHash         = errors.New("invalid credential hash format")
	ErrIncompatibleCredentialVersion = errors.New("incompatible credential hash version")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashCredential encodes secret as $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func HashCredential(secret string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(secret), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// IsHashedCredential reports whether stored is an argon2id encoded hash.
func IsHashedCredential(stored string) bool {
	return strings.HasPrefix(stored, argon2idPrefix)
}

// VerifyCredential checks supplied against the stored credential, which is either an argon2id
// hash or a plaintext value provisioned by an older roster. It returns ErrUnauthorized on
// mismatch.
func VerifyCredential(stored, supplied string) error {
	if stored == "" {
		return ErrUnauthorized
	}
	if !IsHashedCredential(stored) {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1 {
			return nil
		}
		return ErrUnauthorized
	}

	parts := strings.Split(stored, "$")
	if len(parts) != 6 {
		return ErrInvalidCredentialHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentialHash, err)
	}
	if version != argon2.Version {
		return ErrIncompatibleCredentialVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentialHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentialHash, err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentialHash, err)
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(supplied), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}
	return ErrUnauthorized
}
