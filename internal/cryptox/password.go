// Package cryptox holds the credential hashing used for account passwords.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/subscribers/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names a supported password hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

var errInvalidHash = errors.New("invalid password hash")

// PasswordHasher produces self-describing hash strings. New hashes use the
// configured algorithm; Verify accepts hashes of either algorithm.
type PasswordHasher struct {
	algorithm  Algorithm
	bcryptCost int
}

// NewPasswordHasher validates the algorithm name. A bcryptCost outside
// bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(algorithm string, bcryptCost int) (*PasswordHasher, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(algorithm)))
	switch a {
	case "":
		a = AlgorithmBcrypt
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}

	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &PasswordHasher{algorithm: a, bcryptCost: bcryptCost}, nil
}

// Hash returns a salted hash of password. An empty password is rejected
// with common.ErrorValidation.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", common.ErrorValidation)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if h.algorithm == AlgorithmArgon2id {
		return hashArgon2id(pw)
	}

	b, err := bcrypt.GenerateFromPassword(pw, h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password is longer than 72 bytes", common.ErrorValidation)
		}
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. Malformed or unknown hashes
// never match.
func (h *PasswordHasher) Verify(password, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		ok, err := verifyArgon2id(password, hash)
		return err == nil && ok
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return false
}

func hashArgon2id(password []byte) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonTime,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

func verifyArgon2id(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidHash
	}

	version, err := parseUint32Param(parts[2], "v=")
	if err != nil || int(version) != argon2.Version {
		return false, errInvalidHash
	}

	mem, timeCost, threads, err := parseArgonParams(parts[3])
	if err != nil {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, errInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, timeCost, mem, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

func parseArgonParams(value string) (mem uint32, timeCost uint32, threads uint8, err error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return 0, 0, 0, errInvalidHash
	}

	if mem, err = parseUint32Param(parts[0], "m="); err != nil {
		return 0, 0, 0, err
	}
	if timeCost, err = parseUint32Param(parts[1], "t="); err != nil || timeCost == 0 {
		return 0, 0, 0, errInvalidHash
	}
	p, err := parseUint32Param(parts[2], "p=")
	if err != nil || p == 0 || p > 255 {
		return 0, 0, 0, errInvalidHash
	}
	return mem, timeCost, uint8(p), nil
}

func parseUint32Param(value, prefix string) (uint32, error) {
	if !strings.HasPrefix(value, prefix) {
		return 0, errInvalidHash
	}
	parsed, err := strconv.ParseUint(strings.TrimPrefix(value, prefix), 10, 32)
	if err != nil {
		return 0, errInvalidHash
	}
	return uint32(parsed), nil
}
