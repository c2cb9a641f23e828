package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	jwtSecret     = getEnv("JWTSECRET", "")
	jwtSecretByte = []byte(jwtSecret)
	jwtMutex      sync.RWMutex
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}

// SetJWTSecret updates the secret used for session token signing. Thread-safe
// so tests can swap it without racing the middleware.
func SetJWTSecret(secret string) {
	jwtMutex.Lock()
	defer jwtMutex.Unlock()
	jwtSecret = secret
	jwtSecretByte = []byte(secret)
}

// GetJWTSecretByte returns a copy of the current JWT secret bytes.
func GetJWTSecretByte() []byte {
	jwtMutex.RLock()
	defer jwtMutex.RUnlock()
	return append([]byte(nil), jwtSecretByte...)
}

// GenerateSalt returns a random base64 salt for password hashing.
func GenerateSalt() (string, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// HashPassword derives an argon2id hash of the plain password with the given
// salt. The stored form is "argon2id$<salt>$<hash>".
func HashPassword(plain, salt string) (string, error) {
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}
	key := argon2.IDKey([]byte(plain), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("argon2id$%s$%s", salt, base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword re-derives the hash from the candidate password and compares
// it against the stored value in constant time.
func VerifyPassword(plain, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false, fmt.Errorf("unrecognized password hash format")
	}
	derived, err := HashPassword(plain, parts[1])
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(stored)) == 1, nil
}
