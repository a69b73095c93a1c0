// Package crypto provides cryptographic utilities for password hashing.
package crypto

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/scrypt"
)

// adminHashCache caches HashAdminSecret results keyed by "secret:utcDay".
// Entries for previous days stay in memory harmlessly (at most 31).
var adminHashCache sync.Map

// Scrypt parameters matching the frontend implementation.
// N=16384 (2^14), r=8, p=1 are recommended for interactive logins.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// HashWithScrypt hashes an input string using scrypt with the given salt.
// The salt is lowercased before use. Returns hex-encoded hash.
// Parameters match the frontend: N=16384, r=8, p=1, keyLen=32.
func HashWithScrypt(input, salt string) (string, error) {
	saltBytes := []byte(strings.ToLower(salt))
	dk, err := scrypt.Key([]byte(input), saltBytes, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return hex.EncodeToString(dk), nil
}

// HashAdminSecret hashes the shared admin secret for comparison with the
// client-provided hash, using the UTC day as salt so hashes expire daily.
// Results are cached per day to avoid repeated scrypt computation.
func HashAdminSecret(secret string) (string, error) {
	utcDay := strconv.Itoa(time.Now().UTC().Day())
	cacheKey := secret + ":" + utcDay

	if cached, ok := adminHashCache.Load(cacheKey); ok {
		return cached.(string), nil
	}

	hash, err := HashWithScrypt(secret, utcDay)
	if err != nil {
		return "", err
	}

	adminHashCache.Store(cacheKey, hash)
	return hash, nil
}
