package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// saltLen matches the SHA-512 output size.
const saltLen = 64

// HashPassword derives a salted HMAC-SHA512 hash of password. The salt is a
// fresh random HMAC key, so identical passwords never share a hash. Both
// values are returned base64-encoded for storage.
func HashPassword(password string) (hash, salt string, err error) {
	key := make([]byte, saltLen)
	if _, err := rand.Read(key); err != nil {
		return "", "", fmt.Errorf("generate salt: %w", err)
	}
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)),
		base64.StdEncoding.EncodeToString(key), nil
}

// VerifyPassword recomputes the hash of password keyed with the stored salt
// and compares it against the stored hash in constant time.
func VerifyPassword(password, storedHash, storedSalt string) bool {
	key, err := base64.StdEncoding.DecodeString(storedSalt)
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(password))
	return subtle.ConstantTimeCompare(mac.Sum(nil), want) == 1
}
