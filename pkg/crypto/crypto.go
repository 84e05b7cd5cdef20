package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost follows the bcrypt default; raising it requires a rehash-on-login
// migration for stored hashes.
const hashCost = bcrypt.DefaultCost

// dummyHash is a valid digest of an unknowable password. Comparing against it
// when no account matches makes unknown usernames cost the same as wrong
// passwords.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext candidate matches the hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// DummyCompare burns one bcrypt comparison and always fails.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
