package service

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes of a password. Longer passwords are
// cut to that length on both hash and verify, which keeps stored hashes
// compatible with other bcrypt implementations that truncate silently.
const maxPasswordBytes = 72

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password)) == nil
}
