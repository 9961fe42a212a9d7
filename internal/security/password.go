package security

import "golang.org/x/crypto/bcrypt"

// bcrypt only reads the first 72 bytes of a password. x/crypto rejects longer input,
// so both hashing and comparison cut it to that prefix.
const maxPasswordBytes = 72

func bcryptInput(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword hashes a plain text password with bcrypt. Every call draws a fresh salt,
// which bcrypt embeds in the returned string.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plain))
}

// VerifyPassword reports whether plain matches hash. A malformed hash is a mismatch.
func VerifyPassword(hash, plain string) bool {
	return CheckPassword(hash, plain) == nil
}
