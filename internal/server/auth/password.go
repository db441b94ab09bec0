package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const dummyPassword = "canteen-dummy-password"

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is an
// error; a mismatch is not.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NewDummyHash returns a throwaway hash at cost. Comparing against it when a
// user does not exist makes an unknown username cost as much as a wrong
// password, so the hash must use the same cost as real ones.
func NewDummyHash(cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
}

// BurnPasswordCheck runs a throwaway comparison against dummyHash.
func BurnPasswordCheck(dummyHash []byte, password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
