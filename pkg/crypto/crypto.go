package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"math/big"

	"golang.org/x/crypto/scrypt"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const digits = "0123456789"

func GenerateRandomAlphabet(n uint) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[RandIntn(len(alphabet))]
	}
	return string(b)
}

// GenerateRandomDigits returns a numeric string of length n, used for
// verification codes. Leading zeros are allowed.
func GenerateRandomDigits(n uint) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[RandIntn(len(digits))]
	}
	return string(b)
}

func GenerateSalt() string {
	return GenerateRandomAlphabet(16)
}

func SHA256(b []byte) string {
	hashed := sha256.Sum256(b)
	return base64.StdEncoding.EncodeToString(hashed[:])
}

// HashVerificationCode binds the code to the phone it was issued for, so a
// leaked table row cannot be replayed against another phone.
func HashVerificationCode(phoneHash, code, salt string) string {
	return SHA256([]byte(phoneHash + code + salt))
}

// HashPassword derives a scrypt hash from the password and salt. Parameters
// follow the library recommendation for interactive logins.
func HashPassword(password, salt string) (string, error) {
	dk, err := scrypt.Key([]byte(password), []byte(salt), 1<<15, 8, 1, 32)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(dk), nil
}

func VerifyPassword(password, salt, hash string) bool {
	computed, err := HashPassword(password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// HashPhone produces the stable identifier stored in place of the raw phone
// number. It is keyed by a server-side pepper from the configuration.
func HashPhone(phone, pepper string) string {
	return SHA256([]byte(pepper + phone))
}

// RandIntn returns a uniform random value in [0, n). It panics if got a
// non-positive parameter.
func RandIntn(n int) int {
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(r.Int64())
}
