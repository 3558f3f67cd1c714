package password

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const generateCharset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!@#$%^&*()_+-=[]{}"

// Generate mints a random password of the given length from the provisioning
// charset using crypto/rand.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid password length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(generateCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(generateCharset[n.Int64()])
	}

	return b.String(), nil
}
