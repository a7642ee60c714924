// Package tokens generates the random identifiers used by the login flow:
// public login tags, session ids and numeric one-time codes.
package tokens

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Alphabet is the base-31 symbol set: digits and lowercase consonants, which
// avoids vowels and therefore accidental words.
const Alphabet = "0123456789bcdfghjklmnpqrstvwxyz"

// FixedCode is returned by a CodeGenerator in fixed mode.
const FixedCode = "123456"

const codeDigits = 6

var base = big.NewInt(int64(len(Alphabet)))

// GenerateToken returns a token of exactly length symbols from Alphabet.
// It draws length random bytes, renders them as a base-31 number least
// significant digit first and truncates to length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("[GenerateToken] length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[GenerateToken] reading random bytes")
	}
	i := new(big.Int).SetBytes(buf)
	mod := new(big.Int)

	var sb strings.Builder
	sb.Grow(length)
	for i.Sign() > 0 && sb.Len() < length {
		i.DivMod(i, base, mod)
		sb.WriteByte(Alphabet[mod.Int64()])
	}
	for sb.Len() < length {
		sb.WriteByte(Alphabet[0])
	}
	return sb.String(), nil
}

// IsToken reports whether s is a nonempty string of ASCII letters and digits.
func IsToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// CodeGenerator produces six digit one-time codes.
type CodeGenerator struct {
	fixed bool
}

// NewCodeGenerator returns a generator. With fixed set every code is
// FixedCode, which lets automated tests log in without reading mail.
func NewCodeGenerator(fixed bool) *CodeGenerator {
	return &CodeGenerator{fixed: fixed}
}

// Fixed reports whether the generator is in fixed mode.
func (g *CodeGenerator) Fixed() bool {
	return g.fixed
}

// Generate returns a new code of uniformly random digits.
func (g *CodeGenerator) Generate() (string, error) {
	if g.fixed {
		return FixedCode, nil
	}
	ten := big.NewInt(10)
	code := make([]byte, codeDigits)
	for i := range code {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", errors.Wrap(err, "[CodeGenerator] reading random digit")
		}
		code[i] = byte('0' + d.Int64())
	}
	return string(code), nil
}
