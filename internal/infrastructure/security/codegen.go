package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/hongkongkiwi/know-your-people/internal/application/ports"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	digitChars        = "0123456789"
)

// CodeGenerator implements ports.CodeGenerator on crypto/rand. Each character
// is drawn uniformly from the alphabet, so codes carry no modulo bias.
type CodeGenerator struct{}

func NewCodeGenerator() CodeGenerator { return CodeGenerator{} }

func (CodeGenerator) Generate(length int, alphabet ports.CodeAlphabet) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	chars := alphanumericChars
	if alphabet == ports.AlphabetDigits {
		chars = digitChars
	}
	max := big.NewInt(int64(len(chars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

var _ ports.CodeGenerator = CodeGenerator{}
