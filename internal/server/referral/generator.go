// Package referral builds the shareable codes handed to new clients.
package referral

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	prefixLen = 3
	suffixLen = 6
	// CodeLength is the length of every generated code.
	CodeLength = prefixLen + suffixLen

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	padChar  = 'X'
	// largest multiple of len(alphabet) that fits in a byte
	maxUnbiased = 252
)

// Generator produces referral codes from a display name plus randomness.
// Codes are not guaranteed unique; callers rely on the store's unique
// constraint and retry.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Generate returns a 9-character code: up to three leading ASCII letters or
// digits of displayName (uppercased, right-padded with 'X') followed by six
// random characters from [A-Z0-9].
func (g *Generator) Generate(displayName string) (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)

	for _, r := range strings.ToUpper(strings.TrimSpace(displayName)) {
		if b.Len() == prefixLen {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	for b.Len() < prefixLen {
		b.WriteByte(padChar)
	}

	suffix, err := g.randomChars(suffixLen)
	if err != nil {
		return "", fmt.Errorf("referral code randomness: %w", err)
	}
	b.WriteString(suffix)

	return b.String(), nil
}

// randomChars draws n characters uniformly from alphabet using rejection sampling.
func (g *Generator) randomChars(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for len(out) < n {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}
		for _, c := range buf {
			if c >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(c)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}
