package pnr

import "github.com/samber/lo"

const (
	Prefix = "PNR"
	// SuffixLength random characters follow the prefix.
	SuffixLength = 6
	Length       = len(Prefix) + SuffixLength
)

var alphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

type Generator interface {
	Generate() string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string {
	return f()
}

// Random draws the suffix uniformly from A-Z0-9. Codes are not unique by
// construction; storage rejects duplicates.
type Random struct{}

func NewRandom() Random {
	return Random{}
}

func (Random) Generate() string {
	return Prefix + lo.RandomString(SuffixLength, alphabet)
}

// Valid reports whether code has the shape produced by Random.
func Valid(code string) bool {
	if len(code) != Length || code[:len(Prefix)] != Prefix {
		return false
	}
	for _, r := range code[len(Prefix):] {
		if !lo.Contains(alphabet, r) {
			return false
		}
	}
	return true
}
