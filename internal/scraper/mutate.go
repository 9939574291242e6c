package scraper

import (
	"math/rand"
	"strings"
)

// Identifier alphabet partitions used by the mutation strategies.
const (
	mutationLetters     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	mutationDigits      = "0123456789"
	mutationPunctuation = "_-"
	mutationAlphabet    = mutationLetters + mutationDigits + mutationPunctuation
	mutationAffixChars  = mutationLetters + mutationDigits
)

// mutateFunc derives a new same-length candidate from a seed identifier.
type mutateFunc func(rng *rand.Rand, seed string) string

// mutationStrategies are the candidate generators for the seed-based
// search. Each preserves the seed's length.
var mutationStrategies = []mutateFunc{
	mutateSingleChar,
	mutateMultipleChars,
	mutateSameClass,
	mutateAffix,
}

// mutateSingleChar replaces one character at a random position.
func mutateSingleChar(rng *rand.Rand, seed string) string {
	pos := rng.Intn(len(seed))
	replacement := mutationAlphabet[rng.Intn(len(mutationAlphabet))]
	return seed[:pos] + string(replacement) + seed[pos+1:]
}

// mutateMultipleChars replaces up to three characters at distinct random
// positions.
func mutateMultipleChars(rng *rand.Rand, seed string) string {
	changes := 1 + rng.Intn(maxInt(1, minInt(3, len(seed)/3)))
	result := []byte(seed)

	for _, pos := range rng.Perm(len(seed))[:changes] {
		result[pos] = mutationAlphabet[rng.Intn(len(mutationAlphabet))]
	}

	return string(result)
}

// mutateSameClass regenerates every character within its own class:
// letters become letters, digits digits, punctuation punctuation. The
// seed's visual pattern is the strongest structural hint available.
func mutateSameClass(rng *rand.Rand, seed string) string {
	var b strings.Builder
	b.Grow(len(seed))

	for i := 0; i < len(seed); i++ {
		ch := seed[i]
		switch {
		case isLetter(ch):
			b.WriteByte(mutationLetters[rng.Intn(len(mutationLetters))])
		case isDigit(ch):
			b.WriteByte(mutationDigits[rng.Intn(len(mutationDigits))])
		default:
			b.WriteByte(mutationPunctuation[rng.Intn(len(mutationPunctuation))])
		}
	}

	return b.String()
}

// mutateAffix regenerates a random-length prefix or suffix, up to half
// the identifier.
func mutateAffix(rng *rand.Rand, seed string) string {
	half := len(seed) / 2
	if half == 0 {
		return seed
	}
	n := 1 + rng.Intn(half)

	affix := make([]byte, n)
	for i := range affix {
		affix[i] = mutationAffixChars[rng.Intn(len(mutationAffixChars))]
	}

	if rng.Intn(2) == 0 {
		return string(affix) + seed[n:]
	}
	return seed[:len(seed)-n] + string(affix)
}

// mutate picks a random strategy and applies it to the seed.
func mutate(rng *rand.Rand, seed string) string {
	strategy := mutationStrategies[rng.Intn(len(mutationStrategies))]
	return strategy(rng, seed)
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
