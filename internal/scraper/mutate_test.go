package scraper_test

import (
	"math/rand"
	"testing"

	"github.com/locopon/locopon/internal/jsondata"
	"github.com/locopon/locopon/internal/scraper"
	"github.com/stretchr/testify/assert"
)

var mutationSeeds = []string{
	"QKw9mX46Cnk4AU70rkjh3",
	"em9yvCtQ7djrVR83KsdMP",
	"abc_123-DEF456ghij",
}

// Every strategy must preserve the seed's length.
func TestMutationStrategies_PreserveLength(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))

	for _, seed := range mutationSeeds {
		for i, strategy := range scraper.MutationStrategies {
			for round := 0; round < 50; round++ {
				candidate := strategy(rng, seed)
				assert.Len(t, candidate, len(seed),
					"strategy %d changed length of %q to %q", i, seed, candidate)
			}
		}
	}
}

// Every candidate must stay within the identifier alphabet.
func TestMutationStrategies_CandidatesAreValidIdentifiers(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2))

	for _, seed := range mutationSeeds {
		for round := 0; round < 200; round++ {
			candidate := scraper.Mutate(rng, seed)
			assert.True(t, jsondata.IsIdentifier(candidate),
				"candidate %q from seed %q is not a valid identifier", candidate, seed)
		}
	}
}

// The class-preserving strategy keeps letters letters, digits digits and
// punctuation punctuation at every position.
func TestMutateSameClass_PreservesCharacterClasses(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	seed := "Ab3_x9-Zq274klmnQ"

	classOf := func(ch byte) int {
		switch {
		case ch >= '0' && ch <= '9':
			return 1
		case ch == '_' || ch == '-':
			return 2
		default:
			return 0
		}
	}

	// Strategy index 2 is the class-preserving one.
	strategy := scraper.MutationStrategies[2]
	for round := 0; round < 100; round++ {
		candidate := strategy(rng, seed)
		for i := 0; i < len(seed); i++ {
			assert.Equal(t, classOf(seed[i]), classOf(candidate[i]),
				"class changed at position %d: %q -> %q", i, seed, candidate)
		}
	}
}

// Mutation is deterministic for a fixed random source.
func TestMutate_Reproducible(t *testing.T) {
	t.Parallel()

	first := scraper.Mutate(rand.New(rand.NewSource(42)), mutationSeeds[0])
	second := scraper.Mutate(rand.New(rand.NewSource(42)), mutationSeeds[0])

	assert.Equal(t, first, second)
}
