// Package simhash provides near-duplicate text fingerprinting for the
// chain controller's loop guard: two quiz pages whose extracted text hashes
// within a small Hamming distance are treated as the same task revisited.
package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// shingleSize is the n-gram width used for fingerprinting. Word triples
// capture phrase order, so reshuffled boilerplate doesn't collide while
// the same question fetched twice does.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of the given text over word
// 3-gram shingles (falling back to single words for very short inputs).
// Returns 0 for empty/whitespace input.
func Fingerprint(text string) uint64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	tokens := makeShingles(words, shingleSize)
	if tokens == nil {
		tokens = words
	}

	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

// makeShingles joins consecutive token n-grams with underscores.
// Returns nil when there are fewer than n tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
