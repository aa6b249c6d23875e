// Package drift fingerprints the tag structure of fetched documents so that
// layout changes on an upstream page can be noticed before the extraction
// heuristics silently start returning nulls.
package drift

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash over the whitespace-separated
// features of text, hashing each feature with FNV-64a.
func Fingerprint(text string) uint64 {
	features := strings.Fields(text)
	if len(features) == 0 {
		return 0
	}

	var weights [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				weights[i]++
			} else {
				weights[i]--
			}
		}
	}

	var fp uint64
	for i, w := range weights {
		if w > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
