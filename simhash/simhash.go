// Package simhash fingerprints rendered page text so two runs over the same
// archived snapshot can be compared without storing the text itself.
package simhash

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// shingleSize is the number of consecutive words hashed together.
const shingleSize = 2

// Fingerprint computes a 64-bit SimHash of text. Words are lowercased and
// stripped of surrounding punctuation, then hashed in overlapping pairs
// with FNV-64a. Text with no words fingerprints to 0.
func Fingerprint(text string) uint64 {
	words := normalize(text)
	if len(words) == 0 {
		return 0
	}

	features := shingles(words, shingleSize)
	if len(features) == 0 {
		features = words
	}

	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
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

func normalize(text string) []string {
	fields := strings.Fields(text)
	words := fields[:0]
	for _, f := range fields {
		w := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func shingles(words []string, n int) []string {
	if len(words) < n {
		return nil
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i <= len(words)-n; i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}
