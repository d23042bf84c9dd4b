package test

import "math/rand/v2"

// referenceAlphabet mixes ASCII with multi-byte runes so rune-aware code gets exercised.
var referenceAlphabet = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ0123456789-# äöüéñßø")

// RandomReference returns a pseudo-random order reference of minLen..maxLen runes.
func RandomReference(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	out := make([]rune, minLen+rand.IntN(maxLen-minLen+1))
	for i := range out {
		out[i] = referenceAlphabet[rand.IntN(len(referenceAlphabet))]
	}
	return string(out)
}
