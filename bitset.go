package filtercache

import "math/bits"

// bitset is a small growable bitmap backed by a word slice. None of the
// teacher's or pack's dependency graphs carry a bitmap/roaring-bitmap
// library (see DESIGN.md), so this is implemented directly on
// math/bits, as any of those programs would have had to if they needed
// one without pulling in an unrelated dependency.
type bitset struct {
	words []uint64
}

func newBitset(nbits int) *bitset {
	return &bitset{words: make([]uint64, wordsFor(nbits))}
}

func wordsFor(nbits int) int {
	if nbits <= 0 {
		return 0
	}
	return (nbits + 63) / 64
}

func (b *bitset) ensure(i int) {
	need := i/64 + 1
	if need > len(b.words) {
		grown := make([]uint64, need)
		copy(grown, b.words)
		b.words = grown
	}
}

// set marks bit i.
func (b *bitset) set(i int) {
	b.ensure(i)
	b.words[i/64] |= 1 << uint(i%64)
}

// test reports whether bit i is set.
func (b *bitset) test(i int) bool {
	if i/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// testRange reports whether every bit in [lo, hi) is set.
func (b *bitset) testRange(lo, hi int) bool {
	for i := lo; i < hi; i++ {
		if !b.test(i) {
			return false
		}
	}
	return true
}

// popCount returns the number of set bits.
func (b *bitset) popCount() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// clone returns an independent copy.
func (b *bitset) clone() *bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &bitset{words: words}
}

// setBits returns the (0-based) indices of every set bit, ascending.
func (b *bitset) setBits() []int {
	var out []int
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, wi*64+tz)
			w &^= 1 << uint(tz)
		}
	}
	return out
}

// equal reports whether two bitsets have identical bit patterns,
// ignoring any all-zero tail length difference.
func (b *bitset) equal(other *bitset) bool {
	n := len(b.words)
	if len(other.words) > n {
		n = len(other.words)
	}
	for i := 0; i < n; i++ {
		var a, c uint64
		if i < len(b.words) {
			a = b.words[i]
		}
		if i < len(other.words) {
			c = other.words[i]
		}
		if a != c {
			return false
		}
	}
	return true
}
