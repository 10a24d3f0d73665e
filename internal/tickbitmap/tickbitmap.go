// Package tickbitmap maintains the packed index of initialized ticks. Bit b
// of word w represents tick (w*256 + b) * tickSpacing.
package tickbitmap

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

var ErrTickNotSpaced = errors.New("tickbitmap: tick is not a multiple of spacing")

// Bitmap maps word index to a 256-bit word. A missing word reads as zero.
type Bitmap map[int16]*uint256.Int

// New returns an empty bitmap.
func New() Bitmap {
	return make(Bitmap)
}

// FlipTick toggles the initialized bit for tick. The tick must be aligned to
// tickSpacing.
func (b Bitmap) FlipTick(tick, tickSpacing int32) error {
	if tick%tickSpacing != 0 {
		return ErrTickNotSpaced
	}
	wordPos, bitPos := position(tick / tickSpacing)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
	word, ok := b[wordPos]
	if !ok {
		word = new(uint256.Int)
		b[wordPos] = word
	}
	word.Xor(word, mask)
	if word.IsZero() {
		delete(b, wordPos)
	}
	return nil
}

// NextInitializedTickWithinOneWord returns the next initialized tick in the
// given direction, searching at most one 256-bit word. When no bit is set in
// the word it returns the word boundary with initialized=false and the caller
// continues from there on the next iteration.
func (b Bitmap) NextInitializedTickWithinOneWord(tick, tickSpacing int32, lte bool) (int32, bool) {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		// Round toward negative infinity. The swap loop passes its current
		// tick, which need not be a multiple of tickSpacing.
		compressed--
	}

	if lte {
		wordPos, bitPos := position(compressed)
		// All bits at or below bitPos; a shift of 256 wraps to zero, making
		// the mask all ones for bitPos 255.
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos+1)
		mask.SubUint64(mask, 1)
		masked := new(uint256.Int).And(b.word(wordPos), mask)

		if !masked.IsZero() {
			next := (compressed - int32(bitPos-mostSignificantBit(masked))) * tickSpacing
			return next, true
		}
		next := (compressed - int32(bitPos)) * tickSpacing
		return next, false
	}

	wordPos, bitPos := position(compressed + 1)
	// All bits at or above bitPos.
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bitPos)
	mask.SubUint64(mask, 1).Not(mask)
	masked := new(uint256.Int).And(b.word(wordPos), mask)

	if !masked.IsZero() {
		next := (compressed + 1 + int32(leastSignificantBit(masked)-bitPos)) * tickSpacing
		return next, true
	}
	next := (compressed + 1 + int32(255-bitPos)) * tickSpacing
	return next, false
}

func (b Bitmap) word(pos int16) *uint256.Int {
	if word, ok := b[pos]; ok {
		return word
	}
	return new(uint256.Int)
}

func position(compressed int32) (int16, uint) {
	return int16(compressed >> 8), uint(compressed & 255)
}

func mostSignificantBit(x *uint256.Int) uint {
	return uint(x.BitLen() - 1)
}

func leastSignificantBit(x *uint256.Int) uint {
	for i := 0; i < 4; i++ {
		if limb := x[i]; limb != 0 {
			return uint(i*64 + bits.TrailingZeros64(limb))
		}
	}
	return 0
}
