// SPDX-License-Identifier: MIT
//
// Package bitint provides the power-of-two helpers used to size output
// device buffers. PortAudio hosts handle power-of-two frame counts best, so
// configured buffer sizes are rounded up with NextPowerOfTwo.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, and 1 for
// non-positive sizes. Subtracting one first keeps exact powers unchanged:
// bits.Len(7) is 3, so 8 maps to 1<<3 rather than 1<<4.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of two has
// a single bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
