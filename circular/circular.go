package circular

import "math/bits"

// NextExp2 returns the next power of 2 strictly greater than x.  (Useful when
// sizing rings and open-addressed tables.)  NextExp2(0) is 1.
func NextExp2(x int) int {
	if x <= 0 {
		return 1
	}
	log2 := 63 - bits.LeadingZeros64(uint64(x))
	return 2 << uint32(log2)
}
