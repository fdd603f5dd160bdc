// Package f16 converts between float32 and IEEE-754 binary16 values
// represented as the bits of a uint16.
package f16

import "math"

// Bits converts an f32 to binary16 format.
// This implementation was adapted from Fabian Giesen's `float_to_half_fast3`()
// function which can be found at <https://gist.github.com/rygorous/2156668#file-gistfile1-cpp-L285>
func Bits(val float32) uint16 {
	const inf32 uint32 = 255 << 23
	const inf16 uint32 = 31 << 23
	const magic uint32 = 15 << 23
	const signMask uint32 = 0x8000_0000
	const roundMask uint32 = 0xFFFF_F000

	u := math.Float32bits(val)
	sign := u & signMask
	u = u ^ sign

	// NOTE all the integer compares in this function can be safely
	// compiled into signed compares since all operands are below
	// 0x80000000. Important if you want fast straight SSE2 code
	// (since there's no unsigned PCMPGTD).

	// Inf or NaN (all exponent bits set)
	var output uint16
	if u >= inf32 {
		// NaN -> qNaN and Inf->Inf
		if u > inf32 {
			output = 0x7E00
		} else {
			output = 0x7C00
		}
	} else {
		// (De)normalized number or zero
		u := u & roundMask
		u = math.Float32bits(math.Float32frombits(u) * math.Float32frombits(magic))
		u = u - roundMask

		// Clamp to signed infinity if exponent overflowed
		if u > inf16 {
			u = inf16
		}
		output = uint16(u >> 13) // Take the bits!
	}
	return output | uint16(sign>>16)
}

// Float32 converts binary16 bits to an f32.
func Float32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := uint32(bits >> 10 & 0x1f)
	mant := uint32(bits & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal. Renormalize.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case 0x1f:
		return math.Float32frombits(sign | 255<<23 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}
