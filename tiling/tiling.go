package tiling

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// MaxDimPixels is the largest frame dimension a single render job can
// address. Transfers covering more pixels than MaxDimPixels² have to be split
// into multiple jobs by the caller.
const MaxDimPixels = 4096

// FramebufferSizeForPixelCount figures out a framebuffer configuration for a
// number of pixels to process, preferring near-square shapes: starting from
// (n, 1) it halves the width and doubles the height while the width is even
// and more than twice the height. The result never covers more than n pixels.
func FramebufferSizeForPixelCount(n uint32) (width, height uint32) {
	if n == 0 {
		panic("tiling: zero pixel count")
	}

	const maxPixels = MaxDimPixels * MaxDimPixels
	if n > maxPixels {
		return MaxDimPixels, MaxDimPixels
	}

	w, h := n, uint32(1)
	for w > MaxDimPixels || (w%2 == 0 && w > 2*h) {
		w >>= 1
		h <<= 1
	}
	if w == 0 || h == 0 || w*h > n || w > MaxDimPixels || h > MaxDimPixels {
		panic(fmt.Sprintf("tiling: bad framebuffer size %dx%d for %d pixels", w, h, n))
	}
	return w, h
}

// SupertileCoverage returns the inclusive maximum supertile coordinates for a
// frame. Coverage always starts at supertile (0, 0).
func SupertileCoverage(frameW, frameH, supertileWPixels, supertileHPixels uint32) (maxX, maxY uint32) {
	maxX = (frameW - 1) / supertileWPixels
	maxY = (frameH - 1) / supertileHPixels
	return maxX, maxY
}

func AlignUp[T constraints.Integer](v, alignment T) T {
	return (v + alignment - 1) / alignment * alignment
}

func DivRoundUp[T constraints.Integer](n, d T) T {
	return (n + d - 1) / d
}

// UIFBlockWidth and UIFBlockHeight are the pixel dimensions of one UIF block
// for a given number of bytes per pixel. A UIF block is a 2x2 arrangement of
// 64-byte utiles.
func UIFBlockWidth(cpp uint32) uint32 {
	return 2 * utileWidth(cpp)
}

func UIFBlockHeight(cpp uint32) uint32 {
	return 2 * utileHeight(cpp)
}

// A utile always holds 64 bytes; its shape depends on the pixel size.
func utileWidth(cpp uint32) uint32 {
	switch cpp {
	case 1, 2:
		return 8
	case 4, 8:
		return 4
	case 16:
		return 2
	default:
		panic(fmt.Sprintf("tiling: unsupported pixel size %d", cpp))
	}
}

func utileHeight(cpp uint32) uint32 {
	switch cpp {
	case 1:
		return 8
	case 2, 4:
		return 4
	case 8, 16:
		return 2
	default:
		panic(fmt.Sprintf("tiling: unsupported pixel size %d", cpp))
	}
}
