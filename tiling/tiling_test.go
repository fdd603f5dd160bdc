package tiling

import "testing"

func TestFramebufferSizeForPixelCount(t *testing.T) {
	tests := []struct {
		n    uint32
		w, h uint32
	}{
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{64, 8, 8},
		{1024, 32, 32},
		{1025, 1025, 1},
		{4096, 64, 64},
		{4100, 1025, 4},
		{4096 * 4096, 4096, 4096},
	}
	for _, tt := range tests {
		w, h := FramebufferSizeForPixelCount(tt.n)
		if w != tt.w || h != tt.h {
			t.Errorf("FramebufferSizeForPixelCount(%d) = %dx%d, want %dx%d", tt.n, w, h, tt.w, tt.h)
		}
	}
}

func TestFramebufferSizeCoversAtMostN(t *testing.T) {
	for _, n := range []uint32{1, 2, 3, 7, 100, 999, 4095, 4097, 65535, 1 << 20, 4096*4096 - 1} {
		w, h := FramebufferSizeForPixelCount(n)
		if w*h > n {
			t.Errorf("n=%d: %dx%d covers %d pixels, more than requested", n, w, h, w*h)
		}
		if w > MaxDimPixels || h > MaxDimPixels {
			t.Errorf("n=%d: %dx%d exceeds the frame dimension limit", n, w, h)
		}
		// The near-square rule leaves no even width more than twice the
		// height.
		if w%2 == 0 && w > 2*h {
			t.Errorf("n=%d: %dx%d is not near-square", n, w, h)
		}
	}
}

func TestFramebufferSizeHugeCountSaturates(t *testing.T) {
	w, h := FramebufferSizeForPixelCount(4096*4096 + 1)
	if w != MaxDimPixels || h != MaxDimPixels {
		t.Errorf("got %dx%d, want %dx%d", w, h, MaxDimPixels, MaxDimPixels)
	}
}

func TestSupertileCoverage(t *testing.T) {
	tests := []struct {
		w, h, stw, sth uint32
		maxX, maxY     uint32
	}{
		{1, 1, 128, 128, 0, 0},
		{128, 128, 128, 128, 0, 0},
		{129, 128, 128, 128, 1, 0},
		{800, 600, 128, 64, 6, 9},
	}
	for _, tt := range tests {
		x, y := SupertileCoverage(tt.w, tt.h, tt.stw, tt.sth)
		if x != tt.maxX || y != tt.maxY {
			t.Errorf("SupertileCoverage(%d, %d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.stw, tt.sth, x, y, tt.maxX, tt.maxY)
		}
	}
}

func TestUIFBlockDimensions(t *testing.T) {
	// Each UIF block is 2x2 utiles of 64 bytes, 256 bytes total.
	for _, cpp := range []uint32{1, 2, 4, 8, 16} {
		w, h := UIFBlockWidth(cpp), UIFBlockHeight(cpp)
		if w*h*cpp != 256 {
			t.Errorf("cpp=%d: %dx%d block holds %d bytes, want 256", cpp, w, h, w*h*cpp)
		}
	}
	if h := UIFBlockHeight(4); h != 8 {
		t.Errorf("UIFBlockHeight(4) = %d, want 8", h)
	}
}

func TestAlignUp(t *testing.T) {
	if got := AlignUp(uint32(5), 4); got != 8 {
		t.Errorf("AlignUp(5, 4) = %d, want 8", got)
	}
	if got := AlignUp(uint32(8), 4); got != 8 {
		t.Errorf("AlignUp(8, 4) = %d, want 8", got)
	}
	if got := DivRoundUp(uint32(9), 4); got != 3 {
		t.Errorf("DivRoundUp(9, 4) = %d, want 3", got)
	}
}
