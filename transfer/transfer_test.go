package transfer

import (
	"bytes"
	"testing"

	tilecl "github.com/tilegpu/tilecl"
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
)

func TestItemSize(t *testing.T) {
	tests := []struct {
		size uint32
		item uint32
		hf   hw.OutputImageFormat
	}{
		{4, 4, hw.OutputImageFormatRGBA8UI},
		{4096, 4, hw.OutputImageFormatRGBA8UI},
		{6, 2, hw.OutputImageFormatRG8UI},
		{2, 2, hw.OutputImageFormatRG8UI},
		{7, 1, hw.OutputImageFormatR8UI},
		{1, 1, hw.OutputImageFormatR8UI},
	}
	for _, tt := range tests {
		item := itemSizeFor(tt.size)
		if item != tt.item {
			t.Errorf("itemSizeFor(%d) = %d, want %d", tt.size, item, tt.item)
		}
		if _, hf := itemFormat(item); hf != tt.hf {
			t.Errorf("itemFormat(%d) format %d, want %d", item, hf, tt.hf)
		}
	}
}

func findRecord[T any](t *testing.T, data []byte) T {
	t.Helper()
	for rec := range hw.Walk(data) {
		if r, ok := rec.(T); ok {
			return r
		}
	}
	var zero T
	t.Fatalf("no %T in stream", zero)
	return zero
}

// A fill whose item count is odd cannot be folded into a square framebuffer;
// it must still run as one wide single-row job.
func TestFillBufferSingleOddJob(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	buf, err := tilecl.NewBuffer(dev, 8192)
	if err != nil {
		t.Fatal(err)
	}
	if err := FillBuffer(cb, buf, 0, 4100, 0xAABBCCDD); err != nil {
		t.Fatal(err)
	}

	job := cb.CurrentJob()
	if job == nil {
		t.Fatal("no job recorded")
	}
	if job.Tiling.Width != 1025 || job.Tiling.Height != 1 {
		t.Fatalf("fill frame %dx%d, want 1025x1", job.Tiling.Width, job.Tiling.Height)
	}

	part1 := findRecord[*hw.TileRenderingModeCfgClearColorsPart1](t, job.RCL.Data)
	if part1.ClearColorLow32Bits != 0xAABBCCDD {
		t.Errorf("fill pattern packs to %#x, want 0xaabbccdd", part1.ClearColorLow32Bits)
	}

	store := findRecord[*hw.StoreTileBufferGeneral](t, job.Indirect.Data)
	if store.OutputImageFormat != hw.OutputImageFormatRGBA8UI {
		t.Errorf("fill store format %d, want RGBA8UI", store.OutputImageFormat)
	}
	if store.HeightInUBOrStride != 4100 {
		t.Errorf("fill store stride %d, want 4100", store.HeightInUBOrStride)
	}
	if store.MemoryFormat != hw.MemoryFormatRaster {
		t.Errorf("fill store memory format %d, want raster", store.MemoryFormat)
	}

	if err := cb.FinishJob(); err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 1 {
		t.Fatalf("%d jobs for a 4100-byte fill, want 1", len(cb.Jobs))
	}
}

func TestFillBufferWholeSize(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	buf, err := tilecl.NewBuffer(dev, 256)
	if err != nil {
		t.Fatal(err)
	}
	if err := FillBuffer(cb, buf, 16, tilecl.WholeSize, 0); err != nil {
		t.Fatal(err)
	}
	job := cb.CurrentJob()
	// 240 bytes of fill is 60 items, folded to 15x4.
	if job.Tiling.Width*job.Tiling.Height != 60 {
		t.Errorf("whole-size fill covers %d items, want 60", job.Tiling.Width*job.Tiling.Height)
	}
}

// 4097 items exceed what one near-square frame can cover, so the copy
// splits: a 64x64 job and a 1x1 remainder.
func TestCopyBufferSplit(t *testing.T) {
	const size = 4097 * 4
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	src, err := tilecl.NewBuffer(dev, size)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := tilecl.NewBuffer(dev, size)
	if err != nil {
		t.Fatal(err)
	}
	if err := CopyBuffer(cb, dst, src, []BufferCopy{{Size: size}}); err != nil {
		t.Fatal(err)
	}

	tail := cb.CurrentJob()
	if tail == nil {
		t.Fatal("no job recorded")
	}
	if tail.Tiling.Width != 1 || tail.Tiling.Height != 1 {
		t.Fatalf("remainder frame %dx%d, want 1x1", tail.Tiling.Width, tail.Tiling.Height)
	}
	// The remainder picks up after the 4096 items of the first job.
	load := findRecord[*hw.LoadTileBufferGeneral](t, tail.Indirect.Data)
	if load.Address.Offset != 4096*4 {
		t.Errorf("remainder source offset %d, want %d", load.Address.Offset, 4096*4)
	}
	store := findRecord[*hw.StoreTileBufferGeneral](t, tail.Indirect.Data)
	if store.Address.Offset != 4096*4 {
		t.Errorf("remainder destination offset %d, want %d", store.Address.Offset, 4096*4)
	}

	if err := cb.FinishJob(); err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 2 {
		t.Fatalf("%d jobs for a 4097-item copy, want 2", len(cb.Jobs))
	}
	first := cb.Jobs[0]
	if first.Tiling.Width != 64 || first.Tiling.Height != 64 {
		t.Errorf("first frame %dx%d, want 64x64", first.Tiling.Width, first.Tiling.Height)
	}
}

func TestCopyBufferHalfwordItems(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	src, err := tilecl.NewBuffer(dev, 64)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := tilecl.NewBuffer(dev, 64)
	if err != nil {
		t.Fatal(err)
	}
	if err := CopyBuffer(cb, dst, src, []BufferCopy{{Size: 6}}); err != nil {
		t.Fatal(err)
	}
	job := cb.CurrentJob()
	if job.Tiling.Width != 3 || job.Tiling.Height != 1 {
		t.Fatalf("frame %dx%d, want 3x1", job.Tiling.Width, job.Tiling.Height)
	}
	load := findRecord[*hw.LoadTileBufferGeneral](t, job.Indirect.Data)
	if load.InputImageFormat != hw.OutputImageFormatRG8UI {
		t.Errorf("6-byte copy item format %d, want RG8UI", load.InputImageFormat)
	}
	if load.HeightInUBOrStride != 6 {
		t.Errorf("6-byte copy stride %d, want 6", load.HeightInUBOrStride)
	}
}

func TestUpdateBufferStaging(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	buf, err := tilecl.NewBuffer(dev, 4096)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := UpdateBuffer(cb, buf, 64, data); err != nil {
		t.Fatal(err)
	}
	if err := cb.FinishJob(); err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 1 {
		t.Fatalf("%d jobs, want 1", len(cb.Jobs))
	}
	job := cb.Jobs[0]
	if len(job.ExtraBOs) != 1 {
		t.Fatalf("%d extra BOs on the job, want the staging buffer", len(job.ExtraBOs))
	}
	staging := job.ExtraBOs[0]
	if got := staging.Map()[:len(data)]; !bytes.Equal(got, data) {
		t.Errorf("staging contents %v, want %v", got, data)
	}
	staging.Unmap()
}

func TestClearColorImageCompatFormat(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	img, err := tilecl.NewImage(dev, format.RGBA8Snorm, 64, 64, 1, 1, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	value := format.ClearColorValue{Float32: [4]float32{1, -1, 0, 0.5}}
	err = ClearColorImage(cb, img, value, tilecl.ImageSubresourceRange{
		Aspect:     format.AspectColor,
		LevelCount: 1,
		LayerCount: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	job := cb.CurrentJob()
	// The snorm value is re-encoded into the image's bit layout before
	// traveling through the uint view: 127, -127, 0, 64 as bytes.
	part1 := findRecord[*hw.TileRenderingModeCfgClearColorsPart1](t, job.RCL.Data)
	if want := uint32(0x4000817F); part1.ClearColorLow32Bits != want {
		t.Errorf("snorm clear packs to %#x, want %#x", part1.ClearColorLow32Bits, want)
	}
}

func TestClearDepthStencilPerLevel(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	img, err := tilecl.NewImage(dev, format.D24S8, 64, 64, 1, 1, 2, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	err = ClearDepthStencilImage(cb, img, 0.25, 3, tilecl.ImageSubresourceRange{
		Aspect:     format.AspectDepth | format.AspectStencil,
		LevelCount: 2,
		LayerCount: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := cb.FinishJob(); err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 2 {
		t.Fatalf("%d jobs for a 2-level clear, want one per level", len(cb.Jobs))
	}
	if w := cb.Jobs[1].Tiling.Width; w != 32 {
		t.Errorf("level 1 frame width %d, want 32", w)
	}
	for i, job := range cb.Jobs {
		zs := findRecord[*hw.TileRenderingModeCfgZSClearValues](t, job.RCL.Data)
		if zs.ZClearValue != 0.25 || zs.StencilClearValue != 3 {
			t.Errorf("job %d Z/S clear values %v/%d, want 0.25/3", i, zs.ZClearValue, zs.StencilClearValue)
		}
	}
}

// An allocation failure must not leave a half-recorded job behind; earlier
// complete jobs stand.
func TestAllocationFailureAbandonsJob(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	buf, err := tilecl.NewBuffer(dev, 4096)
	if err != nil {
		t.Fatal(err)
	}
	dev.Quota = 8192 // the buffer holds 4096; the job's BOs cannot fit

	if err := FillBuffer(cb, buf, 0, 256, 0); err == nil {
		t.Fatal("fill succeeded past the quota")
	}
	if cb.CurrentJob() != nil {
		t.Error("failed fill left a current job")
	}
	if len(cb.Jobs) != 0 {
		t.Errorf("failed fill left %d finished jobs", len(cb.Jobs))
	}
}

func TestCopyImageRejectsOffsets(t *testing.T) {
	dev := tilecl.NewDevice()
	cb := tilecl.NewCommandBuffer(dev)
	img, err := tilecl.NewImage(dev, format.RGBA8, 64, 64, 1, 1, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("offset copy did not panic")
		}
	}()
	CopyImage(cb, img, img, []tilecl.ImageCopy{{
		SrcAspect: format.AspectColor,
		DstAspect: format.AspectColor,
		DstOffsetX: 8,
		Width:      8, Height: 8, Depth: 1,
		LayerCount: 1,
	}})
}
