package tilecl

import (
	"testing"

	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
)

func TestComputeFrameTiling(t *testing.T) {
	tests := []struct {
		w, h uint32
		bpp  hw.InternalBPP
		msaa bool

		tileW, tileH   uint32
		tilesX, tilesY uint32
	}{
		{128, 128, hw.InternalBPP32, false, 64, 64, 2, 2},
		{128, 128, hw.InternalBPP64, false, 64, 32, 2, 4},
		{128, 128, hw.InternalBPP128, false, 32, 32, 4, 4},
		{128, 128, hw.InternalBPP32, true, 32, 32, 4, 4},
		{65, 65, hw.InternalBPP32, false, 64, 64, 2, 2},
		{1, 1, hw.InternalBPP32, false, 64, 64, 1, 1},
	}
	for _, tt := range tests {
		ft := computeFrameTiling(tt.w, tt.h, 1, 1, tt.bpp, tt.msaa)
		if ft.TileWidth != tt.tileW || ft.TileHeight != tt.tileH {
			t.Errorf("%dx%d bpp=%d msaa=%v: tile size %dx%d, want %dx%d",
				tt.w, tt.h, tt.bpp, tt.msaa, ft.TileWidth, ft.TileHeight, tt.tileW, tt.tileH)
		}
		if ft.DrawTilesX != tt.tilesX || ft.DrawTilesY != tt.tilesY {
			t.Errorf("%dx%d bpp=%d msaa=%v: %dx%d draw tiles, want %dx%d",
				tt.w, tt.h, tt.bpp, tt.msaa, ft.DrawTilesX, ft.DrawTilesY, tt.tilesX, tt.tilesY)
		}
	}
}

func TestComputeFrameTilingSupertileBudget(t *testing.T) {
	// A full-size frame has 64x64 tiles; supertiles must grow until at most
	// 256 cover the frame.
	ft := computeFrameTiling(4096, 4096, 1, 1, hw.InternalBPP32, false)
	if n := ft.FrameWidthInSupertiles * ft.FrameHeightInSupertiles; n > maxSupertiles {
		t.Errorf("%d supertiles exceed the hardware budget", n)
	}
	if ft.SupertileWidth != 4 || ft.SupertileHeight != 4 {
		t.Errorf("supertile size %dx%d tiles, want 4x4", ft.SupertileWidth, ft.SupertileHeight)
	}
	if ft.FrameWidthInSupertiles != 16 || ft.FrameHeightInSupertiles != 16 {
		t.Errorf("frame is %dx%d supertiles, want 16x16",
			ft.FrameWidthInSupertiles, ft.FrameHeightInSupertiles)
	}

	small := computeFrameTiling(128, 128, 1, 1, hw.InternalBPP32, false)
	if small.SupertileWidth != 1 || small.SupertileHeight != 1 {
		t.Errorf("small frame grew supertiles to %dx%d", small.SupertileWidth, small.SupertileHeight)
	}
}

func TestDeviceBO(t *testing.T) {
	dev := NewDevice()
	bo, err := dev.NewBO(100, "test")
	if err != nil {
		t.Fatal(err)
	}
	if bo.Size != boAlign {
		t.Errorf("size %d not aligned to %d", bo.Size, boAlign)
	}
	if bo.Addr == 0 {
		t.Error("BO allocated at address 0")
	}
	if len(bo.Map()) != int(bo.Size) {
		t.Errorf("mapping is %d bytes, want %d", len(bo.Map()), bo.Size)
	}
	bo.Unmap()

	bo2, err := dev.NewBO(1, "test2")
	if err != nil {
		t.Fatal(err)
	}
	if bo2.Addr < bo.Addr+bo.Size {
		t.Errorf("BOs overlap: %#x and %#x", bo.Addr, bo2.Addr)
	}

	dev.Free(bo)
	dev.Free(bo2)
	if dev.allocated != 0 {
		t.Errorf("%d bytes still accounted after freeing everything", dev.allocated)
	}
}

func TestDeviceQuota(t *testing.T) {
	dev := NewDevice()
	dev.Quota = 2 * boAlign
	if _, err := dev.NewBO(3*boAlign, "too big"); err == nil {
		t.Error("allocation beyond the quota should fail")
	}
	bo, err := dev.NewBO(boAlign, "fits")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.NewBO(2*boAlign, "overflows"); err == nil {
		t.Error("allocation overflowing the quota should fail")
	}
	dev.Free(bo)
	if _, err := dev.NewBO(2*boAlign, "fits again"); err != nil {
		t.Errorf("allocation after free failed: %v", err)
	}
}

func TestStartFrame(t *testing.T) {
	cb := NewCommandBuffer(NewDevice())
	defer cb.Release()
	job, err := cb.StartJob()
	if err != nil {
		t.Fatal(err)
	}
	if err := job.StartFrame(128, 128, 1, 1, hw.InternalBPP32, false); err != nil {
		t.Fatal(err)
	}

	// 4 tiles, 64 bytes each, rounded up to the allocation granularity,
	// plus the initial chunk for chained blocks.
	if want := uint32(boAlign + tileAllocInitialChunk); job.TileAllocBO.Size != want {
		t.Errorf("tile alloc BO is %d bytes, want %d", job.TileAllocBO.Size, want)
	}
	if want := uint32(4 * tileStateBytesPerTile); job.TileStateBO.Size < want {
		t.Errorf("tile state BO is %d bytes, want at least %d", job.TileStateBO.Size, want)
	}

	var kinds []uint8
	for rec := range hw.Walk(job.BCL.Data) {
		kinds = append(kinds, rec.Opcode())
	}
	want := []uint8{
		(&hw.NumberOfLayers{}).Opcode(),
		(&hw.TileBinningModeCfg{}).Opcode(),
		(&hw.StartTileBinning{}).Opcode(),
	}
	if len(kinds) != len(want) {
		t.Fatalf("binning prologue has %d records, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("binning record %d has opcode %d, want %d", i, kinds[i], want[i])
		}
	}

	job.EmitBinningFlush()
	n := len(job.BCL.Data)
	if job.BCL.Data[n-2] != (&hw.IncrementSemaphore{}).Opcode() || job.BCL.Data[n-1] != (&hw.Flush{}).Opcode() {
		t.Errorf("binning stream does not end in semaphore+flush: % x", job.BCL.Data[n-2:])
	}
}

func TestFinishJobResolvesRelocs(t *testing.T) {
	cb := NewCommandBuffer(NewDevice())
	defer cb.Release()
	job, err := cb.StartJob()
	if err != nil {
		t.Fatal(err)
	}
	if err := job.StartFrame(64, 64, 1, 1, hw.InternalBPP32, false); err != nil {
		t.Fatal(err)
	}

	start := job.Indirect.Addr()
	job.Indirect.Emit(&hw.TileCoordinatesImplicit{})
	job.Indirect.Emit(&hw.ReturnFromSubList{})
	end := job.Indirect.Addr()
	job.RCL.Emit(&hw.StartAddressOfGenericTileList{Start: start, End: end})
	job.EmitBinningFlush()

	if err := cb.FinishJob(); err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 1 {
		t.Fatalf("%d finished jobs, want 1", len(cb.Jobs))
	}

	rec, _, err := hw.Decode(cb.Jobs[0].RCLBO.Map())
	if err != nil {
		t.Fatal(err)
	}
	tl := rec.(*hw.StartAddressOfGenericTileList)
	indirect := cb.Jobs[0].IndirectBO
	if tl.Start.Offset != indirect.Addr {
		t.Errorf("tile list start resolved to %#x, want %#x", tl.Start.Offset, indirect.Addr)
	}
	if tl.End.Offset != indirect.Addr+2 {
		t.Errorf("tile list end resolved to %#x, want %#x", tl.End.Offset, indirect.Addr+2)
	}

	// Binning stream: the tile allocation address points at the alloc BO.
	bcl := cb.Jobs[0].BCLBO.Map()
	for rec := range hw.Walk(bcl[:len(cb.Jobs[0].BCL.Data)]) {
		if cfg, ok := rec.(*hw.TileBinningModeCfg); ok {
			if cfg.TileAllocationAddress.Offset != cb.Jobs[0].TileAllocBO.Addr {
				t.Errorf("tile alloc address resolved to %#x, want %#x",
					cfg.TileAllocationAddress.Offset, cb.Jobs[0].TileAllocBO.Addr)
			}
		}
	}
}

func TestStartJobFinalizesPrevious(t *testing.T) {
	cb := NewCommandBuffer(NewDevice())
	defer cb.Release()
	j1, err := cb.StartJob()
	if err != nil {
		t.Fatal(err)
	}
	if err := j1.StartFrame(64, 64, 1, 1, hw.InternalBPP32, false); err != nil {
		t.Fatal(err)
	}
	j2, err := cb.StartJob()
	if err != nil {
		t.Fatal(err)
	}
	if len(cb.Jobs) != 1 || cb.Jobs[0] != j1 {
		t.Error("starting a job did not finalize the previous one")
	}
	if cb.CurrentJob() != j2 {
		t.Error("current job is not the newly started one")
	}
}

func TestImageLayoutRaster(t *testing.T) {
	dev := NewDevice()
	img, err := NewImage(dev, format.RGBA8, 100, 50, 1, 1, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	s := &img.Slices[0]
	if s.Tiling != hw.MemoryFormatRaster {
		t.Errorf("tiling = %d", s.Tiling)
	}
	if s.Stride != 400 || s.Size != 400*50 {
		t.Errorf("stride %d size %d", s.Stride, s.Size)
	}
}

func TestImageLayoutUIF(t *testing.T) {
	dev := NewDevice()
	// 4 bytes per pixel: UIF blocks are 8x8 pixels.
	img, err := NewImage(dev, format.D24S8, 100, 60, 1, 1, 1, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	s := &img.Slices[0]
	if s.Tiling != hw.MemoryFormatUIFNoXor {
		t.Errorf("tiling = %d", s.Tiling)
	}
	if s.Stride != 104*4 {
		t.Errorf("stride %d, want %d", s.Stride, 104*4)
	}
	if s.PaddedHeightInUIFBlocks != 8 {
		t.Errorf("padded height %d blocks, want 8", s.PaddedHeightInUIFBlocks)
	}
}

func TestImageLayoutMipSmallLevels(t *testing.T) {
	dev := NewDevice()
	img, err := NewImage(dev, format.RGBA8, 64, 64, 1, 1, 7, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if img.Slices[0].Tiling != hw.MemoryFormatUIFNoXor {
		t.Errorf("level 0 tiling = %d", img.Slices[0].Tiling)
	}
	// 1x1 fits inside half a UIF block and degrades to linear utiles.
	if img.Slices[6].Tiling != hw.MemoryFormatLineartile {
		t.Errorf("level 6 tiling = %d", img.Slices[6].Tiling)
	}
	// Level 0 is laid out last and page aligned.
	if img.Slices[0].Offset%boAlign != 0 {
		t.Errorf("level 0 at offset %#x, not page aligned", img.Slices[0].Offset)
	}
	for l := 1; l < 7; l++ {
		if img.Slices[l].Offset >= img.Slices[0].Offset {
			t.Errorf("level %d at %#x, after level 0 at %#x", l, img.Slices[l].Offset, img.Slices[0].Offset)
		}
	}
}

func TestLayerOffset(t *testing.T) {
	dev := NewDevice()
	arr, err := NewImage(dev, format.RGBA8, 32, 32, 1, 4, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := arr.LayerOffset(0, 2); got != 2*arr.LayerStride {
		t.Errorf("array layer 2 at %#x, want %#x", got, 2*arr.LayerStride)
	}

	vol, err := NewImage(dev, format.RGBA8, 32, 32, 8, 1, 1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if !vol.Is3D {
		t.Fatal("depth 8 image is not 3D")
	}
	s := &vol.Slices[0]
	if got := vol.LayerOffset(0, 3); got != s.Offset+3*s.Size {
		t.Errorf("depth slice 3 at %#x, want %#x", got, s.Offset+3*s.Size)
	}
}
