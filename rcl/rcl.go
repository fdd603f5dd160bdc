// Package rcl emits the render control list protocol for copy, clear and
// fill operations: a frame prologue, per-layer frame setup, per-tile load and
// store sublists on the indirect stream, supertile iteration and the end of
// rendering marker.
package rcl

import (
	tilecl "github.com/tilegpu/tilecl"
	"github.com/tilegpu/tilecl/cl"
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
	"github.com/tilegpu/tilecl/tiling"
)

// Framebuffer pairs the portable format of an operation with its resolved
// tile buffer configuration.
type Framebuffer struct {
	Width  uint32
	Height uint32

	Format       format.Format
	InternalType hw.InternalType
	InternalBPP  hw.InternalBPP
}

func NewFramebuffer(width, height uint32, f format.Format, aspects format.Aspect) *Framebuffer {
	typ, bpp := format.InternalTypeBPPForAspects(f, aspects)
	return &Framebuffer{
		Width:        width,
		Height:       height,
		Format:       f,
		InternalType: typ,
		InternalBPP:  bpp,
	}
}

// Clear carries the clear values attached to a prologue when the operation
// is a clear; nil for pure copies.
type Clear struct {
	ColorWords [4]uint32
	Aspects    format.Aspect
	Z          float32
	S          uint8

	// Image and Level identify the cleared slice, for UIF padding
	// bookkeeping. Image may be nil for buffer fills.
	Image *tilecl.Image
	Level uint32
}

// EmitPrologue emits the frame-mode configuration run that opens every
// render control list.
func EmitPrologue(job *tilecl.Job, fb *Framebuffer, clear *Clear) {
	rcl := job.RCL
	ft := &job.Tiling

	rcl.Emit(&hw.TileRenderingModeCfgCommon{
		EarlyZDisable:                true,
		ImageWidthPixels:             uint16(fb.Width),
		ImageHeightPixels:            uint16(fb.Height),
		NumberOfRenderTargets:        1,
		MultisampleMode4X:            ft.MSAA,
		MaximumBPPOfAllRenderTargets: ft.InternalBPP,
	})

	if clear != nil {
		// The clear color records carry a 128-bit value split across up to
		// three records; the later records are only needed for wider
		// internal formats or when the cleared slice needs an explicit UIF
		// padding correction. The padding record is needed whatever the
		// cleared aspects are: the cleared slice's in-memory footprint does
		// not depend on how the tile buffer views its pixels.
		var clearPad uint32
		if clear.Image != nil {
			slice := &clear.Image.Slices[clear.Level]
			if slice.Tiling.IsUIF() {
				bh := tiling.UIFBlockHeight(clear.Image.CPP)
				implicit := tiling.AlignUp(fb.Height, bh) / bh
				if diff := slice.PaddedHeightInUIFBlocks - implicit; diff >= 15 {
					clearPad = diff
				}
			}
		}

		c := clear.ColorWords
		if clear.Aspects&format.AspectColor != 0 {
			rcl.Emit(&hw.TileRenderingModeCfgClearColorsPart1{
				ClearColorLow32Bits:  c[0],
				ClearColorNext24Bits: c[1] & 0x00ffffff,
				RenderTargetNumber:   0,
			})
			if fb.InternalBPP >= hw.InternalBPP64 {
				rcl.Emit(&hw.TileRenderingModeCfgClearColorsPart2{
					ClearColorMidLow32Bits:  c[1]>>24 | c[2]<<8,
					ClearColorMidHigh24Bits: (c[2]>>24 | c[3]<<8) & 0x00ffffff,
					RenderTargetNumber:      0,
				})
			}
		}
		if (clear.Aspects&format.AspectColor != 0 && fb.InternalBPP >= hw.InternalBPP128) || clearPad != 0 {
			rcl.Emit(&hw.TileRenderingModeCfgClearColorsPart3{
				UIFPaddedHeightInUIFBlocks: uint16(clearPad),
				ClearColorHigh16Bits:       uint16(c[3] >> 16),
				RenderTargetNumber:         0,
			})
		}
	}

	rcl.Emit(&hw.TileRenderingModeCfgColor{
		RenderTarget0InternalBPP:  fb.InternalBPP,
		RenderTarget0InternalType: fb.InternalType,
		RenderTarget0Clamp:        hw.RenderTargetClampNone,
	})

	// Always present, with default values when not clearing.
	zs := &hw.TileRenderingModeCfgZSClearValues{ZClearValue: 1.0}
	if clear != nil && clear.Aspects.HasDepthOrStencil() {
		zs.ZClearValue = clear.Z
		zs.StencilClearValue = clear.S
	}
	rcl.Emit(zs)

	rcl.Emit(&hw.TileListInitialBlockSize{
		UseAutoChainedTileLists:            true,
		SizeOfFirstBlockInChainedTileLists: hw.TileAllocBlockSize64B,
	})
}

// EmitFrameSetup emits the per-layer frame configuration, including the
// doubled dummy-store sequence the frame setup erratum requires for every
// frame, clearing or not.
func EmitFrameSetup(job *tilecl.Job, layer uint32, clear *Clear) {
	rcl := job.RCL
	ft := &job.Tiling

	rcl.Emit(&hw.MulticoreRenderingTileListSetBase{
		Address: cl.Address{
			Buf:    job.TileAllocBO,
			Offset: 64 * layer * ft.DrawTilesX * ft.DrawTilesY,
		},
	})
	rcl.Emit(&hw.MulticoreRenderingSupertileCfg{
		NumberOfBinTileLists:         1,
		TotalFrameWidthInTiles:       uint16(ft.DrawTilesX),
		TotalFrameHeightInTiles:      uint16(ft.DrawTilesY),
		SupertileWidthInTiles:        uint8(ft.SupertileWidth),
		SupertileHeightInTiles:       uint8(ft.SupertileHeight),
		TotalFrameWidthInSupertiles:  uint16(ft.FrameWidthInSupertiles),
		TotalFrameHeightInSupertiles: uint16(ft.FrameHeightInSupertiles),
	})

	for i := 0; i < 2; i++ {
		rcl.Emit(&hw.TileCoordinatesImplicit{})
		rcl.Emit(&hw.EndOfLoads{})
		rcl.Emit(&hw.StoreTileBufferGeneral{BufferToStore: hw.TileBufferNone})
		if i == 0 && clear != nil {
			rcl.Emit(&hw.ClearTileBuffers{
				ClearZStencilBuffer:   true,
				ClearAllRenderTargets: true,
			})
		}
		rcl.Emit(&hw.EndOfTileMarker{})
	}
	rcl.Emit(&hw.FlushVCDCache{})
}

// Coverage returns the inclusive supertile bounds of the framebuffer under
// the job's tiling.
func Coverage(job *tilecl.Job, fb *Framebuffer) (maxX, maxY uint32) {
	ft := &job.Tiling
	return tiling.SupertileCoverage(fb.Width, fb.Height,
		ft.SupertileWidth*ft.TileWidth, ft.SupertileHeight*ft.TileHeight)
}

// EmitSupertileCoordinates emits one coordinate record per covered
// supertile, row-major.
func EmitSupertileCoordinates(job *tilecl.Job, fb *Framebuffer) {
	maxX, maxY := Coverage(job, fb)
	for y := uint32(0); y <= maxY; y++ {
		for x := uint32(0); x <= maxX; x++ {
			job.RCL.Emit(&hw.SupertileCoordinates{
				ColumnNumberInSupertiles: uint16(x),
				RowNumberInSupertiles:    uint16(y),
			})
		}
	}
}

func EmitEndOfRendering(job *tilecl.Job) {
	job.RCL.Emit(&hw.EndOfRendering{})
}

// tileListBody writes one per-tile sublist to the indirect stream and points
// the render control stream at exactly the bytes written.
func tileListBody(job *tilecl.Job, body func(ind *cl.CL)) {
	ind := job.Indirect
	start := ind.Addr()
	ind.Emit(&hw.TileCoordinatesImplicit{})
	body(ind)
	ind.Emit(&hw.EndOfTileMarker{})
	ind.Emit(&hw.ReturnFromSubList{})
	end := ind.Addr()

	job.RCL.Emit(&hw.StartAddressOfGenericTileList{Start: start, End: end})
}

func zsBufferFromAspects(aspects format.Aspect) hw.TileBuffer {
	switch aspects & (format.AspectDepth | format.AspectStencil) {
	case format.AspectDepth:
		return hw.TileBufferZ
	case format.AspectStencil:
		return hw.TileBufferStencil
	case format.AspectDepth | format.AspectStencil:
		return hw.TileBufferZStencil
	default:
		panic("rcl: no depth/stencil aspect")
	}
}

// channelFixups computes the reverse and red/blue-swap flags for a load or
// store. The hardware's natural layout for 24-bit depth puts the S8/X8 bits
// in the low byte while linear buffers expect the depth value there;
// reversing the channel order and then swapping red/blue relocates the depth
// bits. Buffer copies of other formats move raw data and never swizzle;
// clears and image copies of a blue-first format swap red and blue so the
// tile buffer sees the channels in swizzle order.
func channelFixups(fb *Framebuffer, aspects format.Aspect, toBuffer, fromBuffer bool) (rbSwap, reverse bool) {
	if toBuffer || fromBuffer {
		if fb.Format == format.X8D24 ||
			(fb.Format == format.D24S8 && aspects&format.AspectDepth != 0) {
			return true, true
		}
		return false, false
	}
	if aspects&format.AspectColor != 0 {
		return format.NeedsRBSwap(fb.Format), false
	}
	return false, false
}

// heightOrStride returns the load/store addressing field for a slice: padded
// height in UIF blocks for UIF tilings, the byte stride for raster, and zero
// (the record default) for the packed tilings, which carry their geometry
// implicitly.
func heightOrStride(slice *tilecl.ImageSlice) uint32 {
	switch {
	case slice.Tiling.IsUIF():
		return slice.PaddedHeightInUIFBlocks
	case slice.Tiling == hw.MemoryFormatRaster:
		return slice.Stride
	default:
		return 0
	}
}

func decimate(img *tilecl.Image) hw.DecimateMode {
	if img.Samples > 1 {
		return hw.DecimateModeAllSamples
	}
	return hw.DecimateModeSample0
}

func emitImageLoad(ind *cl.CL, fb *Framebuffer, img *tilecl.Image,
	aspects format.Aspect, layer, level uint32, toBuffer, fromBuffer bool) {
	// Buffer transfers always go through render target 0, even for
	// depth/stencil aspects: the hardware cannot do raster loads or stores
	// against the depth/stencil tile buffers.
	buffer := hw.TileBufferRenderTarget0
	if !toBuffer && !fromBuffer && aspects != format.AspectColor {
		buffer = zsBufferFromAspects(aspects)
	}
	rbSwap, reverse := channelFixups(fb, aspects, toBuffer, fromBuffer)
	slice := &img.Slices[level]

	ind.Emit(&hw.LoadTileBufferGeneral{
		BufferToLoad:       buffer,
		ChannelReverse:     reverse,
		RBSwap:             rbSwap,
		MemoryFormat:       slice.Tiling,
		DecimateMode:       decimate(img),
		InputImageFormat:   format.ChooseTLBFormat(fb.Format, aspects, false, toBuffer, fromBuffer),
		HeightInUBOrStride: heightOrStride(slice),
		Address:            cl.Address{Buf: img.Mem, Offset: img.LayerOffset(level, layer)},
	})
}

func emitImageStore(ind *cl.CL, fb *Framebuffer, img *tilecl.Image,
	aspects format.Aspect, layer, level uint32, clear, toBuffer, fromBuffer bool) {
	buffer := hw.TileBufferRenderTarget0
	if !toBuffer && !fromBuffer && aspects != format.AspectColor {
		buffer = zsBufferFromAspects(aspects)
	}
	rbSwap, reverse := channelFixups(fb, aspects, toBuffer, fromBuffer)
	slice := &img.Slices[level]

	ind.Emit(&hw.StoreTileBufferGeneral{
		BufferToStore:          buffer,
		ChannelReverse:         reverse,
		RBSwap:                 rbSwap,
		ClearBufferBeingStored: clear,
		MemoryFormat:           slice.Tiling,
		DecimateMode:           decimate(img),
		OutputImageFormat:      format.ChooseTLBFormat(fb.Format, aspects, true, toBuffer, fromBuffer),
		HeightInUBOrStride:     heightOrStride(slice),
		Address:                cl.Address{Buf: img.Mem, Offset: img.LayerOffset(level, layer)},
	})
}

// The channel fixups of a buffer transfer apply identically to its load and
// its store: the hardware mirrors the flags' meaning between the two sides,
// so setting both relocates the depth bits exactly once.
func emitLinearLoad(ind *cl.CL, bo *tilecl.BO, offset, stride uint32, f hw.OutputImageFormat, rbSwap, reverse bool) {
	ind.Emit(&hw.LoadTileBufferGeneral{
		BufferToLoad:       hw.TileBufferRenderTarget0,
		ChannelReverse:     reverse,
		RBSwap:             rbSwap,
		MemoryFormat:       hw.MemoryFormatRaster,
		InputImageFormat:   f,
		HeightInUBOrStride: stride,
		Address:            cl.Address{Buf: bo, Offset: offset},
	})
}

func emitLinearStore(ind *cl.CL, bo *tilecl.BO, offset, stride uint32, msaa bool, f hw.OutputImageFormat, rbSwap, reverse bool) {
	dec := hw.DecimateModeSample0
	if msaa {
		dec = hw.DecimateModeAllSamples
	}
	ind.Emit(&hw.StoreTileBufferGeneral{
		BufferToStore:      hw.TileBufferRenderTarget0,
		ChannelReverse:     reverse,
		RBSwap:             rbSwap,
		MemoryFormat:       hw.MemoryFormatRaster,
		DecimateMode:       dec,
		OutputImageFormat:  f,
		HeightInUBOrStride: stride,
		Address:            cl.Address{Buf: bo, Offset: offset},
	})
}

// imageLayer maps a framebuffer layer index to the image layer (or depth
// slice, for 3D images) it addresses.
func imageLayer(img *tilecl.Image, baseLayer uint32, offsetZ int32, l uint32) uint32 {
	if img.Is3D {
		return uint32(offsetZ) + l
	}
	return baseLayer + l
}

// bufferSideLayout resolves the linear-side geometry of a buffer/image copy
// region: the per-layer byte offset base and the row stride. Stencil-only
// transfers of combined formats travel packed at one byte per pixel.
func bufferSideLayout(buf *tilecl.Buffer, img *tilecl.Image, region *tilecl.BufferImageCopy) (offset, stride, layerStride uint32) {
	width := region.BufferRowLength
	if width == 0 {
		width = region.Width
	}
	height := region.BufferImageHeight
	if height == 0 {
		height = region.Height
	}
	cpp := img.CPP
	if region.Aspect&format.AspectStencil != 0 && region.Aspect&format.AspectDepth == 0 &&
		img.Format == format.D24S8 {
		cpp = 1
	}
	stride = width * cpp
	return buf.MemOffset + region.BufferOffset, stride, stride * height
}

// CopyImageToBuffer encodes one region of an image to buffer copy. The job's
// frame must already be started with one layer per copied layer.
func CopyImageToBuffer(job *tilecl.Job, fb *Framebuffer, buf *tilecl.Buffer, img *tilecl.Image, region *tilecl.BufferImageCopy) {
	EmitPrologue(job, fb, nil)
	base, stride, layerStride := bufferSideLayout(buf, img, region)
	storeFormat := format.ChooseTLBFormat(fb.Format, region.Aspect, true, true, false)
	rbSwap, reverse := channelFixups(fb, region.Aspect, true, false)

	for l := uint32(0); l < job.Tiling.Layers; l++ {
		EmitFrameSetup(job, l, nil)
		srcLayer := imageLayer(img, region.BaseLayer, region.OffsetZ, l)
		tileListBody(job, func(ind *cl.CL) {
			emitImageLoad(ind, fb, img, region.Aspect, srcLayer, region.MipLevel, true, false)
			ind.Emit(&hw.EndOfLoads{})
			ind.Emit(&hw.BranchToImplicitTileList{})
			emitLinearStore(ind, buf.Mem, base+l*layerStride, stride, img.Samples > 1, storeFormat, rbSwap, reverse)
		})
		EmitSupertileCoordinates(job, fb)
	}
	EmitEndOfRendering(job)
}

// CopyBufferToImage encodes one region of a buffer to image upload. When
// uploading a single aspect of a combined depth/stencil image the store
// writes all channels, so the other aspect is loaded from the image first
// and stored back after.
func CopyBufferToImage(job *tilecl.Job, fb *Framebuffer, img *tilecl.Image, buf *tilecl.Buffer, region *tilecl.BufferImageCopy) {
	EmitPrologue(job, fb, nil)
	base, stride, layerStride := bufferSideLayout(buf, img, region)
	loadFormat := format.ChooseTLBFormat(fb.Format, region.Aspect, false, false, true)
	rbSwap, reverse := channelFixups(fb, region.Aspect, false, true)

	var preserve format.Aspect
	if img.Format == format.D24S8 {
		switch region.Aspect & (format.AspectDepth | format.AspectStencil) {
		case format.AspectDepth:
			preserve = format.AspectStencil
		case format.AspectStencil:
			preserve = format.AspectDepth
		}
	}

	for l := uint32(0); l < job.Tiling.Layers; l++ {
		EmitFrameSetup(job, l, nil)
		dstLayer := imageLayer(img, region.BaseLayer, region.OffsetZ, l)
		tileListBody(job, func(ind *cl.CL) {
			emitLinearLoad(ind, buf.Mem, base+l*layerStride, stride, loadFormat, rbSwap, reverse)
			if preserve != 0 {
				emitImageLoad(ind, fb, img, preserve, dstLayer, region.MipLevel, false, false)
			}
			ind.Emit(&hw.EndOfLoads{})
			ind.Emit(&hw.BranchToImplicitTileList{})
			emitImageStore(ind, fb, img, region.Aspect, dstLayer, region.MipLevel, false, false, true)
			if preserve != 0 {
				emitImageStore(ind, fb, img, preserve, dstLayer, region.MipLevel, false, false, false)
			}
		})
		EmitSupertileCoordinates(job, fb)
	}
	EmitEndOfRendering(job)
}

// CopyImage encodes one region of an image to image copy.
func CopyImage(job *tilecl.Job, fb *Framebuffer, dst, src *tilecl.Image, region *tilecl.ImageCopy) {
	EmitPrologue(job, fb, nil)
	for l := uint32(0); l < job.Tiling.Layers; l++ {
		EmitFrameSetup(job, l, nil)
		srcLayer := imageLayer(src, region.SrcBaseLayer, region.SrcOffsetZ, l)
		dstLayer := imageLayer(dst, region.DstBaseLayer, region.DstOffsetZ, l)
		tileListBody(job, func(ind *cl.CL) {
			emitImageLoad(ind, fb, src, region.SrcAspect, srcLayer, region.SrcMipLevel, false, false)
			ind.Emit(&hw.EndOfLoads{})
			ind.Emit(&hw.BranchToImplicitTileList{})
			emitImageStore(ind, fb, dst, region.DstAspect, dstLayer, region.DstMipLevel, false, false, false)
		})
		EmitSupertileCoordinates(job, fb)
	}
	EmitEndOfRendering(job)
}

// ClearImage encodes a clear of one mip level across the job's layers. The
// cleared values enter the tile buffer through the prologue and frame setup;
// the per-tile body only stores them out.
func ClearImage(job *tilecl.Job, fb *Framebuffer, img *tilecl.Image, clear *Clear, level, baseLayer uint32) {
	EmitPrologue(job, fb, clear)
	for l := uint32(0); l < job.Tiling.Layers; l++ {
		EmitFrameSetup(job, l, clear)
		layer := imageLayer(img, baseLayer, 0, l)
		tileListBody(job, func(ind *cl.CL) {
			ind.Emit(&hw.EndOfLoads{})
			ind.Emit(&hw.BranchToImplicitTileList{})
			emitImageStore(ind, fb, img, clear.Aspects, layer, level, false, false, false)
		})
		EmitSupertileCoordinates(job, fb)
	}
	EmitEndOfRendering(job)
}

// CopyBuffer encodes a linear copy through the tile buffer. The item format
// is chosen by the caller from the transfer's alignment.
func CopyBuffer(job *tilecl.Job, fb *Framebuffer, dst, src *tilecl.BO, dstOffset, srcOffset, stride uint32, f hw.OutputImageFormat) {
	EmitPrologue(job, fb, nil)
	EmitFrameSetup(job, 0, nil)
	tileListBody(job, func(ind *cl.CL) {
		emitLinearLoad(ind, src, srcOffset, stride, f, false, false)
		ind.Emit(&hw.EndOfLoads{})
		ind.Emit(&hw.BranchToImplicitTileList{})
		emitLinearStore(ind, dst, dstOffset, stride, false, f, false, false)
	})
	EmitSupertileCoordinates(job, fb)
	EmitEndOfRendering(job)
}

// FillBuffer encodes a constant fill; the fill pattern rides in as a color
// clear.
func FillBuffer(job *tilecl.Job, fb *Framebuffer, dst *tilecl.BO, dstOffset, stride uint32, clear *Clear) {
	EmitPrologue(job, fb, clear)
	EmitFrameSetup(job, 0, clear)
	tileListBody(job, func(ind *cl.CL) {
		ind.Emit(&hw.EndOfLoads{})
		ind.Emit(&hw.BranchToImplicitTileList{})
		emitLinearStore(ind, dst, dstOffset, stride, false, hw.OutputImageFormatRGBA8UI, false, false)
	})
	EmitSupertileCoordinates(job, fb)
	EmitEndOfRendering(job)
}
