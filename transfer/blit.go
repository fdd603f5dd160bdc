package transfer

import (
	"fmt"

	tilecl "github.com/tilegpu/tilecl"
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
)

// Box is an axis-aligned blit region with per-axis mirroring, derived from a
// pair of corner offsets.
type Box struct {
	X, Y, Z int32
	W, H, D uint32

	MirrorX, MirrorY, MirrorZ bool
}

func boxFromOffsets(off [2][3]int32) Box {
	var b Box
	b.X, b.W, b.MirrorX = axis(off[0][0], off[1][0])
	b.Y, b.H, b.MirrorY = axis(off[0][1], off[1][1])
	b.Z, b.D, b.MirrorZ = axis(off[0][2], off[1][2])
	return b
}

func axis(a, b int32) (min int32, extent uint32, mirror bool) {
	if a > b {
		return b, uint32(a - b), true
	}
	return a, uint32(b - a), false
}

// BlitBoxes resolves the source and destination boxes of a blit region. The
// returned boxes carry the combined mirror state on the source: a blit
// mirrors an axis when exactly one of its offset pairs is reversed.
func BlitBoxes(region *tilecl.ImageBlit) (src, dst Box) {
	src = boxFromOffsets(region.SrcOffsets)
	dst = boxFromOffsets(region.DstOffsets)
	src.MirrorX = src.MirrorX != dst.MirrorX
	src.MirrorY = src.MirrorY != dst.MirrorY
	src.MirrorZ = src.MirrorZ != dst.MirrorZ
	dst.MirrorX, dst.MirrorY, dst.MirrorZ = false, false, false
	return src, dst
}

// blitTFU tries the fixed-function transfer unit. It only handles unscaled,
// unmirrored, single-sampled color blits of matching texturable formats that
// write a full destination level starting at its origin.
func blitTFU(cb *tilecl.CommandBuffer, dst, src *tilecl.Image, region *tilecl.ImageBlit, filterLinear bool) bool {
	if filterLinear {
		return false
	}
	if dst.Format != src.Format {
		return false
	}
	if dst.Format.IsDepthStencil() || region.DstAspect != format.AspectColor {
		return false
	}
	if !dst.Format.Info().Texturable || !src.Format.Info().Texturable {
		return false
	}
	if dst.Samples != 1 || src.Samples != 1 {
		return false
	}

	srcBox, dstBox := BlitBoxes(region)
	if srcBox.MirrorX || srcBox.MirrorY || srcBox.MirrorZ {
		return false
	}
	if srcBox.W != dstBox.W || srcBox.H != dstBox.H || srcBox.D != dstBox.D {
		return false
	}
	if dstBox.X != 0 || dstBox.Y != 0 {
		return false
	}
	dstSlice := &dst.Slices[region.DstMipLevel]
	if dstBox.W != dstSlice.Width || dstBox.H != dstSlice.Height {
		return false
	}

	// 3D blits walk every destination depth slice of the level.
	layers := region.LayerCount
	if dst.Is3D {
		layers = dstBox.D
	}
	for l := uint32(0); l < layers; l++ {
		srcLayer := region.SrcBaseLayer + l
		dstLayer := region.DstBaseLayer + l
		if src.Is3D {
			srcLayer = uint32(srcBox.Z) + l
		}
		if dst.Is3D {
			dstLayer = uint32(dstBox.Z) + l
		}
		emitTFUJob(cb, dst, region.DstMipLevel, dstLayer, src, region.SrcMipLevel, srcLayer, dstBox.W, dstBox.H)
	}
	return true
}

func emitTFUJob(cb *tilecl.CommandBuffer, dst *tilecl.Image, dstLevel, dstLayer uint32, src *tilecl.Image, srcLevel, srcLayer uint32, width, height uint32) {
	srcSlice := &src.Slices[srcLevel]
	dstSlice := &dst.Slices[dstLevel]

	job := tilecl.TFUJob{
		IOS: height<<16 | width,
		IIA: src.Mem.Addr + src.LayerOffset(srcLevel, srcLayer),
		IOA: dst.Mem.Addr + dst.LayerOffset(dstLevel, dstLayer),
	}

	job.ICfg |= uint32(format.TexFormat(src.Format)) << hw.TFUICfgTTypeShift
	job.ICfg |= hw.TFUFormat(srcSlice.Tiling) << hw.TFUICfgFormatShift
	if srcSlice.Tiling == hw.MemoryFormatRaster {
		job.IIS = srcSlice.Stride / src.CPP
	}

	job.IOA |= hw.TFUFormat(dstSlice.Tiling) << hw.TFUIOAFormatShift
	if dstSlice.Tiling.IsUIF() {
		// The TFU needs the output padding spelled out for UIF layouts.
		job.ICfg |= dstSlice.PaddedHeightInUIFBlocks << hw.TFUICfgOPadShift
	}

	cb.AddTFUJob(job)
}

// BlitRenderer is the shader-based blit collaborator used when the transfer
// unit cannot handle a region.
type BlitRenderer interface {
	Blit(dst, src *tilecl.Image, region *tilecl.ImageBlit, filterLinear bool) error
}

// BlitImage copies regions between images with optional scaling, mirroring
// and filtering. The fixed-function transfer unit is tried first; remaining
// regions go to the shader renderer. An error is returned when neither path
// can serve a region.
func BlitImage(cb *tilecl.CommandBuffer, dst, src *tilecl.Image, regions []tilecl.ImageBlit, filterLinear bool, renderer BlitRenderer) error {
	for i := range regions {
		region := &regions[i]
		if blitTFU(cb, dst, src, region, filterLinear) {
			continue
		}
		if renderer == nil {
			return fmt.Errorf("transfer: no blit path for region %d (%s to %s)", i, src.Format, dst.Format)
		}
		if err := renderer.Blit(dst, src, region, filterLinear); err != nil {
			return fmt.Errorf("transfer: shader blit: %w", err)
		}
	}
	return nil
}
