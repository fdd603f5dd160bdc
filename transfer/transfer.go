// Package transfer implements the copy, clear, fill and blit operations on
// top of the render control list emitter. Each operation validates that the
// direct tile-buffer path applies, splits the work into one or more jobs and
// drives the emitter; regions are processed independently, so a failure in a
// later region leaves jobs for earlier regions standing.
package transfer

import (
	tilecl "github.com/tilegpu/tilecl"
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
	"github.com/tilegpu/tilecl/rcl"
	"github.com/tilegpu/tilecl/tiling"
)

// canUseTLB gates the direct tile-buffer path: the region must start at the
// top-left of the image and the image format must be storable by the tile
// buffer, directly or through a compatible format. Operations outside the
// gate need the general-purpose fallback renderer, which this layer does not
// provide.
func canUseTLB(img *tilecl.Image, offsetX, offsetY int32) (format.Format, bool) {
	if offsetX != 0 || offsetY != 0 {
		return format.Invalid, false
	}
	if img.Format.Renderable() || img.Format.IsDepthStencil() {
		return img.Format, true
	}
	if compat := format.CompatibleTLBFormat(img.Format); compat != format.Invalid {
		return compat, true
	}
	return format.Invalid, false
}

func mustUseTLB(img *tilecl.Image, offsetX, offsetY int32) format.Format {
	f, ok := canUseTLB(img, offsetX, offsetY)
	if !ok {
		panic("transfer: fallback renderer path not implemented")
	}
	return f
}

// frameLayers returns the number of framebuffer layers a region covers: the
// depth extent for 3D images, the array layer count otherwise.
func frameLayers(img *tilecl.Image, depth, layerCount uint32) uint32 {
	if img.Is3D {
		return depth
	}
	return layerCount
}

func startFramedJob(cb *tilecl.CommandBuffer, width, height, layers uint32, bpp hw.InternalBPP, msaa bool) (*tilecl.Job, error) {
	job, err := cb.StartJob()
	if err != nil {
		return nil, err
	}
	if err := job.StartFrame(width, height, layers, 1, bpp, msaa); err != nil {
		cb.AbandonJob()
		return nil, err
	}
	return job, nil
}

// CopyImageToBuffer copies regions of an image into a linear buffer.
func CopyImageToBuffer(cb *tilecl.CommandBuffer, buf *tilecl.Buffer, img *tilecl.Image, regions []tilecl.BufferImageCopy) error {
	for i := range regions {
		region := &regions[i]
		fbFormat := mustUseTLB(img, region.OffsetX, region.OffsetY)
		_, bpp := format.InternalTypeBPPForAspects(fbFormat, region.Aspect)
		layers := frameLayers(img, region.Depth, region.LayerCount)

		job, err := startFramedJob(cb, region.Width, region.Height, layers, bpp, img.Samples > 1)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(region.Width, region.Height, fbFormat, region.Aspect)
		rcl.CopyImageToBuffer(job, fb, buf, img, region)
		job.EmitBinningFlush()
	}
	return nil
}

// CopyBufferToImage uploads regions of a linear buffer into an image.
func CopyBufferToImage(cb *tilecl.CommandBuffer, img *tilecl.Image, buf *tilecl.Buffer, regions []tilecl.BufferImageCopy) error {
	for i := range regions {
		region := &regions[i]
		fbFormat := mustUseTLB(img, region.OffsetX, region.OffsetY)
		_, bpp := format.InternalTypeBPPForAspects(fbFormat, region.Aspect)
		layers := frameLayers(img, region.Depth, region.LayerCount)

		job, err := startFramedJob(cb, region.Width, region.Height, layers, bpp, img.Samples > 1)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(region.Width, region.Height, fbFormat, region.Aspect)
		rcl.CopyBufferToImage(job, fb, img, buf, region)
		job.EmitBinningFlush()
	}
	return nil
}

// CopyImage copies regions between two images of compatible formats.
func CopyImage(cb *tilecl.CommandBuffer, dst, src *tilecl.Image, regions []tilecl.ImageCopy) error {
	for i := range regions {
		region := &regions[i]
		mustUseTLB(src, region.SrcOffsetX, region.SrcOffsetY)
		fbFormat := mustUseTLB(dst, region.DstOffsetX, region.DstOffsetY)
		_, bpp := format.InternalTypeBPPForAspects(fbFormat, region.DstAspect)
		layers := frameLayers(dst, region.Depth, region.LayerCount)

		job, err := startFramedJob(cb, region.Width, region.Height, layers, bpp, dst.Samples > 1)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(region.Width, region.Height, fbFormat, region.DstAspect)
		rcl.CopyImage(job, fb, dst, src, region)
		job.EmitBinningFlush()
	}
	return nil
}

// ClearColorImage clears the color aspect of the selected levels and layers.
func ClearColorImage(cb *tilecl.CommandBuffer, img *tilecl.Image, value format.ClearColorValue, rng tilecl.ImageSubresourceRange) error {
	fbFormat := mustUseTLB(img, 0, 0)
	if fbFormat != img.Format {
		// Clearing through a compatible integer format: encode the clear
		// value in the image format's bit layout first.
		value = format.PackClearColorAs(value, img.Format)
	}
	typ, bpp := format.InternalTypeBPPForAspects(fbFormat, format.AspectColor)

	for level := rng.BaseLevel; level < rng.BaseLevel+rng.LevelCount; level++ {
		slice := &img.Slices[level]
		layers := rng.LayerCount
		if img.Is3D {
			layers = max(img.Depth>>level, 1)
		}
		job, err := startFramedJob(cb, slice.Width, slice.Height, layers, bpp, img.Samples > 1)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(slice.Width, slice.Height, fbFormat, format.AspectColor)
		clear := &rcl.Clear{
			ColorWords: format.PackClearColor(value, typ, bpp),
			Aspects:    format.AspectColor,
			Image:      img,
			Level:      level,
		}
		rcl.ClearImage(job, fb, img, clear, level, rng.BaseLayer)
		job.EmitBinningFlush()
	}
	return nil
}

// ClearDepthStencilImage clears the depth and/or stencil aspects of the
// selected levels and layers.
func ClearDepthStencilImage(cb *tilecl.CommandBuffer, img *tilecl.Image, depth float32, stencil uint8, rng tilecl.ImageSubresourceRange) error {
	if !img.Format.IsDepthStencil() {
		panic("transfer: depth/stencil clear of color image")
	}
	_, bpp := format.InternalTypeBPPForAspects(img.Format, rng.Aspect)

	for level := rng.BaseLevel; level < rng.BaseLevel+rng.LevelCount; level++ {
		slice := &img.Slices[level]
		job, err := startFramedJob(cb, slice.Width, slice.Height, rng.LayerCount, bpp, img.Samples > 1)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(slice.Width, slice.Height, img.Format, rng.Aspect)
		clear := &rcl.Clear{
			Aspects: rng.Aspect,
			Z:       depth,
			S:       stencil,
			Image:   img,
			Level:   level,
		}
		rcl.ClearImage(job, fb, img, clear, level, rng.BaseLayer)
		job.EmitBinningFlush()
	}
	return nil
}

// BufferCopy is one region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset uint32
	DstOffset uint32
	Size      uint32
}

// itemSizeFor picks the transfer item granularity for a byte length: the
// largest of 4, 2 or 1 that divides it.
func itemSizeFor(size uint32) uint32 {
	switch size % 4 {
	case 0:
		return 4
	case 2:
		return 2
	default:
		return 1
	}
}

func itemFormat(itemSize uint32) (format.Format, hw.OutputImageFormat) {
	switch itemSize {
	case 4:
		return format.RGBA8UI, hw.OutputImageFormatRGBA8UI
	case 2:
		return format.RG8UI, hw.OutputImageFormatRG8UI
	default:
		return format.R8UI, hw.OutputImageFormatR8UI
	}
}

// copyBuffer encodes one buffer copy, splitting it into as many jobs as the
// per-job pixel budget requires. It returns the last job created.
func copyBuffer(cb *tilecl.CommandBuffer, dst *tilecl.BO, dstOffset uint32, src *tilecl.BO, srcOffset, size uint32) (*tilecl.Job, error) {
	itemSize := itemSizeFor(size)
	numItems := size / itemSize

	pf, hf := itemFormat(itemSize)
	var job *tilecl.Job
	for numItems > 0 {
		width, height := tiling.FramebufferSizeForPixelCount(numItems)

		var err error
		job, err = startFramedJob(cb, width, height, 1, hw.InternalBPP32, false)
		if err != nil {
			return nil, err
		}
		fb := rcl.NewFramebuffer(width, height, pf, format.AspectColor)
		rcl.CopyBuffer(job, fb, dst, src, dstOffset, srcOffset, width*itemSize, hf)
		job.EmitBinningFlush()

		items := width * height
		numItems -= items
		srcOffset += items * itemSize
		dstOffset += items * itemSize
	}
	return job, nil
}

// CopyBuffer copies regions between two linear buffers.
func CopyBuffer(cb *tilecl.CommandBuffer, dst, src *tilecl.Buffer, regions []BufferCopy) error {
	for _, region := range regions {
		_, err := copyBuffer(cb,
			dst.Mem, dst.MemOffset+region.DstOffset,
			src.Mem, src.MemOffset+region.SrcOffset,
			region.Size)
		if err != nil {
			return err
		}
	}
	return nil
}

// FillBuffer fills a buffer range with a 32-bit pattern. A size of WholeSize
// fills to the end of the buffer, rounded down to a multiple of 4.
func FillBuffer(cb *tilecl.CommandBuffer, buf *tilecl.Buffer, dstOffset, size, data uint32) error {
	if size == tilecl.WholeSize {
		size = (buf.Size - dstOffset) &^ 3
	}
	if size == 0 || size%4 != 0 {
		panic("transfer: fill size must be a positive multiple of 4")
	}

	value := format.ClearColorValue{
		Uint32: [4]uint32{data & 0xff, data >> 8 & 0xff, data >> 16 & 0xff, data >> 24},
	}
	words := format.PackClearColor(value, hw.InternalType8UI, hw.InternalBPP32)

	numItems := size / 4
	offset := buf.MemOffset + dstOffset
	for numItems > 0 {
		width, height := tiling.FramebufferSizeForPixelCount(numItems)

		job, err := startFramedJob(cb, width, height, 1, hw.InternalBPP32, false)
		if err != nil {
			return err
		}
		fb := rcl.NewFramebuffer(width, height, format.RGBA8UI, format.AspectColor)
		clear := &rcl.Clear{ColorWords: words, Aspects: format.AspectColor}
		rcl.FillBuffer(job, fb, buf.Mem, offset, width*4, clear)
		job.EmitBinningFlush()

		items := width * height
		numItems -= items
		offset += items * 4
	}
	return nil
}

// UpdateBuffer writes host data into a buffer through a transient staging
// allocation, which is registered with the last job so it is released
// exactly once at job completion.
func UpdateBuffer(cb *tilecl.CommandBuffer, buf *tilecl.Buffer, dstOffset uint32, data []byte) error {
	if len(data) == 0 {
		panic("transfer: empty buffer update")
	}
	staging, err := cb.Device.NewBO(uint32(len(data)), "staging")
	if err != nil {
		return err
	}
	copy(staging.Map(), data)
	staging.Unmap()

	job, err := copyBuffer(cb, buf.Mem, buf.MemOffset+dstOffset, staging, 0, uint32(len(data)))
	if err != nil {
		cb.Device.Free(staging)
		return err
	}
	job.AddExtraBO(staging)
	return nil
}
