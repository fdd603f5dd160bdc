package tilecl

import "github.com/tilegpu/tilecl/format"

// Buffer is a linear device buffer.
type Buffer struct {
	Mem       *BO
	MemOffset uint32
	Size      uint32
}

func NewBuffer(dev *Device, size uint32) (*Buffer, error) {
	bo, err := dev.NewBO(size, "buffer")
	if err != nil {
		return nil, err
	}
	return &Buffer{Mem: bo, Size: size}, nil
}

// WholeSize as a fill length means "to the end of the buffer".
const WholeSize = ^uint32(0)

// BufferImageCopy describes one region of a buffer/image transfer.
type BufferImageCopy struct {
	BufferOffset uint32
	// BufferRowLength and BufferImageHeight of zero mean tightly packed.
	BufferRowLength   uint32
	BufferImageHeight uint32

	Aspect     format.Aspect
	MipLevel   uint32
	BaseLayer  uint32
	LayerCount uint32

	OffsetX, OffsetY, OffsetZ int32
	Width, Height, Depth      uint32
}

// ImageCopy describes one region of an image/image copy.
type ImageCopy struct {
	SrcAspect    format.Aspect
	SrcMipLevel  uint32
	SrcBaseLayer uint32
	SrcOffsetX   int32
	SrcOffsetY   int32
	SrcOffsetZ   int32

	DstAspect    format.Aspect
	DstMipLevel  uint32
	DstBaseLayer uint32
	DstOffsetX   int32
	DstOffsetY   int32
	DstOffsetZ   int32

	LayerCount           uint32
	Width, Height, Depth uint32
}

// ImageBlit describes one region of a scaled/filtered image copy. Offsets
// are the two corners of the source and destination boxes; a reversed pair
// mirrors the blit along that axis.
type ImageBlit struct {
	SrcAspect    format.Aspect
	SrcMipLevel  uint32
	SrcBaseLayer uint32
	SrcOffsets   [2][3]int32

	DstAspect    format.Aspect
	DstMipLevel  uint32
	DstBaseLayer uint32
	DstOffsets   [2][3]int32

	LayerCount uint32
}

// ImageSubresourceRange selects levels and layers for image clears.
type ImageSubresourceRange struct {
	Aspect     format.Aspect
	BaseLevel  uint32
	LevelCount uint32
	BaseLayer  uint32
	LayerCount uint32
}
