// Package hw defines the hardware-facing enums and fixed-layout control-list
// records of the tile engine. Field offsets and widths follow the hardware's
// documented reset values; records are built as plain structs and serialized
// through cl.Emit.
package hw

type InternalType uint8

const (
	InternalType8 InternalType = iota
	InternalType8I
	InternalType8UI
	InternalType16F
	InternalType16I
	InternalType16UI
	InternalType32F
	InternalType32I
	InternalType32UI
)

type InternalBPP uint8

const (
	InternalBPP32 InternalBPP = iota
	InternalBPP64
	InternalBPP128
)

// Bytes returns the per-pixel tile buffer footprint of the bpp class.
func (bpp InternalBPP) Bytes() uint32 {
	return 4 << bpp
}

type OutputImageFormat uint8

const (
	OutputImageFormatNone OutputImageFormat = iota
	OutputImageFormatR8UI
	OutputImageFormatRG8UI
	OutputImageFormatRGBA8UI
	OutputImageFormatRGBA8
	OutputImageFormatBGRA8
	OutputImageFormatR16UI
	OutputImageFormatRG16UI
	OutputImageFormatRGBA16UI
	OutputImageFormatR32F
	OutputImageFormatRG32F
	OutputImageFormatRGBA32F
	OutputImageFormatD16
	OutputImageFormatD24S8
	OutputImageFormatD32F
	OutputImageFormatD24X8
)

// MemoryFormat is the layout of an image slice in memory.
type MemoryFormat uint8

const (
	MemoryFormatRaster MemoryFormat = iota
	MemoryFormatLineartile
	MemoryFormatUBLinear1Column
	MemoryFormatUBLinear2Column
	MemoryFormatUIFNoXor
	MemoryFormatUIFXor
)

func (m MemoryFormat) IsUIF() bool {
	return m == MemoryFormatUIFNoXor || m == MemoryFormatUIFXor
}

type DecimateMode uint8

const (
	DecimateModeSample0 DecimateMode = iota
	DecimateMode4X
	DecimateMode16X
	DecimateModeAllSamples
)

// TileBuffer selects which on-chip tile buffer a load or store targets.
type TileBuffer uint8

const (
	TileBufferRenderTarget0 TileBuffer = iota
	TileBufferRenderTarget1
	TileBufferRenderTarget2
	TileBufferRenderTarget3
	TileBufferNone     TileBuffer = 8
	TileBufferZ        TileBuffer = 9
	TileBufferStencil  TileBuffer = 10
	TileBufferZStencil TileBuffer = 11
)

// TextureDataFormat identifies a sampled texture layout, used when
// programming the transfer unit.
type TextureDataFormat uint8

const (
	TextureDataFormatR8 TextureDataFormat = iota
	TextureDataFormatR8Snorm
	TextureDataFormatRG8
	TextureDataFormatRG8Snorm
	TextureDataFormatRGBA8
	TextureDataFormatRGBA8Snorm
	TextureDataFormatR16UI
	TextureDataFormatRG16UI
	TextureDataFormatRGBA16UI
	TextureDataFormatR16
	TextureDataFormatR16Snorm
	TextureDataFormatRG16
	TextureDataFormatRG16Snorm
	TextureDataFormatRGBA16
	TextureDataFormatRGBA16Snorm
	TextureDataFormatR32F
	TextureDataFormatRG32F
	TextureDataFormatRGBA32F
	TextureDataFormatR8UI
	TextureDataFormatRG8UI
	TextureDataFormatRGBA8UI
	TextureDataFormatDepthComp16
	TextureDataFormatDepthComp24
	TextureDataFormatDepthComp32F
	TextureDataFormatDepth24X8
)

type RenderTargetClamp uint8

const (
	RenderTargetClampNone RenderTargetClamp = iota
	RenderTargetClampNorm
	RenderTargetClampPos
)

type TileAllocBlockSize uint8

const (
	TileAllocBlockSize64B TileAllocBlockSize = iota
	TileAllocBlockSize128B
	TileAllocBlockSize256B
)
