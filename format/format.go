// Package format maps portable pixel formats to the hardware's internal
// tile-buffer types and output image formats.
package format

import (
	"fmt"

	"github.com/tilegpu/tilecl/hw"
)

type Format uint8

const (
	Invalid Format = iota

	RGBA8
	RGBA8Snorm
	BGRA8
	R8UI
	RG8UI
	RGBA8UI
	R16Unorm
	R16Snorm
	R16UI
	RG16Unorm
	RG16Snorm
	RG16UI
	RGBA16Unorm
	RGBA16Snorm
	RGBA16UI
	R32F
	RG32F
	RGBA32F

	D16
	D32F
	X8D24
	D24S8
)

func (f Format) String() string {
	if int(f) < len(formatNames) && formatNames[f] != "" {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

var formatNames = [...]string{
	RGBA8:       "RGBA8",
	RGBA8Snorm:  "RGBA8Snorm",
	BGRA8:       "BGRA8",
	R8UI:        "R8UI",
	RG8UI:       "RG8UI",
	RGBA8UI:     "RGBA8UI",
	R16Unorm:    "R16Unorm",
	R16Snorm:    "R16Snorm",
	R16UI:       "R16UI",
	RG16Unorm:   "RG16Unorm",
	RG16Snorm:   "RG16Snorm",
	RG16UI:      "RG16UI",
	RGBA16Unorm: "RGBA16Unorm",
	RGBA16Snorm: "RGBA16Snorm",
	RGBA16UI:    "RGBA16UI",
	R32F:        "R32F",
	RG32F:       "RG32F",
	RGBA32F:     "RGBA32F",
	D16:         "D16",
	D32F:        "D32F",
	X8D24:       "X8D24",
	D24S8:       "D24S8",
}

type Aspect uint8

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

func (a Aspect) HasDepthOrStencil() bool {
	return a&(AspectDepth|AspectStencil) != 0
}

// Info describes how a format maps onto the hardware.
type Info struct {
	// RTFormat is the render-target output format, or OutputImageFormatNone
	// if the format cannot be written by the tile buffer directly.
	RTFormat hw.OutputImageFormat
	// CPP is bytes per pixel.
	CPP uint32
	// Channels is the number of logical color channels.
	Channels uint8
	// BlueFirstSwizzle reports that the texture swizzle reads blue before
	// red, which requires a red/blue swap on tile buffer stores and loads.
	BlueFirstSwizzle bool
	// Texturable reports that the fixed-function transfer unit can sample
	// this format.
	Texturable bool
}

var infos = [...]Info{
	RGBA8:       {hw.OutputImageFormatRGBA8, 4, 4, false, true},
	RGBA8Snorm:  {hw.OutputImageFormatNone, 4, 4, false, true},
	BGRA8:       {hw.OutputImageFormatBGRA8, 4, 4, true, true},
	R8UI:        {hw.OutputImageFormatR8UI, 1, 1, false, true},
	RG8UI:       {hw.OutputImageFormatRG8UI, 2, 2, false, true},
	RGBA8UI:     {hw.OutputImageFormatRGBA8UI, 4, 4, false, true},
	R16Unorm:    {hw.OutputImageFormatNone, 2, 1, false, true},
	R16Snorm:    {hw.OutputImageFormatNone, 2, 1, false, true},
	R16UI:       {hw.OutputImageFormatR16UI, 2, 1, false, true},
	RG16Unorm:   {hw.OutputImageFormatNone, 4, 2, false, true},
	RG16Snorm:   {hw.OutputImageFormatNone, 4, 2, false, true},
	RG16UI:      {hw.OutputImageFormatRG16UI, 4, 2, false, true},
	RGBA16Unorm: {hw.OutputImageFormatNone, 8, 4, false, true},
	RGBA16Snorm: {hw.OutputImageFormatNone, 8, 4, false, true},
	RGBA16UI:    {hw.OutputImageFormatRGBA16UI, 8, 4, false, true},
	R32F:        {hw.OutputImageFormatR32F, 4, 1, false, true},
	RG32F:       {hw.OutputImageFormatRG32F, 8, 2, false, true},
	RGBA32F:     {hw.OutputImageFormatRGBA32F, 16, 4, false, true},
	D16:         {hw.OutputImageFormatD16, 2, 1, false, false},
	D32F:        {hw.OutputImageFormatD32F, 4, 1, false, false},
	X8D24:       {hw.OutputImageFormatD24X8, 4, 1, false, false},
	D24S8:       {hw.OutputImageFormatD24S8, 4, 2, false, false},
}

func (f Format) Info() Info {
	if int(f) >= len(infos) || (infos[f] == Info{}) {
		panic(fmt.Sprintf("format: no info for %s", f))
	}
	return infos[f]
}

func (f Format) IsDepthStencil() bool {
	switch f {
	case D16, D32F, X8D24, D24S8:
		return true
	default:
		return false
	}
}

// Renderable reports whether the tile buffer can store this format directly.
func (f Format) Renderable() bool {
	return f.Info().RTFormat != hw.OutputImageFormatNone
}

// InternalTypeBPPForAspects resolves the tile buffer internal type and bpp
// class for transferring the given aspects of f. Depth/stencil formats map to
// an unsigned-integer color type sized to preserve all bits. Panics on
// unsupported combinations.
func InternalTypeBPPForAspects(f Format, aspects Aspect) (hw.InternalType, hw.InternalBPP) {
	if aspects.HasDepthOrStencil() {
		switch f {
		case D16:
			return hw.InternalType16UI, hw.InternalBPP64
		case D32F:
			return hw.InternalType32F, hw.InternalBPP128
		case X8D24, D24S8:
			// An RGBA8UI view lets us relocate the X/S bits into the
			// right byte lanes, making the load/store a plain copy.
			return hw.InternalType8UI, hw.InternalBPP32
		default:
			panic(fmt.Sprintf("format: depth/stencil aspect on %s", f))
		}
	}
	return InternalTypeBPPForOutputFormat(f.Info().RTFormat)
}

// InternalTypeBPPForOutputFormat resolves the internal type and bpp class of
// a render-target output format.
func InternalTypeBPPForOutputFormat(rt hw.OutputImageFormat) (hw.InternalType, hw.InternalBPP) {
	switch rt {
	case hw.OutputImageFormatRGBA8, hw.OutputImageFormatBGRA8:
		return hw.InternalType8, hw.InternalBPP32
	case hw.OutputImageFormatR8UI, hw.OutputImageFormatRG8UI, hw.OutputImageFormatRGBA8UI:
		return hw.InternalType8UI, hw.InternalBPP32
	case hw.OutputImageFormatR16UI, hw.OutputImageFormatRG16UI:
		return hw.InternalType16UI, hw.InternalBPP32
	case hw.OutputImageFormatRGBA16UI:
		return hw.InternalType16UI, hw.InternalBPP64
	case hw.OutputImageFormatR32F:
		return hw.InternalType32F, hw.InternalBPP32
	case hw.OutputImageFormatRG32F:
		return hw.InternalType32F, hw.InternalBPP64
	case hw.OutputImageFormatRGBA32F:
		return hw.InternalType32F, hw.InternalBPP128
	default:
		panic(fmt.Sprintf("format: no internal type for output format %d", rt))
	}
}

// ChooseTLBFormat picks the output image format for a tile buffer load or
// store. Buffer transfers of depth/stencil formats are special-cased because
// the interchange layout differs from the hardware's natural channel layout.
func ChooseTLBFormat(f Format, aspect Aspect, forStore, toBuffer, fromBuffer bool) hw.OutputImageFormat {
	if !toBuffer && !fromBuffer {
		return f.Info().RTFormat
	}
	switch f {
	case D16:
		return hw.OutputImageFormatR16UI
	case D32F:
		return hw.OutputImageFormatR32F
	case X8D24:
		return hw.OutputImageFormatRGBA8UI
	case D24S8:
		if aspect&AspectDepth != 0 {
			return hw.OutputImageFormatRGBA8UI
		}
		if aspect&AspectStencil == 0 {
			panic("format: D24S8 buffer transfer without depth or stencil aspect")
		}
		// Stencil values travel packed, one byte per pixel, on the buffer
		// side, while the image side always carries all four channels.
		// Which side gets R8UI therefore depends on the copy direction.
		if toBuffer {
			if forStore {
				return hw.OutputImageFormatR8UI
			}
			return hw.OutputImageFormatRGBA8UI
		}
		if forStore {
			return hw.OutputImageFormatRGBA8UI
		}
		return hw.OutputImageFormatR8UI
	default:
		return f.Info().RTFormat
	}
}

// NeedsRBSwap reports whether ordinary color copies of f need a red/blue
// swap on the tile buffer side.
func NeedsRBSwap(f Format) bool {
	return f.Info().BlueFirstSwizzle
}

// TexFormat returns the sampled texture data format of f, used when
// programming the transfer unit.
func TexFormat(f Format) hw.TextureDataFormat {
	switch f {
	case RGBA8, BGRA8:
		return hw.TextureDataFormatRGBA8
	case RGBA8Snorm:
		return hw.TextureDataFormatRGBA8Snorm
	case R8UI:
		return hw.TextureDataFormatR8UI
	case RG8UI:
		return hw.TextureDataFormatRG8UI
	case RGBA8UI:
		return hw.TextureDataFormatRGBA8UI
	case R16Unorm:
		return hw.TextureDataFormatR16
	case R16Snorm:
		return hw.TextureDataFormatR16Snorm
	case R16UI:
		return hw.TextureDataFormatR16UI
	case RG16Unorm:
		return hw.TextureDataFormatRG16
	case RG16Snorm:
		return hw.TextureDataFormatRG16Snorm
	case RG16UI:
		return hw.TextureDataFormatRG16UI
	case RGBA16Unorm:
		return hw.TextureDataFormatRGBA16
	case RGBA16Snorm:
		return hw.TextureDataFormatRGBA16Snorm
	case RGBA16UI:
		return hw.TextureDataFormatRGBA16UI
	case R32F:
		return hw.TextureDataFormatR32F
	case RG32F:
		return hw.TextureDataFormatRG32F
	case RGBA32F:
		return hw.TextureDataFormatRGBA32F
	case D16:
		return hw.TextureDataFormatDepthComp16
	case X8D24:
		return hw.TextureDataFormatDepthComp24
	case D32F:
		return hw.TextureDataFormatDepthComp32F
	case D24S8:
		return hw.TextureDataFormatDepth24X8
	default:
		panic(fmt.Sprintf("format: no texture format for %s", f))
	}
}

// CompatibleTLBFormat returns a same-size uint format that the tile buffer
// can store when f itself is not renderable, or Invalid when no compatible
// format exists.
func CompatibleTLBFormat(f Format) Format {
	switch f {
	case RGBA8Snorm:
		return RGBA8UI
	case R16Unorm, R16Snorm:
		return R16UI
	case RG16Unorm, RG16Snorm:
		return RG16UI
	case RGBA16Unorm, RGBA16Snorm:
		return RGBA16UI
	default:
		return Invalid
	}
}
