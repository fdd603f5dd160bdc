package format

import (
	"fmt"
	"math"

	"honnef.co/go/color"

	"github.com/tilegpu/tilecl/f16"
	"github.com/tilegpu/tilecl/hw"
)

// ClearColorValue carries a clear color in the three representations the
// hardware can consume. Only the representation matching the target's
// internal type is read.
type ClearColorValue struct {
	Float32 [4]float32
	Int32   [4]int32
	Uint32  [4]uint32
}

// ClearColorFromColor converts a color to a float clear value in linear sRGB.
func ClearColorFromColor(c *color.Color) ClearColorValue {
	cc := c.Convert(color.LinearSRGB)
	return ClearColorValue{
		Float32: [4]float32{
			float32(cc.Values[0]),
			float32(cc.Values[1]),
			float32(cc.Values[2]),
			float32(cc.Values[3]),
		},
	}
}

func unorm8(f float32) uint32 {
	return uint32(math.RoundToEven(float64(min(max(f, 0), 1)) * 255))
}

func snorm8(f float32) uint32 {
	return uint32(uint8(int8(math.RoundToEven(float64(min(max(f, -1), 1)) * 127))))
}

func unorm16(f float32) uint32 {
	return uint32(math.RoundToEven(float64(min(max(f, 0), 1)) * 65535))
}

func snorm16(f float32) uint32 {
	return uint32(uint16(int16(math.RoundToEven(float64(min(max(f, -1), 1)) * 32767))))
}

// PackClearColor packs a clear value into the hardware's clear color words
// for the given internal type. Only the first 4<<bpp bytes of the result are
// meaningful.
func PackClearColor(c ClearColorValue, typ hw.InternalType, bpp hw.InternalBPP) [4]uint32 {
	var w [4]uint32
	switch typ {
	case hw.InternalType8:
		w[0] = unorm8(c.Float32[0]) |
			unorm8(c.Float32[1])<<8 |
			unorm8(c.Float32[2])<<16 |
			unorm8(c.Float32[3])<<24
	case hw.InternalType8I, hw.InternalType8UI:
		w[0] = c.Uint32[0]&0xff |
			(c.Uint32[1]&0xff)<<8 |
			(c.Uint32[2]&0xff)<<16 |
			(c.Uint32[3]&0xff)<<24
	case hw.InternalType16F:
		w[0] = uint32(f16.Bits(c.Float32[0])) | uint32(f16.Bits(c.Float32[1]))<<16
		w[1] = uint32(f16.Bits(c.Float32[2])) | uint32(f16.Bits(c.Float32[3]))<<16
	case hw.InternalType16I, hw.InternalType16UI:
		w[0] = c.Uint32[0]&0xffff | (c.Uint32[1]&0xffff)<<16
		w[1] = c.Uint32[2]&0xffff | (c.Uint32[3]&0xffff)<<16
	case hw.InternalType32F:
		for i := range w {
			w[i] = math.Float32bits(c.Float32[i])
		}
	case hw.InternalType32I:
		for i := range w {
			w[i] = uint32(c.Int32[i])
		}
	case hw.InternalType32UI:
		w = c.Uint32
	default:
		panic(fmt.Sprintf("format: cannot pack clear color for internal type %d", typ))
	}
	return w
}

// PackClearColorAs encodes a float clear value in the byte layout of f and
// reinterprets the bytes as integer clear words, for clearing f through a
// compatible uint tile buffer format.
func PackClearColorAs(c ClearColorValue, f Format) ClearColorValue {
	var out ClearColorValue
	switch f {
	case RGBA8Snorm:
		for i := range 4 {
			out.Uint32[i] = snorm8(c.Float32[i])
		}
	case R16Unorm, RG16Unorm, RGBA16Unorm:
		for i := range 4 {
			out.Uint32[i] = unorm16(c.Float32[i])
		}
	case R16Snorm, RG16Snorm, RGBA16Snorm:
		for i := range 4 {
			out.Uint32[i] = snorm16(c.Float32[i])
		}
	default:
		panic(fmt.Sprintf("format: no compatible clear encoding for %s", f))
	}
	return out
}
