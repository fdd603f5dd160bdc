package tilecl

import (
	"github.com/tilegpu/tilecl/format"
	"github.com/tilegpu/tilecl/hw"
	"github.com/tilegpu/tilecl/tiling"
)

// ImageSlice is the memory layout of one mip level.
type ImageSlice struct {
	Offset uint32
	// Stride is the byte stride for raster slices; tiled slices do not use
	// it for addressing.
	Stride uint32
	Width  uint32
	Height uint32
	Tiling hw.MemoryFormat
	// PaddedHeightInUIFBlocks is the slice height padded to the UIF block
	// grid, for UIF-tiled slices.
	PaddedHeightInUIFBlocks uint32
	// Size is the byte size of one depth slice of this level.
	Size uint32
}

// Image is a device image with per-level slice layout.
type Image struct {
	Format  format.Format
	CPP     uint32
	Width   uint32
	Height  uint32
	Depth   uint32
	Layers  uint32
	Levels  uint32
	Samples uint32
	Is3D    bool
	Tiled   bool

	Mem       *BO
	MemOffset uint32
	// LayerStride is the byte distance between array layers.
	LayerStride uint32
	Slices      []ImageSlice
}

func minify(dim, level uint32) uint32 {
	return max(dim>>level, 1)
}

// NewImage allocates an image and computes its slice layout. 3D images use
// depth slices instead of array layers; the two are mutually exclusive.
func NewImage(dev *Device, f format.Format, width, height, depth, layers, levels, samples uint32, tiled bool) (*Image, error) {
	if width == 0 || height == 0 || depth == 0 || layers == 0 || levels == 0 {
		panic("tilecl: empty image")
	}
	if depth > 1 && layers > 1 {
		panic("tilecl: 3D array image")
	}
	if samples != 1 && samples != 4 {
		panic("tilecl: unsupported sample count")
	}

	img := &Image{
		Format:  f,
		CPP:     f.Info().CPP,
		Width:   width,
		Height:  height,
		Depth:   depth,
		Layers:  layers,
		Levels:  levels,
		Samples: samples,
		Is3D:    depth > 1,
		Tiled:   tiled,
		Slices:  make([]ImageSlice, levels),
	}

	// Lay out the smallest level first so that level 0, the largest and the
	// one accessed most, ends up page aligned at the end.
	var offset uint32
	for level := int(levels) - 1; level >= 0; level-- {
		s := &img.Slices[level]
		s.Width = minify(width, uint32(level))
		s.Height = minify(height, uint32(level))
		if samples > 1 {
			s.Width *= 2
			s.Height *= 2
		}

		if !tiled {
			s.Tiling = hw.MemoryFormatRaster
			s.Stride = s.Width * img.CPP
			s.Size = s.Stride * s.Height
		} else {
			bw := tiling.UIFBlockWidth(img.CPP)
			bh := tiling.UIFBlockHeight(img.CPP)
			if s.Width <= bw/2 && s.Height <= bh/2 {
				// Levels smaller than a UIF block are stored as plain
				// linear utiles.
				s.Tiling = hw.MemoryFormatLineartile
				s.Stride = tiling.AlignUp(s.Width, bw/2) * img.CPP
				s.Size = s.Stride * tiling.AlignUp(s.Height, bh/2)
			} else {
				s.Tiling = hw.MemoryFormatUIFNoXor
				paddedW := tiling.AlignUp(s.Width, bw)
				paddedH := tiling.AlignUp(s.Height, bh)
				s.Stride = paddedW * img.CPP
				s.PaddedHeightInUIFBlocks = paddedH / bh
				s.Size = s.Stride * paddedH
			}
		}
		if level == 0 {
			offset = tiling.AlignUp(offset, uint32(boAlign))
		}
		s.Offset = offset
		offset += s.Size * depth
	}

	layerStride := offset
	total := layerStride * layers
	bo, err := dev.NewBO(total, "image")
	if err != nil {
		return nil, err
	}
	img.Mem = bo
	img.LayerStride = layerStride
	return img, nil
}

// LayerOffset returns the byte offset of one layer (or depth slice, for 3D
// images) of a level, relative to the image's memory object.
func (img *Image) LayerOffset(level, layer uint32) uint32 {
	s := &img.Slices[level]
	if img.Is3D {
		return img.MemOffset + s.Offset + layer*s.Size
	}
	return img.MemOffset + layer*img.LayerStride + s.Offset
}
