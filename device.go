// Package tilecl encodes copy, clear and blit operations as binary control
// lists for a tile-based GPU. Operations are recorded into jobs owned by a
// CommandBuffer; a finished job's streams are complete and internally
// consistent (all relocations resolved) and ready for handoff to a submission
// layer.
package tilecl

import (
	"fmt"

	"github.com/tilegpu/tilecl/tiling"
)

const boAlign = 4096

// BO is a device buffer object. The in-memory device backs it with a byte
// slice; Addr is its address in the device's flat address space.
type BO struct {
	Handle uint32
	Addr   uint32
	Size   uint32

	data   []byte
	mapped bool
	freed  bool
	dev    *Device
}

// Map exposes the buffer's storage. The mapping stays valid until Unmap.
func (bo *BO) Map() []byte {
	if bo.freed {
		panic("tilecl: mapping freed BO")
	}
	bo.mapped = true
	return bo.data
}

func (bo *BO) Unmap() {
	bo.mapped = false
}

// Device hands out buffer objects from a flat address space. A quota makes
// allocation failures reproducible in tests; a quota of zero means unlimited.
type Device struct {
	Quota uint32

	nextHandle uint32
	nextAddr   uint32
	allocated  uint32
}

func NewDevice() *Device {
	// Address 0 is reserved so that a resolved relocation is never zero.
	return &Device{nextHandle: 1, nextAddr: boAlign}
}

// NewBO allocates a buffer object of the given size. The name is a debugging
// aid only.
func (dev *Device) NewBO(size uint32, name string) (*BO, error) {
	if size == 0 {
		panic("tilecl: zero-size BO")
	}
	size = tiling.AlignUp(size, uint32(boAlign))
	if dev.Quota != 0 && dev.allocated+size > dev.Quota {
		return nil, fmt.Errorf("tilecl: out of device memory allocating %d bytes for %q", size, name)
	}
	bo := &BO{
		Handle: dev.nextHandle,
		Addr:   dev.nextAddr,
		Size:   size,
		data:   make([]byte, size),
		dev:    dev,
	}
	dev.nextHandle++
	dev.nextAddr += size
	dev.allocated += size
	return bo, nil
}

// Free releases a buffer object. Freeing twice is a programming error.
func (dev *Device) Free(bo *BO) {
	if bo == nil {
		return
	}
	if bo.freed {
		panic("tilecl: double free of BO")
	}
	bo.freed = true
	bo.data = nil
	dev.allocated -= bo.Size
}
