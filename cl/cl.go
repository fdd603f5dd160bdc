// Package cl implements the binary control-list streams consumed by the
// GPU's command processor. A control list is an append-only byte stream of
// fixed-layout records; records that carry device addresses store them as
// relocations which are resolved to absolute addresses when the owning job is
// finished, never while the stream can still grow.
package cl

import (
	"encoding/binary"

	"github.com/tilegpu/tilecl/mem"
)

// Buffer identifies the device buffer an address points into. The concrete
// type is provided by the device layer; control lists only thread it through
// relocations.
type Buffer interface{}

// Address is a pointer-like reference into a device buffer, kept as an
// offset-based handle until relocation time.
type Address struct {
	Buf    Buffer
	Offset uint32
}

// Reloc records that the 4 bytes at Pos in the stream must be patched with
// the absolute address of Addr.
type Reloc struct {
	Pos  uint32
	Addr Address
}

// CL is one control-list stream. Buf is the identity of the device buffer
// the stream will be uploaded to, so other streams can take addresses into
// this one.
type CL struct {
	Buf    Buffer
	Data   []byte
	Relocs []Reloc

	arena *mem.Arena
}

func New(arena *mem.Arena, buf Buffer) *CL {
	return &CL{Buf: buf, arena: arena}
}

// Addr returns the address of the next byte to be written.
func (cl *CL) Addr() Address {
	return Address{Buf: cl.Buf, Offset: uint32(len(cl.Data))}
}

func (cl *CL) EnsureSpace(n int) {
	cl.Data = mem.Grow(cl.arena, cl.Data, n)
}

// Record is a fixed-layout hardware record. Pack writes the record body
// (everything after the opcode byte) into b, which is zeroed and exactly
// Size()-1 bytes long.
type Record interface {
	Opcode() uint8
	Size() int
	Pack(b []byte, f *Fields)
}

// Emit appends a record to the stream.
func (cl *CL) Emit(rec Record) {
	size := rec.Size()
	cl.EnsureSpace(size)
	off := len(cl.Data)
	cl.Data = cl.Data[:off+size]
	b := cl.Data[off:]
	clear(b)
	b[0] = rec.Opcode()
	rec.Pack(b[1:], &Fields{cl: cl, base: uint32(off) + 1})
}

// Fields is passed to Record.Pack for fields that need stream-level
// bookkeeping.
type Fields struct {
	cl   *CL
	base uint32
}

// PutAddress writes an address field at byte offset pos of the record body
// and queues its relocation. Until relocations are resolved the field holds
// the in-buffer offset.
func (f *Fields) PutAddress(b []byte, pos int, addr Address) {
	binary.LittleEndian.PutUint32(b[pos:], addr.Offset)
	f.cl.Relocs = append(f.cl.Relocs, Reloc{Pos: f.base + uint32(pos), Addr: addr})
}

// ResolveRelocs patches every queued address with base(buf)+offset. After
// this the stream is complete and internally consistent and must not grow
// further.
func (cl *CL) ResolveRelocs(base func(buf Buffer) uint32) {
	for _, rel := range cl.Relocs {
		abs := base(rel.Addr.Buf) + rel.Addr.Offset
		binary.LittleEndian.PutUint32(cl.Data[rel.Pos:], abs)
	}
}
