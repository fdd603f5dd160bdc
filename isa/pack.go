package isa

import (
	"encoding/binary"
	"fmt"
)

// Binary layout. Every word is a little-endian uint64.
//
// Clause header:
//   bits  0-3   clause type
//   bits  4-6   scoreboard id
//   bits  8-13  dependency mask
//   bit  15     data register write barrier
//   bits 16-19  bundle count
//   bits 20-22  constant count
//
// Each bundle is two slot words, FMA then ADD. Slot word:
//   bits  0-3   class
//   bit   4     size (1 = f16)
//   bits  6-7   outmod
//   bits  8-13  dest register
//   bits 16+12i source i: kind (2), index (6), neg (1), abs (1)
//   bits 52-55  store channels
//   bit  63     slot occupied
//
// A constant-kind source's index field selects a word from the clause's
// constant table.
//
// The clause's constants follow its bundles, one word each.
const (
	slotPresent = 1 << 63

	maxBundles   = 15
	maxConstants = 7
)

func packSlot(c *Clause, ins *Instruction, slot Slot) uint64 {
	if ins == nil {
		return 0
	}
	switch ins.Class {
	case ClassFAdd, ClassFMin, ClassFMax:
		// Representable on either port.
	case ClassFMA:
		if slot != SlotFMA {
			panic("isa: fma on the add port")
		}
	case ClassLoadUniform, ClassLoadAddress, ClassStore:
		if slot != SlotAdd {
			panic(fmt.Sprintf("isa: %s on the fma port", ins.Class))
		}
	default:
		panic(fmt.Sprintf("isa: cannot pack %s", ins.Class))
	}
	if ins.Dest >= 64 {
		panic("isa: destination register out of range")
	}

	w := uint64(slotPresent)
	w |= uint64(ins.Class) & 0xf
	if ins.Size == F16 {
		w |= 1 << 4
	}
	w |= uint64(ins.Outmod) << 6
	w |= uint64(ins.Dest) << 8
	for i := 0; i < ins.Class.SrcCount(); i++ {
		src := ins.Srcs[i]
		index := src.Index
		if src.Kind == SrcConstant {
			index = c.constantSlot(ins.Constant)
		}
		if index >= 64 {
			panic("isa: source register out of range")
		}
		f := uint64(src.Kind) & 3
		f |= uint64(index) << 2
		if src.Neg {
			f |= 1 << 8
		}
		if src.Abs {
			f |= 1 << 9
		}
		w |= f << (16 + 12*i)
	}
	w |= (uint64(ins.StoreChannels) & 0xf) << 52
	return w
}

func packClause(out []byte, c *Clause) []byte {
	if len(c.Bundles) == 0 || len(c.Bundles) > maxBundles {
		panic("isa: clause bundle count out of range")
	}
	if len(c.Constants) > maxConstants {
		panic("isa: clause constant count out of range")
	}
	if c.ScoreboardID >= 8 {
		panic("isa: scoreboard id out of range")
	}
	// The wait mask is six bits wide, so slots 6 and 7 can be claimed but
	// never waited on.
	if c.Dependencies >= 0x40 {
		panic("isa: dependency mask out of range")
	}
	if refs := c.constantRefs(); refs != len(c.Constants) {
		panic(fmt.Sprintf("isa: clause embeds %d constants but references %d", len(c.Constants), refs))
	}

	var hdr uint64
	hdr |= uint64(c.Type) & 0xf
	hdr |= uint64(c.ScoreboardID) << 4
	hdr |= uint64(c.Dependencies) << 8
	if c.DataRegisterWriteBarrier {
		hdr |= 1 << 15
	}
	hdr |= uint64(len(c.Bundles)) << 16
	hdr |= uint64(len(c.Constants)) << 20
	out = binary.LittleEndian.AppendUint64(out, hdr)

	for i := range c.Bundles {
		b := &c.Bundles[i]
		out = binary.LittleEndian.AppendUint64(out, packSlot(c, b.FMA, SlotFMA))
		out = binary.LittleEndian.AppendUint64(out, packSlot(c, b.Add, SlotAdd))
	}
	for _, k := range c.Constants {
		out = binary.LittleEndian.AppendUint64(out, k)
	}
	return out
}

// Pack serializes a program. It is deterministic and total over the legal
// instruction domain; malformed programs are precondition violations.
func Pack(p *Program) []byte {
	var out []byte
	for i := range p.Clauses {
		out = packClause(out, &p.Clauses[i])
	}
	return out
}
