// Package disasm decodes packed shader binaries back into the typed IR and
// renders them as text. Round-tripping a program through the packer and the
// disassembler is the correctness check the verifier is built on.
package disasm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tilegpu/tilecl/isa"
)

const (
	slotPresent = 1 << 63
)

func decodeSlot(w uint64, slot isa.Slot, constants []uint64) (*isa.Instruction, error) {
	if w&slotPresent == 0 {
		if w != 0 {
			return nil, fmt.Errorf("vacant slot word %#016x has stray bits", w)
		}
		return nil, nil
	}

	ins := &isa.Instruction{
		Class:         isa.Class(w & 0xf),
		Outmod:        isa.Outmod(w >> 6 & 3),
		Dest:          uint8(w >> 8 & 0x3f),
		StoreChannels: uint8(w >> 52 & 0xf),
	}
	if w&(1<<4) != 0 {
		ins.Size = isa.F16
	}

	switch ins.Class {
	case isa.ClassFAdd, isa.ClassFMin, isa.ClassFMax:
	case isa.ClassFMA:
		if slot != isa.SlotFMA {
			return nil, fmt.Errorf("%s encoded on the add port", ins.Class)
		}
	case isa.ClassLoadUniform, isa.ClassLoadAddress, isa.ClassStore:
		if slot != isa.SlotAdd {
			return nil, fmt.Errorf("%s encoded on the fma port", ins.Class)
		}
	default:
		return nil, fmt.Errorf("unknown instruction class %d", uint64(ins.Class))
	}

	for i := 0; i < ins.Class.SrcCount(); i++ {
		f := w >> (16 + 12*i)
		src := isa.Src{
			Kind:  isa.SrcKind(f & 3),
			Index: uint8(f >> 2 & 0x3f),
			Neg:   f&(1<<8) != 0,
			Abs:   f&(1<<9) != 0,
		}
		switch src.Kind {
		case isa.SrcZero, isa.SrcRegister:
		case isa.SrcConstant:
			if int(src.Index) >= len(constants) {
				return nil, fmt.Errorf("constant slot %d out of range (clause embeds %d)", src.Index, len(constants))
			}
			ins.Constant = constants[src.Index]
			src.Index = 0
		default:
			return nil, fmt.Errorf("unknown source kind %d", src.Kind)
		}
		ins.Srcs[i] = src
	}
	return ins, nil
}

// Disassemble decodes a packed program. It is the exact inverse of
// isa.Pack over the legal instruction domain.
func Disassemble(data []byte) (*isa.Program, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("disasm: %d bytes is not a whole number of words", len(data))
	}
	words := make([]uint64, len(data)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(data[i*8:])
	}

	p := &isa.Program{}
	for len(words) > 0 {
		hdr := words[0]
		words = words[1:]

		c := isa.Clause{
			Type:                     isa.ClauseType(hdr & 0xf),
			ScoreboardID:             uint8(hdr >> 4 & 7),
			Dependencies:             uint8(hdr >> 8 & 0x3f),
			DataRegisterWriteBarrier: hdr&(1<<15) != 0,
		}
		nbundles := int(hdr >> 16 & 0xf)
		nconstants := int(hdr >> 20 & 7)
		if nbundles == 0 {
			return nil, fmt.Errorf("disasm: clause %d has no bundles", len(p.Clauses))
		}
		if len(words) < 2*nbundles+nconstants {
			return nil, fmt.Errorf("disasm: clause %d truncated", len(p.Clauses))
		}
		c.Constants = append([]uint64(nil), words[2*nbundles:2*nbundles+nconstants]...)
		for i := 0; i < nbundles; i++ {
			fma, err := decodeSlot(words[2*i], isa.SlotFMA, c.Constants)
			if err != nil {
				return nil, fmt.Errorf("disasm: clause %d bundle %d: %w", len(p.Clauses), i, err)
			}
			add, err := decodeSlot(words[2*i+1], isa.SlotAdd, c.Constants)
			if err != nil {
				return nil, fmt.Errorf("disasm: clause %d bundle %d: %w", len(p.Clauses), i, err)
			}
			c.Bundles = append(c.Bundles, isa.Bundle{FMA: fma, Add: add})
		}
		words = words[2*nbundles+nconstants:]
		p.Clauses = append(p.Clauses, c)
	}
	return p, nil
}

func fprintSrc(w io.Writer, ins *isa.Instruction, i int) {
	src := ins.Srcs[i]
	if src.Neg {
		fmt.Fprint(w, "-")
	}
	if src.Abs {
		fmt.Fprint(w, "abs(")
	}
	switch src.Kind {
	case isa.SrcZero:
		fmt.Fprint(w, "#0")
	case isa.SrcRegister:
		fmt.Fprintf(w, "r%d", src.Index)
	case isa.SrcConstant:
		fmt.Fprintf(w, "#%#x", ins.Constant)
	}
	if src.Abs {
		fmt.Fprint(w, ")")
	}
}

func fprintSlot(w io.Writer, name string, ins *isa.Instruction) {
	if ins == nil {
		return
	}
	fmt.Fprintf(w, "    %s %s.%s%s r%d", name, ins.Class, ins.Size, ins.Outmod, ins.Dest)
	for i := 0; i < ins.Class.SrcCount(); i++ {
		fmt.Fprint(w, ", ")
		fprintSrc(w, ins, i)
	}
	if ins.StoreChannels != 0 {
		fmt.Fprintf(w, " [x%d]", ins.StoreChannels)
	}
	fmt.Fprintln(w)
}

// Fprint writes a textual rendering of the program, one slot per line.
func Fprint(w io.Writer, p *isa.Program) {
	for i := range p.Clauses {
		c := &p.Clauses[i]
		fmt.Fprintf(w, "clause %d: type=%d sb=%d deps=%#x", i, c.Type, c.ScoreboardID, c.Dependencies)
		if c.DataRegisterWriteBarrier {
			fmt.Fprint(w, " barrier")
		}
		fmt.Fprintln(w)
		for j := range c.Bundles {
			b := &c.Bundles[j]
			fprintSlot(w, "*", b.FMA)
			fprintSlot(w, "+", b.Add)
		}
		for j, k := range c.Constants {
			fmt.Fprintf(w, "    const %d: %#016x\n", j, k)
		}
	}
}
