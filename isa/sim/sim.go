// Package sim is a reference interpreter for the shader IR. The verifier
// runs a program before and after a pack/disassemble round trip and compares
// the machine state the two runs produce.
package sim

import (
	"fmt"
	"math"

	"github.com/tilegpu/tilecl/f16"
	"github.com/tilegpu/tilecl/isa"
)

// Machine is the architectural state a program executes against: a 64-entry
// register file, a read-only uniform stream, and word-addressed output
// memory.
type Machine struct {
	Regs     [64]uint32
	Uniforms []uint32
	// Memory maps word-aligned byte addresses to stored words.
	Memory map[uint32]uint32
}

func NewMachine() *Machine {
	return &Machine{Memory: map[uint32]uint32{}}
}

const (
	signMask32    = 0x8000_0000
	signMaskLanes = 0x8000_8000
)

func (m *Machine) srcValue(ins *isa.Instruction, i int) uint32 {
	src := ins.Srcs[i]
	var v uint32
	switch src.Kind {
	case isa.SrcZero:
		v = 0
	case isa.SrcRegister:
		v = m.Regs[src.Index]
	case isa.SrcConstant:
		v = uint32(ins.Constant)
	}
	// Sign modifiers act on the raw bit pattern, per lane for f16.
	mask := uint32(signMask32)
	if ins.Size == isa.F16 {
		mask = signMaskLanes
	}
	if src.Abs {
		v &^= mask
	}
	if src.Neg {
		v ^= mask
	}
	return v
}

func clamp(f float32, m isa.Outmod) float32 {
	switch m {
	case isa.OutmodPos:
		if f < 0 {
			f = 0
		}
	case isa.OutmodSatSigned:
		if f < -1 {
			f = -1
		}
		if f > 1 {
			f = 1
		}
	case isa.OutmodSat:
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
	}
	return f
}

func alu(class isa.Class, a, b, c float32) float32 {
	switch class {
	case isa.ClassFAdd:
		return a + b
	case isa.ClassFMin:
		if b < a {
			return b
		}
		return a
	case isa.ClassFMax:
		if b > a {
			return b
		}
		return a
	case isa.ClassFMA:
		return a*b + c
	default:
		panic(fmt.Sprintf("sim: %s is not an alu class", class))
	}
}

func (m *Machine) stepALU(ins *isa.Instruction) {
	var srcs [3]uint32
	for i := 0; i < ins.Class.SrcCount(); i++ {
		srcs[i] = m.srcValue(ins, i)
	}
	if ins.Size == isa.F32 {
		r := alu(ins.Class,
			math.Float32frombits(srcs[0]),
			math.Float32frombits(srcs[1]),
			math.Float32frombits(srcs[2]))
		m.Regs[ins.Dest] = math.Float32bits(clamp(r, ins.Outmod))
		return
	}
	var out uint32
	for lane := 0; lane < 2; lane++ {
		shift := 16 * lane
		r := alu(ins.Class,
			f16.Float32(uint16(srcs[0]>>shift)),
			f16.Float32(uint16(srcs[1]>>shift)),
			f16.Float32(uint16(srcs[2]>>shift)))
		out |= uint32(f16.Bits(clamp(r, ins.Outmod))) << shift
	}
	m.Regs[ins.Dest] = out
}

// Step executes a single instruction.
func (m *Machine) Step(ins *isa.Instruction) {
	switch ins.Class {
	case isa.ClassFAdd, isa.ClassFMin, isa.ClassFMax, isa.ClassFMA:
		m.stepALU(ins)
	case isa.ClassLoadUniform:
		base := uint32(ins.Constant)
		for i := uint8(0); i < ins.StoreChannels; i++ {
			m.Regs[ins.Dest+i] = m.Uniforms[base+uint32(i)]
		}
	case isa.ClassLoadAddress:
		m.Regs[ins.Dest] = uint32(ins.Constant)
	case isa.ClassStore:
		addr := m.srcValue(ins, 1)
		base := ins.Srcs[0].Index
		for i := uint8(0); i < ins.StoreChannels; i++ {
			m.Memory[addr+4*uint32(i)] = m.Regs[base+i]
		}
	default:
		panic(fmt.Sprintf("sim: cannot execute %s", ins.Class))
	}
}

// Run executes the whole program, clause by clause, issuing each bundle's
// FMA slot before its ADD slot.
func (m *Machine) Run(p *isa.Program) {
	for i := range p.Clauses {
		for _, b := range p.Clauses[i].Bundles {
			if b.FMA != nil {
				m.Step(b.FMA)
			}
			if b.Add != nil {
				m.Step(b.Add)
			}
		}
	}
}
