// Package isa models the VLIW shader instruction set: typed IR instructions
// grouped into bundles and clauses, and a deterministic binary packer.
package isa

import "fmt"

type Class uint8

const (
	ClassNone Class = iota
	ClassFAdd
	ClassFMin
	ClassFMax
	ClassFMA
	ClassLoadUniform
	ClassLoadAddress
	ClassStore
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "nop"
	case ClassFAdd:
		return "fadd"
	case ClassFMin:
		return "fmin"
	case ClassFMax:
		return "fmax"
	case ClassFMA:
		return "fma"
	case ClassLoadUniform:
		return "load_uniform"
	case ClassLoadAddress:
		return "load_address"
	case ClassStore:
		return "store"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// SrcCount is the number of source operands the class reads.
func (c Class) SrcCount() int {
	switch c {
	case ClassNone:
		return 0
	case ClassLoadUniform, ClassLoadAddress:
		return 1
	case ClassFAdd, ClassFMin, ClassFMax, ClassStore:
		return 2
	case ClassFMA:
		return 3
	default:
		panic(fmt.Sprintf("isa: unknown class %d", c))
	}
}

// Size is the operand precision.
type Size uint8

const (
	F32 Size = iota
	// F16 operates lane-wise on two packed halves.
	F16
)

func (s Size) String() string {
	if s == F16 {
		return "f16"
	}
	return "f32"
}

// Outmod is the output rounding/clamping modifier.
type Outmod uint8

const (
	OutmodNone Outmod = iota
	// OutmodPos clamps to [0, inf).
	OutmodPos
	// OutmodSatSigned clamps to [-1, 1].
	OutmodSatSigned
	// OutmodSat clamps to [0, 1].
	OutmodSat
)

func (m Outmod) String() string {
	switch m {
	case OutmodNone:
		return ""
	case OutmodPos:
		return ".pos"
	case OutmodSatSigned:
		return ".sat_signed"
	case OutmodSat:
		return ".sat"
	default:
		return fmt.Sprintf(".Outmod(%d)", uint8(m))
	}
}

// SrcKind is the semantic origin of a source operand.
type SrcKind uint8

const (
	SrcZero SrcKind = iota
	SrcRegister
	SrcConstant
)

type Src struct {
	Kind  SrcKind
	Index uint8
	Neg   bool
	Abs   bool
}

func Register(i uint8) Src { return Src{Kind: SrcRegister, Index: i} }
func Constant() Src        { return Src{Kind: SrcConstant} }

// Instruction is one typed IR operation. Instructions are immutable once
// constructed; the packer and the simulator both consume them read-only.
type Instruction struct {
	Class  Class
	Size   Size
	Srcs   [3]Src
	Dest   uint8
	Outmod Outmod

	// Constant is the embedded 64-bit constant referenced by SrcConstant
	// operands and by the memory access classes.
	Constant uint64

	// StoreChannels is the number of consecutive registers a store writes
	// out, and a load reads in.
	StoreChannels uint8
}

// ReferencesConstant reports whether any operand reads the embedded
// constant.
func (ins *Instruction) ReferencesConstant() bool {
	for i := 0; i < ins.Class.SrcCount(); i++ {
		if ins.Srcs[i].Kind == SrcConstant {
			return true
		}
	}
	return false
}

// Slot is an execution port within a bundle.
type Slot uint8

const (
	SlotFMA Slot = iota
	SlotAdd
)

// Bundle pairs at most one instruction per execution port.
type Bundle struct {
	FMA *Instruction
	Add *Instruction
}

// ClauseType tags the memory access a clause performs.
type ClauseType uint8

const (
	ClauseNone ClauseType = iota
	ClauseUBO
	ClauseSSBOStore
)

// Clause is the hardware scheduling unit: an ordered list of bundles plus
// scoreboarding state and embedded constants.
type Clause struct {
	Bundles []Bundle
	Type    ClauseType

	ScoreboardID uint8
	// Dependencies is a bitmask over the scoreboard IDs this clause waits
	// on. Only slots 0 through 5 can be waited on; the encoded mask is six
	// bits wide.
	Dependencies             uint8
	DataRegisterWriteBarrier bool

	Constants []uint64
}

// constantRefs counts the distinct embedded constants the clause's
// instructions reference.
func (c *Clause) constantRefs() int {
	seen := map[uint64]bool{}
	for _, b := range c.Bundles {
		for _, ins := range [...]*Instruction{b.FMA, b.Add} {
			if ins != nil && ins.ReferencesConstant() {
				seen[ins.Constant] = true
			}
		}
	}
	return len(seen)
}

// constantSlot returns the position of k in the clause's constant table.
func (c *Clause) constantSlot(k uint64) uint8 {
	for i, v := range c.Constants {
		if v == k {
			return uint8(i)
		}
	}
	panic(fmt.Sprintf("isa: constant %#x not embedded in clause", k))
}

type Program struct {
	Clauses []Clause
}
