// Package verify checks the instruction packer against the reference
// interpreter. Each candidate instruction is wrapped in a minimal program
// that loads its inputs from uniforms and stores its result to memory; the
// program is run once as built and once after a pack/disassemble round
// trip, and the two memory images must match.
package verify

import (
	"fmt"
	"io"

	"github.com/tilegpu/tilecl/isa"
	"github.com/tilegpu/tilecl/isa/disasm"
	"github.com/tilegpu/tilecl/isa/sim"
)

type Verbosity int

const (
	Quiet Verbosity = iota
	OnFailure
	Always
)

const (
	inputReg   = 0
	addressReg = 32
	outputAddr = 0x1000
	nChannels  = 4
)

// Wrap builds the four-clause harness program around the instruction under
// test: load the uniform inputs, execute the instruction, load the output
// address, store the result.
func Wrap(ins *isa.Instruction, fma bool) *isa.Program {
	load := &isa.Instruction{
		Class:         isa.ClassLoadUniform,
		Srcs:          [3]isa.Src{isa.Constant()},
		Dest:          inputReg,
		Constant:      0,
		StoreChannels: nChannels,
	}
	addr := &isa.Instruction{
		Class:    isa.ClassLoadAddress,
		Srcs:     [3]isa.Src{isa.Constant()},
		Dest:     addressReg,
		Constant: outputAddr,
	}
	store := &isa.Instruction{
		Class:         isa.ClassStore,
		Srcs:          [3]isa.Src{isa.Register(inputReg), isa.Register(addressReg)},
		StoreChannels: nChannels,
	}

	middle := isa.Bundle{Add: ins}
	if fma {
		middle = isa.Bundle{FMA: ins}
	}
	var middleConstants []uint64
	if ins.ReferencesConstant() {
		middleConstants = []uint64{ins.Constant}
	}

	p := &isa.Program{
		Clauses: []isa.Clause{
			{Bundles: []isa.Bundle{{Add: load}}, Type: isa.ClauseUBO, Constants: []uint64{load.Constant}},
			{Bundles: []isa.Bundle{middle}, Constants: middleConstants},
			{Bundles: []isa.Bundle{{Add: addr}}, Constants: []uint64{addr.Constant}},
			{Bundles: []isa.Bundle{{Add: store}}, Type: isa.ClauseSSBOStore},
		},
	}
	for i := range p.Clauses {
		c := &p.Clauses[i]
		c.ScoreboardID = uint8(i) & 1
		if i > 0 {
			c.Dependencies = 1 << (uint8(i)&1 ^ 1)
			c.DataRegisterWriteBarrier = true
		}
	}
	return p
}

func run(p *isa.Program, input []uint32) [nChannels]uint32 {
	m := sim.NewMachine()
	m.Uniforms = input
	m.Run(p)
	var out [nChannels]uint32
	for i := range out {
		out[i] = m.Memory[outputAddr+4*uint32(i)]
	}
	return out
}

// TestSingle round-trips one wrapped instruction and reports whether the
// packed form behaves like the source form.
func TestSingle(ins *isa.Instruction, input []uint32, fma bool, v Verbosity, w io.Writer) bool {
	p := Wrap(ins, fma)
	packed := isa.Pack(p)
	rt, err := disasm.Disassemble(packed)

	ok := err == nil
	var want, got [nChannels]uint32
	if ok {
		want = run(p, input)
		got = run(rt, input)
		ok = want == got
	}

	if v == Always || (v == OnFailure && !ok) {
		status := "pass"
		if !ok {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s: %s.%s%s fma=%v\n", status, ins.Class, ins.Size, ins.Outmod, fma)
		disasm.Fprint(w, p)
		if err != nil {
			fmt.Fprintf(w, "disassembly failed: %v\n", err)
		} else {
			fmt.Fprintln(w, "round trip:")
			disasm.Fprint(w, rt)
			fmt.Fprintf(w, "want %08x got %08x\n", want, got)
		}
	}
	return ok
}

// FModSweep exercises a two-source float instruction across every outmod
// and source modifier combination. It returns the number of failures.
func FModSweep(base isa.Instruction, input []uint32, fma bool, v Verbosity, w io.Writer) int {
	failures := 0
	for outmod := isa.OutmodNone; outmod <= isa.OutmodSat; outmod++ {
		for mods := 0; mods < 16; mods++ {
			ins := base
			ins.Outmod = outmod
			ins.Srcs[0].Neg = mods&1 != 0
			ins.Srcs[1].Neg = mods&2 != 0
			ins.Srcs[0].Abs = mods&4 != 0
			ins.Srcs[1].Abs = mods&8 != 0
			// abs on both f16 sources of the fma port collides with
			// the swizzle encoding, so that combination is never
			// emitted.
			if fma && ins.Size == isa.F16 && ins.Srcs[0].Abs && ins.Srcs[1].Abs {
				continue
			}
			if !TestSingle(&ins, input, fma, v, w) {
				failures++
			}
		}
	}
	return failures
}

// FMASweep exercises a fused multiply-add across every source negation
// combination. It returns the number of failures.
func FMASweep(base isa.Instruction, input []uint32, v Verbosity, w io.Writer) int {
	failures := 0
	for mods := 0; mods < 8; mods++ {
		ins := base
		ins.Srcs[0].Neg = mods&1 != 0
		ins.Srcs[1].Neg = mods&2 != 0
		ins.Srcs[2].Neg = mods&4 != 0
		if !TestSingle(&ins, input, true, v, w) {
			failures++
		}
	}
	return failures
}
