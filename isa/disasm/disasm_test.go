package disasm

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	"github.com/tilegpu/tilecl/isa"
)

func sampleProgram() *isa.Program {
	return &isa.Program{
		Clauses: []isa.Clause{
			{
				Type: isa.ClauseUBO,
				Bundles: []isa.Bundle{{
					Add: &isa.Instruction{
						Class:         isa.ClassLoadUniform,
						Srcs:          [3]isa.Src{isa.Constant()},
						Dest:          0,
						StoreChannels: 4,
					},
				}},
				Constants: []uint64{0},
			},
			{
				ScoreboardID: 1,
				Dependencies: 1,
				Bundles: []isa.Bundle{
					{
						FMA: &isa.Instruction{
							Class: isa.ClassFMA,
							Srcs: [3]isa.Src{
								isa.Register(0),
								{Kind: isa.SrcRegister, Index: 1, Neg: true},
								isa.Register(2),
							},
							Dest: 4,
						},
						Add: &isa.Instruction{
							Class:  isa.ClassFAdd,
							Size:   isa.F16,
							Outmod: isa.OutmodSat,
							Srcs: [3]isa.Src{
								{Kind: isa.SrcRegister, Index: 4, Abs: true},
								isa.Constant(),
							},
							Dest:     5,
							Constant: 0x3c003c00,
						},
					},
					{
						Add: &isa.Instruction{
							Class: isa.ClassFMin,
							Srcs:  [3]isa.Src{isa.Register(4), isa.Register(5)},
							Dest:  6,
						},
					},
				},
				Constants: []uint64{0x3c003c00},
			},
			{
				Type:                     isa.ClauseSSBOStore,
				Dependencies:             2,
				DataRegisterWriteBarrier: true,
				Bundles: []isa.Bundle{{
					Add: &isa.Instruction{
						Class:         isa.ClassStore,
						Srcs:          [3]isa.Src{isa.Register(4), isa.Register(32)},
						StoreChannels: 2,
					},
				}},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	p := sampleProgram()
	rt, err := Disassemble(isa.Pack(p))
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !reflect.DeepEqual(p, rt) {
		var a, b bytes.Buffer
		Fprint(&a, p)
		Fprint(&b, rt)
		t.Errorf("round trip diverged\nsource:\n%sround trip:\n%s", a.String(), b.String())
	}
}

func words(ws ...uint64) []byte {
	var out []byte
	for _, w := range ws {
		out = binary.LittleEndian.AppendUint64(out, w)
	}
	return out
}

func TestDisassembleErrors(t *testing.T) {
	const present = uint64(1) << 63
	tests := []struct {
		name string
		data []byte
	}{
		{"ragged length", make([]byte, 12)},
		{"zero bundles", words(0)},
		{"truncated clause", words(1 << 16)},
		{"stray bits in vacant slot", words(1<<16, 7, 0)},
		{"unknown class", words(1<<16, 0, present | 0xe)},
		{"fma on the add port", words(1<<16, 0, present | uint64(isa.ClassFMA))},
		{"store on the fma port", words(1<<16, present | uint64(isa.ClassStore), 0)},
		{
			// An fadd whose first source selects constant slot 3 of a
			// clause that embeds none.
			"constant slot out of range",
			words(1<<16, 0, present|uint64(isa.ClassFAdd)|(uint64(isa.SrcConstant)|3<<2)<<16),
		},
	}
	for _, tt := range tests {
		if _, err := Disassemble(tt.data); err == nil {
			t.Errorf("%s: no error", tt.name)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, sampleProgram())
	out := buf.String()
	for _, want := range []string{
		"clause 0: type=1 sb=0 deps=0x0",
		"clause 2: type=2 sb=0 deps=0x2 barrier",
		"* fma.f32 r4, r0, -r1, r2",
		"+ fadd.f16.sat r5, abs(r4), #0x3c003c00",
		"+ store.f32 r0, r4, r32 [x2]",
		"const 0: 0x0000003c003c00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
