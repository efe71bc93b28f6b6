package isa

import (
	"fmt"
	"strings"
)

// 32-bit instruction format, most significant bit first:
//
//	[31:26] opcode (6 bits)
//	[25:18] dest   (8 bits)
//	[17:10] src1   (8 bits)
//	[9:2]   src2   (8 bits)
//	[1:0]   imm    (2 bits)
//
// The field widths are fixed by the target architecture.
const (
	OpcodeShift = 26
	OpcodeMask  = 0x3F

	DestShift = 18
	DestMask  = 0xFF

	Src1Shift = 10
	Src1Mask  = 0xFF

	Src2Shift = 2
	Src2Mask  = 0xFF

	ImmShift = 0
	ImmMask  = 0x3
)

// Instruction is one machine instruction. Dest, Src1 and Src2 hold either a
// register number or an absolute PIM address depending on the opcode.
//
// Fields are kept exactly as constructed. Bits above a field's width are
// dropped only by Encode, so two instructions that differ only in those bits
// encode to the same word.
type Instruction struct {
	op   Opcode
	dest uint32
	src1 uint32
	src2 uint32
	imm  uint32
}

// New creates an instruction. No range checks are performed.
func New(op Opcode, dest, src1, src2, imm uint32) Instruction {
	return Instruction{op: op, dest: dest, src1: src1, src2: src2, imm: imm}
}

// Opcode returns the operation code.
func (i Instruction) Opcode() Opcode { return i.op }

// Dest returns the destination register or address.
func (i Instruction) Dest() uint32 { return i.dest }

// Src1 returns the first source operand.
func (i Instruction) Src1() uint32 { return i.src1 }

// Src2 returns the second source operand.
func (i Instruction) Src2() uint32 { return i.src2 }

// Imm returns the immediate.
func (i Instruction) Imm() uint32 { return i.imm }

// Encode packs the instruction into its 32-bit binary form.
func (i Instruction) Encode() uint32 {
	var w uint32

	w |= (uint32(i.op) & OpcodeMask) << OpcodeShift
	w |= (i.dest & DestMask) << DestShift
	w |= (i.src1 & Src1Mask) << Src1Shift
	w |= (i.src2 & Src2Mask) << Src2Shift
	w |= (i.imm & ImmMask) << ImmShift

	return w
}

// Truncated reports whether Encode drops any bits of the instruction.
func (i Instruction) Truncated() bool {
	return uint32(i.op) > OpcodeMask ||
		i.dest > DestMask ||
		i.src1 > Src1Mask ||
		i.src2 > Src2Mask ||
		i.imm > ImmMask
}

// DecodeOpcode extracts the opcode field of an encoded word.
func DecodeOpcode(w uint32) Opcode { return Opcode((w >> OpcodeShift) & OpcodeMask) }

// DecodeDest extracts the dest field of an encoded word.
func DecodeDest(w uint32) uint32 { return (w >> DestShift) & DestMask }

// DecodeSrc1 extracts the src1 field of an encoded word.
func DecodeSrc1(w uint32) uint32 { return (w >> Src1Shift) & Src1Mask }

// DecodeSrc2 extracts the src2 field of an encoded word.
func DecodeSrc2(w uint32) uint32 { return (w >> Src2Shift) & Src2Mask }

// DecodeImm extracts the imm field of an encoded word.
func DecodeImm(w uint32) uint32 { return (w >> ImmShift) & ImmMask }

// Decode unpacks an encoded word. The result re-encodes to the same word.
func Decode(w uint32) Instruction {
	return New(DecodeOpcode(w), DecodeDest(w), DecodeSrc1(w), DecodeSrc2(w), DecodeImm(w))
}

// Disassemble renders the instruction as assembler text followed by its
// encoding, e.g. "MUL 2, 0, 1 ; 0x18080004". It never fails; opcodes
// without a mnemonic are printed as UNKNOWN.
func (i Instruction) Disassemble() string {
	var sb strings.Builder

	sb.WriteString(i.op.String())

	switch i.op {
	case NOP:
	case CONFIG, JUMPZ, JUMPNZ:
		fmt.Fprintf(&sb, " %d, %d", i.dest, i.src1)
	case LOAD, STORE:
		fmt.Fprintf(&sb, " %d, %d", i.dest, i.src1)
		if i.src2 != 0 || i.imm != 0 {
			fmt.Fprintf(&sb, " [%d, %d]", i.src2, i.imm)
		}
	case NOT, JUMP:
		fmt.Fprintf(&sb, " %d", i.dest)
	default:
		fmt.Fprintf(&sb, " %d, %d, %d", i.dest, i.src1, i.src2)
		if i.imm != 0 {
			fmt.Fprintf(&sb, ", %d", i.imm)
		}
	}

	fmt.Fprintf(&sb, " ; 0x%08x", i.Encode())

	return sb.String()
}

// String is the same as Disassemble.
func (i Instruction) String() string {
	return i.Disassemble()
}

// Stream is an ordered sequence of instructions. Emission order is
// execution order.
type Stream struct {
	insts []Instruction
}

// NewStream creates an empty stream with room for n instructions.
func NewStream(n int) *Stream {
	return &Stream{insts: make([]Instruction, 0, n)}
}

// Append adds an instruction to the end of the stream.
func (s *Stream) Append(inst Instruction) {
	s.insts = append(s.insts, inst)
}

// Len returns the number of instructions.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}

	return len(s.insts)
}

// At returns the instruction at position idx.
func (s *Stream) At(idx int) Instruction {
	return s.insts[idx]
}

// Instructions returns a copy of the instructions in order.
func (s *Stream) Instructions() []Instruction {
	if s == nil {
		return nil
	}

	out := make([]Instruction, len(s.insts))
	copy(out, s.insts)

	return out
}

// Words returns the encoding of every instruction in order.
func (s *Stream) Words() []uint32 {
	if s == nil {
		return nil
	}

	words := make([]uint32, len(s.insts))
	for i, inst := range s.insts {
		words[i] = inst.Encode()
	}

	return words
}

// Histogram counts the instructions of each opcode.
func (s *Stream) Histogram() map[Opcode]int {
	h := make(map[Opcode]int)
	if s == nil {
		return h
	}

	for _, inst := range s.insts {
		h[inst.op]++
	}

	return h
}
