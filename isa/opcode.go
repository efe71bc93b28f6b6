// Package isa defines the instruction set of the PIM accelerator: opcodes,
// the fixed 32-bit instruction format, and the textual disassembly used as
// the primary output of the code generator.
package isa

import "strings"

// Opcode represents the operation code for an instruction. Only the low 6
// bits are kept when an instruction is encoded.
type Opcode uint8

// The opcodes of the PIM ISA. The numeric values are part of the binary
// format and must not be reordered.
const (
	NOP    Opcode = iota // No operation
	LOAD                 // Host memory to PIM memory
	STORE                // PIM memory to host memory
	MOVE                 // Between PIM registers and memory
	ADD
	SUB
	MUL
	DIV
	AND
	OR
	XOR
	NOT
	SHL
	SHR
	JUMP
	JUMPZ
	JUMPNZ
	CONFIG // Configure PIM parameters
)

var mnemonics = [...]string{
	NOP:    "NOP",
	LOAD:   "LOAD",
	STORE:  "STORE",
	MOVE:   "MOVE",
	ADD:    "ADD",
	SUB:    "SUB",
	MUL:    "MUL",
	DIV:    "DIV",
	AND:    "AND",
	OR:     "OR",
	XOR:    "XOR",
	NOT:    "NOT",
	SHL:    "SHL",
	SHR:    "SHR",
	JUMP:   "JUMP",
	JUMPZ:  "JUMPZ",
	JUMPNZ: "JUMPNZ",
	CONFIG: "CONFIG",
}

// Unknown is the mnemonic printed for opcode values outside the ISA.
const Unknown = "UNKNOWN"

// Known reports whether the opcode has a mnemonic.
func (o Opcode) Known() bool {
	return int(o) < len(mnemonics)
}

// String returns the mnemonic of the opcode, or UNKNOWN.
func (o Opcode) String() string {
	if !o.Known() {
		return Unknown
	}

	return mnemonics[o]
}

// ParseOpcode looks up an opcode by its mnemonic. The lookup is case
// insensitive.
func ParseOpcode(mnemonic string) (Opcode, bool) {
	m := strings.ToUpper(strings.TrimSpace(mnemonic))
	for i, name := range mnemonics {
		if name == m {
			return Opcode(i), true
		}
	}

	return 0, false
}

// ConfigParam gives the meaning of the (dest, src1) pair of a CONFIG
// instruction: dest selects the parameter, src1 carries its value.
type ConfigParam uint32

// Parameters that can be set with CONFIG.
const (
	ConfigArraySize ConfigParam = iota
	ConfigOpMode
	ConfigPrecision
	ConfigInterconnect
)

// String returns the name of the configuration parameter.
func (p ConfigParam) String() string {
	switch p {
	case ConfigArraySize:
		return "ARRAY_SIZE"
	case ConfigOpMode:
		return "OP_MODE"
	case ConfigPrecision:
		return "PRECISION"
	case ConfigInterconnect:
		return "INTERCONNECT"
	default:
		return Unknown
	}
}

// Register identifies a register in the PIM register file.
type Register uint32

// General purpose registers followed by the special registers.
const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	PC
	STATUS
)

// NumGPRs is the number of general purpose registers.
const NumGPRs = 8

// String returns the assembler name of the register.
func (r Register) String() string {
	switch {
	case r < NumGPRs:
		return "R" + string(rune('0'+r))
	case r == PC:
		return "PC"
	case r == STATUS:
		return "STATUS"
	default:
		return Unknown
	}
}
