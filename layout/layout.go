// Package layout describes where operands, registers and code live in the
// flat PIM address space.
package layout

import "fmt"

// Region names one area of the PIM address space.
type Region int

// The regions, in address order.
const (
	OperandA Region = iota
	OperandB
	ResultC
	RegisterFile
	InstructionMemory
	numRegions
)

// String returns the name of the region.
func (r Region) String() string {
	switch r {
	case OperandA:
		return "operand-A"
	case OperandB:
		return "operand-B"
	case ResultC:
		return "result-C"
	case RegisterFile:
		return "register-file"
	case InstructionMemory:
		return "instruction-memory"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

// ParseRegion looks up a region by the name returned from String.
func ParseRegion(name string) (Region, bool) {
	for r := OperandA; r < numRegions; r++ {
		if r.String() == name {
			return r, true
		}
	}

	return 0, false
}

// Default region offsets, in words.
const (
	DefaultOperandAOffset          = 0
	DefaultOperandBOffset          = 1024
	DefaultResultCOffset           = 2048
	DefaultRegisterFileOffset      = 4096
	DefaultInstructionMemoryOffset = 5120
)

// Table holds the start offset, in words, of every region.
//
// The offsets are static. They are not derived from the sizes of the
// operands, so an operand larger than its region silently runs into the
// next one. This is a deliberate simplification of the target.
type Table struct {
	OperandA          uint32 `yaml:"operand_a"`
	OperandB          uint32 `yaml:"operand_b"`
	ResultC           uint32 `yaml:"result_c"`
	RegisterFile      uint32 `yaml:"register_file"`
	InstructionMemory uint32 `yaml:"instruction_memory"`
}

// Default returns the layout of the reference PIM device.
func Default() Table {
	return Table{
		OperandA:          DefaultOperandAOffset,
		OperandB:          DefaultOperandBOffset,
		ResultC:           DefaultResultCOffset,
		RegisterFile:      DefaultRegisterFileOffset,
		InstructionMemory: DefaultInstructionMemoryOffset,
	}
}

// Base returns the start offset of a region.
func (t Table) Base(r Region) uint32 {
	switch r {
	case OperandA:
		return t.OperandA
	case OperandB:
		return t.OperandB
	case ResultC:
		return t.ResultC
	case RegisterFile:
		return t.RegisterFile
	case InstructionMemory:
		return t.InstructionMemory
	default:
		panic(fmt.Sprintf("invalid region %d", int(r)))
	}
}

// Size returns the number of words between the start of a region and the
// start of the next one. The last region has no upper bound and reports 0.
func (t Table) Size(r Region) uint32 {
	if r+1 >= numRegions {
		return 0
	}

	return t.Base(r+1) - t.Base(r)
}

// Region returns the region containing addr.
func (t Table) Region(addr uint32) Region {
	for r := numRegions - 1; r > OperandA; r-- {
		if addr >= t.Base(r) {
			return r
		}
	}

	return OperandA
}

// Validate checks that the regions appear in address order without
// overlapping.
func (t Table) Validate() error {
	for r := OperandA; r+1 < numRegions; r++ {
		if t.Base(r) >= t.Base(r+1) {
			return fmt.Errorf("region %s at %d must start below %s at %d",
				r, t.Base(r), r+1, t.Base(r+1))
		}
	}

	return nil
}
