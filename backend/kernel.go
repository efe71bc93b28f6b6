// Package backend lowers a dense matrix multiply C = A x B into the PIM
// instruction stream.
package backend

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pimgen/isa"
)

// ErrInvalidDims is returned when a dimension is not a positive integer.
var ErrInvalidDims = errors.New("matrix dimensions must be positive")

// Dims are the dimensions of C(Rows x Cols) = A(Rows x Common) x B(Common x
// Cols).
type Dims struct {
	Rows   uint32 `yaml:"rows"`
	Cols   uint32 `yaml:"cols"`
	Common uint32 `yaml:"common"`
}

// Validate checks that all dimensions are positive.
func (d Dims) Validate() error {
	if d.Rows == 0 || d.Cols == 0 || d.Common == 0 {
		return fmt.Errorf("%w: rows=%d cols=%d common=%d",
			ErrInvalidDims, d.Rows, d.Cols, d.Common)
	}

	return nil
}

// Max returns the largest of the three dimensions.
func (d Dims) Max() uint32 {
	return max(d.Rows, d.Cols, d.Common)
}

// SizeA is the number of elements of A.
func (d Dims) SizeA() uint32 { return d.Rows * d.Common }

// SizeB is the number of elements of B.
func (d Dims) SizeB() uint32 { return d.Common * d.Cols }

// SizeC is the number of elements of C.
func (d Dims) SizeC() uint32 { return d.Rows * d.Cols }

// AddrA is the packed address of A[i][k].
func (d Dims) AddrA(i, k uint32) uint32 {
	return i*d.Common + k
}

// AddrB is the packed address of B[k][j]. B follows A.
func (d Dims) AddrB(k, j uint32) uint32 {
	return d.SizeA() + k*d.Cols + j
}

// AddrC is the packed address of C[i][j]. C follows B. The same formula is
// used by every phase.
func (d Dims) AddrC(i, j uint32) uint32 {
	return d.SizeA() + d.SizeB() + i*d.Cols + j
}

// Instructions per (i, j, k) step of the compute phase.
const computeStepLen = 6

// Number of CONFIG instructions at the start of the stream.
const numConfigs = 3

// InstructionCount returns the length of the stream emitted for d:
//
//	3 + rows*common + common*cols + rows*cols + 6*rows*cols*common + rows*cols
func (d Dims) InstructionCount() int {
	rows, cols, common := int(d.Rows), int(d.Cols), int(d.Common)

	return numConfigs +
		rows*common + common*cols + rows*cols +
		computeStepLen*rows*cols*common +
		rows*cols
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d * %dx%d", d.Rows, d.Common, d.Common, d.Cols)
}

// Bindings names the operands of the multiply.
type Bindings struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
	C string `yaml:"c"`
}

// DefaultBindings returns the conventional names A, B and C.
func DefaultBindings() Bindings {
	return Bindings{A: "A", B: "B", C: "C"}
}

// Kernel is what the dimension detector hands to the backend. The backend
// does not infer shapes: Dims and Bindings must already be validated
// against the source program.
type Kernel struct {
	Name     string
	Dims     Dims
	Bindings Bindings
}

// Validate checks the contract of the kernel.
func (k Kernel) Validate() error {
	if err := k.Dims.Validate(); err != nil {
		return fmt.Errorf("kernel %q: %w", k.Name, err)
	}

	b := k.Bindings
	if b.A == "" || b.B == "" || b.C == "" {
		return fmt.Errorf("kernel %q: operand bindings incomplete (a=%q b=%q c=%q)",
			k.Name, b.A, b.B, b.C)
	}

	if b.C == b.A || b.C == b.B {
		return fmt.Errorf("kernel %q: result %q aliases an operand", k.Name, b.C)
	}

	return nil
}

// PhaseSpan returns the index of the first instruction of a phase and the
// number of instructions the phase emits for d.
func (d Dims) PhaseSpan(p Phase) (start, n int) {
	rows, cols, common := int(d.Rows), int(d.Cols), int(d.Common)

	load := numConfigs + rows*common + common*cols + rows*cols
	compute := computeStepLen * rows * cols * common

	switch p {
	case PhaseLoad:
		return 0, load
	case PhaseCompute:
		return load, compute
	case PhaseStore:
		return load + compute, rows * cols
	default:
		return 0, 0
	}
}

// ComputeStep returns the opcodes of one (i, j, k) step of the compute
// phase, in order.
func ComputeStep() []isa.Opcode {
	return []isa.Opcode{isa.MOVE, isa.MOVE, isa.MUL, isa.MOVE, isa.ADD, isa.MOVE}
}
