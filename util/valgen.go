// Some helpers using closures to generate values for randomized tests
package valgen

import (
	"math/rand"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/isa"
)

// MakeConstGen always returns the same value.
func MakeConstGen(constant uint32) func() uint32 {
	return func() uint32 {
		return constant
	}
}

// MakeIncreasingGen returns start+1, start+2, ...
func MakeIncreasingGen(start uint32) func() uint32 {
	current := start
	return func() uint32 {
		current++
		return current
	}
}

// MakeUintGen returns values in [lo, hi].
func MakeUintGen(r *rand.Rand, lo, hi uint32) func() uint32 {
	return func() uint32 {
		return lo + uint32(r.Int63n(int64(hi-lo)+1))
	}
}

// MakeDimsGen returns valid dimensions with every side in [1, max].
func MakeDimsGen(seed int64, max uint32) func() backend.Dims {
	side := MakeUintGen(rand.New(rand.NewSource(seed)), 1, max)
	return func() backend.Dims {
		return backend.Dims{Rows: side(), Cols: side(), Common: side()}
	}
}

// MakeInstGen returns instructions whose operands fit their fields, so
// that they survive an encode and decode unchanged.
func MakeInstGen(seed int64) func() isa.Instruction {
	r := rand.New(rand.NewSource(seed))
	op := MakeUintGen(r, 0, isa.OpcodeMask)
	dest := MakeUintGen(r, 0, isa.DestMask)
	src1 := MakeUintGen(r, 0, isa.Src1Mask)
	src2 := MakeUintGen(r, 0, isa.Src2Mask)
	imm := MakeUintGen(r, 0, isa.ImmMask)

	return func() isa.Instruction {
		return isa.New(isa.Opcode(op()), dest(), src1(), src2(), imm())
	}
}
