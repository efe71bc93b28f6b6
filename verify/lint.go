package verify

import (
	"fmt"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/isa"
)

// maxIssuesPerPhase bounds the STRUCT issues reported for one phase so that
// a badly shifted stream does not flood the report.
const maxIssuesPerPhase = 8

// RunLint performs static lint checks on the stream emitted for d.
// Returns a list of issues found, or empty list if no issues.
func RunLint(stream *isa.Stream, d backend.Dims, arch *ArchInfo) []Issue {
	var issues []Issue

	if err := d.Validate(); err != nil {
		return []Issue{{
			Type:    IssueStruct,
			Index:   -1,
			Message: err.Error(),
		}}
	}

	issues = append(issues, checkLimits(stream, d, arch)...)
	issues = append(issues, checkStructure(stream, d)...)
	issues = append(issues, checkEncoding(stream, d)...)

	return issues
}

func checkLimits(stream *isa.Stream, d backend.Dims, arch *ArchInfo) []Issue {
	var issues []Issue

	if arch.MatrixDimLimit > 0 && d.Max() > arch.MatrixDimLimit {
		issues = append(issues, Issue{
			Type:  IssueLimit,
			Index: -1,
			Message: fmt.Sprintf("Matrix dimension %d exceeds device limit %d (%s)",
				d.Max(), arch.MatrixDimLimit, d),
			Details: map[string]interface{}{
				"max":   d.Max(),
				"limit": arch.MatrixDimLimit,
			},
		})
	}

	footprint := int(d.SizeA() + d.SizeB() + d.SizeC())
	if arch.MemoryWords > 0 && footprint > arch.MemoryWords {
		issues = append(issues, Issue{
			Type:  IssueLimit,
			Index: -1,
			Message: fmt.Sprintf("Operands need %d words, device has %d",
				footprint, arch.MemoryWords),
			Details: map[string]interface{}{
				"footprint": footprint,
				"memory":    arch.MemoryWords,
			},
		})
	}

	if arch.RegisterFileSize <= 0 {
		return issues
	}

	start, n := d.PhaseSpan(backend.PhaseCompute)
	for i := start; i < start+n && i < stream.Len(); i++ {
		inst := stream.At(i)
		for _, r := range registerOperands(inst) {
			if int(r) >= arch.RegisterFileSize {
				issues = append(issues, Issue{
					Type:    IssueLimit,
					Index:   i,
					Phase:   backend.PhaseCompute.String(),
					Message: fmt.Sprintf("Register R%d beyond register file of %d", r, arch.RegisterFileSize),
					Details: map[string]interface{}{"register": r},
				})
			}
		}
	}

	return issues
}

// registerOperands returns the operands of a compute instruction that name
// registers rather than memory addresses.
func registerOperands(inst isa.Instruction) []uint32 {
	switch inst.Opcode() {
	case isa.MUL, isa.ADD:
		return []uint32{inst.Dest(), inst.Src1(), inst.Src2()}
	default:
		return nil
	}
}

func checkStructure(stream *isa.Stream, d backend.Dims) []Issue {
	var issues []Issue

	if want := d.InstructionCount(); stream.Len() != want {
		issues = append(issues, Issue{
			Type:    IssueStruct,
			Index:   -1,
			Message: fmt.Sprintf("Stream has %d instructions, expected %d for %s", stream.Len(), want, d),
			Details: map[string]interface{}{
				"actual":   stream.Len(),
				"expected": want,
			},
		})
	}

	step := backend.ComputeStep()

	for _, p := range []backend.Phase{backend.PhaseLoad, backend.PhaseCompute, backend.PhaseStore} {
		start, n := d.PhaseSpan(p)
		reported := 0

		for i := start; i < start+n && i < stream.Len(); i++ {
			want := expectedOpcode(p, i-start, step)
			got := stream.At(i).Opcode()
			if got == want {
				continue
			}

			if reported == maxIssuesPerPhase {
				break
			}
			reported++

			issues = append(issues, Issue{
				Type:    IssueStruct,
				Index:   i,
				Phase:   p.String(),
				Message: fmt.Sprintf("Instruction %d is %s, expected %s", i, got, want),
				Details: map[string]interface{}{
					"actual":   got.String(),
					"expected": want.String(),
				},
			})
		}
	}

	return issues
}

func expectedOpcode(p backend.Phase, offset int, step []isa.Opcode) isa.Opcode {
	switch p {
	case backend.PhaseLoad:
		if offset < 3 {
			return isa.CONFIG
		}

		return isa.LOAD
	case backend.PhaseCompute:
		return step[offset%len(step)]
	default:
		return isa.STORE
	}
}

func checkEncoding(stream *isa.Stream, d backend.Dims) []Issue {
	var issues []Issue

	for i, inst := range stream.Instructions() {
		if !inst.Truncated() {
			continue
		}

		issues = append(issues, Issue{
			Type:    IssueEncoding,
			Index:   i,
			Phase:   phaseOf(d, i),
			Message: fmt.Sprintf("Operands of %s do not fit their fields, encoded as 0x%08x", inst.Opcode(), inst.Encode()),
			Details: map[string]interface{}{
				"dest": inst.Dest(),
				"src1": inst.Src1(),
				"src2": inst.Src2(),
				"imm":  inst.Imm(),
			},
		})
	}

	return issues
}

func phaseOf(d backend.Dims, index int) string {
	for _, p := range []backend.Phase{backend.PhaseLoad, backend.PhaseCompute, backend.PhaseStore} {
		start, n := d.PhaseSpan(p)
		if index >= start && index < start+n {
			return p.String()
		}
	}

	return ""
}
