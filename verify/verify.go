// Package verify provides static checks for emitted instruction streams.
//
// The checks never execute the stream. They compare it against the shape
// the lowering is expected to produce for a given set of dimensions:
//
//   - STRUCT: stream length and the opcode sequence of every phase
//   - ENCODING: operands wider than their field, which Encode truncates
//   - LIMIT: device limits such as the matrix dimension limit and the
//     number of registers
//
// # Usage Example
//
//	arch := verify.ArchInfoFromConfig(config.Default())
//	stream, _ := emitter.LowerDims(dims)
//
//	issues := verify.RunLint(stream, dims, arch)
//	for _, issue := range issues {
//	    log.Printf("[%s] inst %d (%s): %s", issue.Type, issue.Index, issue.Phase, issue.Message)
//	}
//
//	report := verify.GenerateReport("matmul", stream, dims, arch)
//	report.WriteReport(os.Stdout)
package verify

import (
	"github.com/sarchlab/pimgen/config"
)

// IssueType categorizes lint issues
type IssueType string

const (
	IssueStruct   IssueType = "STRUCT"   // Stream shape does not match the lowering
	IssueEncoding IssueType = "ENCODING" // Operand truncated by the encoder
	IssueLimit    IssueType = "LIMIT"    // Device limit exceeded
)

// Issue represents a single lint issue
type Issue struct {
	Type    IssueType              // STRUCT, ENCODING or LIMIT
	Index   int                    // Instruction index or -1
	Phase   string                 // Phase name or "" if not applicable
	Message string                 // Human-readable description
	Details map[string]interface{} // Additional structured data
}

// ArchInfo describes the limits of the target device
type ArchInfo struct {
	MatrixDimLimit   uint32 // Largest accepted rows, cols or common
	RegisterFileSize int    // Number of general purpose registers
	MemoryWords      int    // Total memory of all banks, in words
}

// ArchInfoFromConfig extracts the device limits from a compiler
// configuration.
func ArchInfoFromConfig(c config.CompilerConfig) *ArchInfo {
	return &ArchInfo{
		MatrixDimLimit:   c.Arch.MatrixDimLimit,
		RegisterFileSize: c.Arch.RegisterFileSize,
		MemoryWords:      c.Arch.MemoryWords(),
	}
}
