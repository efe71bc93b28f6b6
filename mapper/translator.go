package mapper

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/pimgen/layout"
)

var (
	// ErrUnknownMatrix is returned when a matrix is not in the catalogue.
	ErrUnknownMatrix = errors.New("unknown matrix")

	// ErrUnboundRegion is returned when a catalogued matrix has no region.
	ErrUnboundRegion = errors.New("matrix not bound to a region")

	// ErrIndexOutOfRange is returned when an index lies outside the
	// declared shape.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// HookPosAccessRewritten marks an access that was replaced by its linear
// address.
var HookPosAccessRewritten = &sim.HookPos{Name: "Access Rewritten"}

// HookPosAccessSkipped marks an access that was left untouched.
var HookPosAccessSkipped = &sim.HookPos{Name: "Access Skipped"}

// SkipReason explains why an access was not rewritten.
type SkipReason int

// Reasons an access is left untouched.
const (
	SkipNone SkipReason = iota
	SkipUnknownMatrix
	SkipIndexArity
	SkipDynamicIndex
	SkipOutOfRange
	SkipUnboundRegion
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipUnknownMatrix:
		return "unknown-matrix"
	case SkipIndexArity:
		return "index-arity"
	case SkipDynamicIndex:
		return "dynamic-index"
	case SkipOutOfRange:
		return "out-of-range"
	case SkipUnboundRegion:
		return "unbound-region"
	default:
		return fmt.Sprintf("skip(%d)", int(r))
	}
}

// AccessEvent is the hook item for every visited access.
type AccessEvent struct {
	Function string
	Position int
	Before   Op
	After    Op
	Reason   SkipReason
}

// Stats counts the outcome of a translation run.
type Stats struct {
	Visited   int
	Rewritten int
	Skipped   map[SkipReason]int
}

// SkippedTotal returns the number of accesses left untouched.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}

	return n
}

// Add merges other into s.
func (s *Stats) Add(other Stats) {
	s.Visited += other.Visited
	s.Rewritten += other.Rewritten

	if len(other.Skipped) > 0 && s.Skipped == nil {
		s.Skipped = make(map[SkipReason]int)
	}

	for r, c := range other.Skipped {
		s.Skipped[r] += c
	}
}

func (s Stats) String() string {
	reasons := make([]SkipReason, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}

	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", r, s.Skipped[r]))
	}

	return fmt.Sprintf("visited=%d rewritten=%d skipped=%d [%s]",
		s.Visited, s.Rewritten, s.SkippedTotal(), strings.Join(parts, " "))
}

// Translator maps matrix elements to linear addresses:
//
//	address(M, row, col) = base(M) + row*cols(M) + col
//
// where base(M) is the start of the region M is bound to.
type Translator struct {
	sim.HookableBase

	table    DescriptorTable
	layout   layout.Table
	bindings Bindings
}

// NewTranslator creates a translator over one unit's descriptor table.
func NewTranslator(
	table DescriptorTable,
	lt layout.Table,
	bindings Bindings,
) *Translator {
	b := make(Bindings, len(bindings))
	for name, r := range bindings {
		b[name] = r
	}

	return &Translator{
		table:    table,
		layout:   lt,
		bindings: b,
	}
}

// Lookup returns the descriptor of a catalogued matrix.
func (t *Translator) Lookup(name string) (MatrixDescriptor, bool) {
	return t.table.Lookup(name)
}

// Base returns the start address of the region a matrix is bound to.
func (t *Translator) Base(name string) (uint32, error) {
	if _, ok := t.table.Lookup(name); !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMatrix, name)
	}

	r, ok := t.bindings[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnboundRegion, name)
	}

	return t.layout.Base(r), nil
}

// Translate returns the linear address of element (row, col) of a matrix.
func (t *Translator) Translate(name string, row, col int64) (uint32, error) {
	desc, ok := t.table.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMatrix, name)
	}

	if row < 0 || col < 0 || row >= int64(desc.Rows) || col >= int64(desc.Cols) {
		return 0, fmt.Errorf("%w: %s[%d][%d] in %dx%d",
			ErrIndexOutOfRange, name, row, col, desc.Rows, desc.Cols)
	}

	base, err := t.Base(name)
	if err != nil {
		return 0, err
	}

	return base + uint32(row)*desc.Cols + uint32(col), nil
}

// Run translates the accesses of one function. Every load and store is
// visited once, in order. The input is not modified.
//
// Running the translator on its own output changes nothing, since mapped
// accesses no longer carry two indices.
func (t *Translator) Run(fn Function) (Function, Stats) {
	out := Function{
		Name:        fn.Name,
		Declaration: fn.Declaration,
	}
	stats := Stats{Skipped: make(map[SkipReason]int)}

	if fn.Declaration {
		return out, stats
	}

	out.Body = make([]Op, len(fn.Body))
	for i, op := range fn.Body {
		out.Body[i] = op

		if !op.IsAccess() {
			continue
		}

		stats.Visited++

		mapped, reason := t.rewrite(op)
		if reason != SkipNone {
			stats.Skipped[reason]++
		} else {
			stats.Rewritten++
			out.Body[i] = mapped
		}

		t.report(AccessEvent{
			Function: fn.Name,
			Position: i,
			Before:   op,
			After:    out.Body[i],
			Reason:   reason,
		})
	}

	return out, stats
}

// RunModule translates every function of a module.
func (t *Translator) RunModule(m Module) (Module, Stats) {
	out := Module{Functions: make([]Function, len(m.Functions))}
	total := Stats{Skipped: make(map[SkipReason]int)}

	for i, fn := range m.Functions {
		var s Stats
		out.Functions[i], s = t.Run(fn)
		total.Add(s)
	}

	return out, total
}

func (t *Translator) rewrite(op Op) (Op, SkipReason) {
	if _, ok := t.table.Lookup(op.Matrix); !ok {
		return op, SkipUnknownMatrix
	}

	if len(op.Indices) != 2 {
		return op, SkipIndexArity
	}

	row, col := op.Indices[0], op.Indices[1]
	if !row.Static || !col.Static {
		return op, SkipDynamicIndex
	}

	addr, err := t.Translate(op.Matrix, row.Value, col.Value)
	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		return op, SkipOutOfRange
	case errors.Is(err, ErrUnboundRegion):
		return op, SkipUnboundRegion
	case err != nil:
		return op, SkipUnknownMatrix
	}

	mapped := Op{
		Kind:    op.Kind,
		Matrix:  op.Matrix,
		Mapped:  true,
		Address: addr,
	}
	mapped.Text = mapped.String()

	return mapped, SkipNone
}

func (t *Translator) report(ev AccessEvent) {
	pos := HookPosAccessRewritten
	if ev.Reason != SkipNone {
		pos = HookPosAccessSkipped
	}

	t.InvokeHook(sim.HookCtx{
		Domain: t,
		Pos:    pos,
		Item:   ev,
	})
}
