// Package mapper rewrites statically indexed two-dimensional matrix accesses
// into linear addresses in the flat PIM address space.
package mapper

import (
	"fmt"
	"sort"

	"github.com/sarchlab/pimgen/layout"
)

// MatrixDescriptor gives the declared shape of one matrix. Descriptors are
// produced once per compiled unit by the dimension detector and are never
// modified afterwards.
type MatrixDescriptor struct {
	Name string `yaml:"name"`
	Rows uint32 `yaml:"rows"`
	Cols uint32 `yaml:"cols"`
}

// Elements returns the number of elements of the matrix.
func (d MatrixDescriptor) Elements() uint32 {
	return d.Rows * d.Cols
}

func (d MatrixDescriptor) String() string {
	return fmt.Sprintf("%s[%d][%d]", d.Name, d.Rows, d.Cols)
}

// DescriptorTable is a read-only catalogue of matrices keyed by name.
type DescriptorTable struct {
	byName map[string]MatrixDescriptor
}

// NewDescriptorTable builds a catalogue. A later descriptor with the same
// name as an earlier one is rejected.
func NewDescriptorTable(descs ...MatrixDescriptor) (DescriptorTable, error) {
	t := DescriptorTable{byName: make(map[string]MatrixDescriptor, len(descs))}

	for _, d := range descs {
		if d.Name == "" {
			return DescriptorTable{}, fmt.Errorf("matrix descriptor without a name")
		}

		if d.Rows == 0 || d.Cols == 0 {
			return DescriptorTable{}, fmt.Errorf("matrix %s has an empty shape %dx%d",
				d.Name, d.Rows, d.Cols)
		}

		if _, dup := t.byName[d.Name]; dup {
			return DescriptorTable{}, fmt.Errorf("matrix %s described twice", d.Name)
		}

		t.byName[d.Name] = d
	}

	return t, nil
}

// Lookup returns the descriptor of a matrix.
func (t DescriptorTable) Lookup(name string) (MatrixDescriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// Len returns the number of catalogued matrices.
func (t DescriptorTable) Len() int {
	return len(t.byName)
}

// Descriptors returns all descriptors sorted by name.
func (t DescriptorTable) Descriptors() []MatrixDescriptor {
	out := make([]MatrixDescriptor, 0, len(t.byName))
	for _, d := range t.byName {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Bindings assigns matrices to regions of the address space.
type Bindings map[string]layout.Region

// DefaultBindings binds A, B and C to the two operand regions and the result
// region.
func DefaultBindings() Bindings {
	return Bindings{
		"A": layout.OperandA,
		"B": layout.OperandB,
		"C": layout.ResultC,
	}
}
