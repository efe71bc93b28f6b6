package api

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/mapper"
	"gopkg.in/yaml.v3"
)

// Unit is everything the driver needs to compile one kernel.
type Unit struct {
	Kernel      backend.Kernel
	Descriptors []mapper.MatrixDescriptor
	Module      mapper.Module
}

// KernelSource hands compilation units to the driver. It stands in for the
// front end and the dimension detector, which produce the kernel contract
// and the program the translator rewrites.
type KernelSource interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Load produces the unit. Dims and bindings must be final.
	Load() (Unit, error)
}

type kernelFile struct {
	Name      string                    `yaml:"name"`
	Dims      *backend.Dims             `yaml:"dims"`
	Bindings  *backend.Bindings         `yaml:"bindings"`
	Matrices  []mapper.MatrixDescriptor `yaml:"matrices"`
	Functions []functionFile            `yaml:"functions"`
}

type functionFile struct {
	Name        string   `yaml:"name"`
	Declaration bool     `yaml:"declaration"`
	Body        []string `yaml:"body"`
}

// FileSource reads a kernel from a YAML file.
type FileSource struct {
	Path string
}

// Name returns the path of the file.
func (s FileSource) Name() string {
	return s.Path
}

// Load reads and parses the file.
func (s FileSource) Load() (Unit, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Unit{}, fmt.Errorf("read kernel: %w", err)
	}

	return ParseKernel(data)
}

// ParseKernel decodes a kernel description:
//
//	name: matmul
//	dims: {rows: 2, cols: 2, common: 2}
//	bindings: {a: A, b: B, c: C}
//	matrices:
//	  - {name: A, rows: 2, cols: 2}
//	functions:
//	  - name: matrixMultiply
//	    body: ["load A[1][1]", "store C[i][j]"]
//
// Bindings default to A, B and C. When dims are missing they are taken from
// the descriptors of the bound matrices; when matrices are missing they are
// described from the dims.
func ParseKernel(data []byte) (Unit, error) {
	var f kernelFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&f); err != nil {
		return Unit{}, fmt.Errorf("decode kernel: %w", err)
	}

	k := backend.Kernel{Name: f.Name, Bindings: backend.DefaultBindings()}
	if k.Name == "" {
		k.Name = "kernel"
	}

	if f.Bindings != nil {
		k.Bindings = *f.Bindings
	}

	descs := f.Matrices

	switch {
	case f.Dims != nil:
		k.Dims = *f.Dims
		if len(descs) == 0 {
			descs = describe(k)
		}
	default:
		d, err := detectDims(k.Bindings, descs)
		if err != nil {
			return Unit{}, fmt.Errorf("kernel %q: %w", k.Name, err)
		}

		k.Dims = d
	}

	if err := checkShapes(k, descs); err != nil {
		return Unit{}, fmt.Errorf("kernel %q: %w", k.Name, err)
	}

	m, err := buildModule(f.Functions)
	if err != nil {
		return Unit{}, fmt.Errorf("kernel %q: %w", k.Name, err)
	}

	return Unit{Kernel: k, Descriptors: descs, Module: m}, nil
}

func describe(k backend.Kernel) []mapper.MatrixDescriptor {
	d := k.Dims
	descs := []mapper.MatrixDescriptor{
		{Name: k.Bindings.A, Rows: d.Rows, Cols: d.Common},
	}

	if k.Bindings.B != k.Bindings.A {
		descs = append(descs, mapper.MatrixDescriptor{Name: k.Bindings.B, Rows: d.Common, Cols: d.Cols})
	}

	return append(descs, mapper.MatrixDescriptor{Name: k.Bindings.C, Rows: d.Rows, Cols: d.Cols})
}

func find(descs []mapper.MatrixDescriptor, name string) (mapper.MatrixDescriptor, bool) {
	for _, d := range descs {
		if d.Name == name {
			return d, true
		}
	}

	return mapper.MatrixDescriptor{}, false
}

func detectDims(b backend.Bindings, descs []mapper.MatrixDescriptor) (backend.Dims, error) {
	a, ok := find(descs, b.A)
	if !ok {
		return backend.Dims{}, fmt.Errorf("no dims and no descriptor for operand %q", b.A)
	}

	bd, ok := find(descs, b.B)
	if !ok {
		return backend.Dims{}, fmt.Errorf("no dims and no descriptor for operand %q", b.B)
	}

	return backend.Dims{Rows: a.Rows, Cols: bd.Cols, Common: a.Cols}, nil
}

func checkShapes(k backend.Kernel, descs []mapper.MatrixDescriptor) error {
	d := k.Dims
	want := []mapper.MatrixDescriptor{
		{Name: k.Bindings.A, Rows: d.Rows, Cols: d.Common},
		{Name: k.Bindings.B, Rows: d.Common, Cols: d.Cols},
		{Name: k.Bindings.C, Rows: d.Rows, Cols: d.Cols},
	}

	for _, w := range want {
		got, ok := find(descs, w.Name)
		if !ok {
			continue
		}

		if got.Rows != w.Rows || got.Cols != w.Cols {
			return fmt.Errorf("matrix %s is %dx%d, %s needs %dx%d",
				got.Name, got.Rows, got.Cols, d, w.Rows, w.Cols)
		}
	}

	return nil
}

func buildModule(fns []functionFile) (mapper.Module, error) {
	m := mapper.Module{Functions: make([]mapper.Function, 0, len(fns))}

	for _, ff := range fns {
		fn := mapper.Function{Name: ff.Name, Declaration: ff.Declaration}

		for i, line := range ff.Body {
			op, err := mapper.ParseOp(line)
			if err != nil {
				return mapper.Module{}, fmt.Errorf("function %s, op %d: %w", ff.Name, i, err)
			}

			fn.Body = append(fn.Body, op)
		}

		m.Functions = append(m.Functions, fn)
	}

	return m, nil
}
