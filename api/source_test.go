package api

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/mapper"
)

const matmulYAML = `
name: matmul
dims: {rows: 2, cols: 3, common: 4}
bindings: {a: X, b: Y, c: Z}
matrices:
  - {name: X, rows: 2, cols: 4}
  - {name: Y, rows: 4, cols: 3}
  - {name: Z, rows: 2, cols: 3}
functions:
  - name: helper
    declaration: true
  - name: matrixMultiply
    body:
      - load X[1][2]
      - store Z[i][j]
      - add
`

var _ = Describe("ParseKernel", func() {
	It("should decode a complete kernel", func() {
		u, err := ParseKernel([]byte(matmulYAML))
		Expect(err).NotTo(HaveOccurred())

		Expect(u.Kernel.Name).To(Equal("matmul"))
		Expect(u.Kernel.Dims).To(Equal(backend.Dims{Rows: 2, Cols: 3, Common: 4}))
		Expect(u.Kernel.Bindings).To(Equal(backend.Bindings{A: "X", B: "Y", C: "Z"}))
		Expect(u.Descriptors).To(HaveLen(3))

		Expect(u.Module.Functions).To(HaveLen(2))
		Expect(u.Module.Functions[0].Declaration).To(BeTrue())
		body := u.Module.Functions[1].Body
		Expect(body).To(HaveLen(3))
		Expect(body[0].Kind).To(Equal(mapper.LoadOp))
		Expect(body[1].Indices[0].Static).To(BeFalse())
		Expect(body[2].Kind).To(Equal(mapper.OtherOp))
	})

	It("should detect dims from the bound matrices", func() {
		u, err := ParseKernel([]byte(`
matrices:
  - {name: A, rows: 3, cols: 5}
  - {name: B, rows: 5, cols: 2}
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Kernel.Name).To(Equal("kernel"))
		Expect(u.Kernel.Bindings).To(Equal(backend.DefaultBindings()))
		Expect(u.Kernel.Dims).To(Equal(backend.Dims{Rows: 3, Cols: 2, Common: 5}))
	})

	It("should describe the operands from the dims", func() {
		u, err := ParseKernel([]byte("dims: {rows: 2, cols: 3, common: 4}\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Descriptors).To(ConsistOf(
			mapper.MatrixDescriptor{Name: "A", Rows: 2, Cols: 4},
			mapper.MatrixDescriptor{Name: "B", Rows: 4, Cols: 3},
			mapper.MatrixDescriptor{Name: "C", Rows: 2, Cols: 3},
		))
	})

	It("should describe a squared operand once", func() {
		u, err := ParseKernel([]byte(`
dims: {rows: 2, cols: 2, common: 2}
bindings: {a: M, b: M, c: P}
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Descriptors).To(HaveLen(2))
	})

	DescribeTable("should reject inconsistent kernels",
		func(doc, msg string) {
			_, err := ParseKernel([]byte(doc))
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("no shapes", "name: k\n", `no descriptor for operand "A"`),
		Entry("missing B", "matrices: [{name: A, rows: 1, cols: 1}]\n", `operand "B"`),
		Entry("inner mismatch",
			"matrices: [{name: A, rows: 2, cols: 3}, {name: B, rows: 2, cols: 2}]\n",
			"matrix B is 2x2"),
		Entry("result mismatch",
			"dims: {rows: 1, cols: 1, common: 1}\nmatrices: [{name: C, rows: 2, cols: 2}]\n",
			"matrix C is 2x2"),
		Entry("bad op", "dims: {rows: 1, cols: 1, common: 1}\nfunctions: [{name: f, body: ['load A[0']}]\n",
			"function f, op 0"),
		Entry("unknown key", "dimensions: {}\n", "dimensions"),
	)
})

var _ = Describe("FileSource", func() {
	It("should load a kernel file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "mm.yaml")
		Expect(os.WriteFile(path, []byte(matmulYAML), 0o644)).To(Succeed())

		src := FileSource{Path: path}
		Expect(src.Name()).To(Equal(path))

		u, err := src.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Kernel.Name).To(Equal("matmul"))
	})

	It("should report a missing file", func() {
		_, err := FileSource{Path: "does/not/exist.yaml"}.Load()
		Expect(err).To(MatchError(ContainSubstring("read kernel")))
	})
})
