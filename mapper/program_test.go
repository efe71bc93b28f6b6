package mapper_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/mapper"
)

var _ = Describe("ParseOp", func() {
	It("should parse a static two-index load", func() {
		op, err := mapper.ParseOp("load A[1][0]")
		Expect(err).NotTo(HaveOccurred())
		Expect(op.Kind).To(Equal(mapper.LoadOp))
		Expect(op.Matrix).To(Equal("A"))
		Expect(op.Indices).To(Equal([]mapper.Index{mapper.Const(1), mapper.Const(0)}))
		Expect(op.String()).To(Equal("load A[1][0]"))
	})

	It("should keep dynamic index expressions", func() {
		op := mapper.MustParseOp("store C[i][idx[j]]")
		Expect(op.Kind).To(Equal(mapper.StoreOp))
		Expect(op.Indices).To(HaveLen(2))
		Expect(op.Indices[0]).To(Equal(mapper.Dynamic("i")))
		Expect(op.Indices[1]).To(Equal(mapper.Dynamic("idx[j]")))
	})

	It("should parse a mapped access", func() {
		op := mapper.MustParseOp("load B@1027")
		Expect(op.Mapped).To(BeTrue())
		Expect(op.Address).To(Equal(uint32(1027)))
		Expect(op.Indices).To(BeEmpty())
		Expect(op.String()).To(Equal("load B@1027"))
	})

	It("should treat anything else as a non-access", func() {
		op := mapper.MustParseOp("mul t0, t1, t2")
		Expect(op.IsAccess()).To(BeFalse())
		Expect(op.String()).To(Equal("mul t0, t1, t2"))
	})

	It("should accept scalars and higher arities", func() {
		Expect(mapper.MustParseOp("load x").Indices).To(BeEmpty())
		Expect(mapper.MustParseOp("load T[0][1][2]").Indices).To(HaveLen(3))
	})

	DescribeTable("malformed accesses",
		func(text string) {
			_, err := mapper.ParseOp(text)
			Expect(err).To(HaveOccurred())
		},
		Entry("missing operand", "load"),
		Entry("unbalanced", "load A[1][2"),
		Entry("stray close", "load A[1]]"),
		Entry("junk between subscripts", "load A[1]x[2]"),
		Entry("bad mapped address", "store C@abc"),
	)
})
