package api

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/isa"
)

var _ = Describe("Output", func() {
	var stream *isa.Stream

	BeforeEach(func() {
		var err error
		stream, err = backend.NewBuilder().Build("Emitter").
			LowerDims(backend.Dims{Rows: 1, Cols: 2, Common: 1})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should round trip both formats", func() {
		for _, f := range []config.OutputFormat{config.FormatText, config.FormatBinary} {
			var buf bytes.Buffer
			Expect(WriteOutput(&buf, stream, f)).To(Succeed())

			words, err := ReadWords(&buf, f)
			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(Equal(stream.Words()))
		}
	})

	It("should write four bytes per instruction in binary", func() {
		var buf bytes.Buffer
		Expect(WriteOutput(&buf, stream, config.FormatBinary)).To(Succeed())
		Expect(buf.Len()).To(Equal(4 * stream.Len()))
	})

	It("should reject unknown formats", func() {
		Expect(WriteOutput(&bytes.Buffer{}, stream, "hex")).NotTo(Succeed())
		_, err := ReadWords(&bytes.Buffer{}, "hex")
		Expect(err).To(HaveOccurred())
	})

	It("should write an output file", func() {
		path := filepath.Join(GinkgoT().TempDir(), DefaultOutput)
		Expect(WriteOutputFile(path, stream, config.FormatText)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("CONFIG 0, 1 ; 0x44000400\n"))
	})
})
