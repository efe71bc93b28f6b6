package config_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/layout"
)

var _ = Describe("CompilerConfig", func() {
	It("should default to the reference device", func() {
		c := config.Default()
		Expect(c.Validate()).To(Succeed())
		Expect(c.OptimizationLevel).To(Equal(2))
		Expect(c.OutputFormat).To(Equal(config.FormatText))
		Expect(c.EnableMemoryMapping).To(BeTrue())
		Expect(c.Arch.NumProcessingElements).To(Equal(128))
		Expect(c.Arch.MatrixDimLimit).To(Equal(uint32(1024)))
		Expect(c.Arch.MemoryWords()).To(Equal(64 * 1024))
		Expect(c.Layout).To(Equal(layout.Default()))
	})

	It("should keep defaults for missing keys", func() {
		c, err := config.Parse([]byte(`
output_format: binary
layout:
  operand_b: 64
arch:
  matrix_dim_limit: 16
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.OutputFormat).To(Equal(config.FormatBinary))
		Expect(c.Layout.OperandA).To(Equal(uint32(0)))
		Expect(c.Layout.OperandB).To(Equal(uint32(64)))
		Expect(c.Layout.ResultC).To(Equal(uint32(layout.DefaultResultCOffset)))
		Expect(c.Arch.MatrixDimLimit).To(Equal(uint32(16)))
		Expect(c.Arch.WordSize).To(Equal(32))
	})

	It("should accept an empty document", func() {
		c, err := config.Parse(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(config.Default()))
	})

	DescribeTable("should reject bad settings",
		func(doc, msg string) {
			_, err := config.Parse([]byte(doc))
			Expect(err).To(MatchError(ContainSubstring(msg)))
		},
		Entry("format", "output_format: hex", "output format"),
		Entry("level", "optimization_level: 9", "optimization level"),
		Entry("store dest", "store_dest: 300", "dest field"),
		Entry("registers", "arch: {register_file_size: 2}", "register file"),
		Entry("dim limit", "arch: {matrix_dim_limit: 0}", "dimension limit"),
		Entry("overlap", "layout: {operand_b: 4096}", "layout"),
		Entry("unknown key", "colour: red", "colour"),
	)

	It("should load from a file and write it back", func() {
		path := filepath.Join(GinkgoT().TempDir(), "pim.yaml")
		Expect(os.WriteFile(path, []byte("verbose: true\nstore_dest: 9\n"), 0o644)).To(Succeed())

		c, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Verbose).To(BeTrue())
		Expect(c.StoreDest).To(Equal(uint32(9)))

		var buf bytes.Buffer
		Expect(c.Write(&buf)).To(Succeed())

		again, err := config.Parse(buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(c))
	})

	It("should report a missing file", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
		Expect(err).To(MatchError(ContainSubstring("read config")))
	})
})
