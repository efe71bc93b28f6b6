package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/isa"
)

const kernelYAML = `name: mm
dims: {rows: 2, cols: 2, common: 2}
functions:
  - name: matrixMultiply
    body: ["load A[1][1]", "store C[i][j]"]
`

var _ = Describe("pimc", func() {
	var (
		gs     *globalState
		stdOut *bytes.Buffer
		stdErr *bytes.Buffer
		dir    string
	)

	BeforeEach(func() {
		stdOut = &bytes.Buffer{}
		stdErr = &bytes.Buffer{}
		gs = &globalState{stdOut: stdOut, stdErr: stdErr}
		dir = GinkgoT().TempDir()
	})

	run := func(args ...string) error {
		cmd := newRootCommand(gs)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	writeKernel := func() string {
		path := filepath.Join(dir, "mm.yaml")
		Expect(os.WriteFile(path, []byte(kernelYAML), 0o644)).To(Succeed())
		return path
	}

	It("should lower bare dimensions to stdout", func() {
		Expect(run("lower", "--rows", "1", "--cols", "1", "--common", "1")).To(Succeed())

		lines := strings.Split(strings.TrimSpace(stdOut.String()), "\n")
		Expect(lines).To(HaveLen(13))
		Expect(lines[0]).To(Equal("CONFIG 0, 1 ; 0x44000400"))
	})

	It("should require all dimensions", func() {
		Expect(run("lower", "--rows", "1")).NotTo(Succeed())
	})

	It("should compile a kernel file", func() {
		kernel := writeKernel()
		out := filepath.Join(dir, "mm.lst")

		Expect(run("compile", kernel, "-o", out, "--dump-map")).To(Succeed())
		Expect(stdOut.String()).To(ContainSubstring("load A@3"))
		Expect(stdOut.String()).To(ContainSubstring("store C[i][j]"))
		Expect(stdOut.String()).To(ContainSubstring("Compiled " + kernel + " to " + out))

		data, err := os.ReadFile(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(data), "\n")).To(Equal(67))
	})

	It("should write and disassemble binary output", func() {
		kernel := writeKernel()
		out := filepath.Join(dir, "mm.bin")

		Expect(run("compile", kernel, "-o", out, "--format", "binary")).To(Succeed())

		stdOut.Reset()
		Expect(run("disasm", out)).To(Succeed())

		words, err := isa.ReadListing(bytes.NewReader(stdOut.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(67))
		Expect(words[0]).To(Equal(uint32(0x44001000)))
	})

	It("should reject an unknown format", func() {
		kernel := writeKernel()
		Expect(run("compile", kernel, "--format", "hex", "-o", "-")).
			To(MatchError(ContainSubstring("output format")))
	})

	It("should honour the dimension limit of the config file", func() {
		kernel := writeKernel()
		cfgPath := filepath.Join(dir, "pim.yaml")
		Expect(os.WriteFile(cfgPath, []byte("arch: {matrix_dim_limit: 1}\n"), 0o644)).To(Succeed())

		err := run("compile", kernel, "-c", cfgPath, "-o", "-")
		Expect(err).To(MatchError(ContainSubstring("exceeds device limit")))
	})

	It("should log trace events when the configuration is verbose", func() {
		kernel := writeKernel()
		cfgPath := filepath.Join(dir, "verbose.yaml")
		Expect(os.WriteFile(cfgPath, []byte("verbose: true\n"), 0o644)).To(Succeed())

		Expect(run("compile", kernel, "-o", "-")).To(Succeed())
		Expect(stdErr.String()).NotTo(ContainSubstring("access skipped"))

		stdErr.Reset()
		Expect(run("compile", kernel, "-c", cfgPath, "-o", "-")).To(Succeed())
		Expect(stdErr.String()).To(ContainSubstring(`"msg":"access skipped"`))
		Expect(stdErr.String()).To(ContainSubstring(`"reason":"dynamic-index"`))
	})

	It("should lint a kernel", func() {
		kernel := writeKernel()
		report := filepath.Join(dir, "report.txt")

		Expect(run("lint", kernel, "--report", report)).To(Succeed())
		Expect(stdOut.String()).To(ContainSubstring("KERNEL PASSED ALL CHECKS"))
		Expect(report).To(BeAnExistingFile())
	})

	It("should print the effective configuration", func() {
		Expect(run("config")).To(Succeed())

		cfg, err := config.Parse(stdOut.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.Default()))
	})
})
