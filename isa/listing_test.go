package isa_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimgen/isa"
)

var _ = Describe("Listing", func() {
	var stream *isa.Stream

	BeforeEach(func() {
		stream = isa.NewStream(4)
		stream.Append(isa.New(isa.CONFIG, 0, 4, 0, 0))
		stream.Append(isa.New(isa.LOAD, 3, 0, 1, 1))
		stream.Append(isa.New(isa.MOVE, 300, 3, 0, 0))
		stream.Append(isa.New(isa.Opcode(40), 1, 1, 1, 1))
	})

	It("should write one line per instruction", func() {
		var buf bytes.Buffer
		Expect(isa.WriteListing(&buf, stream)).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(4))
		Expect(lines[0]).To(Equal("CONFIG 0, 4 ; 0x44001000"))
		Expect(lines[3]).To(HavePrefix("UNKNOWN"))
	})

	It("should recover the encoded words from the text form", func() {
		var buf bytes.Buffer
		Expect(isa.WriteListing(&buf, stream)).To(Succeed())

		words, err := isa.ReadListing(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal(stream.Words()))
	})

	It("should read back opcodes wider than the opcode field", func() {
		wide := isa.NewStream(1)
		wide.Append(isa.New(isa.Opcode(64+int(isa.LOAD)), 1, 2, 0, 0))

		var buf bytes.Buffer
		Expect(isa.WriteListing(&buf, wide)).To(Succeed())
		Expect(buf.String()).To(HavePrefix("UNKNOWN 1, 2, 0 ; 0x04040800"))

		words, err := isa.ReadListing(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal(wide.Words()))
		Expect(isa.DecodeOpcode(words[0])).To(Equal(isa.LOAD))
	})

	It("should write nothing for a nil stream", func() {
		var buf bytes.Buffer
		Expect(isa.WriteListing(&buf, nil)).To(Succeed())
		Expect(isa.WriteBinary(&buf, nil)).To(Succeed())
		Expect(buf.Len()).To(BeZero())
	})

	It("should reject lines without an encoding", func() {
		_, err := isa.ReadListing(strings.NewReader("ADD 1, 2, 3\n"))
		Expect(errors.Is(err, isa.ErrMalformedLine)).To(BeTrue())
	})

	It("should reject a mnemonic that disagrees with the encoding", func() {
		_, err := isa.ParseLine("ADD 3, 3, 2 ; 0x0c000400")
		Expect(errors.Is(err, isa.ErrMnemonicMismatch)).To(BeTrue())
	})

	It("should round trip the binary form", func() {
		var buf bytes.Buffer
		Expect(isa.WriteBinary(&buf, stream)).To(Succeed())
		Expect(buf.Len()).To(Equal(16))
		Expect(buf.Bytes()[:4]).To(Equal([]byte{0x44, 0x00, 0x10, 0x00}))

		words, err := isa.ReadBinary(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal(stream.Words()))

		decoded := isa.StreamFromWords(words)
		Expect(decoded.At(2).Dest()).To(Equal(uint32(300 & 0xFF)))
	})

	It("should report a truncated binary", func() {
		_, err := isa.ReadBinary(bytes.NewReader([]byte{0x44, 0x00, 0x10}))
		Expect(err).To(HaveOccurred())
	})

	It("should count opcodes", func() {
		h := stream.Histogram()
		Expect(h[isa.CONFIG]).To(Equal(1))
		Expect(h[isa.LOAD]).To(Equal(1))
	})
})
