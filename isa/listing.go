package isa

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrMalformedLine is returned when a listing line has no encoding
	// suffix or the suffix is not an 8-digit hex word.
	ErrMalformedLine = errors.New("malformed listing line")

	// ErrMnemonicMismatch is returned when the mnemonic of a listing line
	// does not match the opcode of its encoding.
	ErrMnemonicMismatch = errors.New("mnemonic does not match encoding")
)

const encodingSep = " ; 0x"

// WriteListing writes one disassembled instruction per line.
func WriteListing(w io.Writer, s *Stream) error {
	bw := bufio.NewWriter(w)

	for _, inst := range s.Instructions() {
		if _, err := bw.WriteString(inst.Disassemble()); err != nil {
			return err
		}

		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ParseLine recovers the encoded word from one listing line.
func ParseLine(line string) (uint32, error) {
	idx := strings.LastIndex(line, encodingSep)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	hex := strings.TrimSpace(line[idx+len(encodingSep):])
	if len(hex) != 8 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	word, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	fields := strings.Fields(line[:idx])
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	// Opcodes wider than the field print as UNKNOWN but encode a known one.
	if got := DecodeOpcode(uint32(word)).String(); fields[0] != Unknown && got != fields[0] {
		return 0, fmt.Errorf("%w: %q encodes %s", ErrMnemonicMismatch, line, got)
	}

	return uint32(word), nil
}

// ReadListing reads a listing written by WriteListing and returns the
// encoded words. Blank lines are ignored.
func ReadListing(r io.Reader) ([]uint32, error) {
	var words []uint32

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		w, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		words = append(words, w)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

// WriteBinary writes the encoded stream as big-endian 32-bit words.
func WriteBinary(w io.Writer, s *Stream) error {
	bw := bufio.NewWriter(w)

	var buf [4]byte
	for _, inst := range s.Instructions() {
		binary.BigEndian.PutUint32(buf[:], inst.Encode())
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadBinary reads big-endian 32-bit words until EOF.
func ReadBinary(r io.Reader) ([]uint32, error) {
	var words []uint32

	br := bufio.NewReader(r)
	var buf [4]byte
	for {
		_, err := io.ReadFull(br, buf[:])
		if errors.Is(err, io.EOF) {
			return words, nil
		}

		if err != nil {
			return nil, fmt.Errorf("truncated binary after %d words: %w", len(words), err)
		}

		words = append(words, binary.BigEndian.Uint32(buf[:]))
	}
}

// StreamFromWords decodes a sequence of words.
func StreamFromWords(words []uint32) *Stream {
	s := NewStream(len(words))
	for _, w := range words {
		s.Append(Decode(w))
	}

	return s
}
