package api

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/isa"
)

// DefaultOutput is the output file used when none is given.
const DefaultOutput = "a.out"

// WriteOutput writes a stream in the given format.
func WriteOutput(w io.Writer, s *isa.Stream, format config.OutputFormat) error {
	switch format {
	case config.FormatText:
		return isa.WriteListing(w, s)
	case config.FormatBinary:
		return isa.WriteBinary(w, s)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteOutputFile writes a stream to a file, replacing its content.
func WriteOutputFile(path string, s *isa.Stream, format config.OutputFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := WriteOutput(bw, s, format); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// ReadWords reads back what WriteOutput wrote.
func ReadWords(r io.Reader, format config.OutputFormat) ([]uint32, error) {
	switch format {
	case config.FormatText:
		return isa.ReadListing(r)
	case config.FormatBinary:
		return isa.ReadBinary(r)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
