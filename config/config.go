// Package config holds the settings of the compiler and the parameters of
// the target PIM device.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/pimgen/isa"
	"github.com/sarchlab/pimgen/layout"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how the instruction stream is written.
type OutputFormat string

// Supported output formats.
const (
	FormatText   OutputFormat = "text"
	FormatBinary OutputFormat = "binary"
)

// Arch describes the target device.
type Arch struct {
	NumProcessingElements int `yaml:"num_processing_elements"`
	MemoryBankSize        int `yaml:"memory_bank_size"`
	NumMemoryBanks        int `yaml:"num_memory_banks"`
	RegisterFileSize      int `yaml:"register_file_size"`
	WordSize              int `yaml:"word_size"`

	// MatrixDimLimit is the largest rows, cols or common dimension the
	// device accepts. The emitter itself does not enforce it.
	MatrixDimLimit uint32 `yaml:"matrix_dim_limit"`
}

// MemoryWords is the total capacity of all memory banks.
func (a Arch) MemoryWords() int {
	return a.MemoryBankSize * a.NumMemoryBanks
}

// CompilerConfig is the full configuration of one compiler run.
type CompilerConfig struct {
	// OptimizationLevel is recorded but no optimisation is performed.
	OptimizationLevel   int          `yaml:"optimization_level"`
	OutputFormat        OutputFormat `yaml:"output_format"`
	Verbose             bool         `yaml:"verbose"`
	EnableMemoryMapping bool         `yaml:"enable_memory_mapping"`

	// StoreDest is the host address results are stored to.
	StoreDest uint32 `yaml:"store_dest"`

	Arch   Arch         `yaml:"arch"`
	Layout layout.Table `yaml:"layout"`
}

// The minimum number of registers the lowering uses (R0 to R3).
const minRegisters = 4

// Default returns the configuration of the reference device.
func Default() CompilerConfig {
	return CompilerConfig{
		OptimizationLevel:   2,
		OutputFormat:        FormatText,
		EnableMemoryMapping: true,
		Arch: Arch{
			NumProcessingElements: 128,
			MemoryBankSize:        1024,
			NumMemoryBanks:        64,
			RegisterFileSize:      isa.NumGPRs,
			WordSize:              32,
			MatrixDimLimit:        1024,
		},
		Layout: layout.Default(),
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default value; unknown keys are an error.
func Load(path string) (CompilerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompilerConfig{}, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return CompilerConfig{}, fmt.Errorf("config %s: %w", path, err)
	}

	return c, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (CompilerConfig, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return CompilerConfig{}, err
	}

	if err := c.Validate(); err != nil {
		return CompilerConfig{}, err
	}

	return c, nil
}

// Write encodes the configuration as YAML.
func (c CompilerConfig) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return err
	}

	return enc.Close()
}

// Validate checks that the configuration can drive a compilation.
func (c CompilerConfig) Validate() error {
	switch c.OutputFormat {
	case FormatText, FormatBinary:
	default:
		return fmt.Errorf("unknown output format %q", c.OutputFormat)
	}

	if c.OptimizationLevel < 0 || c.OptimizationLevel > 3 {
		return fmt.Errorf("optimization level %d not in 0..3", c.OptimizationLevel)
	}

	if c.StoreDest > isa.DestMask {
		return fmt.Errorf("store destination %d does not fit the %d-bit dest field",
			c.StoreDest, 8)
	}

	if err := c.Arch.validate(); err != nil {
		return fmt.Errorf("arch: %w", err)
	}

	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	return nil
}

func (a Arch) validate() error {
	if a.NumProcessingElements <= 0 ||
		a.MemoryBankSize <= 0 ||
		a.NumMemoryBanks <= 0 ||
		a.WordSize <= 0 {
		return fmt.Errorf("device sizes must be positive")
	}

	if a.RegisterFileSize < minRegisters {
		return fmt.Errorf("register file of %d registers, need at least %d",
			a.RegisterFileSize, minRegisters)
	}

	if a.MatrixDimLimit == 0 {
		return fmt.Errorf("matrix dimension limit must be positive")
	}

	return nil
}
