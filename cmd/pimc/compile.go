package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/pimgen/api"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/isa"
	"github.com/sarchlab/pimgen/mapper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type compileFlags struct {
	output  string
	format  string
	noMap   bool
	verify  bool
	dumpMap bool
	table   bool
}

func compileFlagSet(f *compileFlags) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVarP(&f.output, "output", "o", api.DefaultOutput, "output `file`, - for stdout")
	flags.StringVar(&f.format, "format", "", "output format: text or binary (default from config)")
	flags.BoolVar(&f.noMap, "no-map", false, "skip memory mapping")
	flags.BoolVar(&f.verify, "verify", false, "lint the emitted stream")
	flags.BoolVar(&f.dumpMap, "dump-map", false, "print the program after memory mapping")
	flags.BoolVar(&f.table, "table", false, "print a summary table of the compilation")

	return flags
}

// applyTo overrides the configuration with the flags given on the command
// line.
func (f *compileFlags) applyTo(cmd *cobra.Command, cfg config.CompilerConfig) (config.CompilerConfig, error) {
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = config.OutputFormat(f.format)
	}

	if f.noMap {
		cfg.EnableMemoryMapping = false
	}

	if err := cfg.Validate(); err != nil {
		return config.CompilerConfig{}, err
	}

	return cfg, nil
}

func getCmdCompile(gs *globalState) *cobra.Command {
	f := &compileFlags{}

	compileCmd := &cobra.Command{
		Use:   "compile <kernel.yaml>",
		Short: "Compile a kernel",
		Long: `Compile a kernel description.

  The kernel is memory mapped, lowered to PIM instructions and written to
  the output file in the configured format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}

			cfg, err = f.applyTo(cmd, cfg)
			if err != nil {
				return err
			}

			driver := api.MakeDriverBuilder().
				WithConfig(cfg).
				WithLogger(gs.logger).
				WithVerify(f.verify).
				Build("Driver")

			res, err := driver.Compile(api.FileSource{Path: args[0]})
			if err != nil {
				return err
			}

			if f.dumpMap {
				if err := dumpModule(gs.stdOut, res.Mapped); err != nil {
					return err
				}
			}

			if err := writeStream(gs.stdOut, f.output, res.Stream, cfg.OutputFormat); err != nil {
				return err
			}

			if f.table {
				if err := res.Summary.WriteTable(gs.stdOut); err != nil {
					return err
				}
			}

			if res.Report != nil && !res.Report.Passed() {
				res.Report.WriteReport(gs.stdErr)
				return fmt.Errorf("%s failed verification", args[0])
			}

			if f.output != "-" {
				gs.printOK("Compiled %s to %s", args[0], f.output)
			}

			return nil
		},
	}

	compileCmd.Flags().AddFlagSet(compileFlagSet(f))

	return compileCmd
}

func writeStream(stdOut io.Writer, output string, s *isa.Stream, format config.OutputFormat) error {
	if output == "-" {
		return api.WriteOutput(stdOut, s, format)
	}

	return api.WriteOutputFile(output, s, format)
}

func dumpModule(w io.Writer, m mapper.Module) error {
	for _, fn := range m.Functions {
		if fn.Declaration {
			if _, err := fmt.Fprintf(w, "declare %s\n", fn.Name); err != nil {
				return err
			}

			continue
		}

		if _, err := fmt.Fprintf(w, "func %s {\n", fn.Name); err != nil {
			return err
		}

		for _, op := range fn.Body {
			if _, err := fmt.Fprintf(w, "  %s\n", op); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintln(w, "}"); err != nil {
			return err
		}
	}

	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(path)
}
