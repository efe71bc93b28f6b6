package main

import (
	"github.com/sarchlab/pimgen/api"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/isa"
	"github.com/spf13/cobra"
)

func getCmdDisasm(gs *globalState) *cobra.Command {
	var format string

	disasmCmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble an instruction file",
		Long: `Disassemble an instruction file.

  Binary files hold big-endian 32-bit words. Text listings are decoded from
  their hex suffix and printed again, which checks them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			words, err := api.ReadWords(in, config.OutputFormat(format))
			if err != nil {
				return err
			}

			return isa.WriteListing(gs.stdOut, isa.StreamFromWords(words))
		},
	}

	disasmCmd.Flags().StringVar(&format, "format", string(config.FormatBinary), "input format: text or binary")

	return disasmCmd
}
