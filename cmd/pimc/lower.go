package main

import (
	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/diag"
	"github.com/spf13/cobra"
)

func getCmdLower(gs *globalState) *cobra.Command {
	var (
		dims   backend.Dims
		output string
		format string
		table  bool
	)

	lowerCmd := &cobra.Command{
		Use:   "lower",
		Short: "Lower bare dimensions",
		Long: `Lower a matrix multiply given only its dimensions.

  No memory mapping is done. The stream is written to stdout by default.`,
		Example: "  pimc lower --rows 2 --cols 2 --common 2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("format") {
				cfg.OutputFormat = config.OutputFormat(format)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			dctx := diag.New("lower", gs.logger)
			emitter := backend.NewBuilder().
				WithStoreDest(cfg.StoreDest).
				WithHook(dctx).
				Build("Emitter")

			s, err := emitter.LowerDims(dims)
			if err != nil {
				return err
			}

			if dims.Max() > cfg.Arch.MatrixDimLimit {
				gs.printWarn("%s exceeds the device limit of %d", dims, cfg.Arch.MatrixDimLimit)
			}

			if err := writeStream(gs.stdOut, output, s, cfg.OutputFormat); err != nil {
				return err
			}

			if table {
				return dctx.Summary().WriteTable(gs.stdErr)
			}

			return nil
		},
	}

	flags := lowerCmd.Flags()
	flags.Uint32Var(&dims.Rows, "rows", 0, "rows of A and C")
	flags.Uint32Var(&dims.Cols, "cols", 0, "columns of B and C")
	flags.Uint32Var(&dims.Common, "common", 0, "columns of A, rows of B")
	flags.StringVarP(&output, "output", "o", "-", "output `file`, - for stdout")
	flags.StringVar(&format, "format", "", "output format: text or binary")
	flags.BoolVar(&table, "table", false, "print a summary table to stderr")

	for _, name := range []string{"rows", "cols", "common"} {
		_ = lowerCmd.MarkFlagRequired(name)
	}

	return lowerCmd
}
