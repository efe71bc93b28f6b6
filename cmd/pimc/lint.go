package main

import (
	"fmt"

	"github.com/sarchlab/pimgen/api"
	"github.com/spf13/cobra"
)

func getCmdLint(gs *globalState) *cobra.Command {
	var reportFile string

	lintCmd := &cobra.Command{
		Use:   "lint <kernel.yaml>",
		Short: "Compile a kernel and check the emitted stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gs.loadConfig()
			if err != nil {
				return err
			}

			driver := api.MakeDriverBuilder().
				WithConfig(cfg).
				WithLogger(gs.logger).
				WithVerify(true).
				Build("Driver")

			res, err := driver.Compile(api.FileSource{Path: args[0]})
			if err != nil {
				return err
			}

			res.Report.WriteReport(gs.stdOut)

			if reportFile != "" {
				if err := res.Report.SaveReportToFile(reportFile); err != nil {
					return err
				}
			}

			if !res.Report.Passed() {
				return fmt.Errorf("%s: %d lint issues", args[0], len(res.Report.LintIssues))
			}

			return nil
		},
	}

	lintCmd.Flags().StringVar(&reportFile, "report", "", "also save the report to `file`")

	return lintCmd
}
