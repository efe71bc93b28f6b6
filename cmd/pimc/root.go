package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/diag"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type globalFlags struct {
	configPath string
	verbose    int
}

type globalState struct {
	flags  globalFlags
	stdOut io.Writer
	stdErr io.Writer
	logger *slog.Logger
	level  *slog.LevelVar
}

func newGlobalState() *globalState {
	return &globalState{
		stdOut: os.Stdout,
		stdErr: os.Stderr,
	}
}

func (gs *globalState) printError(err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(gs.stdErr, "%s %v\n", red("error:"), err)
}

func (gs *globalState) printOK(format string, args ...any) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintln(gs.stdOut, green(fmt.Sprintf(format, args...)))
}

func (gs *globalState) printWarn(format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintln(gs.stdErr, yellow(fmt.Sprintf(format, args...)))
}

// setupLogger installs a JSON handler on stderr. Each -v lowers the level:
// warnings only, then trace events, then everything.
func (gs *globalState) setupLogger() {
	gs.level = new(slog.LevelVar)
	gs.level.Set(slog.LevelWarn)
	switch {
	case gs.flags.verbose == 1:
		gs.level.Set(diag.LevelTrace)
	case gs.flags.verbose > 1:
		gs.level.Set(slog.LevelDebug)
	}

	handler := slog.NewJSONHandler(gs.stdErr, &slog.HandlerOptions{
		Level: gs.level,
	})

	gs.logger = slog.New(handler)
	slog.SetDefault(gs.logger)
}

// loadConfig reads the configuration file if one was given. A verbose
// configuration turns on trace events unless -v already chose a level.
func (gs *globalState) loadConfig() (config.CompilerConfig, error) {
	if gs.flags.configPath == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(gs.flags.configPath)
	if err != nil {
		return cfg, err
	}

	if cfg.Verbose && gs.flags.verbose == 0 && gs.level != nil {
		gs.level.Set(diag.LevelTrace)
	}

	return cfg, nil
}

func globalFlagSet(gs *globalState) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVarP(&gs.flags.configPath, "config", "c", "", "compiler configuration `file` (YAML)")
	flags.CountVarP(&gs.flags.verbose, "verbose", "v", "verbose logging, repeat for more")

	return flags
}

func newRootCommand(gs *globalState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pimc",
		Short:         "PIM matrix-multiply compiler",
		Long:          "pimc lowers dense matrix multiplies to the PIM instruction set.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			gs.setupLogger()
		},
	}

	rootCmd.PersistentFlags().AddFlagSet(globalFlagSet(gs))
	rootCmd.SetOut(gs.stdOut)
	rootCmd.SetErr(gs.stdErr)

	rootCmd.AddCommand(
		getCmdCompile(gs),
		getCmdLower(gs),
		getCmdDisasm(gs),
		getCmdLint(gs),
		getCmdConfig(gs),
	)

	return rootCmd
}
