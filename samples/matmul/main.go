package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/sarchlab/pimgen/api"
	"github.com/sarchlab/pimgen/diag"
	"github.com/sarchlab/pimgen/isa"
	"github.com/tebeka/atexit"
)

//go:embed matmul.yaml
var matmulKernel []byte

type embeddedSource struct{}

func (embeddedSource) Name() string { return "matmul.yaml" }

func (embeddedSource) Load() (api.Unit, error) {
	return api.ParseKernel(matmulKernel)
}

func compile(logger *slog.Logger) (*api.Result, error) {
	driver := api.MakeDriverBuilder().
		WithLogger(logger).
		WithVerify(true).
		Build("Driver")

	return driver.Compile(embeddedSource{})
}

func main() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: diag.LevelTrace,
	})
	logger := slog.New(handler)

	res, err := compile(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	if err := isa.WriteListing(os.Stdout, res.Stream); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	if err := res.Summary.WriteTable(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	res.Report.WriteReport(os.Stdout)

	atexit.Exit(0)
}
