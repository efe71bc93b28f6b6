// Package api drives the compilation of PIM kernels.
package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/config"
	"github.com/sarchlab/pimgen/diag"
	"github.com/sarchlab/pimgen/isa"
	"github.com/sarchlab/pimgen/layout"
	"github.com/sarchlab/pimgen/mapper"
	"github.com/sarchlab/pimgen/verify"
)

// ErrDimLimit is returned when a kernel dimension exceeds the limit of the
// device.
var ErrDimLimit = errors.New("matrix dimension exceeds device limit")

// Driver compiles kernels.
type Driver interface {
	// Compile runs memory mapping and lowering for one unit. Every call
	// gets its own diagnostics context.
	Compile(src KernelSource) (*Result, error)
}

// Result is the outcome of compiling one unit.
type Result struct {
	Unit    Unit
	Mapped  mapper.Module
	Stats   mapper.Stats
	Stream  *isa.Stream
	Summary diag.Summary

	// Report is only set when the driver verifies its output.
	Report *verify.VerificationReport
}

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	cfg    config.CompilerConfig
	logger *slog.Logger
	verify bool
	hooks  []diagHook
}

type diagHook func(*diag.Context)

// MakeDriverBuilder creates a builder with the default configuration.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{cfg: config.Default()}
}

// WithConfig sets the compiler configuration.
func (b DriverBuilder) WithConfig(cfg config.CompilerConfig) DriverBuilder {
	b.cfg = cfg
	return b
}

// WithLogger sets the logger the per-unit loggers derive from.
func (b DriverBuilder) WithLogger(logger *slog.Logger) DriverBuilder {
	b.logger = logger
	return b
}

// WithVerify makes the driver lint every stream it emits.
func (b DriverBuilder) WithVerify(verify bool) DriverBuilder {
	b.verify = verify
	return b
}

// WithUnitCallback registers a function called with the diagnostics
// context of every unit before compilation starts.
func (b DriverBuilder) WithUnitCallback(f func(*diag.Context)) DriverBuilder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], f)
	return b
}

// Build creates a driver.
func (b DriverBuilder) Build(name string) Driver {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &driverImpl{
		name:   name,
		cfg:    b.cfg,
		logger: logger,
		verify: b.verify,
		hooks:  b.hooks,
	}
}

type driverImpl struct {
	name   string
	cfg    config.CompilerConfig
	logger *slog.Logger
	verify bool
	hooks  []diagHook
}

func (d *driverImpl) Compile(src KernelSource) (*Result, error) {
	unit, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	k := unit.Kernel
	dctx := diag.New(k.Name, d.logger)
	for _, h := range d.hooks {
		h(dctx)
	}

	dctx.Logger().Info("compiling", "source", src.Name(), "dims", k.Dims.String())

	res := &Result{Unit: unit, Mapped: unit.Module}

	if d.cfg.EnableMemoryMapping {
		res.Mapped, res.Stats, err = d.mapMemory(dctx, unit)
		if err != nil {
			return nil, err
		}
	} else {
		dctx.Notef("memory mapping disabled")
	}

	if limit := d.cfg.Arch.MatrixDimLimit; limit > 0 && k.Dims.Max() > limit {
		return nil, fmt.Errorf("kernel %q: %w: %s, limit %d",
			k.Name, ErrDimLimit, k.Dims, limit)
	}

	emitter := backend.NewBuilder().
		WithStoreDest(d.cfg.StoreDest).
		WithHook(dctx).
		Build(d.name + ".Emitter")

	res.Stream, err = emitter.Lower(k)
	if err != nil {
		return nil, fmt.Errorf("lower %s: %w", src.Name(), err)
	}

	if d.verify {
		res.Report = verify.GenerateReport(k.Name, res.Stream, k.Dims, verify.ArchInfoFromConfig(d.cfg))
		for _, issue := range res.Report.LintIssues {
			dctx.Trace("lint", "type", string(issue.Type), "inst", issue.Index, "msg", issue.Message)
		}
	}

	res.Summary = dctx.Summary()
	dctx.Logger().Info("compiled",
		"instructions", res.Stream.Len(),
		"rewritten", res.Stats.Rewritten,
		"skipped", res.Stats.SkippedTotal())

	return res, nil
}

func (d *driverImpl) mapMemory(dctx *diag.Context, unit Unit) (mapper.Module, mapper.Stats, error) {
	table, err := mapper.NewDescriptorTable(unit.Descriptors...)
	if err != nil {
		return mapper.Module{}, mapper.Stats{}, fmt.Errorf("kernel %q: %w", unit.Kernel.Name, err)
	}

	b := unit.Kernel.Bindings
	bindings := mapper.Bindings{
		b.A: layout.OperandA,
		b.B: layout.OperandB,
		b.C: layout.ResultC,
	}
	if b.A == b.B {
		bindings[b.A] = layout.OperandA
	}

	tr := mapper.NewTranslator(table, d.cfg.Layout, bindings)
	tr.AcceptHook(dctx)

	out, stats := tr.RunModule(unit.Module)
	dctx.Logger().Debug("memory mapping done", "stats", stats.String())

	return out, stats, nil
}
