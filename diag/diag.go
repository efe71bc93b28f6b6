// Package diag collects the diagnostics of one compilation unit.
//
// A Context is created per unit and attached as a hook to the translator
// and the emitter of that unit. It never shares state with other units.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/pimgen/backend"
	"github.com/sarchlab/pimgen/isa"
	"github.com/sarchlab/pimgen/mapper"
)

// LevelTrace is more verbose than Debug events but quieter than Info.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Context is the diagnostics sink of one compilation unit.
type Context struct {
	unit   string
	id     string
	logger *slog.Logger

	mu        sync.Mutex
	rewritten int
	skipped   map[mapper.SkipReason]int
	opcodes   map[isa.Opcode]int
	phases    []phaseSpan
	notes     []string
}

type phaseSpan struct {
	phase backend.Phase
	start int
	count int
}

// New creates a context for the named unit. A nil logger falls back to
// slog.Default().
func New(unit string, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}

	id := sim.GetIDGenerator().Generate()

	return &Context{
		unit:    unit,
		id:      id,
		logger:  logger.With("unit", unit, "id", id),
		skipped: make(map[mapper.SkipReason]int),
		opcodes: make(map[isa.Opcode]int),
	}
}

// Unit returns the name of the unit.
func (c *Context) Unit() string {
	return c.unit
}

// ID returns the unique ID of this invocation.
func (c *Context) ID() string {
	return c.id
}

// Logger returns the logger of the unit.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Trace logs at LevelTrace.
func (c *Context) Trace(msg string, args ...any) {
	c.logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Notef records a free-form note that is kept in the summary.
func (c *Context) Notef(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	c.mu.Lock()
	c.notes = append(c.notes, msg)
	c.mu.Unlock()

	c.logger.Info(msg)
}

// Func implements sim.Hook.
func (c *Context) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case mapper.HookPosAccessRewritten:
		ev := ctx.Item.(mapper.AccessEvent)
		c.mu.Lock()
		c.rewritten++
		c.mu.Unlock()
		c.logger.Debug("access rewritten",
			"function", ev.Function, "pos", ev.Position,
			"from", ev.Before.String(), "to", ev.After.String())
	case mapper.HookPosAccessSkipped:
		ev := ctx.Item.(mapper.AccessEvent)
		c.mu.Lock()
		c.skipped[ev.Reason]++
		c.mu.Unlock()
		c.Trace("access skipped",
			"function", ev.Function, "pos", ev.Position,
			"access", ev.Before.String(), "reason", ev.Reason.String())
	case backend.HookPosPhaseBegin:
		p := ctx.Item.(backend.Phase)
		c.mu.Lock()
		start := 0
		if n := len(c.phases); n > 0 {
			start = c.phases[n-1].start + c.phases[n-1].count
		}
		c.phases = append(c.phases, phaseSpan{phase: p, start: start})
		c.mu.Unlock()
		c.logger.Debug("phase begin", "phase", p.String(), "at", start)
	case backend.HookPosInstEmitted:
		ev := ctx.Item.(backend.InstEvent)
		c.mu.Lock()
		c.opcodes[ev.Inst.Opcode()]++
		if n := len(c.phases); n > 0 {
			c.phases[n-1].count++
		}
		c.mu.Unlock()
	}
}

// PhaseCount is the number of instructions emitted in one phase.
type PhaseCount struct {
	Phase backend.Phase
	Start int
	Count int
}

// Summary is a snapshot of the counters of a context.
type Summary struct {
	Unit      string
	ID        string
	Rewritten int
	Skipped   map[mapper.SkipReason]int
	Opcodes   map[isa.Opcode]int
	Phases    []PhaseCount
	Notes     []string
}

// Instructions returns the total number of emitted instructions.
func (s Summary) Instructions() int {
	n := 0
	for _, c := range s.Opcodes {
		n += c
	}

	return n
}

// SkippedTotal returns the number of accesses the translator left alone.
func (s Summary) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}

	return n
}

// Summary returns a copy of the current counters.
func (c *Context) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Unit:      c.unit,
		ID:        c.id,
		Rewritten: c.rewritten,
		Skipped:   make(map[mapper.SkipReason]int, len(c.skipped)),
		Opcodes:   make(map[isa.Opcode]int, len(c.opcodes)),
		Notes:     append([]string(nil), c.notes...),
	}

	for r, n := range c.skipped {
		s.Skipped[r] = n
	}

	for op, n := range c.opcodes {
		s.Opcodes[op] = n
	}

	for _, p := range c.phases {
		s.Phases = append(s.Phases, PhaseCount{Phase: p.phase, Start: p.start, Count: p.count})
	}

	return s
}

// WriteTable renders the summary as tables.
func (s Summary) WriteTable(w io.Writer) error {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Unit %s", s.Unit))
	t.AppendHeader(table.Row{"Phase", "Start", "Instructions"})
	for _, p := range s.Phases {
		t.AppendRow(table.Row{p.Phase.String(), p.Start, p.Count})
	}
	t.AppendFooter(table.Row{"Total", "", s.Instructions()})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}

	ops := make([]isa.Opcode, 0, len(s.Opcodes))
	for op := range s.Opcodes {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	ot := table.NewWriter()
	ot.SetTitle("Opcodes")
	ot.AppendHeader(table.Row{"Opcode", "Count"})
	for _, op := range ops {
		ot.AppendRow(table.Row{op.String(), s.Opcodes[op]})
	}

	if _, err := fmt.Fprintln(w, ot.Render()); err != nil {
		return err
	}

	reasons := make([]mapper.SkipReason, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	mt := table.NewWriter()
	mt.SetTitle("Memory mapping")
	mt.AppendHeader(table.Row{"Outcome", "Accesses"})
	mt.AppendRow(table.Row{"rewritten", s.Rewritten})
	for _, r := range reasons {
		mt.AppendRow(table.Row{"skipped: " + r.String(), s.Skipped[r]})
	}

	if _, err := fmt.Fprintln(w, mt.Render()); err != nil {
		return err
	}

	if len(s.Notes) == 0 {
		return nil
	}

	nt := table.NewWriter()
	nt.SetTitle("Notes")
	for _, n := range s.Notes {
		nt.AppendRow(table.Row{n})
	}

	_, err := fmt.Fprintln(w, nt.Render())

	return err
}
