package backend

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/pimgen/isa"
)

// HookPosPhaseBegin marks the start of a lowering phase. The hook item is
// the Phase.
var HookPosPhaseBegin = &sim.HookPos{Name: "Phase Begin"}

// HookPosInstEmitted marks an instruction appended to the stream. The hook
// item is an InstEvent.
var HookPosInstEmitted = &sim.HookPos{Name: "Inst Emitted"}

// Phase is one of the three sections of the emitted stream.
type Phase int

// The phases, in emission order.
const (
	PhaseLoad Phase = iota
	PhaseCompute
	PhaseStore
)

func (p Phase) String() string {
	switch p {
	case PhaseLoad:
		return "configure+load"
	case PhaseCompute:
		return "compute"
	case PhaseStore:
		return "store"
	default:
		return "unknown"
	}
}

// InstEvent is the hook item for every emitted instruction.
type InstEvent struct {
	Kernel string
	Phase  Phase
	Index  int
	Inst   isa.Instruction
}

// Builder can create new emitters.
type Builder struct {
	storeDest uint32
	hooks     []sim.Hook
}

// NewBuilder creates a builder with the default settings.
func NewBuilder() Builder {
	return Builder{}
}

// WithStoreDest sets the host address the store phase writes results to.
func (b Builder) WithStoreDest(addr uint32) Builder {
	b.storeDest = addr
	return b
}

// WithHook attaches a hook to every emitter built.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], h)
	return b
}

// Build creates an emitter.
func (b Builder) Build(name string) *Emitter {
	e := &Emitter{
		name:      name,
		storeDest: b.storeDest,
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	return e
}

// Emitter lowers matrix multiplies. The output depends only on the
// dimensions and the store destination; equal inputs give equal streams.
type Emitter struct {
	sim.HookableBase

	name      string
	storeDest uint32
}

// Name returns the name of the emitter.
func (e *Emitter) Name() string {
	return e.name
}

// Lower emits the stream of a validated kernel.
func (e *Emitter) Lower(k Kernel) (*isa.Stream, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	return e.lower(k.Name, k.Dims), nil
}

// LowerDims emits the stream for bare dimensions.
func (e *Emitter) LowerDims(d Dims) (*isa.Stream, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	return e.lower(e.name, d), nil
}

type emission struct {
	e      *Emitter
	kernel string
	dims   Dims
	phase  Phase
	stream *isa.Stream
}

func (e *Emitter) lower(kernel string, d Dims) *isa.Stream {
	em := &emission{
		e:      e,
		kernel: kernel,
		dims:   d,
		stream: isa.NewStream(d.InstructionCount()),
	}

	em.emitLoadPhase()
	em.emitComputePhase()
	em.emitStorePhase()

	return em.stream
}

func (em *emission) begin(p Phase) {
	em.phase = p
	em.e.InvokeHook(sim.HookCtx{
		Domain: em.e,
		Pos:    HookPosPhaseBegin,
		Item:   p,
	})
}

func (em *emission) emit(op isa.Opcode, dest, src1, src2, imm uint32) {
	inst := isa.New(op, dest, src1, src2, imm)
	em.stream.Append(inst)

	em.e.InvokeHook(sim.HookCtx{
		Domain: em.e,
		Pos:    HookPosInstEmitted,
		Item: InstEvent{
			Kernel: em.kernel,
			Phase:  em.phase,
			Index:  em.stream.Len() - 1,
			Inst:   inst,
		},
	})
}

// emitLoadPhase configures the array and loads A, B and a zeroed C. Each
// LOAD carries the element's row and column in src2 and imm; src1 is the
// host source, 0 for all elements.
func (em *emission) emitLoadPhase() {
	d := em.dims
	em.begin(PhaseLoad)

	em.emit(isa.CONFIG, uint32(isa.ConfigArraySize), d.SizeA(), 0, 0)
	em.emit(isa.CONFIG, uint32(isa.ConfigOpMode), d.SizeB(), 0, 0)
	em.emit(isa.CONFIG, uint32(isa.ConfigPrecision), d.SizeC(), 0, 0)

	for i := uint32(0); i < d.Rows; i++ {
		for k := uint32(0); k < d.Common; k++ {
			em.emit(isa.LOAD, d.AddrA(i, k), 0, i, k)
		}
	}

	for k := uint32(0); k < d.Common; k++ {
		for j := uint32(0); j < d.Cols; j++ {
			em.emit(isa.LOAD, d.AddrB(k, j), 0, k, j)
		}
	}

	for i := uint32(0); i < d.Rows; i++ {
		for j := uint32(0); j < d.Cols; j++ {
			em.emit(isa.LOAD, d.AddrC(i, j), 0, i, j)
		}
	}
}

// emitComputePhase accumulates C[i][j] += A[i][k] * B[k][j]. C[i][j] is
// reloaded and stored back on every k step; nothing is kept in registers
// across steps.
func (em *emission) emitComputePhase() {
	d := em.dims
	em.begin(PhaseCompute)

	r0, r1, r2, r3 := uint32(isa.R0), uint32(isa.R1), uint32(isa.R2), uint32(isa.R3)

	for i := uint32(0); i < d.Rows; i++ {
		for j := uint32(0); j < d.Cols; j++ {
			for k := uint32(0); k < d.Common; k++ {
				a := d.AddrA(i, k)
				b := d.AddrB(k, j)
				c := d.AddrC(i, j)

				em.emit(isa.MOVE, r0, a, 0, 0)
				em.emit(isa.MOVE, r1, b, 0, 0)
				em.emit(isa.MUL, r2, r0, r1, 0)
				em.emit(isa.MOVE, r3, c, 0, 0)
				em.emit(isa.ADD, r3, r3, r2, 0)
				em.emit(isa.MOVE, c, r3, 0, 0)
			}
		}
	}
}

// emitStorePhase writes every element of C to the store destination.
func (em *emission) emitStorePhase() {
	d := em.dims
	em.begin(PhaseStore)

	for i := uint32(0); i < d.Rows; i++ {
		for j := uint32(0); j < d.Cols; j++ {
			em.emit(isa.STORE, em.e.storeDest, d.AddrC(i, j), i, j)
		}
	}
}
