// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package simulator

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ezrec/rvsim/riscv"
)

const (
	MAX_CYCLES = 1000 // Default cycle ceiling for Run.
)

// InvalidPolicy selects how Step treats a word that decodes to no handler.
type InvalidPolicy int

const (
	INVALID_FAIL InvalidPolicy = iota // Fail with ErrInstructionInvalid.
	INVALID_SKIP                      // Log, and advance the pc past the word.
)

// Simulator executes a Program. Ready after construction, Running while the
// pc lies within the loaded text and the cycle count is within the ceiling,
// and Halted otherwise.
type Simulator struct {
	Verbose   bool          // If set, logs each executed instruction.
	Stdout    io.Writer     // Output for environment calls.
	MaxCycles int           // Cycle ceiling for Run.
	OnInvalid InvalidPolicy // Undecodable instruction policy.

	program  *riscv.Program
	state    *State
	maxPC    uint32
	cycles   int
	exitCode int32
	history  History

	preInstruction  []Diff
	postInstruction []Diff
}

// NewSimulator loads a program into a fresh state.
func NewSimulator(prog *riscv.Program) (sim *Simulator) {
	sim = &Simulator{
		Stdout:    os.Stdout,
		MaxCycles: MAX_CYCLES,
		program:   prog,
	}

	sim.Reset()

	return
}

// Reset reloads the program into a fresh state, and clears the history,
// cycle count and exit code.
// The text is copied to TEXT_BEGIN and the data segment to STATIC_BEGIN;
// sp and gp point at the stack and static segments.
func (sim *Simulator) Reset() {
	state := NewState()
	state.PC = riscv.TEXT_BEGIN

	sim.maxPC = riscv.TEXT_BEGIN
	for _, inst := range sim.program.Insts {
		state.Mem.StoreWord(sim.maxPC, uint32(inst))
		sim.maxPC += riscv.INST_WIDTH
	}

	for n, datum := range sim.program.DataSegment {
		state.Mem.StoreByte(riscv.STATIC_BEGIN+uint32(n), datum)
	}

	state.SetReg(riscv.REG_SP, riscv.STACK_BEGIN)
	state.SetReg(riscv.REG_GP, riscv.STATIC_BEGIN)

	sim.state = state
	sim.cycles = 0
	sim.exitCode = 0
	sim.history.Reset()
}

// Program returns the loaded program.
func (sim *Simulator) Program() *riscv.Program {
	return sim.program
}

// IsDone reports if the pc has left the loaded text, or the cycle count
// has passed the ceiling.
func (sim *Simulator) IsDone() bool {
	return sim.state.PC >= sim.maxPC || sim.cycles > sim.MaxCycles
}

// Cycles returns the number of instructions executed by Run.
func (sim *Simulator) Cycles() int {
	return sim.cycles
}

// ExitCode returns the code passed to the exit environment call.
func (sim *Simulator) ExitCode() int32 {
	return sim.exitCode
}

// Run steps until the simulator is done. If the cycle ceiling stopped it,
// ErrCycleLimit is returned.
func (sim *Simulator) Run() (err error) {
	for !sim.IsDone() {
		_, err = sim.Step()
		if err != nil {
			return
		}
		sim.cycles++
	}

	if sim.cycles > sim.MaxCycles {
		err = fmt.Errorf("%w: %d", ErrCycleLimit, sim.MaxCycles)
	}

	return
}

// Step executes the instruction at the pc, and returns the values of every
// location it changed. The prior values are pushed onto the history.
//
// If the instruction fails, its partial changes are reverted and nothing is
// pushed.
func (sim *Simulator) Step() (diffs []Diff, err error) {
	sim.preInstruction = nil
	sim.postInstruction = nil

	pc := sim.state.PC
	defer func() {
		if err != nil {
			err = sim.runtimeError(pc, err)
		}
	}()

	if pc >= sim.maxPC {
		err = ErrHalted
		return
	}

	inst := riscv.Instruction(sim.state.Mem.LoadWord(pc))
	entry, ok := lookupImpl(inst)
	if !ok {
		if sim.OnInvalid != INVALID_SKIP {
			err = fmt.Errorf("%w %08x", ErrInstructionInvalid, uint32(inst))
			return
		}
		log.Printf("%08x: %08x: skipping invalid instruction", pc, uint32(inst))
		sim.IncrementPC(riscv.INST_WIDTH)
	} else {
		if sim.Verbose {
			log.Printf("%08x: %08x %v", pc, uint32(inst), Disassemble(inst))
		}
		err = entry.impl(sim, inst)
		if err != nil {
			sim.revert(sim.preInstruction)
			return
		}
	}

	sim.history.Push(sim.preInstruction)
	diffs = sim.postInstruction

	if sim.Verbose && len(diffs) > 0 {
		log.Printf("%08x: %v", pc, diffs)
	}

	return
}

// Undo reverts the most recent step. It reports false if there is nothing
// to undo.
func (sim *Simulator) Undo() bool {
	diffs, ok := sim.history.Pop()
	if !ok {
		return false
	}

	sim.revert(diffs)
	return true
}

// revert applies prior values, latest first.
func (sim *Simulator) revert(diffs []Diff) {
	for n := len(diffs) - 1; n >= 0; n-- {
		diffs[n].Apply(sim.state)
	}
}

func (sim *Simulator) exit(code int32) {
	sim.exitCode = code
	sim.SetPC(sim.maxPC)
}

func (sim *Simulator) runtimeError(pc uint32, err error) error {
	rerr := &ErrRuntime{PC: pc, Err: err}
	if dbg, ok := sim.program.Debug(pc); ok {
		rerr.LineNo = dbg.LineNo
	}
	return rerr
}

// record captures a mutation of one location as a (prior, new) pair.
func (sim *Simulator) record(diff Diff, mutate func()) {
	sim.preInstruction = append(sim.preInstruction, sim.capture(diff))
	mutate()
	sim.postInstruction = append(sim.postInstruction, sim.capture(diff))
}

// capture returns the diff with the current value of its location.
func (sim *Simulator) capture(diff Diff) Diff {
	switch diff.Kind {
	case DIFF_REGISTER:
		diff.Value = sim.state.GetReg(diff.Id)
	case DIFF_PC:
		diff.Value = sim.state.PC
	case DIFF_MEMORY:
		diff.Value = sim.state.Mem.Load(diff.Addr, diff.Width)
	}
	return diff
}

func (sim *Simulator) GetReg(id int) uint32 {
	return sim.state.GetReg(id)
}

// SetReg writes a register. Writes to x0 are ignored and not recorded.
func (sim *Simulator) SetReg(id int, value uint32) {
	if id == riscv.REG_ZERO {
		return
	}
	sim.record(RegisterDiff(id, 0), func() { sim.state.SetReg(id, value) })
}

func (sim *Simulator) GetPC() uint32 {
	return sim.state.PC
}

func (sim *Simulator) SetPC(pc uint32) {
	sim.record(PCDiff(0), func() { sim.state.PC = pc })
}

func (sim *Simulator) IncrementPC(delta int32) {
	sim.record(PCDiff(0), func() { sim.state.PC += uint32(delta) })
}

func (sim *Simulator) LoadByte(addr uint32) uint8 {
	return sim.state.Mem.LoadByte(addr)
}

func (sim *Simulator) LoadHalfWord(addr uint32) uint16 {
	return sim.state.Mem.LoadHalfWord(addr)
}

func (sim *Simulator) LoadWord(addr uint32) uint32 {
	return sim.state.Mem.LoadWord(addr)
}

func (sim *Simulator) StoreByte(addr uint32, value uint8) {
	sim.record(MemoryDiff(addr, 1, 0), func() { sim.state.Mem.StoreByte(addr, value) })
}

func (sim *Simulator) StoreHalfWord(addr uint32, value uint16) {
	sim.record(MemoryDiff(addr, 2, 0), func() { sim.state.Mem.StoreHalfWord(addr, value) })
}

func (sim *Simulator) StoreWord(addr uint32, value uint32) {
	sim.record(MemoryDiff(addr, 4, 0), func() { sim.state.Mem.StoreWord(addr, value) })
}

// Registers returns a copy of the general register file.
func (sim *Simulator) Registers() [riscv.REG_COUNT]uint32 {
	return sim.state.Reg
}
