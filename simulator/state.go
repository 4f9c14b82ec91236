package simulator

import (
	"github.com/ezrec/rvsim/riscv"
)

// REG_BREAK addresses the heap break as a pseudo-register after x31, so
// that sbrk is recorded and undone like any register write.
const REG_BREAK = riscv.REG_COUNT

// State is the architectural state of the simulated CPU.
type State struct {
	Reg   [riscv.REG_COUNT]uint32
	PC    uint32
	Break uint32 // Current end of the heap.
	Mem   *Memory
}

// NewState returns a zeroed state with an empty memory image.
func NewState() *State {
	return &State{
		Break: riscv.HEAP_BEGIN,
		Mem:   NewMemory(),
	}
}

// GetReg returns a register value. Register 0 always reads as zero.
func (state *State) GetReg(id int) uint32 {
	switch {
	case id == REG_BREAK:
		return state.Break
	case id <= riscv.REG_ZERO || id >= riscv.REG_COUNT:
		return 0
	}
	return state.Reg[id]
}

// SetReg sets a register value. Writes to register 0 are dropped.
func (state *State) SetReg(id int, value uint32) {
	switch {
	case id == REG_BREAK:
		state.Break = value
	case id <= riscv.REG_ZERO || id >= riscv.REG_COUNT:
	default:
		state.Reg[id] = value
	}
}
