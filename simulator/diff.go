package simulator

import (
	"fmt"

	"github.com/ezrec/rvsim/riscv"
)

//go:generate go tool stringer -linecomment -type=DiffKind

// DiffKind selects the state location a Diff refers to.
type DiffKind int

const (
	DIFF_REGISTER = DiffKind(iota) // register
	DIFF_PC                        // pc
	DIFF_MEMORY                    // memory
)

// Diff records the value of one state location, either before or after a
// mutation. Applying a Diff overwrites the location with the recorded value.
type Diff struct {
	Kind  DiffKind
	Id    int    // Register index, for DIFF_REGISTER.
	Addr  uint32 // Address, for DIFF_MEMORY.
	Width int    // Access width in bytes, for DIFF_MEMORY.
	Value uint32
}

func RegisterDiff(id int, value uint32) Diff {
	return Diff{Kind: DIFF_REGISTER, Id: id, Value: value}
}

func PCDiff(value uint32) Diff {
	return Diff{Kind: DIFF_PC, Value: value}
}

func MemoryDiff(addr uint32, width int, value uint32) Diff {
	return Diff{Kind: DIFF_MEMORY, Addr: addr, Width: width, Value: value}
}

// Apply writes the recorded value into the state.
func (diff Diff) Apply(state *State) {
	switch diff.Kind {
	case DIFF_REGISTER:
		state.SetReg(diff.Id, diff.Value)
	case DIFF_PC:
		state.PC = diff.Value
	case DIFF_MEMORY:
		state.Mem.Store(diff.Addr, diff.Width, diff.Value)
	default:
		panic(fmt.Sprintf("unknown diff kind %v", diff.Kind))
	}
}

func (diff Diff) String() string {
	switch diff.Kind {
	case DIFF_REGISTER:
		name := "brk"
		if diff.Id != REG_BREAK {
			name = riscv.RegisterName(diff.Id)
		}
		return fmt.Sprintf("%v=%#08x", name, diff.Value)
	case DIFF_PC:
		return fmt.Sprintf("pc=%#08x", diff.Value)
	case DIFF_MEMORY:
		return fmt.Sprintf("[%#08x/%d]=%#x", diff.Addr, diff.Width, diff.Value)
	}
	return fmt.Sprintf("%v?", diff.Kind)
}
