package simulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/rvsim/riscv"
)

// Environment call services, selected by a7.
const (
	ECALL_PRINT_INT    = 1  // Print a0 as a signed decimal.
	ECALL_PRINT_STRING = 4  // Print the NUL terminated string at a0.
	ECALL_SBRK         = 9  // Grow the heap by a0 bytes, returning the old break in a0.
	ECALL_EXIT         = 10 // Halt.
	ECALL_PRINT_CHAR   = 11 // Print the low byte of a0.
	ECALL_EXIT_CODE    = 17 // Halt with exit code a0.
)

// ECALL_STRING_LIMIT bounds the length of a printed string.
const ECALL_STRING_LIMIT = 1 << 16

var _ecall_defines = map[string]string{
	"ECALL_PRINT_INT":    fmt.Sprintf("%v", ECALL_PRINT_INT),
	"ECALL_PRINT_STRING": fmt.Sprintf("%v", ECALL_PRINT_STRING),
	"ECALL_SBRK":         fmt.Sprintf("%v", ECALL_SBRK),
	"ECALL_EXIT":         fmt.Sprintf("%v", ECALL_EXIT),
	"ECALL_PRINT_CHAR":   fmt.Sprintf("%v", ECALL_PRINT_CHAR),
	"ECALL_EXIT_CODE":    fmt.Sprintf("%v", ECALL_EXIT_CODE),
}

// Defines returns the environment call numbers as assembler equates.
func Defines() iter.Seq2[string, string] {
	return maps.All(_ecall_defines)
}

func implECALL(sim *Simulator, inst riscv.Instruction) (err error) {
	a0 := sim.GetReg(riscv.REG_A0)

	switch service := sim.GetReg(riscv.REG_A7); service {
	case ECALL_PRINT_INT:
		_, err = fmt.Fprintf(sim.Stdout, "%d", int32(a0))
	case ECALL_PRINT_STRING:
		var str []byte
		for addr := a0; len(str) < ECALL_STRING_LIMIT; addr++ {
			c := sim.LoadByte(addr)
			if c == 0 {
				break
			}
			str = append(str, c)
		}
		_, err = sim.Stdout.Write(str)
	case ECALL_SBRK:
		brk := sim.GetReg(REG_BREAK)
		sim.SetReg(REG_BREAK, brk+a0)
		sim.SetReg(riscv.REG_A0, brk)
	case ECALL_EXIT:
		sim.exit(0)
		return
	case ECALL_EXIT_CODE:
		sim.exit(int32(a0))
		return
	case ECALL_PRINT_CHAR:
		_, err = sim.Stdout.Write([]byte{byte(a0)})
	default:
		err = fmt.Errorf("%w %d", ErrEcallUnknown, service)
	}
	if err != nil {
		return
	}

	sim.IncrementPC(riscv.INST_WIDTH)
	return
}
