package simulator

import (
	"github.com/ezrec/rvsim/riscv"
)

// ALU operations shared by the register and immediate forms.
// Shift amounts use only the low five bits.
func opAdd(a, b uint32) uint32 { return a + b }
func opSub(a, b uint32) uint32 { return a - b }
func opSll(a, b uint32) uint32 { return a << (b & 0x1f) }
func opSrl(a, b uint32) uint32 { return a >> (b & 0x1f) }
func opSra(a, b uint32) uint32 { return uint32(int32(a) >> (b & 0x1f)) }
func opXor(a, b uint32) uint32 { return a ^ b }
func opOr(a, b uint32) uint32  { return a | b }
func opAnd(a, b uint32) uint32 { return a & b }

func opSlt(a, b uint32) uint32 {
	if int32(a) < int32(b) {
		return 1
	}
	return 0
}

func opSltu(a, b uint32) uint32 {
	if a < b {
		return 1
	}
	return 0
}

func regImpl(op func(a, b uint32) uint32) instructionImpl {
	return func(sim *Simulator, inst riscv.Instruction) error {
		sim.SetReg(inst.Rd(), op(sim.GetReg(inst.Rs1()), sim.GetReg(inst.Rs2())))
		sim.IncrementPC(riscv.INST_WIDTH)
		return nil
	}
}

// immImpl also serves the shifts; the funct7 bits above shamt are masked off
// by the shift operations.
func immImpl(op func(a, b uint32) uint32) instructionImpl {
	return func(sim *Simulator, inst riscv.Instruction) error {
		sim.SetReg(inst.Rd(), op(sim.GetReg(inst.Rs1()), uint32(inst.ImmI())))
		sim.IncrementPC(riscv.INST_WIDTH)
		return nil
	}
}

func branchImpl(cond func(a, b uint32) bool) instructionImpl {
	return func(sim *Simulator, inst riscv.Instruction) error {
		if cond(sim.GetReg(inst.Rs1()), sim.GetReg(inst.Rs2())) {
			sim.IncrementPC(inst.ImmB())
		} else {
			sim.IncrementPC(riscv.INST_WIDTH)
		}
		return nil
	}
}

func loadImpl(width int, signed bool) instructionImpl {
	return func(sim *Simulator, inst riscv.Instruction) error {
		addr := sim.GetReg(inst.Rs1()) + uint32(inst.ImmI())

		var value uint32
		switch width {
		case 1:
			value = uint32(sim.LoadByte(addr))
			if signed {
				value = uint32(int32(int8(value)))
			}
		case 2:
			value = uint32(sim.LoadHalfWord(addr))
			if signed {
				value = uint32(int32(int16(value)))
			}
		default:
			value = sim.LoadWord(addr)
		}

		sim.SetReg(inst.Rd(), value)
		sim.IncrementPC(riscv.INST_WIDTH)
		return nil
	}
}

func storeImpl(width int) instructionImpl {
	return func(sim *Simulator, inst riscv.Instruction) error {
		addr := sim.GetReg(inst.Rs1()) + uint32(inst.ImmS())
		value := sim.GetReg(inst.Rs2())

		switch width {
		case 1:
			sim.StoreByte(addr, uint8(value))
		case 2:
			sim.StoreHalfWord(addr, uint16(value))
		default:
			sim.StoreWord(addr, value)
		}

		sim.IncrementPC(riscv.INST_WIDTH)
		return nil
	}
}

func implLUI(sim *Simulator, inst riscv.Instruction) error {
	sim.SetReg(inst.Rd(), uint32(inst.ImmU()))
	sim.IncrementPC(riscv.INST_WIDTH)
	return nil
}

func implAUIPC(sim *Simulator, inst riscv.Instruction) error {
	sim.SetReg(inst.Rd(), sim.GetPC()+uint32(inst.ImmU()))
	sim.IncrementPC(riscv.INST_WIDTH)
	return nil
}

func implJAL(sim *Simulator, inst riscv.Instruction) error {
	sim.SetReg(inst.Rd(), sim.GetPC()+riscv.INST_WIDTH)
	sim.IncrementPC(inst.ImmJ())
	return nil
}

func implJALR(sim *Simulator, inst riscv.Instruction) error {
	// rs1 is read before rd is written, as they may be the same register.
	target := (sim.GetReg(inst.Rs1()) + uint32(inst.ImmI())) &^ 1
	sim.SetReg(inst.Rd(), sim.GetPC()+riscv.INST_WIDTH)
	sim.SetPC(target)
	return nil
}

func implEBREAK(sim *Simulator, inst riscv.Instruction) error {
	return ErrBreakpoint
}
