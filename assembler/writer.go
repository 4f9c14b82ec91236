package assembler

import (
	"fmt"

	"github.com/ezrec/rvsim/riscv"
)

// instructionWriter encodes the operands of the instruction at pc.
type instructionWriter func(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (riscv.Instruction, error)

// writerDispatch describes how to encode one real instruction mnemonic.
type writerDispatch struct {
	format riscv.Format
	opcode uint32
	funct3 uint32
	funct7 uint32 // Also the 12-bit function code of system instructions.
	writer instructionWriter
}

// instructionDispatch maps real instruction mnemonics to their encoders.
var instructionDispatch = map[string]writerDispatch{
	"lui":   {riscv.FORMAT_U, riscv.OP_LUI, 0, 0, uTypeWriter},
	"auipc": {riscv.FORMAT_U, riscv.OP_AUIPC, 0, 0, uTypeWriter},
	"jal":   {riscv.FORMAT_J, riscv.OP_JAL, 0, 0, jTypeWriter},
	"jalr":  {riscv.FORMAT_I, riscv.OP_JALR, 0b000, 0, jalrWriter},

	"beq":  {riscv.FORMAT_B, riscv.OP_BRANCH, 0b000, 0, bTypeWriter},
	"bne":  {riscv.FORMAT_B, riscv.OP_BRANCH, 0b001, 0, bTypeWriter},
	"blt":  {riscv.FORMAT_B, riscv.OP_BRANCH, 0b100, 0, bTypeWriter},
	"bge":  {riscv.FORMAT_B, riscv.OP_BRANCH, 0b101, 0, bTypeWriter},
	"bltu": {riscv.FORMAT_B, riscv.OP_BRANCH, 0b110, 0, bTypeWriter},
	"bgeu": {riscv.FORMAT_B, riscv.OP_BRANCH, 0b111, 0, bTypeWriter},

	"lb":  {riscv.FORMAT_I, riscv.OP_LOAD, 0b000, 0, loadWriter},
	"lh":  {riscv.FORMAT_I, riscv.OP_LOAD, 0b001, 0, loadWriter},
	"lw":  {riscv.FORMAT_I, riscv.OP_LOAD, 0b010, 0, loadWriter},
	"lbu": {riscv.FORMAT_I, riscv.OP_LOAD, 0b100, 0, loadWriter},
	"lhu": {riscv.FORMAT_I, riscv.OP_LOAD, 0b101, 0, loadWriter},

	"sb": {riscv.FORMAT_S, riscv.OP_STORE, 0b000, 0, sTypeWriter},
	"sh": {riscv.FORMAT_S, riscv.OP_STORE, 0b001, 0, sTypeWriter},
	"sw": {riscv.FORMAT_S, riscv.OP_STORE, 0b010, 0, sTypeWriter},

	"addi":  {riscv.FORMAT_I, riscv.OP_IMM, 0b000, 0, iTypeWriter},
	"slti":  {riscv.FORMAT_I, riscv.OP_IMM, 0b010, 0, iTypeWriter},
	"sltiu": {riscv.FORMAT_I, riscv.OP_IMM, 0b011, 0, iTypeWriter},
	"xori":  {riscv.FORMAT_I, riscv.OP_IMM, 0b100, 0, iTypeWriter},
	"ori":   {riscv.FORMAT_I, riscv.OP_IMM, 0b110, 0, iTypeWriter},
	"andi":  {riscv.FORMAT_I, riscv.OP_IMM, 0b111, 0, iTypeWriter},
	"slli":  {riscv.FORMAT_I, riscv.OP_IMM, 0b001, 0b0000000, shiftImmWriter},
	"srli":  {riscv.FORMAT_I, riscv.OP_IMM, 0b101, 0b0000000, shiftImmWriter},
	"srai":  {riscv.FORMAT_I, riscv.OP_IMM, 0b101, 0b0100000, shiftImmWriter},

	"add":  {riscv.FORMAT_R, riscv.OP_REG, 0b000, 0b0000000, rTypeWriter},
	"sub":  {riscv.FORMAT_R, riscv.OP_REG, 0b000, 0b0100000, rTypeWriter},
	"sll":  {riscv.FORMAT_R, riscv.OP_REG, 0b001, 0b0000000, rTypeWriter},
	"slt":  {riscv.FORMAT_R, riscv.OP_REG, 0b010, 0b0000000, rTypeWriter},
	"sltu": {riscv.FORMAT_R, riscv.OP_REG, 0b011, 0b0000000, rTypeWriter},
	"xor":  {riscv.FORMAT_R, riscv.OP_REG, 0b100, 0b0000000, rTypeWriter},
	"srl":  {riscv.FORMAT_R, riscv.OP_REG, 0b101, 0b0000000, rTypeWriter},
	"sra":  {riscv.FORMAT_R, riscv.OP_REG, 0b101, 0b0100000, rTypeWriter},
	"or":   {riscv.FORMAT_R, riscv.OP_REG, 0b110, 0b0000000, rTypeWriter},
	"and":  {riscv.FORMAT_R, riscv.OP_REG, 0b111, 0b0000000, rTypeWriter},

	"ecall":  {riscv.FORMAT_I, riscv.OP_SYSTEM, 0b000, 0, systemWriter},
	"ebreak": {riscv.FORMAT_I, riscv.OP_SYSTEM, 0b000, 1, systemWriter},
}

// checkArgs verifies the operand count.
func checkArgs(args []string, counts ...int) error {
	for _, count := range counts {
		if len(args) == count {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrOperandCount, len(args))
}

// registers resolves each word as a register operand.
func (file *assemblyFile) registers(words ...string) (regs []int, err error) {
	regs = make([]int, len(words))
	for n, word := range words {
		regs[n], err = file.register(word)
		if err != nil {
			return
		}
	}
	return
}

// rd, rs1, rs2
func rTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 3); err != nil {
		return
	}
	regs, err := file.registers(args...)
	if err != nil {
		return
	}
	return riscv.MakeR(disp.opcode, disp.funct3, disp.funct7, regs[0], regs[1], regs[2]), nil
}

// rd, rs1, imm
func iTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 3); err != nil {
		return
	}
	regs, err := file.registers(args[0], args[1])
	if err != nil {
		return
	}
	imm, err := file.immediate(args[2], pc, 12)
	if err != nil {
		return
	}
	return riscv.MakeI(disp.opcode, disp.funct3, regs[0], regs[1], imm), nil
}

// rd, rs1, shamt
func shiftImmWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 3); err != nil {
		return
	}
	regs, err := file.registers(args[0], args[1])
	if err != nil {
		return
	}
	shamt, err := file.evaluate(args[2], pc)
	if err != nil {
		return
	}
	if shamt < 0 || shamt > 31 {
		err = fmt.Errorf("%w '%v' (shift)", ErrImmediateRange, args[2])
		return
	}
	imm := int32(disp.funct7<<5) | int32(shamt)
	return riscv.MakeI(disp.opcode, disp.funct3, regs[0], regs[1], imm), nil
}

// rd, imm(rs1) or rd, (rs1)
func loadWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 2, 3); err != nil {
		return
	}
	rd, base, offset := args[0], args[len(args)-1], "0"
	if len(args) == 3 {
		offset = args[1]
	}
	regs, err := file.registers(rd, base)
	if err != nil {
		return
	}
	imm, err := file.immediate(offset, pc, 12)
	if err != nil {
		return
	}
	return riscv.MakeI(disp.opcode, disp.funct3, regs[0], regs[1], imm), nil
}

// rs2, imm(rs1) or rs2, (rs1)
func sTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 2, 3); err != nil {
		return
	}
	src, base, offset := args[0], args[len(args)-1], "0"
	if len(args) == 3 {
		offset = args[1]
	}
	regs, err := file.registers(src, base)
	if err != nil {
		return
	}
	imm, err := file.immediate(offset, pc, 12)
	if err != nil {
		return
	}
	return riscv.MakeS(disp.opcode, disp.funct3, regs[1], regs[0], imm), nil
}

// rs1, rs2, target
func bTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 3); err != nil {
		return
	}
	regs, err := file.registers(args[0], args[1])
	if err != nil {
		return
	}
	offset, err := file.target(args[2], pc, 13)
	if err != nil {
		return
	}
	return riscv.MakeB(disp.opcode, disp.funct3, regs[0], regs[1], offset), nil
}

// rd, imm20
func uTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 2); err != nil {
		return
	}
	rd, err := file.register(args[0])
	if err != nil {
		return
	}
	imm, err := file.evaluate(args[1], pc)
	if err != nil {
		return
	}
	if imm < -(1<<19) || imm >= (1<<20) {
		err = fmt.Errorf("%w '%v' (20 bits)", ErrImmediateRange, args[1])
		return
	}
	return riscv.MakeU(disp.opcode, rd, int32(imm)), nil
}

// rd, target
func jTypeWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 2); err != nil {
		return
	}
	rd, err := file.register(args[0])
	if err != nil {
		return
	}
	offset, err := file.target(args[1], pc, 21)
	if err != nil {
		return
	}
	return riscv.MakeJ(disp.opcode, rd, offset), nil
}

// rd, rs1, imm or rd, imm(rs1) or rd, rs1
func jalrWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 2, 3); err != nil {
		return
	}
	rd, base, offset := args[0], args[1], "0"
	if len(args) == 3 {
		if file.isRegister(args[1]) {
			offset = args[2]
		} else {
			base, offset = args[2], args[1]
		}
	}
	regs, err := file.registers(rd, base)
	if err != nil {
		return
	}
	imm, err := file.immediate(offset, pc, 12)
	if err != nil {
		return
	}
	return riscv.MakeI(disp.opcode, disp.funct3, regs[0], regs[1], imm), nil
}

// no operands
func systemWriter(file *assemblyFile, disp *writerDispatch, pc uint32, args []string) (inst riscv.Instruction, err error) {
	if err = checkArgs(args, 0); err != nil {
		return
	}
	return riscv.MakeI(disp.opcode, disp.funct3, 0, 0, int32(disp.funct7)), nil
}
