package simulator

import (
	"fmt"
	"strings"

	"github.com/ezrec/rvsim/riscv"
)

// instructionImpl executes one decoded instruction against the simulator.
type instructionImpl func(sim *Simulator, inst riscv.Instruction) error

// implKey selects a handler. Fields set to anyFunct match every value.
type implKey struct {
	opcode uint32
	funct3 uint32
	funct7 uint32 // The 12-bit function code for system instructions.
}

const anyFunct = ^uint32(0)

// implEntry is a handler with its disassembly template.
type implEntry struct {
	name     string
	operands string
	impl     instructionImpl
}

// implDispatch maps decoded instruction keys to their handlers.
var implDispatch = map[implKey]implEntry{
	{riscv.OP_LUI, anyFunct, anyFunct}:   {"lui", "rd, imm20", implLUI},
	{riscv.OP_AUIPC, anyFunct, anyFunct}: {"auipc", "rd, imm20", implAUIPC},
	{riscv.OP_JAL, anyFunct, anyFunct}:   {"jal", "rd, offJ", implJAL},
	{riscv.OP_JALR, 0b000, anyFunct}:     {"jalr", "rd, immI(rs1)", implJALR},

	{riscv.OP_BRANCH, 0b000, anyFunct}: {"beq", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return a == b })},
	{riscv.OP_BRANCH, 0b001, anyFunct}: {"bne", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return a != b })},
	{riscv.OP_BRANCH, 0b100, anyFunct}: {"blt", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return int32(a) < int32(b) })},
	{riscv.OP_BRANCH, 0b101, anyFunct}: {"bge", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return int32(a) >= int32(b) })},
	{riscv.OP_BRANCH, 0b110, anyFunct}: {"bltu", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return a < b })},
	{riscv.OP_BRANCH, 0b111, anyFunct}: {"bgeu", "rs1, rs2, offB", branchImpl(func(a, b uint32) bool { return a >= b })},

	{riscv.OP_LOAD, 0b000, anyFunct}: {"lb", "rd, immI(rs1)", loadImpl(1, true)},
	{riscv.OP_LOAD, 0b001, anyFunct}: {"lh", "rd, immI(rs1)", loadImpl(2, true)},
	{riscv.OP_LOAD, 0b010, anyFunct}: {"lw", "rd, immI(rs1)", loadImpl(4, false)},
	{riscv.OP_LOAD, 0b100, anyFunct}: {"lbu", "rd, immI(rs1)", loadImpl(1, false)},
	{riscv.OP_LOAD, 0b101, anyFunct}: {"lhu", "rd, immI(rs1)", loadImpl(2, false)},

	{riscv.OP_STORE, 0b000, anyFunct}: {"sb", "rs2, immS(rs1)", storeImpl(1)},
	{riscv.OP_STORE, 0b001, anyFunct}: {"sh", "rs2, immS(rs1)", storeImpl(2)},
	{riscv.OP_STORE, 0b010, anyFunct}: {"sw", "rs2, immS(rs1)", storeImpl(4)},

	{riscv.OP_IMM, 0b000, anyFunct}:  {"addi", "rd, rs1, immI", immImpl(opAdd)},
	{riscv.OP_IMM, 0b010, anyFunct}:  {"slti", "rd, rs1, immI", immImpl(opSlt)},
	{riscv.OP_IMM, 0b011, anyFunct}:  {"sltiu", "rd, rs1, immI", immImpl(opSltu)},
	{riscv.OP_IMM, 0b100, anyFunct}:  {"xori", "rd, rs1, immI", immImpl(opXor)},
	{riscv.OP_IMM, 0b110, anyFunct}:  {"ori", "rd, rs1, immI", immImpl(opOr)},
	{riscv.OP_IMM, 0b111, anyFunct}:  {"andi", "rd, rs1, immI", immImpl(opAnd)},
	{riscv.OP_IMM, 0b001, 0b0000000}: {"slli", "rd, rs1, shamt", immImpl(opSll)},
	{riscv.OP_IMM, 0b101, 0b0000000}: {"srli", "rd, rs1, shamt", immImpl(opSrl)},
	{riscv.OP_IMM, 0b101, 0b0100000}: {"srai", "rd, rs1, shamt", immImpl(opSra)},

	{riscv.OP_REG, 0b000, 0b0000000}: {"add", "rd, rs1, rs2", regImpl(opAdd)},
	{riscv.OP_REG, 0b000, 0b0100000}: {"sub", "rd, rs1, rs2", regImpl(opSub)},
	{riscv.OP_REG, 0b001, 0b0000000}: {"sll", "rd, rs1, rs2", regImpl(opSll)},
	{riscv.OP_REG, 0b010, 0b0000000}: {"slt", "rd, rs1, rs2", regImpl(opSlt)},
	{riscv.OP_REG, 0b011, 0b0000000}: {"sltu", "rd, rs1, rs2", regImpl(opSltu)},
	{riscv.OP_REG, 0b100, 0b0000000}: {"xor", "rd, rs1, rs2", regImpl(opXor)},
	{riscv.OP_REG, 0b101, 0b0000000}: {"srl", "rd, rs1, rs2", regImpl(opSrl)},
	{riscv.OP_REG, 0b101, 0b0100000}: {"sra", "rd, rs1, rs2", regImpl(opSra)},
	{riscv.OP_REG, 0b110, 0b0000000}: {"or", "rd, rs1, rs2", regImpl(opOr)},
	{riscv.OP_REG, 0b111, 0b0000000}: {"and", "rd, rs1, rs2", regImpl(opAnd)},

	{riscv.OP_SYSTEM, 0b000, 0}: {"ecall", "", implECALL},
	{riscv.OP_SYSTEM, 0b000, 1}: {"ebreak", "", implEBREAK},
}

// lookupImpl finds the handler for an instruction, trying the most specific
// key first.
func lookupImpl(inst riscv.Instruction) (entry implEntry, ok bool) {
	opcode, funct3, funct7 := inst.Opcode(), inst.Funct3(), inst.Funct7()
	if opcode == riscv.OP_SYSTEM {
		funct7 = inst.Field(riscv.FIELD_IMM_11_0)
	}

	for _, key := range []implKey{
		{opcode, funct3, funct7},
		{opcode, funct3, anyFunct},
		{opcode, anyFunct, anyFunct},
	} {
		entry, ok = implDispatch[key]
		if ok {
			return
		}
	}

	return
}

// Disassemble renders an instruction word as assembly text.
// Words that do not decode are shown as a .word directive.
func Disassemble(inst riscv.Instruction) string {
	entry, ok := lookupImpl(inst)
	if !ok {
		return fmt.Sprintf(".word %#08x", uint32(inst))
	}
	if entry.operands == "" {
		return entry.name
	}

	operands := strings.NewReplacer(
		"rd", riscv.RegisterName(inst.Rd()),
		"rs1", riscv.RegisterName(inst.Rs1()),
		"rs2", riscv.RegisterName(inst.Rs2()),
		"imm20", fmt.Sprintf("%#x", uint32(inst.ImmU())>>12),
		"immI", fmt.Sprintf("%d", inst.ImmI()),
		"immS", fmt.Sprintf("%d", inst.ImmS()),
		"offB", fmt.Sprintf("%d", inst.ImmB()),
		"offJ", fmt.Sprintf("%d", inst.ImmJ()),
		"shamt", fmt.Sprintf("%d", inst.Rs2()),
	).Replace(entry.operands)

	return entry.name + " " + operands
}
