package riscv

import (
	"fmt"
)

// Instruction is a single encoded 32-bit RV32 instruction word.
type Instruction uint32

// Field extracts the unsigned value of a field.
func (inst Instruction) Field(f Field) uint32 {
	return (uint32(inst) & uint32(f)) >> f.Shift()
}

// SetField returns the instruction with the field replaced by value.
// Bits of value beyond the field width are discarded.
func (inst Instruction) SetField(f Field, value uint32) Instruction {
	word := uint32(inst) &^ uint32(f)
	word |= (value << f.Shift()) & uint32(f)
	return Instruction(word)
}

func (inst Instruction) Opcode() uint32 { return inst.Field(FIELD_OPCODE) }
func (inst Instruction) Rd() int        { return int(inst.Field(FIELD_RD)) }
func (inst Instruction) Funct3() uint32 { return inst.Field(FIELD_FUNCT3) }
func (inst Instruction) Rs1() int       { return int(inst.Field(FIELD_RS1)) }
func (inst Instruction) Rs2() int       { return int(inst.Field(FIELD_RS2)) }
func (inst Instruction) Funct7() uint32 { return inst.Field(FIELD_FUNCT7) }

// signExtend treats the low width bits of value as a two's complement number.
func signExtend(value uint32, width int) int32 {
	shift := 32 - width
	return int32(value<<shift) >> shift
}

// ImmI returns the sign extended I-type immediate.
func (inst Instruction) ImmI() int32 {
	return signExtend(inst.Field(FIELD_IMM_11_0), 12)
}

// ImmS returns the sign extended S-type immediate.
func (inst Instruction) ImmS() int32 {
	imm := inst.Field(FIELD_IMM_11_5)<<5 | inst.Field(FIELD_IMM_4_0)
	return signExtend(imm, 12)
}

// ImmB returns the sign extended B-type branch offset.
func (inst Instruction) ImmB() int32 {
	imm := inst.Field(FIELD_IMM_12)<<12 |
		inst.Field(FIELD_IMM_11_B)<<11 |
		inst.Field(FIELD_IMM_10_5)<<5 |
		inst.Field(FIELD_IMM_4_1)<<1
	return signExtend(imm, 13)
}

// ImmU returns the U-type immediate, already shifted into bits 31:12.
func (inst Instruction) ImmU() int32 {
	return int32(inst.Field(FIELD_IMM_31_12) << 12)
}

// ImmJ returns the sign extended J-type jump offset.
func (inst Instruction) ImmJ() int32 {
	imm := inst.Field(FIELD_IMM_20)<<20 |
		inst.Field(FIELD_IMM_19_12)<<12 |
		inst.Field(FIELD_IMM_11_J)<<11 |
		inst.Field(FIELD_IMM_10_1)<<1
	return signExtend(imm, 21)
}

// Format returns the encoding format implied by the major opcode.
func (inst Instruction) Format() (format Format, ok bool) {
	ok = true
	switch inst.Opcode() {
	case OP_REG:
		format = FORMAT_R
	case OP_IMM, OP_LOAD, OP_JALR, OP_SYSTEM:
		format = FORMAT_I
	case OP_STORE:
		format = FORMAT_S
	case OP_BRANCH:
		format = FORMAT_B
	case OP_LUI, OP_AUIPC:
		format = FORMAT_U
	case OP_JAL:
		format = FORMAT_J
	default:
		ok = false
	}
	return
}

// String returns the raw word and its common fields.
func (inst Instruction) String() string {
	return fmt.Sprintf("%08x op:%07b rd:%d f3:%d rs1:%d rs2:%d f7:%d",
		uint32(inst), inst.Opcode(), inst.Rd(), inst.Funct3(), inst.Rs1(), inst.Rs2(), inst.Funct7())
}

// MakeR creates a register-register instruction.
func MakeR(opcode, funct3, funct7 uint32, rd, rs1, rs2 int) Instruction {
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_RD, uint32(rd)).
		SetField(FIELD_FUNCT3, funct3).
		SetField(FIELD_RS1, uint32(rs1)).
		SetField(FIELD_RS2, uint32(rs2)).
		SetField(FIELD_FUNCT7, funct7)
}

// MakeI creates an immediate, load, jalr or system instruction.
func MakeI(opcode, funct3 uint32, rd, rs1 int, imm int32) Instruction {
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_RD, uint32(rd)).
		SetField(FIELD_FUNCT3, funct3).
		SetField(FIELD_RS1, uint32(rs1)).
		SetField(FIELD_IMM_11_0, uint32(imm))
}

// MakeS creates a store instruction.
func MakeS(opcode, funct3 uint32, rs1, rs2 int, imm int32) Instruction {
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_FUNCT3, funct3).
		SetField(FIELD_RS1, uint32(rs1)).
		SetField(FIELD_RS2, uint32(rs2)).
		SetField(FIELD_IMM_4_0, uint32(imm)).
		SetField(FIELD_IMM_11_5, uint32(imm)>>5)
}

// MakeB creates a conditional branch. The offset's bit 0 is not encoded.
func MakeB(opcode, funct3 uint32, rs1, rs2 int, offset int32) Instruction {
	imm := uint32(offset)
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_FUNCT3, funct3).
		SetField(FIELD_RS1, uint32(rs1)).
		SetField(FIELD_RS2, uint32(rs2)).
		SetField(FIELD_IMM_11_B, imm>>11).
		SetField(FIELD_IMM_4_1, imm>>1).
		SetField(FIELD_IMM_10_5, imm>>5).
		SetField(FIELD_IMM_12, imm>>12)
}

// MakeU creates an upper immediate instruction from the 20-bit value.
func MakeU(opcode uint32, rd int, imm20 int32) Instruction {
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_RD, uint32(rd)).
		SetField(FIELD_IMM_31_12, uint32(imm20))
}

// MakeJ creates a jump-and-link. The offset's bit 0 is not encoded.
func MakeJ(opcode uint32, rd int, offset int32) Instruction {
	imm := uint32(offset)
	return Instruction(0).
		SetField(FIELD_OPCODE, opcode).
		SetField(FIELD_RD, uint32(rd)).
		SetField(FIELD_IMM_19_12, imm>>12).
		SetField(FIELD_IMM_11_J, imm>>11).
		SetField(FIELD_IMM_10_1, imm>>1).
		SetField(FIELD_IMM_20, imm>>20)
}
