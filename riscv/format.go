package riscv

import (
	"math/bits"
)

// Field is a mask selecting bits of an instruction word.
type Field uint32

const (
	FIELD_OPCODE    = Field(0b0000000_00000_00000_000_00000_1111111)
	FIELD_RD        = Field(0b0000000_00000_00000_000_11111_0000000)
	FIELD_FUNCT3    = Field(0b0000000_00000_00000_111_00000_0000000)
	FIELD_RS1       = Field(0b0000000_00000_11111_000_00000_0000000)
	FIELD_RS2       = Field(0b0000000_11111_00000_000_00000_0000000)
	FIELD_FUNCT7    = Field(0b1111111_00000_00000_000_00000_0000000)
	FIELD_IMM_11_0  = Field(0b1111111_11111_00000_000_00000_0000000) // I-type
	FIELD_IMM_4_0   = Field(0b0000000_00000_00000_000_11111_0000000) // S-type low
	FIELD_IMM_11_5  = Field(0b1111111_00000_00000_000_00000_0000000) // S-type high
	FIELD_IMM_11_B  = Field(0b0000000_00000_00000_000_00001_0000000) // B-type bit 11
	FIELD_IMM_4_1   = Field(0b0000000_00000_00000_000_11110_0000000) // B-type bits 4:1
	FIELD_IMM_10_5  = Field(0b0111111_00000_00000_000_00000_0000000) // B-type bits 10:5
	FIELD_IMM_12    = Field(0b1000000_00000_00000_000_00000_0000000) // B-type sign
	FIELD_IMM_31_12 = Field(0b1111111_11111_11111_111_00000_0000000) // U-type
	FIELD_IMM_19_12 = Field(0b0000000_00000_11111_111_00000_0000000) // J-type bits 19:12
	FIELD_IMM_11_J  = Field(0b0000000_00001_00000_000_00000_0000000) // J-type bit 11
	FIELD_IMM_10_1  = Field(0b0111111_11110_00000_000_00000_0000000) // J-type bits 10:1
	FIELD_IMM_20    = Field(0b1000000_00000_00000_000_00000_0000000) // J-type sign
	FIELD_ENTIRE    = Field(0xffffffff)
)

// Shift is the bit position of the lowest bit in the field.
func (f Field) Shift() int {
	return bits.TrailingZeros32(uint32(f))
}

// Width is the number of bits covered by the field.
func (f Field) Width() int {
	return bits.OnesCount32(uint32(f))
}

// Format is one of the six RV32 base instruction formats.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_R = Format(0) // R
	FORMAT_I = Format(1) // I
	FORMAT_S = Format(2) // S
	FORMAT_B = Format(3) // B
	FORMAT_U = Format(4) // U
	FORMAT_J = Format(5) // J
)

// Major opcodes of the RV32I base set.
const (
	OP_LOAD   = uint32(0b0000011)
	OP_IMM    = uint32(0b0010011)
	OP_AUIPC  = uint32(0b0010111)
	OP_STORE  = uint32(0b0100011)
	OP_REG    = uint32(0b0110011)
	OP_LUI    = uint32(0b0110111)
	OP_BRANCH = uint32(0b1100011)
	OP_JALR   = uint32(0b1100111)
	OP_JAL    = uint32(0b1101111)
	OP_SYSTEM = uint32(0b1110011)
)
