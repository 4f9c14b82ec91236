// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package riscv describes the RV32 base instruction encoding shared by the
// assembler and the simulator.
//
// An Instruction is only its 32-bit word. Every field (opcode, registers,
// function codes and the format specific immediates) is recomputed from the
// word by masking, so a decoded view can never disagree with the encoding.
//
// The package also fixes the memory segment layout (text, static data and
// stack) that forms the contract between assembled Programs and the
// simulator that loads them.
package riscv
