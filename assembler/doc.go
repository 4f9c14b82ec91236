// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package assembler translates RV32I assembly text into a riscv.Program.
//
// Assembly runs in two passes. The first pass places labels, handles
// directives and expands pseudo-instructions into real instruction token
// lists, advancing the text cursor by one instruction width per expanded
// instruction. The second pass encodes the queued instructions, by which
// time every label in the file has an address. Values of .byte, .half and
// .word are reserved in the first pass and filled in before the second, so
// data may refer to labels defined later in the file.
//
// A load or store written as offset(base) is always the real instruction.
// The forms "lw rd, label" and "sw rs, label, rt" reach a label through an
// auipc pair, with rt as the scratch address register of the store.
//
// Operands may use the %hi, %lo, %pcrel_hi and %pcrel_lo operators, and
// $(...) compile-time expressions evaluated as Starlark with every equate
// and label predeclared.
package assembler
