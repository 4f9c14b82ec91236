// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package simulator executes assembled RV32I programs one instruction at a
// time.
//
// A Simulator loads a riscv.Program into its memory image, then fetches,
// decodes and dispatches instructions through a table of handlers. Handlers
// mutate state only through the simulator accessors, so every register, pc
// and memory change is recorded as a Diff. Each Step pushes the prior values
// onto a History, and Undo pops and applies them to restore the exact state
// before the step.
package simulator
