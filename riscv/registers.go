package riscv

import (
	"fmt"
	"strings"
)

// Register indices with a fixed role in the calling convention.
const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
	REG_GP   = 3
	REG_A0   = 10
	REG_A1   = 11
	REG_A7   = 17

	REG_COUNT = 32
)

// abiNames lists the ABI name of each register, by index.
var abiNames = [REG_COUNT]string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// regMap maps every accepted register spelling to its index.
var regMap = func() map[string]int {
	m := make(map[string]int, 2*REG_COUNT+1)
	for n, name := range abiNames {
		m[name] = n
		m[fmt.Sprintf("x%d", n)] = n
	}
	m["fp"] = 8
	return m
}()

// RegisterIndex looks up a register by x-name or ABI name.
func RegisterIndex(name string) (index int, ok bool) {
	index, ok = regMap[strings.ToLower(name)]
	return
}

// RegisterName returns the ABI name of a register index.
func RegisterName(index int) string {
	if index < 0 || index >= REG_COUNT {
		return fmt.Sprintf("x%d", index)
	}
	return abiNames[index]
}
