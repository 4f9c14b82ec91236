package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvsim/riscv"
)

func TestDiff_Apply(t *testing.T) {
	assert := assert.New(t)

	state := NewState()

	RegisterDiff(5, 0x1234).Apply(state)
	assert.Equal(uint32(0x1234), state.GetReg(5))

	RegisterDiff(riscv.REG_ZERO, 0x1234).Apply(state)
	assert.Equal(uint32(0), state.GetReg(riscv.REG_ZERO))

	RegisterDiff(REG_BREAK, riscv.HEAP_BEGIN+8).Apply(state)
	assert.Equal(riscv.HEAP_BEGIN+8, state.Break)

	PCDiff(0x40).Apply(state)
	assert.Equal(uint32(0x40), state.PC)

	MemoryDiff(0x100, 2, 0xabcdef).Apply(state)
	assert.Equal(uint32(0xcdef), state.Mem.LoadWord(0x100))

	MemoryDiff(0x101, 1, 0x12).Apply(state)
	assert.Equal(uint32(0x12ef), state.Mem.LoadWord(0x100))

	assert.Panics(func() { Diff{Kind: DiffKind(99)}.Apply(state) })
}

func TestDiff_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("a0=0x00000005", RegisterDiff(riscv.REG_A0, 5).String())
	assert.Equal("brk=0x10008000", RegisterDiff(REG_BREAK, riscv.HEAP_BEGIN).String())
	assert.Equal("pc=0x00000010", PCDiff(0x10).String())
	assert.Equal("[0x10000000/4]=0x2a", MemoryDiff(riscv.STATIC_BEGIN, 4, 42).String())
	assert.Equal("memory", DIFF_MEMORY.String())
}
