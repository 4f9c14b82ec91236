package simulator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rvsim/assembler"
	"github.com/ezrec/rvsim/riscv"
)

func load(t *testing.T, program ...string) (sim *Simulator, output *bytes.Buffer) {
	asm := &assembler.Assembler{}
	for equ, value := range Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Assemble(strings.Join(program, "\n"))
	require.NoError(t, err)

	output = &bytes.Buffer{}
	sim = NewSimulator(prog)
	sim.Stdout = output
	return
}

// snapshot is a deep copy of the simulator state.
func snapshot(sim *Simulator) (state State) {
	state = *sim.state
	state.Mem = NewMemory()
	for index, page := range sim.state.Mem.pages {
		copied := *page
		state.Mem.pages[index] = &copied
	}
	return
}

// sameMemory compares two images, treating unallocated pages as zero.
func sameMemory(a, b *Memory) bool {
	var zero memoryPage
	pageOf := func(mem *Memory, index uint32) *memoryPage {
		if page, ok := mem.pages[index]; ok {
			return page
		}
		return &zero
	}
	for _, pair := range [][2]*Memory{{a, b}, {b, a}} {
		for index := range pair[0].pages {
			if *pageOf(pair[0], index) != *pageOf(pair[1], index) {
				return false
			}
		}
	}
	return true
}

func assertSameState(t *testing.T, want State, sim *Simulator) {
	assert := assert.New(t)
	assert.Equal(want.Reg, sim.state.Reg)
	assert.Equal(want.PC, sim.state.PC)
	assert.Equal(want.Break, sim.state.Break)
	assert.True(sameMemory(want.Mem, sim.state.Mem))
}

func TestSimulator(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"addi x1, x0, 5",
	)

	assert.False(sim.IsDone())
	assert.Equal(uint32(riscv.TEXT_BEGIN), sim.GetPC())

	err := sim.Run()
	assert.NoError(err)

	assert.Equal(uint32(5), sim.GetReg(1))
	assert.Equal(riscv.TEXT_BEGIN+riscv.INST_WIDTH, sim.GetPC())
	assert.True(sim.IsDone())
	assert.Equal(1, sim.Cycles())
}

func TestSimulator_Load(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		".data",
		"value: .word 0x12345678",
		`msg: .asciiz "ok"`,
		".text",
		"nop",
		"nop",
	)

	assert.Equal(riscv.STACK_BEGIN, sim.GetReg(riscv.REG_SP))
	assert.Equal(riscv.STATIC_BEGIN, sim.GetReg(riscv.REG_GP))
	assert.Equal(uint32(0x12345678), sim.LoadWord(riscv.STATIC_BEGIN))
	assert.Equal(uint8('o'), sim.LoadByte(riscv.STATIC_BEGIN+4))
	assert.Equal(uint8(0), sim.LoadByte(riscv.STATIC_BEGIN+6))
	assert.Equal(uint32(0x00000013), sim.LoadWord(riscv.TEXT_BEGIN+4))
	assert.NotNil(sim.Program())
}

func TestSimulator_Diffs(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"addi a0, zero, 7",
		"addi zero, a0, 1",
		"sw a0, -4(sp)",
	)

	diffs, err := sim.Step()
	assert.NoError(err)
	assert.Equal([]Diff{RegisterDiff(riscv.REG_A0, 7), PCDiff(4)}, diffs)
	pre, ok := sim.history.Peek()
	assert.True(ok)
	assert.Equal([]Diff{RegisterDiff(riscv.REG_A0, 0), PCDiff(0)}, pre)

	// Writes to x0 have no effect and no diff.
	diffs, err = sim.Step()
	assert.NoError(err)
	assert.Equal([]Diff{PCDiff(8)}, diffs)
	assert.Equal(uint32(0), sim.GetReg(riscv.REG_ZERO))

	diffs, err = sim.Step()
	assert.NoError(err)
	assert.Equal([]Diff{MemoryDiff(riscv.STACK_BEGIN-4, 4, 7), PCDiff(12)}, diffs)
	pre, _ = sim.history.Peek()
	assert.Equal([]Diff{MemoryDiff(riscv.STACK_BEGIN-4, 4, 0), PCDiff(8)}, pre)

	assert.Equal(3, sim.history.Len())
	assert.True(sim.IsDone())

	// Steps are not cycles; only Run counts.
	assert.Equal(0, sim.Cycles())

	_, err = sim.Step()
	assert.ErrorIs(err, ErrHalted)
}

func TestSimulator_Undo(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"main: li t0, 0x12345678",
		"      addi sp, sp, -16",
		"      sw t0, 4(sp)",
		"      sb t0, 0(sp)",
		"      lw t1, 4(sp)",
		"      lb t2, 0(sp)",
		"      jal ra, func",
		"      j end",
		"func: sh t0, 8(sp)",
		"      ret",
		"end:",
	)

	assert.False(sim.Undo())

	before := snapshot(sim)

	steps := 0
	for !sim.IsDone() {
		_, err := sim.Step()
		require.NoError(t, err)
		steps++
	}
	assert.Equal(11, steps)

	sp := riscv.STACK_BEGIN - 16
	assert.Equal(uint32(0x12345678), sim.GetReg(6))
	assert.Equal(uint32(0x78), sim.GetReg(7))
	assert.Equal(uint32(0x12345678), sim.LoadWord(sp+4))
	assert.Equal(uint8(0x78), sim.LoadByte(sp))
	assert.Equal(uint16(0x5678), sim.LoadHalfWord(sp+8))

	for range steps {
		assert.True(sim.Undo())
	}
	assert.False(sim.Undo())

	assertSameState(t, before, sim)
	assert.Equal(uint32(0), sim.LoadWord(sp+4))
}

func TestSimulator_UndoRepeatedLocation(t *testing.T) {
	assert := assert.New(t)

	prog := riscv.NewProgram()
	prog.AddInstruction(0, riscv.DebugInfo{})
	sim := NewSimulator(prog)

	// One step touching the same register twice restores the first value.
	sim.SetReg(riscv.REG_A0, 1)
	sim.SetReg(riscv.REG_A0, 2)
	sim.history.Push(sim.preInstruction)

	assert.True(sim.Undo())
	assert.Equal(uint32(0), sim.GetReg(riscv.REG_A0))
}

func TestSimulator_Runaway(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"self: j self",
	)
	sim.MaxCycles = 50

	for range sim.MaxCycles {
		assert.False(sim.IsDone())
		_, err := sim.Step()
		assert.NoError(err)
		assert.Equal(uint32(0), sim.GetPC())
	}

	err := sim.Run()
	assert.ErrorIs(err, ErrCycleLimit)
	assert.True(sim.IsDone())
	assert.Equal(sim.MaxCycles+1, sim.Cycles())
	assert.Equal(uint32(0), sim.GetPC())
}

func TestSimulator_Invalid(t *testing.T) {
	assert := assert.New(t)

	prog := riscv.NewProgram()
	prog.AddInstruction(0, riscv.DebugInfo{LineNo: 3, Line: ".word 0"})

	sim := NewSimulator(prog)
	assert.Equal(INVALID_FAIL, sim.OnInvalid)

	diffs, err := sim.Step()
	assert.Nil(diffs)
	assert.ErrorIs(err, ErrInstructionInvalid)

	var rerr *ErrRuntime
	if assert.True(errors.As(err, &rerr)) {
		assert.Equal(uint32(0), rerr.PC)
		assert.Equal(3, rerr.LineNo)
	}
	assert.Equal(uint32(0), sim.GetPC())
	assert.False(sim.Undo())
	assert.ErrorIs(sim.Run(), ErrInstructionInvalid)

	sim.OnInvalid = INVALID_SKIP
	diffs, err = sim.Step()
	assert.NoError(err)
	assert.Equal([]Diff{PCDiff(4)}, diffs)
	assert.True(sim.IsDone())

	assert.True(sim.Undo())
	assert.Equal(uint32(0), sim.GetPC())
}

func TestSimulator_Instructions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		program []string
		reg     int
		value   uint32
	}){
		{[]string{"li t0, -1", "srli a0, t0, 28"}, riscv.REG_A0, 0xf},
		{[]string{"li t0, -16", "srai a0, t0, 2"}, riscv.REG_A0, 0xfffffffc},
		{[]string{"li t0, 3", "slli a0, t0, 4"}, riscv.REG_A0, 0x30},
		{[]string{"li t0, 1", "li t1, 33", "sll a0, t0, t1"}, riscv.REG_A0, 2},
		{[]string{"li t0, -16", "li t1, 34", "sra a0, t0, t1"}, riscv.REG_A0, 0xfffffffc},
		{[]string{"li t0, -16", "li t1, 2", "srl a0, t0, t1"}, riscv.REG_A0, 0x3ffffffc},
		{[]string{"li t0, -1", "li t1, 1", "slt a0, t0, t1"}, riscv.REG_A0, 1},
		{[]string{"li t0, -1", "li t1, 1", "sltu a0, t0, t1"}, riscv.REG_A0, 0},
		{[]string{"li t0, -1", "slti a0, t0, 0"}, riscv.REG_A0, 1},
		{[]string{"li t0, 5", "sltiu a0, t0, -1"}, riscv.REG_A0, 1},
		{[]string{"li t0, 0xf0", "xori a0, t0, -1"}, riscv.REG_A0, 0xffffff0f},
		{[]string{"li t0, 0xf0", "ori a0, t0, 0x0f"}, riscv.REG_A0, 0xff},
		{[]string{"li t0, 0xf0", "andi a0, t0, 0x3c"}, riscv.REG_A0, 0x30},
		{[]string{"li t0, 6", "li t1, 3", "xor a0, t0, t1"}, riscv.REG_A0, 5},
		{[]string{"li t0, 6", "li t1, 3", "or a0, t0, t1"}, riscv.REG_A0, 7},
		{[]string{"li t0, 6", "li t1, 3", "and a0, t0, t1"}, riscv.REG_A0, 2},
		{[]string{"li t0, 6", "li t1, 3", "sub a0, t1, t0"}, riscv.REG_A0, 0xfffffffd},
		{[]string{"li t0, 0x7fffffff", "addi a0, t0, 1"}, riscv.REG_A0, 0x80000000},
		{[]string{"li a0, 0x12345678"}, riscv.REG_A0, 0x12345678},
		{[]string{"li a0, 0xfffff800"}, riscv.REG_A0, 0xfffff800},
		{[]string{"lui a0, 0x12345"}, riscv.REG_A0, 0x12345000},
		{[]string{"nop", "auipc a0, 1"}, riscv.REG_A0, 0x1004},
		{[]string{"li t0, 0x80", "sb t0, 0(sp)", "lb a0, 0(sp)"}, riscv.REG_A0, 0xffffff80},
		{[]string{"li t0, 0x80", "sb t0, 0(sp)", "lbu a0, 0(sp)"}, riscv.REG_A0, 0x80},
		{[]string{"li t0, 0x8001", "sh t0, -2(sp)", "lh a0, -2(sp)"}, riscv.REG_A0, 0xffff8001},
		{[]string{"li t0, 0x8001", "sh t0, -2(sp)", "lhu a0, -2(sp)"}, riscv.REG_A0, 0x8001},
		{[]string{"la a0, value", "lw a0, 0(a0)", ".data", "value: .word -3"}, riscv.REG_A0, 0xfffffffd},
		{[]string{"lw a0, value", ".data", "value: .word 99"}, riscv.REG_A0, 99},
		{[]string{"li t1, 7", "sw t1, value, t0", "lw a0, value", ".data", "value: .word 0"}, riscv.REG_A0, 7},
		{[]string{"la t0, target", "jalr ra, t0, 0", "li a0, 1", "target: nop"}, riscv.REG_RA, 12},
		{[]string{"la t0, target", "jalr t0, t0, 0", "li a0, 1", "target: nop"}, 5, 12},
		{[]string{"la t0, target", "jalr t0, t0, 0", "li a0, 1", "target: nop"}, riscv.REG_A0, 0},
		{[]string{"jal ra, next", "li a0, 1", "next: nop"}, riscv.REG_RA, 4},
		{[]string{"call func", "j end", "func: li a0, 9", "ret", "end:"}, riscv.REG_A0, 9},
	}

	for _, entry := range table {
		sim, _ := load(t, entry.program...)
		err := sim.Run()
		if !assert.NoError(err, entry.program) {
			continue
		}
		assert.Equal(entry.value, sim.GetReg(entry.reg), entry.program)
	}
}

func TestSimulator_Branches(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		branch string
		taken  bool
	}){
		{"beq t0, t0, skip", true},
		{"beq t0, t1, skip", false},
		{"bne t0, t1, skip", true},
		{"bne t1, t1, skip", false},
		{"blt t0, t1, skip", true},
		{"blt t1, t0, skip", false},
		{"bge t1, t0, skip", true},
		{"bge t0, t0, skip", true},
		{"bge t0, t1, skip", false},
		{"bltu t1, t0, skip", true},
		{"bltu t0, t1, skip", false},
		{"bgeu t0, t1, skip", true},
		{"bgeu t1, t0, skip", false},
		{"bgt t1, t0, skip", true},
		{"ble t1, t0, skip", false},
		{"bgtu t0, t1, skip", true},
		{"bleu t0, t1, skip", false},
		{"beqz zero, skip", true},
		{"bnez t1, skip", true},
		{"bltz t0, skip", true},
		{"bgez t0, skip", false},
		{"blez zero, skip", true},
		{"bgtz t1, skip", true},
	}

	for _, entry := range table {
		sim, _ := load(t,
			"li t0, -1",
			"li t1, 1",
			entry.branch,
			"li a0, 1",
			"skip: nop",
		)
		err := sim.Run()
		if !assert.NoError(err, entry.branch) {
			continue
		}

		expected := uint32(1)
		if entry.taken {
			expected = 0
		}
		assert.Equal(expected, sim.GetReg(riscv.REG_A0), entry.branch)
	}

	// Backward branches loop.
	sim, _ := load(t,
		"      li t0, 5",
		"loop: addi a0, a0, 2",
		"      addi t0, t0, -1",
		"      bnez t0, loop",
	)
	assert.NoError(sim.Run())
	assert.Equal(uint32(10), sim.GetReg(riscv.REG_A0))
	assert.Equal(1+3*5, sim.Cycles())
}

func TestSimulator_Ecall(t *testing.T) {
	assert := assert.New(t)

	sim, output := load(t,
		".data",
		`msg: .asciiz "hi"`,
		".text",
		"li a7, ECALL_PRINT_STRING",
		"la a0, msg",
		"ecall",
		"li a0, -42",
		"li a7, ECALL_PRINT_INT",
		"ecall",
		"li a0, '\\n'",
		"li a7, ECALL_PRINT_CHAR",
		"ecall",
		"li a0, 3",
		"li a7, ECALL_EXIT_CODE",
		"exit: ecall",
		"addi a1, zero, 1",
	)

	err := sim.Run()
	assert.NoError(err)
	assert.Equal("hi-42\n", output.String())
	assert.Equal(int32(3), sim.ExitCode())
	assert.True(sim.IsDone())
	assert.Equal(uint32(0), sim.GetReg(riscv.REG_A1))

	// Exit is undoable.
	assert.True(sim.Undo())
	assert.False(sim.IsDone())
	exit, _ := sim.Program().Label("exit")
	assert.Equal(exit, sim.GetPC())
}

func TestSimulator_EcallExit(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"li a7, ECALL_EXIT",
		"ecall",
		"li a1, 1",
	)

	assert.NoError(sim.Run())
	assert.Equal(int32(0), sim.ExitCode())
	assert.Equal(uint32(0), sim.GetReg(riscv.REG_A1))
	assert.Equal(2, sim.Cycles())
}

func TestSimulator_Sbrk(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		"li a0, 16",
		"li a7, ECALL_SBRK",
		"ecall",
		"mv s0, a0",
		"li a0, 8",
		"ecall",
		"sw a0, 0(s0)",
	)

	assert.NoError(sim.Run())
	assert.Equal(riscv.HEAP_BEGIN, sim.GetReg(8))
	assert.Equal(riscv.HEAP_BEGIN+16, sim.GetReg(riscv.REG_A0))
	assert.Equal(riscv.HEAP_BEGIN+24, sim.GetReg(REG_BREAK))
	assert.Equal(riscv.HEAP_BEGIN+16, sim.LoadWord(riscv.HEAP_BEGIN))

	assert.True(sim.Undo())
	assert.True(sim.Undo())
	assert.Equal(riscv.HEAP_BEGIN+16, sim.GetReg(REG_BREAK))
}

func TestSimulator_Reset(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t,
		".data",
		"value: .word 7",
		".text",
		"li a0, 3",
		"la t0, value",
		"sw a0, 0(t0)",
		"li a7, ECALL_EXIT_CODE",
		"ecall",
	)
	initial := snapshot(sim)

	assert.NoError(sim.Run())
	assert.Equal(int32(3), sim.ExitCode())
	assert.Equal(uint32(3), sim.LoadWord(riscv.STATIC_BEGIN))
	assert.True(sim.IsDone())

	sim.Reset()
	assertSameState(t, initial, sim)
	assert.Equal(uint32(7), sim.LoadWord(riscv.STATIC_BEGIN))
	assert.Equal(0, sim.Cycles())
	assert.Equal(int32(0), sim.ExitCode())
	assert.False(sim.IsDone())
	assert.False(sim.Undo())

	assert.NoError(sim.Run())
	assert.Equal(int32(3), sim.ExitCode())
}

func TestSimulator_Errors(t *testing.T) {
	assert := assert.New(t)

	sim, output := load(t,
		"nop",
		"ebreak",
	)
	err := sim.Run()
	assert.ErrorIs(err, ErrBreakpoint)
	var rerr *ErrRuntime
	if assert.ErrorAs(err, &rerr) {
		assert.Equal(2, rerr.LineNo)
		assert.Equal(uint32(4), rerr.PC)
	}
	assert.Equal(uint32(4), sim.GetPC())
	assert.Empty(output.String())

	sim, _ = load(t,
		"li a7, 99",
		"ecall",
	)
	err = sim.Run()
	assert.ErrorIs(err, ErrEcallUnknown)
	assert.Equal(uint32(4), sim.GetPC())
	assert.Equal(1, sim.history.Len())
}

func TestSimulator_Verbose(t *testing.T) {
	assert := assert.New(t)

	sim, _ := load(t, "addi a0, zero, 1")
	sim.Verbose = true
	assert.NoError(sim.Run())
	assert.Equal(uint32(1), sim.GetReg(riscv.REG_A0))
}

func FuzzUndo(f *testing.F) {
	f.Add([]byte{0x93, 0x00, 0x50, 0x00})
	f.Add([]byte{
		0x13, 0x01, 0x01, 0xff, // addi sp, sp, -16
		0x23, 0x22, 0x11, 0x00, // sw ra, 4(sp)
		0xef, 0x00, 0x80, 0x00, // jal ra, 8
		0x73, 0x00, 0x10, 0x00, // ebreak
		0x33, 0x05, 0xb5, 0x00, // add a0, a0, a1
	})

	f.Fuzz(func(t *testing.T, code []byte) {
		prog := riscv.NewProgram()
		for n := 0; n+4 <= len(code) && n < 256; n += 4 {
			prog.AddInstruction(riscv.Instruction(binary.LittleEndian.Uint32(code[n:])), riscv.DebugInfo{})
		}

		sim := NewSimulator(prog)
		sim.Stdout = io.Discard
		sim.OnInvalid = INVALID_SKIP

		before := snapshot(sim)

		steps := 0
		for !sim.IsDone() && steps < 64 {
			_, err := sim.Step()
			if err != nil {
				break
			}
			steps++
		}

		for range steps {
			assert.True(t, sim.Undo())
		}
		assert.False(t, sim.Undo())

		assertSameState(t, before, sim)
	})
}
