package riscv

import (
	"encoding/binary"
)

// Relocation is a label reference left for a linker to resolve.
type Relocation struct {
	Label  string // Referenced label.
	Offset uint32 // Address of the instruction to patch.
}

// DebugInfo ties an encoded instruction to its source line.
type DebugInfo struct {
	LineNo int    // 1-based source line number.
	Line   string // Source line text.
}

// Program is the output of the assembler.
//
// It is built append-only during assembly and must not be modified once
// handed to a simulator or linker.
type Program struct {
	Insts       []Instruction     // Encoded text segment.
	DataSegment []byte            // Initialised static data.
	Labels      map[string]uint32 // Exported label addresses.
	Relocations []Relocation      // Pending fixups, in assembly order.
	Lines       []DebugInfo       // Source line of each entry in Insts.
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{
		Labels: map[string]uint32{},
	}
}

// AddInstruction appends an encoded instruction and its origin.
func (prog *Program) AddInstruction(inst Instruction, dbg DebugInfo) {
	prog.Insts = append(prog.Insts, inst)
	prog.Lines = append(prog.Lines, dbg)
}

// AddLabel records a label address. A later call for the same label wins.
func (prog *Program) AddLabel(label string, addr uint32) {
	if prog.Labels == nil {
		prog.Labels = map[string]uint32{}
	}
	prog.Labels[label] = addr
}

// AddRelocation records a pending label fixup.
func (prog *Program) AddRelocation(label string, offset uint32) {
	prog.Relocations = append(prog.Relocations, Relocation{Label: label, Offset: offset})
}

// AddToData appends a byte to the static data segment.
func (prog *Program) AddToData(datum byte) {
	prog.DataSegment = append(prog.DataSegment, datum)
}

// Label returns the address of an exported label.
func (prog *Program) Label(label string) (addr uint32, ok bool) {
	addr, ok = prog.Labels[label]
	return
}

// TextSize is the size in bytes of the text segment.
func (prog *Program) TextSize() uint32 {
	return uint32(len(prog.Insts)) * INST_WIDTH
}

// Debug returns the source line for a text address.
func (prog *Program) Debug(pc uint32) (dbg DebugInfo, ok bool) {
	offset := pc - TEXT_BEGIN
	if offset%INST_WIDTH != 0 {
		return
	}
	index := int(offset / INST_WIDTH)
	if index >= len(prog.Lines) {
		return
	}

	return prog.Lines[index], true
}

// Binary returns the little-endian image of the text segment.
func (prog *Program) Binary() (bin []byte) {
	bin = make([]byte, 0, prog.TextSize())
	for _, inst := range prog.Insts {
		bin = binary.LittleEndian.AppendUint32(bin, uint32(inst))
	}
	return
}
