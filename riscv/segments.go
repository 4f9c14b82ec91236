package riscv

import (
	"fmt"
	"iter"
	"maps"
)

// Memory segment layout. Assembled programs and the simulator must agree on
// these; changing them breaks every previously assembled Program.
const (
	TEXT_BEGIN   = uint32(0x0000_0000) // Start of code.
	STATIC_BEGIN = uint32(0x1000_0000) // Start of static data, end of code.
	HEAP_BEGIN   = uint32(0x1000_8000) // Start of heap, end of static data.
	STACK_BEGIN  = uint32(0x7fff_fff0) // Initial stack pointer, grows down.

	INST_WIDTH = 4 // Bytes per encoded instruction.
)

var _segment_defines = map[string]string{
	"TEXT_BEGIN":   fmt.Sprintf("%#x", TEXT_BEGIN),
	"STATIC_BEGIN": fmt.Sprintf("%#x", STATIC_BEGIN),
	"HEAP_BEGIN":   fmt.Sprintf("%#x", HEAP_BEGIN),
	"STACK_BEGIN":  fmt.Sprintf("%#x", STACK_BEGIN),
	"INST_WIDTH":   fmt.Sprintf("%v", INST_WIDTH),
}

// Defines returns the segment layout as assembler equates.
func Defines() iter.Seq2[string, string] {
	return maps.All(_segment_defines)
}
