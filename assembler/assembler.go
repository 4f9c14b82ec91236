// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package assembler

import (
	"fmt"
	"io"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/rvsim/internal"
	"github.com/ezrec/rvsim/riscv"
)

// Predefined system equates
var sysEquate = func() map[string]string {
	equ := map[string]string{
		"LINENO": "0",
	}
	maps.Insert(equ, riscv.Defines())
	return equ
}()

// Assembler holds the configuration for assembling RV32I source text.
//
// It keeps no state between calls; each Assemble builds a fresh context.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble assembles source text with the default configuration.
func Assemble(text string) (prog *riscv.Program, err error) {
	asm := &Assembler{}
	return asm.Assemble(text)
}

// Parse assembles an input stream.
func (asm *Assembler) Parse(input io.Reader) (prog *riscv.Program, err error) {
	text, err := io.ReadAll(input)
	if err != nil {
		return
	}

	return asm.Assemble(string(text))
}

// Assemble assembles source text into a Program.
// On error no partial program is returned.
func (asm *Assembler) Assemble(text string) (prog *riscv.Program, err error) {
	file := newAssemblyFile(asm, text)

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: file.lineNo, Line: file.line, Err: err}
			prog = nil
		}
	}()

	err = file.passOne()
	if err != nil {
		return
	}

	err = file.passTwo()
	if err != nil {
		return
	}

	prog = file.prog
	return
}

// pendingInst is a real instruction queued by pass one.
type pendingInst struct {
	tokens []string
	addr   uint32
	lineNo int
	line   string
}

// pendingData is a data directive value resolved once all labels are known.
type pendingData struct {
	expr   string
	addr   uint32
	width  int
	lineNo int
	line   string
}

// assemblyFile is the bookkeeping for a single Assemble call.
type assemblyFile struct {
	verbose bool
	text    string
	prog    *riscv.Program

	currentTextOffset uint32
	currentDataOffset uint32
	inTextSegment     bool

	talInstructions []pendingInst
	dataFixups      []pendingData
	symbolTable     map[string]uint32   // Exported labels.
	localTable      map[string]uint32   // Private labels.
	relocationTable []riscv.Relocation  // Label references for the linker.
	external        map[string]struct{} // Relocated labels not defined here.
	equates         map[string]string

	constOnly   bool // Labels are not visible to evaluate.
	baseOperand bool // The line has an offset(base) operand.

	lineNo int
	line   string
}

func newAssemblyFile(asm *Assembler, text string) *assemblyFile {
	file := &assemblyFile{
		verbose:           asm.Verbose,
		text:              text,
		prog:              riscv.NewProgram(),
		currentTextOffset: riscv.TEXT_BEGIN,
		currentDataOffset: riscv.STATIC_BEGIN,
		inTextSegment:     true,
		symbolTable:       map[string]uint32{},
		localTable:        map[string]uint32{},
		external:          map[string]struct{}{},
		equates:           maps.Clone(sysEquate),
	}
	maps.Copy(file.equates, asm.predefine)

	return file
}

func (file *assemblyFile) passOne() (err error) {
	for n, line := range strings.Split(file.text, "\n") {
		line = strings.TrimRight(line, "\r")
		file.lineNo = n + 1
		file.line = line
		file.equates["LINENO"] = fmt.Sprintf("%v", file.lineNo)

		if file.verbose {
			log.Printf("%v: %v\n", file.lineNo, line)
		}

		offset := file.getOffset()

		var label string
		var args []string
		label, args, err = LexLine(line)
		if err != nil {
			return
		}

		if label != "" {
			file.addLabel(label, offset)
		}

		if len(args) == 0 || args[0] == "" {
			continue // empty line
		}

		if isAssemblerDirective(args[0]) {
			err = file.parseAssemblerDirective(args, line)
			if err != nil {
				return
			}
		} else {
			file.baseOperand = hasBaseOperand(line)
			expandedInsts := file.replacePseudoInstructions(args)
			for _, tokens := range expandedInsts {
				file.talInstructions = append(file.talInstructions, pendingInst{
					tokens: tokens,
					addr:   file.currentTextOffset,
					lineNo: file.lineNo,
					line:   line,
				})
				file.currentTextOffset += riscv.INST_WIDTH
			}
		}

		err = file.checkSegments()
		if err != nil {
			return
		}
	}

	for label, offset := range internal.IterSorted(file.symbolTable) {
		file.prog.AddLabel(label, offset)
	}

	for _, reloc := range file.relocationTable {
		if _, ok := file.lookupLabel(reloc.Label); ok {
			continue
		}
		file.external[reloc.Label] = struct{}{}
		file.prog.AddRelocation(reloc.Label, reloc.Offset)
	}

	return
}

func (file *assemblyFile) passTwo() (err error) {
	err = file.resolveData()
	if err != nil {
		return
	}

	for _, inst := range file.talInstructions {
		file.lineNo = inst.lineNo
		file.line = inst.line
		file.equates["LINENO"] = fmt.Sprintf("%v", file.lineNo)

		err = file.addInstruction(inst)
		if err != nil {
			return
		}
	}

	return
}

// addInstruction encodes a queued instruction into the program.
func (file *assemblyFile) addInstruction(pending pendingInst) (err error) {
	tokens := pending.tokens
	if len(tokens) < 1 || tokens[0] == "" {
		return
	}

	cmd := getInstruction(tokens)
	disp, ok := instructionDispatch[cmd]
	if !ok {
		err = fmt.Errorf("%w %v", ErrInstructionUnknown, cmd)
		return
	}

	inst, err := disp.writer(file, &disp, pending.addr, tokens[1:])
	if err != nil {
		err = fmt.Errorf("%v: %w", cmd, err)
		return
	}

	if format, ok := inst.Format(); !ok || format != disp.format {
		err = fmt.Errorf("%w: %v %v", ErrEncoding, cmd, disp.format)
		return
	}

	if file.verbose {
		log.Printf("%08x: %08x %v %v", pending.addr, uint32(inst), disp.format, tokens)
	}

	file.prog.AddInstruction(inst, riscv.DebugInfo{LineNo: pending.lineNo, Line: pending.line})

	return
}

// replacePseudoInstructions expands a pseudo-instruction, or passes the
// tokens through unchanged when they are not one.
func (file *assemblyFile) replacePseudoInstructions(tokens []string) [][]string {
	pw, ok := pseudoDispatch[getInstruction(tokens)]
	if !ok {
		return [][]string{tokens}
	}

	insts, ok := pw(file, tokens)
	if !ok {
		// Not this pseudo-instruction's operand shape.
		return [][]string{tokens}
	}

	return insts
}

// parseAssemblerDirective handles a line starting with a directive.
func (file *assemblyFile) parseAssemblerDirective(args []string, line string) (err error) {
	directive := strings.ToLower(args[0])

	switch directive {
	case ".data":
		file.inTextSegment = false
	case ".text":
		file.inTextSegment = true
	case ".byte":
		err = file.addData(args[1:], 1)
	case ".half":
		err = file.addData(args[1:], 2)
	case ".word":
		err = file.addData(args[1:], 4)
	case ".asciiz":
		asciiString, ok := LexAsciiz(line)
		if !ok {
			err = fmt.Errorf("%w: %v", ErrStringMissing, line)
			return
		}

		for _, c := range asciiString {
			if c > 127 {
				err = fmt.Errorf("%w: %q", ErrStringNonAscii, c)
				return
			}
			file.prog.AddToData(byte(c))
			file.currentDataOffset++
		}

		file.prog.AddToData(0)
		file.currentDataOffset++
	case ".equ":
		if len(args) != 3 || !isSymbolName(args[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := file.equates[args[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		file.equates[args[1]] = args[2]
	case ".globl", ".global":
		// Labels share a single namespace; only the private prefix hides them.
		if len(args) < 2 {
			err = fmt.Errorf("%w: %v", ErrDirectiveSyntax, directive)
			return
		}
	default:
		err = fmt.Errorf("%w %v", ErrDirectiveUnknown, directive)
	}

	return
}

// addData reserves little-endian values of the given width in the data
// segment. The values are filled in by resolveData.
func (file *assemblyFile) addData(args []string, width int) (err error) {
	for _, arg := range args {
		file.dataFixups = append(file.dataFixups, pendingData{
			expr:   arg,
			addr:   file.currentDataOffset,
			width:  width,
			lineNo: file.lineNo,
			line:   file.line,
		})
		for range width {
			file.prog.AddToData(0)
			file.currentDataOffset++
		}
	}

	return
}

// resolveData evaluates the reserved data values against the final labels.
func (file *assemblyFile) resolveData() (err error) {
	for _, datum := range file.dataFixups {
		file.lineNo = datum.lineNo
		file.line = datum.line
		file.equates["LINENO"] = fmt.Sprintf("%v", file.lineNo)

		var value int64
		value, err = file.evaluate(datum.expr, datum.addr)
		if err != nil {
			return
		}

		bits := 8 * datum.width
		if value < -(1<<(bits-1)) || value >= (1<<bits) {
			err = fmt.Errorf("%w '%v'", ErrDataRange, datum.expr)
			return
		}

		index := datum.addr - riscv.STATIC_BEGIN
		for n := range datum.width {
			file.prog.DataSegment[index+uint32(n)] = byte(value >> (8 * n))
		}
	}

	return
}

// addLabel places a label at the current offset. A later definition wins.
func (file *assemblyFile) addLabel(label string, offset uint32) {
	if isGlobalLabel(label) {
		file.symbolTable[label] = offset
	} else {
		file.localTable[label] = offset
	}
}

// addRelocation records a label reference at the current text offset.
func (file *assemblyFile) addRelocation(label string) {
	file.relocationTable = append(file.relocationTable, riscv.Relocation{
		Label:  label,
		Offset: file.currentTextOffset,
	})
}

// lookupLabel resolves an exported or private label.
func (file *assemblyFile) lookupLabel(label string) (addr uint32, ok bool) {
	addr, ok = file.symbolTable[label]
	if !ok {
		addr, ok = file.localTable[label]
	}
	return
}

// checkSegments ensures both cursors are within their segments.
func (file *assemblyFile) checkSegments() error {
	if file.currentTextOffset > riscv.STATIC_BEGIN {
		return fmt.Errorf("%w: text", ErrSegmentOverflow)
	}
	if file.currentDataOffset > riscv.HEAP_BEGIN {
		return fmt.Errorf("%w: data", ErrSegmentOverflow)
	}
	return nil
}

func (file *assemblyFile) getOffset() uint32 {
	if file.inTextSegment {
		return file.currentTextOffset
	}
	return file.currentDataOffset
}

func isAssemblerDirective(cmd string) bool { return strings.HasPrefix(cmd, ".") }

func getInstruction(tokens []string) string { return strings.ToLower(tokens[0]) }

func isGlobalLabel(label string) bool { return !strings.HasPrefix(label, "_") }
