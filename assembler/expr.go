package assembler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rvsim/riscv"
)

// equateDepth limits chains of equates referring to equates.
const equateDepth = 8

// relocation operators, applied to the value of their argument.
var relocOps = map[string]func(value int64, pc uint32) int64{
	"%hi":       func(value int64, pc uint32) int64 { return hi20(value) },
	"%lo":       func(value int64, pc uint32) int64 { return lo12(value) },
	"%pcrel_hi": func(value int64, pc uint32) int64 { return hi20(value - int64(pc)) },
	// %pcrel_lo pairs with the auipc immediately preceding this instruction.
	"%pcrel_lo": func(value int64, pc uint32) int64 { return lo12(value - int64(pc-riscv.INST_WIDTH)) },
}

// hi20 is the upper immediate that, added to lo12(value), rebuilds value.
func hi20(value int64) int64 {
	return int64(((uint32(value) + 0x800) >> 12) & 0xfffff)
}

// lo12 is the sign extended low 12 bits of value.
func lo12(value int64) int64 {
	return int64(int32(uint32(value)<<20) >> 20)
}

// fitsSigned reports if value fits a two's complement field of width bits.
func fitsSigned(value int64, width int) bool {
	return value >= -(1<<(width-1)) && value < (1<<(width-1))
}

// fitsWord reports if value is representable as a 32-bit word.
func fitsWord(value int64) bool {
	return value >= math.MinInt32 && value <= math.MaxUint32
}

// unequate replaces an equate name by its value.
func (file *assemblyFile) unequate(word string) string {
	for range equateDepth {
		value, ok := file.equates[word]
		if !ok {
			break
		}
		word = value
	}
	return word
}

// constant evaluates an operand in which labels are not visible.
func (file *assemblyFile) constant(word string) (value int64, err error) {
	file.constOnly = true
	defer func() { file.constOnly = false }()

	return file.evaluate(word, file.currentTextOffset)
}

// register returns the index of a register operand.
func (file *assemblyFile) register(word string) (reg int, err error) {
	reg, ok := riscv.RegisterIndex(file.unequate(word))
	if !ok {
		err = fmt.Errorf("%w '%v'", ErrRegisterInvalid, word)
	}
	return
}

// isRegister reports if the word names a register.
func (file *assemblyFile) isRegister(word string) bool {
	_, ok := riscv.RegisterIndex(file.unequate(word))
	return ok
}

// evaluate returns the value of an immediate operand of the instruction at pc.
func (file *assemblyFile) evaluate(word string, pc uint32) (value int64, err error) {
	word = file.unequate(word)

	if len(word) == 0 {
		err = ErrParseValue(word)
		return
	}

	switch {
	case word[0] == '%':
		open := strings.IndexByte(word, '(')
		op, ok := relocOps[strings.ToLower(word[:max(open, 0)])]
		if open < 0 || !ok || !strings.HasSuffix(word, ")") {
			err = ErrParseValue(word)
			return
		}
		inner := word[open+1 : len(word)-1]
		value, err = file.evaluate(inner, pc)
		if _, external := file.external[inner]; err != nil && external {
			// Left for the linker, encoded as a zero displacement.
			return 0, nil
		}
		if err != nil {
			return
		}
		value = op(value, pc)
		return
	case strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")"):
		return file.parenEval(word[2 : len(word)-1])
	case word[0] == '\'':
		var ch rune
		tail := "?"
		if len(word) >= 3 {
			ch, _, tail, err = strconv.UnquoteChar(word[1:len(word)-1], '\'')
		}
		if err != nil || len(tail) != 0 {
			err = ErrParseValue(word)
			return
		}
		value = int64(ch)
		return
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err == nil {
		return
	}

	if !isSymbolName(word) {
		err = ErrParseValue(word)
		return
	}

	addr, ok := file.lookupLabel(word)
	if !ok || file.constOnly {
		err = ErrLabelMissing(word)
		return
	}

	return int64(addr), nil
}

// parenEval does compile-time $(...) evaluations
func (file *assemblyFile) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "rvsim"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range file.equates {
		v64, perr := strconv.ParseInt(str, 0, 64)
		if perr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	tables := []map[string]uint32{file.localTable, file.symbolTable}
	if file.constOnly {
		tables = nil
	}
	for _, table := range tables {
		for label, addr := range table {
			if _, ok := pred[label]; !ok {
				pred[label] = starlark.MakeUint(uint(addr))
			}
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// immediate evaluates an operand and checks it fits a signed field.
func (file *assemblyFile) immediate(word string, pc uint32, width int) (imm int32, err error) {
	value, err := file.evaluate(word, pc)
	if err != nil {
		return
	}
	if !fitsSigned(value, width) {
		err = fmt.Errorf("%w '%v' (%d bits)", ErrImmediateRange, word, width)
		return
	}
	return int32(value), nil
}

// target returns the pc-relative offset to a branch or jump operand.
// Labels resolve to their address; plain numbers are taken as offsets.
func (file *assemblyFile) target(word string, pc uint32, width int) (offset int32, err error) {
	word = file.unequate(word)

	var value int64
	if addr, ok := file.lookupLabel(word); ok {
		value = int64(addr) - int64(pc)
	} else if isSymbolName(word) {
		err = ErrLabelMissing(word)
		return
	} else {
		value, err = file.evaluate(word, pc)
		if err != nil {
			return
		}
	}

	if value&1 != 0 {
		err = fmt.Errorf("%w '%v'", ErrBranchAlign, word)
		return
	}
	if !fitsSigned(value, width) {
		err = fmt.Errorf("%w '%v' (%d bits)", ErrImmediateRange, word, width)
		return
	}
	return int32(value), nil
}
