package assembler

import (
	"fmt"
)

// pseudoWriter expands a pseudo-instruction into real instruction token
// lists. It reports !ok when the operands do not match its shape, in which
// case the line is passed through unchanged.
type pseudoWriter func(file *assemblyFile, args []string) (insts [][]string, ok bool)

// pseudoDispatch maps pseudo-instruction mnemonics to their expansion.
var pseudoDispatch = map[string]pseudoWriter{
	"nop":  fixed(1, "addi zero zero 0"),
	"mv":   fixed(3, "addi $1 $2 0"),
	"not":  fixed(3, "xori $1 $2 -1"),
	"neg":  fixed(3, "sub $1 zero $2"),
	"seqz": fixed(3, "sltiu $1 $2 1"),
	"snez": fixed(3, "sltu $1 zero $2"),
	"sltz": fixed(3, "slt $1 $2 zero"),
	"sgtz": fixed(3, "slt $1 zero $2"),

	"j":    fixed(2, "jal zero $1"),
	"jal":  fixed(2, "jal ra $1"),
	"jr":   fixed(2, "jalr zero $1 0"),
	"jalr": fixed(2, "jalr ra $1 0"),
	"ret":  fixed(1, "jalr zero ra 0"),

	"beqz": fixed(3, "beq $1 zero $2"),
	"bnez": fixed(3, "bne $1 zero $2"),
	"blez": fixed(3, "bge zero $1 $2"),
	"bgez": fixed(3, "bge $1 zero $2"),
	"bltz": fixed(3, "blt $1 zero $2"),
	"bgtz": fixed(3, "blt zero $1 $2"),
	"bgt":  fixed(4, "blt $2 $1 $3"),
	"ble":  fixed(4, "bge $2 $1 $3"),
	"bgtu": fixed(4, "bltu $2 $1 $3"),
	"bleu": fixed(4, "bgeu $2 $1 $3"),

	"li":   pseudoLoadImmediate,
	"la":   pseudoLoadAddress,
	"call": pseudoFarJump("ra", "ra"),
	"tail": pseudoFarJump("t1", "zero"),

	"lb":  pseudoLoadLabel,
	"lh":  pseudoLoadLabel,
	"lw":  pseudoLoadLabel,
	"lbu": pseudoLoadLabel,
	"lhu": pseudoLoadLabel,
	"sb":  pseudoStoreLabel,
	"sh":  pseudoStoreLabel,
	"sw":  pseudoStoreLabel,
}

// fixed builds a single instruction expansion from a template, where $N
// stands for the N-th operand of the pseudo-instruction.
func fixed(count int, template string) pseudoWriter {
	_, words, _ := LexLine(template)
	return func(file *assemblyFile, args []string) (insts [][]string, ok bool) {
		if len(args) != count {
			return
		}
		inst := make([]string, len(words))
		for n, word := range words {
			var index int
			if _, err := fmt.Sscanf(word, "$%d", &index); err == nil && index < len(args) {
				word = args[index]
			}
			inst[n] = word
		}
		return [][]string{inst}, true
	}
}

// pseudoLoadImmediate expands li into addi when the value is a constant
// that fits 12 bits, or into a lui/addi pair otherwise. Label operands
// always take the pair, resolved in pass two against the final addresses.
func pseudoLoadImmediate(file *assemblyFile, args []string) (insts [][]string, ok bool) {
	if len(args) != 3 {
		return
	}
	rd, imm := args[1], args[2]

	value, err := file.constant(imm)
	if err == nil && !fitsWord(value) {
		return
	}

	if err == nil && fitsSigned(value, 12) {
		insts = [][]string{
			{"addi", rd, "zero", fmt.Sprintf("%d", value)},
		}
	} else if err == nil {
		insts = [][]string{
			{"lui", rd, fmt.Sprintf("%d", hi20(value))},
			{"addi", rd, rd, fmt.Sprintf("%d", lo12(value))},
		}
	} else {
		if file.isLabelOperand(imm) {
			file.addRelocation(imm)
		}
		insts = [][]string{
			{"lui", rd, "%hi(" + imm + ")"},
			{"addi", rd, rd, "%lo(" + imm + ")"},
		}
	}

	return insts, true
}

// pseudoLoadAddress expands la into a pc-relative auipc/addi pair.
func pseudoLoadAddress(file *assemblyFile, args []string) (insts [][]string, ok bool) {
	if len(args) != 3 {
		return
	}
	rd, label := args[1], args[2]

	if isSymbolName(label) {
		file.addRelocation(label)
	}

	return [][]string{
		{"auipc", rd, "%pcrel_hi(" + label + ")"},
		{"addi", rd, rd, "%pcrel_lo(" + label + ")"},
	}, true
}

// pseudoFarJump expands call and tail into an auipc/jalr pair through the
// scratch register, linking into link.
func pseudoFarJump(scratch, link string) pseudoWriter {
	return func(file *assemblyFile, args []string) (insts [][]string, ok bool) {
		if len(args) != 2 {
			return
		}
		label := args[1]

		if isSymbolName(label) {
			file.addRelocation(label)
		}

		return [][]string{
			{"auipc", scratch, "%pcrel_hi(" + label + ")"},
			{"jalr", link, scratch, "%pcrel_lo(" + label + ")"},
		}, true
	}
}

// pseudoLoadLabel expands "lw rd, label" into an auipc/load pair.
func pseudoLoadLabel(file *assemblyFile, args []string) (insts [][]string, ok bool) {
	if file.baseOperand {
		return
	}
	if len(args) != 3 || !file.isLabelOperand(args[2]) {
		return
	}
	cmd, rd, label := args[0], args[1], args[2]

	file.addRelocation(label)

	return [][]string{
		{"auipc", rd, "%pcrel_hi(" + label + ")"},
		{cmd, rd, "%pcrel_lo(" + label + ")", rd},
	}, true
}

// pseudoStoreLabel expands "sw rs, label, rt" into an auipc/store pair using
// rt as the address scratch register. "sw rs, label(rt)" is a plain store.
func pseudoStoreLabel(file *assemblyFile, args []string) (insts [][]string, ok bool) {
	if file.baseOperand {
		return
	}
	if len(args) != 4 || !file.isLabelOperand(args[2]) || !file.isRegister(args[3]) {
		return
	}
	cmd, rs, label, rt := args[0], args[1], args[2], args[3]

	file.addRelocation(label)

	return [][]string{
		{"auipc", rt, "%pcrel_hi(" + label + ")"},
		{cmd, rs, "%pcrel_lo(" + label + ")", rt},
	}, true
}

// isLabelOperand reports if word can only be a label reference.
func (file *assemblyFile) isLabelOperand(word string) bool {
	if _, ok := file.equates[word]; ok {
		return false
	}
	return isSymbolName(word) && !file.isRegister(word)
}
