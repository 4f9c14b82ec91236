package assembler

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	// Directive errors
	ErrDirectiveUnknown = errors.New(f("unknown assembler directive"))
	ErrDirectiveSyntax  = errors.New(f("directive syntax"))
	ErrStringMissing    = errors.New(f("expected a quoted string"))
	ErrStringNonAscii   = errors.New(f("unexpected non-ascii character"))
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrDataRange        = errors.New(f("data value out of range"))
	ErrSegmentOverflow  = errors.New(f("segment overflow"))

	// Lexer errors
	ErrLexUnterminated = errors.New(f("unterminated quote or parenthesis"))
	ErrLabelInvalid    = errors.New(f("label invalid"))

	// Instruction errors
	ErrInstructionUnknown = errors.New(f("no such instruction"))
	ErrOperandCount       = errors.New(f("wrong number of operands"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
	ErrBranchAlign        = errors.New(f("branch target misaligned"))
	ErrEncoding           = errors.New(f("encoding does not match format"))
)

// ErrLabelMissing is an instruction reference to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseValue is an operand that is neither a number, equate nor label.
type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or label", string(err))
}

// ErrParseExpression is a $(...) expression that did not evaluate to an integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
