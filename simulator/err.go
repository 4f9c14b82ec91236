package simulator

import (
	"errors"

	"github.com/ezrec/rvsim/translate"
)

var f = translate.From

var (
	ErrInstructionInvalid = errors.New(f("invalid instruction"))
	ErrBreakpoint         = errors.New(f("breakpoint"))
	ErrHalted             = errors.New(f("simulator halted"))
	ErrCycleLimit         = errors.New(f("cycle limit exceeded"))
	ErrEcallUnknown       = errors.New(f("unknown environment call"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	PC     uint32
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %#08x %v", err.PC, err.Err)
	}
	return f("line %d (pc %#08x) %v", err.LineNo, err.PC, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
