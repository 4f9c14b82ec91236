// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/ezrec/rvsim/assembler"
	"github.com/ezrec/rvsim/internal"
	"github.com/ezrec/rvsim/riscv"
	"github.com/ezrec/rvsim/simulator"
)

func main() {
	var compile string
	var output string
	var verbose bool
	var dump bool
	var save bool
	var skip bool
	var cycles int
	defines := map[string]string{}

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&output, "o", "", "Write the text segment binary to this file")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&dump, "d", false, "Dump the assembled program")
	flag.BoolVar(&save, "s", false, "Assemble only, do not execute")
	flag.BoolVar(&skip, "skip", false, "Skip invalid instructions instead of failing")
	flag.IntVar(&cycles, "n", simulator.MAX_CYCLES, "Maximum cycles to execute")
	flag.Func("D", "Predefine an equate, as NAME=VALUE", func(arg string) error {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || len(name) == 0 {
			return fmt.Errorf("expected NAME=VALUE, not %q", arg)
		}
		defines[name] = value
		return nil
	})

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 {
		log.Fatalf("%v: -c is required", os.Args[0])
	}

	inf, err := os.Open(compile)
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	asm := &assembler.Assembler{Verbose: verbose}
	for equ, value := range internal.IterSeq2Concat(simulator.Defines(), maps.All(defines)) {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(inf)
	inf.Close()
	if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if dump {
		pp.Fprintln(os.Stderr, prog)
	}

	if len(output) != 0 {
		err = os.WriteFile(output, prog.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if save {
		return
	}

	sim := simulator.NewSimulator(prog)
	sim.Verbose = verbose
	sim.Stdout = os.Stdout
	sim.MaxCycles = cycles
	if skip {
		sim.OnInvalid = simulator.INVALID_SKIP
	}

	err = sim.Run()
	if errors.Is(err, simulator.ErrCycleLimit) {
		log.Printf("%v: %v", compile, err)
	} else if err != nil {
		log.Fatalf("%v: %v", compile, err)
	}

	if verbose {
		for n, value := range sim.Registers() {
			log.Printf("%-4v %08x", riscv.RegisterName(n), value)
		}
		log.Printf("pc   %08x (%d cycles)", sim.GetPC(), sim.Cycles())
	}

	os.Exit(int(sim.ExitCode()))
}
