package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	vm "ssm/vm"
)

// verbosity counts how many times -v was given, so -v -v selects the
// more detailed trace level. Each -v is a separate flag; a combined
// -vv is rejected as an undefined flag.
type verbosity int

func (v *verbosity) String() string { return fmt.Sprintf("%d", int(*v)) }
func (v *verbosity) Set(string) error {
	*v++
	return nil
}
func (v *verbosity) IsBoolFlag() bool { return true }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("ssm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var v verbosity
	fs.Var(&v, "v", "increase verbosity (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: ssm [-v]... <file>")
		return 2
	}

	source, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	prog, err := vm.Assemble(string(source))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	cpu := vm.NewCPU(func(s string) { out.WriteString(s) }, int(v))

	if err := cpu.LoadCode(prog.Instrs); err != nil {
		out.Flush()
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := cpu.Run(); err != nil {
		out.Flush()
		fmt.Fprintln(stderr, err)
		return 1
	}

	return 0
}
