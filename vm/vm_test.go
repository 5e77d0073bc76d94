package ssm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

// runSource assembles and runs source to completion, collecting
// everything written to the trap sink.
func runSource(t *testing.T, source string) (string, error) {
	prog, err := Assemble(source)
	assert(t, err == nil, "Failed to parse: %s", err)

	var out strings.Builder
	cpu := NewCPU(func(s string) { out.WriteString(s) }, 0)

	err = cpu.LoadCode(prog.Instrs)
	assert(t, err == nil, "Failed to load program: %s", err)

	err = cpu.Run()
	return out.String(), err
}

func runAndExpectOutput(t *testing.T, source, want string) {
	got, err := runSource(t, source)
	assert(t, err == nil, "Unexpected error running program: %s", err)
	assert(t, got == want, "Got output %q, want %q", got, want)
}

func runAndExpectErrorKind(t *testing.T, source string, kind RuntimeErrorKind) {
	_, err := runSource(t, source)
	var rerr *RuntimeError
	assert(t, errors.As(err, &rerr), "Expected a RuntimeError, got %v", err)
	assert(t, rerr.Kind == kind, "Got runtime error kind %v, want %v", rerr.Kind, kind)
}

// Worked scenarios exercising the full parse-link-encode-run pipeline.

func TestScenarioAddAndTrapDecimal(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 41
		LDC 1
		ADD
		TRAP 0
		HALT
	`, "42\n")
}

func TestScenarioTrapCharacter(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 65
		TRAP 1
		HALT
	`, "A")
}

func TestScenarioSubtractOrder(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 5
		LDC 3
		SUB
		TRAP 0
		HALT
	`, "2\n")
}

func TestScenarioLessThanOrderAndBooleanConvention(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 1
		LDC 2
		LT
		TRAP 0
		HALT
	`, "-1\n")
}

func TestScenarioLoopDisplacementArithmetic(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 0
	start:
		LDC 1
		ADD
		LDS -1
		LDC 3
		LT
		BRT start
		LDS -1
		TRAP 0
		HALT
	`, "3\n")
}

func TestScenarioCallAndReturn(t *testing.T) {
	runAndExpectOutput(t, `
		BSR f
		HALT
	f:
		LDC 7
		TRAP 0
		RET
	`, "7\n")
}

// Boundary cases worth exercising explicitly.

func TestBoundaryZeroDistanceForwardBranch(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 0
		BRF next
	next:
		LDC 9
		TRAP 0
		HALT
	`, "9\n")
}

func TestBoundaryNegativeAJSShrinksStack(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 1
		LDC 2
		LDC 3
		AJS -2
		TRAP 0
		HALT
	`, "1\n")
}

func TestBoundaryLinkZeroUnlinkRoundTrip(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 99
		LINK 0
		UNLINK
		TRAP 0
		HALT
	`, "99\n")
}

func TestBoundaryTrapOneInvalidScalarDropsSilently(t *testing.T) {
	runAndExpectOutput(t, `
		LDC -1
		TRAP 1
		LDC 66
		TRAP 1
		HALT
	`, "B")
}

func TestBoundaryHeapStoreThenLoadRoundTrips(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 123
		STH
		LDH 0
		TRAP 0
		HALT
	`, "123\n")
}

// Error-path scenarios: each runs a literal source string to a
// specific expected runtime failure.

func TestDivisionByZero(t *testing.T) {
	runAndExpectErrorKind(t, `
		LDC 1
		LDC 0
		DIV
		HALT
	`, ErrDivisionByZero)
}

func TestModuloByZero(t *testing.T) {
	runAndExpectErrorKind(t, `
		LDC 1
		LDC 0
		MOD
		HALT
	`, ErrDivisionByZero)
}

func TestUnsupportedMultiWordInstruction(t *testing.T) {
	runAndExpectErrorKind(t, `
		STMA 0 0
		HALT
	`, ErrUnsupportedInstruction)
}

func TestUnknownTrapNumber(t *testing.T) {
	runAndExpectErrorKind(t, `
		LDC 0
		TRAP 7
		HALT
	`, ErrUnknownTrap)
}

// Parser/linker error paths.

func TestParseUnknownMnemonic(t *testing.T) {
	_, err := Assemble("BOGUS\n")
	var perr *ParseError
	assert(t, errors.As(err, &perr), "Expected a ParseError, got %v", err)
}

func TestParseUnknownRegister(t *testing.T) {
	_, err := Assemble("LDR R9\n")
	var perr *ParseError
	assert(t, errors.As(err, &perr), "Expected a ParseError, got %v", err)
}

func TestLinkUndefinedLabel(t *testing.T) {
	prog, err := Assemble("BRA nowhere\nHALT\n")
	assert(t, err == nil, "Failed to parse: %s", err)

	_, err = Link(prog.Instrs)
	var lerr *LinkError
	assert(t, errors.As(err, &lerr), "Expected a LinkError, got %v", err)
}

// Pipeline invariants.

func TestLoadCodeSetsPCAndSP(t *testing.T) {
	prog, err := Assemble("LDC 1\nLDC 2\nADD\nHALT\n")
	assert(t, err == nil, "Failed to parse: %s", err)

	cpu := NewCPU(func(string) {}, 0)
	err = cpu.LoadCode(prog.Instrs)
	assert(t, err == nil, "Failed to load: %s", err)

	regs := cpu.Registers()
	assert(t, regs[PC] == 0, "Expected PC=0, got %d", regs[PC])

	resolved, _ := Link(prog.Instrs)
	image, _ := Encode(resolved)
	assert(t, regs[SP] == int32(len(image)), "Expected SP=%d, got %d", len(image), regs[SP])
}

func TestLinkRemovesLabelsAndAnnotations(t *testing.T) {
	prog, err := Assemble("start:\nANNOTE PC 0 0 red hello\nLDC 1\nHALT\n")
	assert(t, err == nil, "Failed to parse: %s", err)

	resolved, err := Link(prog.Instrs)
	assert(t, err == nil, "Failed to link: %s", err)

	for _, instr := range resolved {
		assert(t, instr.Pseudo == pseudoNone, "Found leftover pseudo-instruction: %s", instr)
	}
}

func TestSTSAddressesWithPrePopStackPointer(t *testing.T) {
	// If STS instead used the post-pop SP, this would overwrite the
	// slot holding 10 and LDS 0 would read back 20, not 99.
	runAndExpectOutput(t, `
		LDC 10
		LDC 20
		LDC 99
		STS -1
		LDS 0
		TRAP 0
		HALT
	`, "99\n")
}

func TestBitwiseAndOrXor(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 6
		LDC 3
		AND
		TRAP 0
		LDC 6
		LDC 3
		OR
		TRAP 0
		LDC 6
		LDC 3
		XOR
		TRAP 0
		HALT
	`, "2\n7\n5\n")
}

func TestComparisonAndNotAreBooleanWords(t *testing.T) {
	runAndExpectOutput(t, `
		LDC 1
		LDC 1
		EQ
		TRAP 0
		LDC 0
		NOT
		TRAP 0
		HALT
	`, "-1\n-1\n")
}
