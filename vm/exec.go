package ssm

import (
	"fmt"
	"unicode/utf8"
)

// Step fetches one instruction from memory[PC:PC+3] (the decoder
// reads at most three words; shorter instructions ignore the tail),
// advances PC past it before executing, executes it, and reports
// whether the CPU should keep running. It returns false only once
// HALT has executed.
func (c *CPU) Step() (bool, error) {
	pc := c.regs.Get(PC)

	var words [3]int32
	for i := range words {
		w, err := c.getMem(pc + int32(i))
		if err != nil {
			return false, err
		}
		words[i] = w
	}

	instr, err := decode(words, pc)
	if err != nil {
		return false, err
	}

	if c.verbosity >= 2 {
		c.dumpState()
	}
	if c.verbosity >= 1 {
		c.trapSink(fmt.Sprintf("%d: %s", pc, instr))
	}

	c.regs.Set(PC, pc+int32(instr.Size()))

	return c.exec(instr, pc)
}

func (c *CPU) dumpState() {
	regs := c.regs.Snapshot()
	c.trapSink(fmt.Sprintf("  registers> PC=%d SP=%d MP=%d HP=%d R4=%d R5=%d R6=%d R7=%d",
		regs[PC], regs[SP], regs[MP], regs[HP], regs[R4], regs[R5], regs[R6], regs[R7]))
	c.trapSink(fmt.Sprintf("  stack> %v", c.OccupiedStack()))
}

// exec runs the side effects of one already-fetched, already-advanced
// instruction. Binary ops pop their right operand first, then their
// left; STS computes its address from SP before popping the stored
// value; AND/OR/XOR operate bitwise on the full word, not logically.
func (c *CPU) exec(instr Instr, pc int32) (bool, error) {
	switch instr.Op {
	case OpNOP:
		return true, nil

	case OpHALT:
		return false, nil

	case OpSTR:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		c.regs.Set(instr.Reg1, v)
		return true, nil

	case OpSTL:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.setMem(c.regs.Get(MP)+instr.IntArg, v)

	case OpSTS:
		// Address is relative to SP before the pop, not after.
		addr := c.regs.Get(SP) + instr.IntArg
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.setMem(addr, v)

	case OpSTA:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.setMem(addr+instr.IntArg, v)

	case OpLDR:
		return true, c.push(c.regs.Get(instr.Reg1))

	case OpLDL:
		v, err := c.getMem(c.regs.Get(MP) + instr.IntArg)
		if err != nil {
			return false, err
		}
		return true, c.push(v)

	case OpLDS:
		v, err := c.getMem(c.regs.Get(SP) + instr.IntArg)
		if err != nil {
			return false, err
		}
		return true, c.push(v)

	case OpLDA:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		v, err := c.getMem(addr + instr.IntArg)
		if err != nil {
			return false, err
		}
		return true, c.push(v)

	case OpLDC:
		return true, c.push(instr.IntArg)

	case OpLDLA:
		return true, c.push(c.regs.Get(MP) + instr.IntArg)

	case OpLDSA:
		return true, c.push(c.regs.Get(SP) + instr.IntArg)

	case OpLDAA:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.push(addr + instr.IntArg)

	case OpBRA:
		c.regs.Set(PC, c.regs.Get(PC)+instr.IntArg)
		return true, nil

	case OpBRF:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		if v == 0 {
			c.regs.Set(PC, c.regs.Get(PC)+instr.IntArg)
		}
		return true, nil

	case OpBRT:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		if v != 0 {
			c.regs.Set(PC, c.regs.Get(PC)+instr.IntArg)
		}
		return true, nil

	case OpBSR:
		if err := c.push(c.regs.Get(PC)); err != nil {
			return false, err
		}
		c.regs.Set(PC, c.regs.Get(PC)+instr.IntArg)
		return true, nil

	case OpJSR:
		t, err := c.pop()
		if err != nil {
			return false, err
		}
		if err := c.push(c.regs.Get(PC)); err != nil {
			return false, err
		}
		c.regs.Set(PC, t)
		return true, nil

	case OpRET:
		t, err := c.pop()
		if err != nil {
			return false, err
		}
		c.regs.Set(PC, t)
		return true, nil

	case OpLINK:
		if err := c.push(c.regs.Get(MP)); err != nil {
			return false, err
		}
		c.regs.Set(MP, c.regs.Get(SP))
		c.regs.Set(SP, c.regs.Get(SP)+instr.IntArg)
		return true, nil

	case OpUNLINK:
		c.regs.Set(SP, c.regs.Get(MP))
		t, err := c.pop()
		if err != nil {
			return false, err
		}
		c.regs.Set(MP, t)
		return true, nil

	case OpAJS:
		c.regs.Set(SP, c.regs.Get(SP)+instr.IntArg)
		return true, nil

	case OpSWP:
		sp := c.regs.Get(SP)
		top, err := c.getMem(sp)
		if err != nil {
			return false, err
		}
		next, err := c.getMem(sp - 1)
		if err != nil {
			return false, err
		}
		if err := c.setMem(sp, next); err != nil {
			return false, err
		}
		return true, c.setMem(sp-1, top)

	case OpSWPR:
		v, err := c.getMem(c.regs.Get(SP))
		if err != nil {
			return false, err
		}
		regVal := c.regs.Get(instr.Reg1)
		if err := c.setMem(c.regs.Get(SP), regVal); err != nil {
			return false, err
		}
		c.regs.Set(instr.Reg1, v)
		return true, nil

	case OpSWPRR:
		a, b := c.regs.Get(instr.Reg1), c.regs.Get(instr.Reg2)
		c.regs.Set(instr.Reg1, b)
		c.regs.Set(instr.Reg2, a)
		return true, nil

	case OpLDRR:
		c.regs.Set(instr.Reg1, c.regs.Get(instr.Reg2))
		return true, nil

	case OpADD, OpSUB, OpMUL, OpDIV, OpMOD:
		return c.execArith(instr.Op, pc)

	case OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE:
		return c.execCompare(instr.Op)

	case OpAND, OpOR, OpXOR:
		return c.execBitwise(instr.Op)

	case OpNEG:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.push(-v)

	case OpNOT:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		return true, c.push(boolWord(v == 0))

	case OpTRAP:
		return true, c.execTrap(instr.IntArg, pc)

	case OpSTH:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		hp := c.regs.Get(HP)
		if err := c.push(hp); err != nil {
			return false, err
		}
		if err := c.setMem(hp, v); err != nil {
			return false, err
		}
		c.regs.Set(HP, hp+1)
		return true, nil

	case OpLDH:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		v, err := c.getMem(addr + instr.IntArg)
		if err != nil {
			return false, err
		}
		return true, c.push(v)

	case OpSTMA, OpSTML, OpSTMS, OpLDMA, OpLDMH, OpLDML, OpLDMS:
		return false, &RuntimeError{Kind: ErrUnsupportedInstruction, PC: pc, Detail: instr.String()}

	default:
		return false, &RuntimeError{Kind: ErrInvalidOpcode, PC: pc}
	}
}

func (c *CPU) execArith(op Op, pc int32) (bool, error) {
	b, err := c.pop()
	if err != nil {
		return false, err
	}
	a, err := c.pop()
	if err != nil {
		return false, err
	}

	var result int32
	switch op {
	case OpADD:
		result = a + b
	case OpSUB:
		result = a - b
	case OpMUL:
		result = a * b
	case OpDIV:
		if b == 0 {
			return false, &RuntimeError{Kind: ErrDivisionByZero, PC: pc}
		}
		result = a / b
	case OpMOD:
		if b == 0 {
			return false, &RuntimeError{Kind: ErrDivisionByZero, PC: pc}
		}
		result = a % b
	}
	return true, c.push(result)
}

func (c *CPU) execCompare(op Op) (bool, error) {
	b, err := c.pop()
	if err != nil {
		return false, err
	}
	a, err := c.pop()
	if err != nil {
		return false, err
	}

	var result bool
	switch op {
	case OpEQ:
		result = a == b
	case OpNE:
		result = a != b
	case OpLT:
		result = a < b
	case OpLE:
		result = a <= b
	case OpGT:
		result = a > b
	case OpGE:
		result = a >= b
	}
	return true, c.push(boolWord(result))
}

// execBitwise implements AND/OR/XOR as plain bitwise operators over
// the full word, not logical short-circuits. Booleans are encoded as
// 0 (false) and all-ones (true), so bitwise and logical composition
// agree on boolean operands and this also works as elementwise
// integer masking.
func (c *CPU) execBitwise(op Op) (bool, error) {
	b, err := c.pop()
	if err != nil {
		return false, err
	}
	a, err := c.pop()
	if err != nil {
		return false, err
	}

	var result int32
	switch op {
	case OpAND:
		result = a & b
	case OpOR:
		result = a | b
	case OpXOR:
		result = a ^ b
	}
	return true, c.push(result)
}

func (c *CPU) execTrap(n int32, pc int32) error {
	v, err := c.pop()
	if err != nil {
		return err
	}

	switch n {
	case 0:
		c.trapSink(fmt.Sprintf("%d\n", v))
		return nil
	case 1:
		if v < 0 || v > utf8.MaxRune || !utf8.ValidRune(rune(v)) {
			return nil
		}
		c.trapSink(string(rune(v)))
		return nil
	default:
		return &RuntimeError{Kind: ErrUnknownTrap, PC: pc, Detail: fmt.Sprintf("TRAP %d", n)}
	}
}

// boolWord converts a Go bool into the SSM boolean word convention:
// -1 for true, 0 for false.
func boolWord(b bool) int32 {
	if b {
		return -1
	}
	return 0
}
