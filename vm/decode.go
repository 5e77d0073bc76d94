package ssm

// decode reads up to three words starting at pc and reconstructs the
// Instr they encode. The decoder never reads past word[pc+2]; shorter
// instructions simply ignore the tail. An invalid opcode or
// out-of-range register ordinal surfaces as a RuntimeError rather
// than panicking.
func decode(words [3]int32, pc int32) (Instr, error) {
	if words[0] < 0 || words[0] > 0xFF {
		return Instr{}, &RuntimeError{Kind: ErrInvalidOpcode, PC: pc}
	}
	op := Op(words[0])

	switch op {
	case OpSTR, OpLDR, OpSWPR:
		r, err := regFromWord(words[1], pc)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, Reg1: r}, nil

	case OpSWPRR, OpLDRR:
		r1, err := regFromWord(words[1], pc)
		if err != nil {
			return Instr{}, err
		}
		r2, err := regFromWord(words[2], pc)
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, Reg1: r1, Reg2: r2}, nil

	case OpSTMA, OpSTML, OpSTMS, OpLDMA, OpLDMH, OpLDML, OpLDMS:
		return Instr{Op: op, IntArg: words[1], IntArg2: words[2]}, nil

	case OpSTL, OpSTS, OpSTA, OpLDL, OpLDS, OpLDA, OpLDC, OpLDLA, OpLDSA, OpLDAA,
		OpBRA, OpBRF, OpBRT, OpBSR, OpLINK, OpAJS, OpTRAP, OpLDH:
		return Instr{Op: op, IntArg: words[1]}, nil

	case OpADD, OpSUB, OpMUL, OpDIV, OpMOD, OpEQ, OpNE, OpLT, OpLE, OpGT, OpGE,
		OpNEG, OpNOT, OpRET, OpUNLINK, OpSWP, OpJSR, OpNOP, OpHALT,
		OpAND, OpOR, OpXOR, OpSTH:
		return Instr{Op: op}, nil

	default:
		return Instr{}, &RuntimeError{Kind: ErrInvalidOpcode, PC: pc}
	}
}

func regFromWord(w int32, pc int32) (Reg, error) {
	if w < 0 || int(w) >= numRegisters {
		return 0, &RuntimeError{Kind: ErrInvalidRegister, PC: pc}
	}
	return Reg(w), nil
}
