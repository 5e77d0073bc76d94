package ssm

// Encode flattens a resolved (linked) instruction list into the flat
// i32 word image the CPU loads verbatim. LABEL, ANNOTE and any
// remaining symbolic branch are assembly-time-only and must never
// reach this stage; encountering one is a program-assembly error.
func Encode(instrs []Instr) ([]int32, error) {
	words := make([]int32, 0, len(instrs)*2)

	for i, instr := range instrs {
		if instr.Pseudo != pseudoNone {
			return nil, &RuntimeError{Kind: ErrUnresolvedPseudo, PC: int32(i), Detail: instr.String()}
		}

		words = append(words, int32(instr.Op))

		switch instr.Op {
		case OpSTR, OpLDR, OpSWPR:
			words = append(words, int32(instr.Reg1))
		case OpSWPRR, OpLDRR:
			words = append(words, int32(instr.Reg1), int32(instr.Reg2))
		case OpSTMA, OpSTML, OpSTMS, OpLDMA, OpLDMH, OpLDML, OpLDMS:
			words = append(words, instr.IntArg, instr.IntArg2)
		case OpSTL, OpSTS, OpSTA, OpLDL, OpLDS, OpLDA, OpLDC, OpLDLA, OpLDSA, OpLDAA,
			OpBRA, OpBRF, OpBRT, OpBSR, OpLINK, OpAJS, OpTRAP, OpLDH:
			words = append(words, instr.IntArg)
		}
	}

	return words, nil
}
