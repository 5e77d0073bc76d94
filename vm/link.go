package ssm

// Link resolves symbolic branch targets into signed word
// displacements and strips every LABEL/ANNOTE entry, preserving the
// order of everything else.
//
// For a branch at list index i targeting label index t, the
// displacement is the sum of instr_size over the half-open range
// [min(t, i+1), max(t, i+1)), negated when t < i+1. That range is
// exactly the instructions the branch jumps over: forward, everything
// from the instruction after the branch up to (not including) the
// target; backward, everything from the target up to (not including)
// the instruction after the branch.
func Link(instrs []Instr) ([]Instr, error) {
	labels := make(map[string]int, 8)
	for i, instr := range instrs {
		if instr.Pseudo == pseudoLabel {
			labels[instr.Label] = i
		}
	}

	sizes := make([]int, len(instrs))
	for i, instr := range instrs {
		sizes[i] = instr.Size()
	}

	resolved := make([]Instr, 0, len(instrs))
	for i, instr := range instrs {
		if instr.Pseudo == pseudoLabel || instr.Pseudo == pseudoAnnote {
			continue
		}

		if instr.Pseudo == pseudoSymbolicBranch {
			t, ok := labels[instr.Label]
			if !ok {
				return nil, &LinkError{Label: instr.Label}
			}

			lo, hi := i+1, t
			backward := t < i+1
			if backward {
				lo, hi = t, i+1
			}

			sum := 0
			for _, s := range sizes[lo:hi] {
				sum += s
			}

			d := int32(sum)
			if backward {
				d = -d
			}

			resolved = append(resolved, Instr{Op: instr.Op, IntArg: d, Pos: instr.Pos})
			continue
		}

		resolved = append(resolved, instr)
	}

	return resolved, nil
}
