package ssm

import (
	"regexp"
	"strconv"
	"strings"
)

// commentPattern strips everything from the first // or ; to end of
// line.
var commentPattern = regexp.MustCompile(`//.*$|;.*$`)

var labelDefPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):(.*)$`)
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var intPattern = regexp.MustCompile(`^-?[0-9]+$`)

// Parse converts assembly text into an ordered instruction list,
// including pseudo-entries for labels, ANNOTE and unresolved symbolic
// branches. Mnemonics are matched case-insensitively; register names
// and ANNOTE colours are case-sensitive.
func Parse(source string) ([]Instr, error) {
	var out []Instr
	for lineNum, raw := range strings.Split(source, "\n") {
		pos := Position{Line: lineNum + 1}

		line := commentPattern.ReplaceAllString(raw, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := labelDefPattern.FindStringSubmatch(line); m != nil {
			out = append(out, Instr{Pseudo: pseudoLabel, Label: m[1], Pos: pos})
			line = strings.TrimSpace(m[2])
			if line == "" {
				continue
			}
		}

		instrs, err := parseInstruction(line, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, instrs...)
	}
	return out, nil
}

func parseInstruction(line string, pos Position) ([]Instr, error) {
	fields := strings.Fields(line)
	mnemonic := strings.ToUpper(fields[0])

	if mnemonic == "ANNOTE" {
		return parseAnnote(fields, line, pos)
	}

	if op, ok := branchMnemonics[mnemonic]; ok {
		return parseBranch(op, fields, pos)
	}

	info, ok := mnemonics[mnemonic]
	if !ok {
		return nil, &ParseError{Pos: pos, Msg: "unknown mnemonic " + fields[0]}
	}

	instr := Instr{Op: info.op, Pos: pos}
	args := fields[1:]

	switch info.shape {
	case shapeNone:
		if len(args) != 0 {
			return nil, &ParseError{Pos: pos, Msg: mnemonic + " takes no operands"}
		}
	case shapeInt:
		n, err := parseOneInt(mnemonic, args, pos)
		if err != nil {
			return nil, err
		}
		instr.IntArg = n
	case shapeReg:
		r, err := parseOneReg(mnemonic, args, pos)
		if err != nil {
			return nil, err
		}
		instr.Reg1 = r
	case shapeRegReg:
		if len(args) != 2 {
			return nil, &ParseError{Pos: pos, Msg: mnemonic + " requires two register operands"}
		}
		r1, ok := lookupReg(args[0])
		if !ok {
			return nil, &ParseError{Pos: pos, Msg: "unknown register " + args[0]}
		}
		r2, ok := lookupReg(args[1])
		if !ok {
			return nil, &ParseError{Pos: pos, Msg: "unknown register " + args[1]}
		}
		instr.Reg1, instr.Reg2 = r1, r2
	case shapeIntInt:
		if len(args) != 2 {
			return nil, &ParseError{Pos: pos, Msg: mnemonic + " requires two integer operands"}
		}
		n1, err := parseInt(args[0], pos)
		if err != nil {
			return nil, err
		}
		n2, err := parseInt(args[1], pos)
		if err != nil {
			return nil, err
		}
		instr.IntArg, instr.IntArg2 = n1, n2
	}

	return []Instr{instr}, nil
}

func parseOneInt(mnemonic string, args []string, pos Position) (int32, error) {
	if len(args) != 1 {
		return 0, &ParseError{Pos: pos, Msg: mnemonic + " requires exactly one integer operand"}
	}
	return parseInt(args[0], pos)
}

func parseOneReg(mnemonic string, args []string, pos Position) (Reg, error) {
	if len(args) != 1 {
		return 0, &ParseError{Pos: pos, Msg: mnemonic + " requires exactly one register operand"}
	}
	r, ok := lookupReg(args[0])
	if !ok {
		return 0, &ParseError{Pos: pos, Msg: "unknown register " + args[0]}
	}
	return r, nil
}

func parseInt(tok string, pos Position) (int32, error) {
	if !intPattern.MatchString(tok) {
		return 0, &ParseError{Pos: pos, Msg: "expected integer, got " + tok}
	}
	n, err := strconv.ParseInt(tok, 10, 32)
	if err != nil {
		return 0, &ParseError{Pos: pos, Msg: "integer out of range: " + tok}
	}
	return int32(n), nil
}

// parseBranch handles BRA/BRF/BRT/BSR, whose operand is either a
// symbolic label (preferred whenever the token could be either) or an
// already-resolved signed displacement.
func parseBranch(op Op, fields []string, pos Position) ([]Instr, error) {
	if len(fields) != 2 {
		return nil, &ParseError{Pos: pos, Msg: "branch requires exactly one operand"}
	}
	target := fields[1]

	if identPattern.MatchString(target) {
		return []Instr{{Op: op, Pseudo: pseudoSymbolicBranch, Label: target, Pos: pos}}, nil
	}
	if intPattern.MatchString(target) {
		n, err := parseInt(target, pos)
		if err != nil {
			return nil, err
		}
		return []Instr{{Op: op, IntArg: n, Pos: pos}}, nil
	}
	return nil, &ParseError{Pos: pos, Msg: "invalid branch target " + target}
}

// parseAnnote handles ANNOTE reg int int colour text, where text is
// either a double-quoted string or a single bare token.
func parseAnnote(fields []string, line string, pos Position) ([]Instr, error) {
	if len(fields) < 5 {
		return nil, &ParseError{Pos: pos, Msg: "ANNOTE requires register, two integers, a colour and text"}
	}

	r, ok := lookupReg(fields[1])
	if !ok {
		return nil, &ParseError{Pos: pos, Msg: "unknown register " + fields[1]}
	}
	n1, err := parseInt(fields[2], pos)
	if err != nil {
		return nil, err
	}
	n2, err := parseInt(fields[3], pos)
	if err != nil {
		return nil, err
	}
	colour := fields[4]
	if !colours[colour] {
		return nil, &ParseError{Pos: pos, Msg: "unknown colour " + colour}
	}

	// Recover the raw text tail by finding where the colour token ends
	// in the original (whitespace-preserved) line, so a quoted string
	// with internal spaces survives.
	idx := indexOfNthField(line, 4)
	if idx < 0 {
		return nil, &ParseError{Pos: pos, Msg: "ANNOTE missing text"}
	}
	tail := strings.TrimSpace(line[idx:])
	if tail == "" {
		return nil, &ParseError{Pos: pos, Msg: "ANNOTE missing text"}
	}

	text := tail
	if strings.HasPrefix(tail, `"`) {
		if len(tail) < 2 || !strings.HasSuffix(tail, `"`) || strings.Count(tail, `"`) != 2 {
			return nil, &ParseError{Pos: pos, Msg: "unterminated string in ANNOTE"}
		}
		text = tail[1 : len(tail)-1]
	} else if strings.ContainsAny(tail, " \t") {
		return nil, &ParseError{Pos: pos, Msg: "bare ANNOTE text must not contain whitespace"}
	}

	return []Instr{{
		Pseudo:     pseudoAnnote,
		Reg1:       r,
		IntArg:     n1,
		IntArg2:    n2,
		Colour:     colour,
		AnnoteText: text,
		Pos:        pos,
	}}, nil
}

// indexOfNthField returns the byte offset in s immediately after the
// n-th whitespace-separated field (0-indexed), i.e. the start of
// everything that follows it, or -1 if there is no such field.
func indexOfNthField(s string, n int) int {
	fieldsSeen := 0
	inField := false
	for i, r := range s {
		isSpace := r == ' ' || r == '\t'
		if !isSpace && !inField {
			inField = true
		} else if isSpace && inField {
			inField = false
			fieldsSeen++
			if fieldsSeen == n+1 {
				return i
			}
		}
	}
	return -1
}
