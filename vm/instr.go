package ssm

import "fmt"

// Op is an opcode byte; values are part of the external ABI and must
// match the hexadecimal assignment in the assembly manual exactly.
type Op uint8

const (
	OpSTR    Op = 0x00
	OpSTL    Op = 0x01
	OpSTS    Op = 0x02
	OpSTA    Op = 0x03
	OpLDR    Op = 0x04
	OpLDL    Op = 0x05
	OpLDS    Op = 0x06
	OpLDA    Op = 0x07
	OpLDC    Op = 0x08
	OpLDLA   Op = 0x09
	OpLDSA   Op = 0x0A
	OpLDAA   Op = 0x0B
	OpBRA    Op = 0x0C
	OpBRF    Op = 0x0D
	OpBRT    Op = 0x0E
	OpBSR    Op = 0x0F
	OpADD    Op = 0x10
	OpSUB    Op = 0x11
	OpMUL    Op = 0x12
	OpDIV    Op = 0x13
	OpMOD    Op = 0x14
	OpEQ     Op = 0x15
	OpNE     Op = 0x16
	OpLT     Op = 0x17
	OpLE     Op = 0x18
	OpGT     Op = 0x19
	OpGE     Op = 0x1A
	OpNEG    Op = 0x1B
	OpNOT    Op = 0x1C
	OpRET    Op = 0x1D
	OpUNLINK Op = 0x1E
	OpLINK   Op = 0x1F
	OpAJS    Op = 0x20
	OpSWP    Op = 0x21
	OpSWPR   Op = 0x22
	OpSWPRR  Op = 0x23
	OpLDRR   Op = 0x24
	OpJSR    Op = 0x25
	OpTRAP   Op = 0x26
	OpNOP    Op = 0x27
	OpHALT   Op = 0x28
	OpAND    Op = 0x29
	OpOR     Op = 0x2A
	OpXOR    Op = 0x2B

	// Heap store/load and the reserved multi-word memory family sit
	// past the core opcode range; assigned contiguous values here so
	// every mnemonic the grammar names has a concrete encoding.
	OpSTH  Op = 0x2C
	OpLDH  Op = 0x2D
	OpSTMA Op = 0x2E
	OpSTML Op = 0x2F
	OpSTMS Op = 0x30
	OpLDMA Op = 0x31
	OpLDMH Op = 0x32
	OpLDML Op = 0x33
	OpLDMS Op = 0x34
)

// operandShape describes how many and which kind of operands an
// opcode's assembly line carries; it drives the parser's operand
// handling. The encoder, decoder and Size switch on the opcode itself.
type operandShape int

const (
	shapeNone    operandShape = iota // ADD, HALT, SWP, ...
	shapeInt                         // STL rel, LDC n, TRAP n, ...
	shapeReg                         // STR r, LDR r, SWPR r
	shapeRegReg                      // SWPRR r1 r2, LDRR d s
	shapeIntInt                      // STMA/STML/STMS/LDMA/LDMH/LDML/LDMS
	shapeAnnote                      // ANNOTE reg int int colour text
	shapeLabel                       // BRA/BRF/BRT/BSR with a symbolic target (pre-link only)
)

type mnemonicInfo struct {
	op    Op
	shape operandShape
}

// mnemonics drives both directions of the name<->opcode mapping.
var mnemonics = map[string]mnemonicInfo{
	"STR": {OpSTR, shapeReg}, "STL": {OpSTL, shapeInt}, "STS": {OpSTS, shapeInt}, "STA": {OpSTA, shapeInt},
	"LDR": {OpLDR, shapeReg}, "LDL": {OpLDL, shapeInt}, "LDS": {OpLDS, shapeInt}, "LDA": {OpLDA, shapeInt},
	"LDC": {OpLDC, shapeInt}, "LDLA": {OpLDLA, shapeInt}, "LDSA": {OpLDSA, shapeInt}, "LDAA": {OpLDAA, shapeInt},
	"ADD": {OpADD, shapeNone}, "SUB": {OpSUB, shapeNone}, "MUL": {OpMUL, shapeNone}, "DIV": {OpDIV, shapeNone}, "MOD": {OpMOD, shapeNone},
	"EQ": {OpEQ, shapeNone}, "NE": {OpNE, shapeNone}, "LT": {OpLT, shapeNone}, "LE": {OpLE, shapeNone}, "GT": {OpGT, shapeNone}, "GE": {OpGE, shapeNone},
	"NEG": {OpNEG, shapeNone}, "NOT": {OpNOT, shapeNone},
	"RET": {OpRET, shapeNone}, "UNLINK": {OpUNLINK, shapeNone}, "LINK": {OpLINK, shapeInt}, "AJS": {OpAJS, shapeInt},
	"SWP": {OpSWP, shapeNone}, "SWPR": {OpSWPR, shapeReg}, "SWPRR": {OpSWPRR, shapeRegReg}, "LDRR": {OpLDRR, shapeRegReg},
	"JSR": {OpJSR, shapeNone}, "TRAP": {OpTRAP, shapeInt}, "NOP": {OpNOP, shapeNone}, "HALT": {OpHALT, shapeNone},
	"AND": {OpAND, shapeNone}, "OR": {OpOR, shapeNone}, "XOR": {OpXOR, shapeNone},
	"STH": {OpSTH, shapeNone}, "LDH": {OpLDH, shapeInt},
	"STMA": {OpSTMA, shapeIntInt}, "STML": {OpSTML, shapeIntInt}, "STMS": {OpSTMS, shapeIntInt},
	"LDMA": {OpLDMA, shapeIntInt}, "LDMH": {OpLDMH, shapeIntInt}, "LDML": {OpLDML, shapeIntInt}, "LDMS": {OpLDMS, shapeIntInt},
}

// branchMnemonics are parsed specially: their operand is either a
// label identifier (pseudo form, resolved by the linker) or a literal
// signed displacement (already resolved, passed straight through).
var branchMnemonics = map[string]Op{
	"BRA": OpBRA, "BRF": OpBRF, "BRT": OpBRT, "BSR": OpBSR,
}

var opToMnemonic = func() map[Op]string {
	m := make(map[Op]string, len(mnemonics)+len(branchMnemonics))
	for name, info := range mnemonics {
		m[info.op] = name
	}
	for name, op := range branchMnemonics {
		m[op] = name
	}
	return m
}()

// pseudoKind distinguishes the layout artifacts (LABEL, ANNOTE) and
// unresolved symbolic branches from ordinary, encodable instructions.
type pseudoKind int

const (
	pseudoNone pseudoKind = iota
	pseudoLabel
	pseudoAnnote
	pseudoSymbolicBranch
)

// Instr is a single parsed assembly line. Which operand fields are
// meaningful is selected by Op's shape (or by Pseudo, for the layout
// artifacts and not-yet-resolved branches); unused fields stay zero.
type Instr struct {
	Op     Op
	Pseudo pseudoKind

	IntArg  int32
	IntArg2 int32
	Reg1    Reg
	Reg2    Reg

	Label      string // LABEL name, or symbolic branch target before linking
	AnnoteText string
	Colour     string

	Pos Position // source location, for parse/link diagnostics
}

// Position is a 1-indexed line number in the source text.
type Position struct {
	Line int
}

// Size reports the instruction's footprint in the encoded image, in
// words. Layout artifacts occupy zero words; every real opcode and
// not-yet-resolved symbolic branch report their final size so the
// linker can compute displacements before resolution.
func (i Instr) Size() int {
	switch i.Pseudo {
	case pseudoLabel, pseudoAnnote:
		return 0
	case pseudoSymbolicBranch:
		return 2
	}

	switch i.Op {
	case OpSTR, OpLDR, OpSWPR:
		return 2
	case OpSWPRR, OpLDRR:
		return 3
	case OpSTL, OpSTS, OpSTA, OpLDL, OpLDS, OpLDA, OpLDC, OpLDLA, OpLDSA, OpLDAA,
		OpBRA, OpBRF, OpBRT, OpBSR, OpLINK, OpAJS, OpTRAP, OpLDH:
		return 2
	case OpSTMA, OpSTML, OpSTMS, OpLDMA, OpLDMH, OpLDML, OpLDMS:
		return 3
	default:
		// ADD, SUB, MUL, DIV, MOD, EQ, NE, LT, LE, GT, GE, NEG, NOT,
		// RET, UNLINK, SWP, JSR, NOP, HALT, AND, OR, XOR, STH: opcode
		// word only.
		return 1
	}
}

func (i Instr) String() string {
	name := opToMnemonic[i.Op]
	switch i.Pseudo {
	case pseudoLabel:
		return fmt.Sprintf("%s:", i.Label)
	case pseudoAnnote:
		return fmt.Sprintf("ANNOTE %s %d %d %s %q", i.Reg1, i.IntArg, i.IntArg2, i.Colour, i.AnnoteText)
	case pseudoSymbolicBranch:
		return fmt.Sprintf("%s %s", name, i.Label)
	}

	switch i.Op {
	case OpSTR, OpLDR, OpSWPR:
		return fmt.Sprintf("%s %s", name, i.Reg1)
	case OpSWPRR, OpLDRR:
		return fmt.Sprintf("%s %s %s", name, i.Reg1, i.Reg2)
	case OpSTMA, OpSTML, OpSTMS, OpLDMA, OpLDMH, OpLDML, OpLDMS:
		return fmt.Sprintf("%s %d %d", name, i.IntArg, i.IntArg2)
	case OpSTL, OpSTS, OpSTA, OpLDL, OpLDS, OpLDA, OpLDC, OpLDLA, OpLDSA, OpLDAA,
		OpBRA, OpBRF, OpBRT, OpBSR, OpLINK, OpAJS, OpTRAP, OpLDH:
		return fmt.Sprintf("%s %d", name, i.IntArg)
	default:
		return name
	}
}

// colours is the closed set the parser accepts for ANNOTE, matching
// the ABI exactly including case.
var colours = map[string]bool{
	"black": true, "blue": true, "cyan": true, "darkGray": true, "gray": true,
	"green": true, "lightGray": true, "magenta": true, "orange": true,
	"pink": true, "red": true, "yellow": true,
}
