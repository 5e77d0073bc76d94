package ssm

import "fmt"

// Reg names one of the eight register-file slots, by enumerated symbol.
type Reg uint8

const (
	PC Reg = iota
	SP
	MP
	HP
	R4
	R5
	R6
	R7
)

const numRegisters = 8

// RR is the conventional alias for R5, recognised by the parser.
const RR = R5

var regNames = [numRegisters]string{
	PC: "PC", SP: "SP", MP: "MP", HP: "HP",
	R4: "R4", R5: "R5", R6: "R6", R7: "R7",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("Reg(%d)", uint8(r))
}

// regByName maps every spelling the parser accepts to a Reg, including
// the canonical names, the RR alias and the R0..R7 ordinal spellings.
var regByName = map[string]Reg{
	"PC": PC, "SP": SP, "MP": MP, "HP": HP,
	"R4": R4, "R5": R5, "R6": R6, "R7": R7,
	"RR": RR,
	"R0": PC, "R1": SP, "R2": MP, "R3": HP,
}

// lookupReg resolves a register name exactly as written; register
// spellings are case-sensitive, unlike mnemonics.
func lookupReg(name string) (Reg, bool) {
	r, ok := regByName[name]
	return r, ok
}

// RegisterFile is the eight-slot record backing PC/SP/MP/HP/R4..R7,
// indexable by named Reg. Out-of-range ordinals are rejected during
// decode (see decode.go's regFromWord) before they ever reach here.
type RegisterFile struct {
	slots [numRegisters]int32
}

// NewRegisterFile returns a register file with every slot at its
// documented initial value: all zero except HP, which the caller must
// still set to StackSize once the program image is loaded.
func NewRegisterFile() RegisterFile {
	return RegisterFile{}
}

func (rf *RegisterFile) Get(r Reg) int32 {
	return rf.slots[r]
}

func (rf *RegisterFile) Set(r Reg, v int32) {
	rf.slots[r] = v
}

// Snapshot returns a borrowed-in-spirit copy of the eight slots for
// introspection; callers get a value copy since Go has no way to hand
// out a read-only view of an array.
func (rf *RegisterFile) Snapshot() [numRegisters]int32 {
	return rf.slots
}
