package ssm

import "fmt"

// StackSize is the fixed word count of the stack/code region. Tuning
// constant, not state — HP's initial value is derived from it, so the
// two stay co-located here rather than drifting apart.
const StackSize = 2000

// CPU is the fetch-decode-execute interpreter: register file, the
// fixed stack/code array, a growable heap, a trap-output sink and a
// verbosity level. It owns all of this state for its entire lifetime;
// LoadCode resets it.
type CPU struct {
	regs RegisterFile

	stack [StackSize]int32
	heap  []int32

	trapSink  func(string)
	verbosity int
}

// NewCPU constructs a CPU with the given trap sink and verbosity
// level (0 silent, 1 echoes executed instructions, 2 additionally
// dumps registers and the occupied stack region before each step).
// The trap sink is held for the CPU's lifetime and called synchronously
// from Step; callers wanting asynchronous delivery must queue inside it.
func NewCPU(trapSink func(string), verbosity int) *CPU {
	return &CPU{trapSink: trapSink, verbosity: verbosity}
}

// LoadCode runs the linker and encoder over instrs, zeroes memory,
// writes the resulting image at address 0, and sets PC := 0,
// SP := image length (so the stack begins immediately above the
// loaded code), HP := StackSize.
func (c *CPU) LoadCode(instrs []Instr) error {
	resolved, err := Link(instrs)
	if err != nil {
		return err
	}
	image, err := Encode(resolved)
	if err != nil {
		return err
	}

	c.stack = [StackSize]int32{}
	c.heap = nil

	copy(c.stack[:], image)

	c.regs = NewRegisterFile()
	c.regs.Set(PC, 0)
	c.regs.Set(SP, int32(len(image)))
	c.regs.Set(HP, StackSize)

	return nil
}

// getMem and setMem translate a logical address into either the fixed
// stack array or the growable heap. Addresses below StackSize hit the
// stack array; addresses at or above it hit heap slot addr-StackSize,
// growing the heap with zero-filled cells on write as needed. Reads
// beyond the current heap extent return zero; this is defined
// behaviour, not an error.
func (c *CPU) getMem(addr int32) (int32, error) {
	if addr < 0 {
		return 0, &RuntimeError{Kind: ErrSegmentationFault, PC: c.regs.Get(PC), Detail: fmt.Sprintf("negative address %d", addr)}
	}
	if addr < StackSize {
		return c.stack[addr], nil
	}
	idx := int(addr - StackSize)
	if idx >= len(c.heap) {
		return 0, nil
	}
	return c.heap[idx], nil
}

func (c *CPU) setMem(addr int32, v int32) error {
	if addr < 0 {
		return &RuntimeError{Kind: ErrSegmentationFault, PC: c.regs.Get(PC), Detail: fmt.Sprintf("negative address %d", addr)}
	}
	if addr < StackSize {
		c.stack[addr] = v
		return nil
	}
	idx := int(addr - StackSize)
	if idx >= len(c.heap) {
		grown := make([]int32, idx+1)
		copy(grown, c.heap)
		c.heap = grown
	}
	c.heap[idx] = v
	return nil
}

// push and pop implement the stack discipline: the stack grows
// upward and SP always names the top occupied cell, never the next
// free one.
func (c *CPU) push(v int32) error {
	sp := c.regs.Get(SP) + 1
	c.regs.Set(SP, sp)
	return c.setMem(sp, v)
}

func (c *CPU) pop() (int32, error) {
	sp := c.regs.Get(SP)
	v, err := c.getMem(sp)
	if err != nil {
		return 0, err
	}
	c.regs.Set(SP, sp-1)
	return v, nil
}

// Registers returns a snapshot of the register file for inspection.
func (c *CPU) Registers() [numRegisters]int32 {
	return c.regs.Snapshot()
}

// OccupiedStack returns the portion of the stack array currently in
// use, addresses [0, SP].
func (c *CPU) OccupiedStack() []int32 {
	sp := c.regs.Get(SP)
	if sp < 0 {
		return nil
	}
	hi := sp + 1
	if hi > StackSize {
		hi = StackSize
	}
	return c.stack[:hi]
}

// Memory reads a borrowed snapshot of count words starting at addr,
// spanning the stack/heap boundary transparently. It is the read_memory
// introspection surface: out-of-range reads return zero words rather
// than an error, matching getMem's own out-of-bounds convention.
func (c *CPU) Memory(addr int32, count int) []int32 {
	out := make([]int32, count)
	for i := 0; i < count; i++ {
		v, err := c.getMem(addr + int32(i))
		if err != nil {
			break
		}
		out[i] = v
	}
	return out
}
