package ssm

import (
	"os"
	"runtime/debug"
	"strconv"
)

// Run steps the CPU to completion, disabling the garbage collector for
// the duration of the tight instruction loop and restoring the
// caller's GOGC afterward: allocations during the hot
// fetch-decode-execute loop are otherwise the dominant cost. Returns
// nil only after a clean HALT.
func (c *CPU) Run() error {
	gcPercent := currentGCPercent()

	defer debug.SetGCPercent(gcPercent)
	debug.SetGCPercent(-1)

	for {
		running, err := c.step()
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
}

// step wraps Step with a recover, converting an unexpected panic
// (e.g. an internal invariant violation) into a RuntimeError rather
// than crashing the host.
func (c *CPU) step() (running bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			running = false
			err = &RuntimeError{Kind: ErrSegmentationFault, PC: c.regs.Get(PC), Detail: "internal fault"}
		}
	}()
	return c.Step()
}

func currentGCPercent() int {
	if v, ok := os.LookupEnv("GOGC"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 100
}
