package ssm

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestLinkSuite bootstraps the ginkgo/gomega BDD suite for the linker.
func TestLinkSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Link Suite")
}

func findBranch(t []Instr) *Instr {
	for i := range t {
		switch t[i].Op {
		case OpBRA, OpBRF, OpBRT, OpBSR:
			return &t[i]
		}
	}
	return nil
}

var _ = Describe("Link", func() {
	It("computes a negative displacement for a backward branch", func() {
		prog, err := Assemble(`
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
		`)
		Expect(err).NotTo(HaveOccurred())

		resolved, err := Link(prog.Instrs)
		Expect(err).NotTo(HaveOccurred())

		b := findBranch(resolved)
		Expect(b).NotTo(BeNil())
		Expect(b.IntArg).To(Equal(int32(-10)))
	})

	It("computes a positive displacement for a forward call", func() {
		prog, err := Assemble(`
			BSR f
			HALT
		f:
			LDC 7
			TRAP 0
			RET
		`)
		Expect(err).NotTo(HaveOccurred())

		resolved, err := Link(prog.Instrs)
		Expect(err).NotTo(HaveOccurred())

		b := findBranch(resolved)
		Expect(b).NotTo(BeNil())
		Expect(b.IntArg).To(Equal(int32(1)))
	})

	It("rejects a branch to an undefined label", func() {
		prog, err := Assemble("BRA missing\nHALT\n")
		Expect(err).NotTo(HaveOccurred())

		_, err = Link(prog.Instrs)
		Expect(err).To(HaveOccurred())

		var lerr *LinkError
		Expect(err).To(BeAssignableToTypeOf(lerr))
	})

	It("strips every LABEL and ANNOTE entry while preserving order", func() {
		prog, err := Assemble(`
			LDC 1
		mid:
			ANNOTE PC 0 0 blue note
			LDC 2
			ADD
			HALT
		`)
		Expect(err).NotTo(HaveOccurred())

		resolved, err := Link(prog.Instrs)
		Expect(err).NotTo(HaveOccurred())

		ops := make([]Op, len(resolved))
		for i, instr := range resolved {
			Expect(instr.Pseudo).To(Equal(pseudoNone))
			ops[i] = instr.Op
		}
		Expect(ops).To(Equal([]Op{OpLDC, OpLDC, OpADD, OpHALT}))
	})
})
