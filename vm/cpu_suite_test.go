package ssm

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestCPUSuite bootstraps the ginkgo/gomega BDD suite for CPU
// instruction semantics.
func TestCPUSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CPU Suite")
}

func mustRun(source string) (string, error) {
	prog, err := Assemble(source)
	Expect(err).NotTo(HaveOccurred())

	var out strings.Builder
	cpu := NewCPU(func(s string) { out.WriteString(s) }, 0)
	Expect(cpu.LoadCode(prog.Instrs)).To(Succeed())

	runErr := cpu.Run()
	return out.String(), runErr
}

var _ = Describe("CPU", func() {
	Describe("stack discipline", func() {
		It("returns a pushed value on the matching pop with the stack otherwise unchanged", func() {
			out, err := mustRun(`
				LDC 1
				LDC 2
				LDC 3
				AJS -1
				TRAP 0
				TRAP 0
				HALT
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("2\n1\n"))
		})
	})

	Describe("arithmetic", func() {
		It("computes a - b, not b - a", func() {
			out, err := mustRun("LDC 10\nLDC 4\nSUB\nTRAP 0\nHALT\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("6\n"))
		})

		It("raises a division-by-zero RuntimeError rather than corrupting state", func() {
			_, err := mustRun("LDC 1\nLDC 0\nDIV\nHALT\n")
			var rerr *RuntimeError
			Expect(err).To(BeAssignableToTypeOf(rerr))
		})
	})

	Describe("comparisons", func() {
		It("pushes exactly -1 for true", func() {
			out, err := mustRun("LDC 3\nLDC 5\nLT\nTRAP 0\nHALT\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("-1\n"))
		})

		It("pushes exactly 0 for false", func() {
			out, err := mustRun("LDC 5\nLDC 3\nLT\nTRAP 0\nHALT\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("0\n"))
		})
	})

	Describe("heap", func() {
		It("zero-fills reads past its current extent", func() {
			out, err := mustRun(`
				LDC 2000
				LDH 0
				TRAP 0
				HALT
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("0\n"))
		})
	})

	Describe("call frames", func() {
		It("returns to the instruction after BSR via RET", func() {
			out, err := mustRun(`
				BSR f
				LDC 1
				TRAP 0
				HALT
			f:
				RET
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("1\n"))
		})
	})

	Describe("trap sink", func() {
		It("silently drops TRAP 1 with an invalid Unicode scalar", func() {
			out, err := mustRun("LDC -5\nTRAP 1\nLDC 88\nTRAP 1\nHALT\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("X"))
		})
	})
})
