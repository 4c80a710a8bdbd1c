package cfg_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"asmregion/internal/asm"
	"asmregion/internal/asm/parser"
	"asmregion/internal/cfg"
)

func parse(lines ...string) asm.Stream {
	s, err := parser.ParseStrings(parser.NewX86ATT(), lines...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func labelNames(m *cfg.Labels) []string {
	var out []string
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

func blockNames(m *cfg.Blocks) []string {
	var out []string
	for p := m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

func texts(m *cfg.Blocks, label string) []string {
	b, ok := m.Get(label)
	Expect(ok).To(BeTrue(), "missing block for %s", label)
	return b.Texts()
}

var _ = Describe("JumpLabels", func() {
	It("should keep labels in first-seen order", func() {
		s := parse("L1:", "nop", "jmp L2", "L2:", "nop")
		labels := cfg.JumpLabels(s)
		Expect(labelNames(labels)).To(Equal([]string{"L1", "L2"}))

		l2, ok := labels.Get("L2")
		Expect(ok).To(BeTrue())
		Expect(l2.Index).To(Equal(3))
	})

	It("should drop labels heading only directives", func() {
		s := parse(
			"main:",
			".text",
			".align 16",
			".LBB0_1:",
			"addl %eax, %ebx",
			"jne .LBB0_1",
			".Ldata:",
			".long 42",
			".byte 1,2,3",
		)
		Expect(labelNames(cfg.JumpLabels(s))).To(Equal([]string{".LBB0_1"}))
	})

	It("should drop a label with an empty span", func() {
		s := parse("A:", "B:", "ret")
		Expect(labelNames(cfg.JumpLabels(s))).To(Equal([]string{"B"}))
	})

	It("should return an empty map without labels", func() {
		Expect(cfg.JumpLabels(parse("nop", "ret")).Len()).To(Equal(0))
		Expect(cfg.JumpLabels(nil).Len()).To(Equal(0))
	})

	It("should not modify the stream", func() {
		s := parse("L1:", "add %eax, %ebx", "jmp L1")
		before := s.Texts()
		cfg.JumpLabels(s)
		cfg.BasicBlocks(s)
		cfg.LoopBodies(s)
		Expect(s.Texts()).To(Equal(before))
	})
})

var _ = Describe("BasicBlocks", func() {
	It("should end the block at a branch to a jump label", func() {
		s := parse("L1:", "nop", "jmp L2", "L2:", "nop")
		blocks := cfg.BasicBlocks(s)
		Expect(blockNames(blocks)).To(Equal([]string{"L1", "L2"}))
		Expect(texts(blocks, "L1")).To(BeEmpty())
		Expect(texts(blocks, "L2")).To(Equal([]string{"L1:", "nop", "jmp L2"}))
	})

	It("should end the block at a later label", func() {
		s := parse("nop", "A:", "inc %eax", "B:", "dec %eax")
		blocks := cfg.BasicBlocks(s)
		Expect(texts(blocks, "A")).To(Equal([]string{"nop"}))
		Expect(texts(blocks, "B")).To(Equal([]string{"nop", "A:"}))
	})

	It("should restart at the top for every label", func() {
		s := parse(
			"movl $0, %eax",
			"jmp .L2",
			".L1:",
			"incl %eax",
			".L2:",
			"cmpl $10, %eax",
			"jl .L1",
			".L3:",
			"ret",
		)
		blocks := cfg.BasicBlocks(s)
		want := []string{"movl $0, %eax", "jmp .L2"}
		Expect(texts(blocks, ".L1")).To(Equal(want))
		Expect(texts(blocks, ".L2")).To(Equal(want))
		Expect(texts(blocks, ".L3")).To(Equal(want))
	})

	It("should ignore branches to non-jump labels", func() {
		s := parse("leaq .Ldata(%rip), %rax", "call helper", "jmp L1", "L1:", "ret", ".Ldata:", ".long 1")
		Expect(texts(cfg.BasicBlocks(s), "L1")).To(Equal([]string{"leaq .Ldata(%rip), %rax", "call helper", "jmp L1"}))
	})
})

var _ = Describe("LoopBodies", func() {
	It("should find a self loop", func() {
		s := parse("L1:", "add", "jmp L1")
		loops := cfg.LoopBodies(s)
		Expect(blockNames(loops)).To(Equal([]string{"L1"}))
		Expect(texts(loops, "L1")).To(Equal([]string{"L1:", "add", "jmp L1"}))
	})

	It("should skip labels that leave to another label first", func() {
		s := parse(
			".L1:",
			"incl %eax",
			"je .L3",
			"jmp .L1",
			".L2:",
			"decl %eax",
			"jne .L2",
			".L3:",
			"ret",
		)
		loops := cfg.LoopBodies(s)
		Expect(blockNames(loops)).To(Equal([]string{".L2"}))
		body := texts(loops, ".L2")
		Expect(body).To(Equal([]string{".L2:", "decl %eax", "jne .L2"}))
		Expect(body[len(body)-1]).To(ContainSubstring(".L2"))
	})

	It("should skip labels that never branch", func() {
		s := parse("L1:", "nop", "ret")
		Expect(cfg.LoopBodies(s).Len()).To(Equal(0))
	})

	It("should not treat directive-only labels as targets", func() {
		s := parse(
			".L1:",
			"vaddpd (%rdi), %ymm0, %ymm0",
			"jmp .Lconst",
			"jne .L1",
			".Lconst:",
			".quad 0",
		)
		Expect(texts(cfg.LoopBodies(s), ".L1")).To(HaveLen(4))
	})

	It("should handle aarch64 streams", func() {
		s, err := parser.ParseStrings(parser.NewAArch64(),
			".LBB0_1:",
			"ldr q0, [x0], #16",
			"subs x2, x2, #1",
			"b.ne .LBB0_1",
			"ret",
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(texts(cfg.LoopBodies(s), ".LBB0_1")).To(HaveLen(4))
	})
})
