package marker

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"asmregion/internal/asm"
	"asmregion/internal/asm/parser"
	"asmregion/internal/isa"
	"asmregion/internal/logging"
)

func parseX86(t *testing.T, lines ...string) asm.Stream {
	t.Helper()
	s, err := parser.ParseStrings(parser.NewX86ATT(), lines...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func parseAArch64(t *testing.T, lines ...string) asm.Stream {
	t.Helper()
	s, err := parser.ParseStrings(parser.NewAArch64(), lines...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func TestMatchBytes(t *testing.T) {
	nop := []string{"100", "103", "144"}

	tests := []struct {
		name      string
		lines     []string
		index     int
		expected  []string
		wantMatch bool
		wantCount int
	}{
		{
			name:      "single line",
			lines:     []string{"nop", ".byte 100,103,144"},
			index:     1,
			expected:  nop,
			wantMatch: true,
			wantCount: 1,
		},
		{
			name:      "spread over lines",
			lines:     []string{".byte 100", ".byte 103", ".byte 144", "nop"},
			index:     0,
			expected:  nop,
			wantMatch: true,
			wantCount: 3,
		},
		{
			name:      "extra bytes are a prefix match",
			lines:     []string{".byte 100,103,144,0", ".byte 1"},
			index:     0,
			expected:  nop,
			wantMatch: true,
			wantCount: 2,
		},
		{
			name:      "permuted",
			lines:     []string{".byte 103,100,144"},
			index:     0,
			expected:  nop,
			wantMatch: false,
			wantCount: -1,
		},
		{
			name:      "too short",
			lines:     []string{".byte 100,103", "nop"},
			index:     0,
			expected:  nop,
			wantMatch: false,
			wantCount: -1,
		},
		{
			name:      "no directive at index",
			lines:     []string{"nop", ".byte 100,103,144"},
			index:     0,
			expected:  nop,
			wantMatch: false,
			wantCount: -1,
		},
		{
			name:      "other directive stops accumulation",
			lines:     []string{".byte 100", ".align 4", ".byte 103,144"},
			index:     0,
			expected:  nop,
			wantMatch: false,
			wantCount: -1,
		},
		{
			name:      "index past end",
			lines:     []string{".byte 100,103,144"},
			index:     1,
			expected:  nop,
			wantMatch: false,
			wantCount: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseX86(t, tt.lines...)
			match, count := MatchBytes(s, tt.index, tt.expected)
			if match != tt.wantMatch || count != tt.wantCount {
				t.Errorf("MatchBytes = (%v, %d), want (%v, %d)", match, count, tt.wantMatch, tt.wantCount)
			}
			// pure: a second call yields the same result
			if m2, c2 := MatchBytes(s, tt.index, tt.expected); m2 != match || c2 != count {
				t.Errorf("second call = (%v, %d), first (%v, %d)", m2, c2, match, count)
			}
		})
	}
}

func TestExtractKernelX86(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name: "basic",
			lines: []string{
				"movl $111, %ebx",
				".byte 100,103,144",
				"addl %eax,%ebx",
				"movl $222, %ebx",
				".byte 100,103,144",
			},
			want: []string{"addl %eax,%ebx"},
		},
		{
			name: "payload over several lines and surrounding code",
			lines: []string{
				"pushq %rbp",
				"mov $0x6f, %ebx",
				".byte 100",
				".byte 103",
				".byte 144",
				".L2:",
				"vaddpd %ymm1, %ymm0, %ymm0",
				"jne .L2",
				"movl $222, %ebx",
				".byte 100,103,144",
				"popq %rbp",
			},
			want: []string{".L2:", "vaddpd %ymm1, %ymm0, %ymm0", "jne .L2"},
		},
		{
			name: "first start marker wins",
			lines: []string{
				"movl $111, %ebx",
				".byte 100,103,144",
				"incl %eax",
				"movl $111, %ebx",
				".byte 100,103,144",
				"decl %eax",
				"movl $222, %ebx",
				".byte 100,103,144",
			},
			want: []string{"incl %eax", "movl $111, %ebx", ".byte 100,103,144", "decl %eax"},
		},
		{
			name: "wrong register is not a marker",
			lines: []string{
				"movl $111, %ecx",
				".byte 100,103,144",
				"movl $111, %ebx",
				".byte 100,103,144",
				"nop",
				"movl $222, %ebx",
				".byte 100,103,144",
			},
			want: []string{"nop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseX86(t, tt.lines...)
			got, err := ExtractKernel(s, "x86", WithLogger(logging.Discard()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got.Texts(), tt.want) {
				t.Errorf("got %q, want %q", got.Texts(), tt.want)
			}
		})
	}
}

func TestExtractKernelAArch64(t *testing.T) {
	s := parseAArch64(t,
		"mov x1, #111",
		".byte 213,3,32,31",
		".LBB0_1:",
		"fadd v0.2d, v0.2d, v1.2d",
		"b.ne .LBB0_1",
		"mov x1, #222",
		".byte 213,3,32,31",
	)
	got, err := ExtractKernel(s, "AArch64", WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{".LBB0_1:", "fadd v0.2d, v0.2d, v1.2d", "b.ne .LBB0_1"}
	if !reflect.DeepEqual(got.Texts(), want) {
		t.Errorf("got %q, want %q", got.Texts(), want)
	}

	// x86 operand order must not find the aarch64 markers
	if _, err := ReduceToSection(s, isa.X86.Profile(), WithLogger(logging.Discard())); !errors.Is(err, ErrStartMarkerNotFound) {
		t.Errorf("expected ErrStartMarkerNotFound with x86 profile, got %v", err)
	}
}

func TestExtractKernelErrors(t *testing.T) {
	tests := []struct {
		name    string
		arch    string
		lines   []string
		wantErr error
	}{
		{
			name:    "unsupported isa",
			arch:    "mips",
			lines:   []string{"nop"},
			wantErr: isa.ErrUnsupportedISA,
		},
		{
			name:    "no markers",
			arch:    "x86",
			lines:   []string{"nop", "ret"},
			wantErr: ErrStartMarkerNotFound,
		},
		{
			name:    "end marker only",
			arch:    "x86",
			lines:   []string{"nop", "movl $222, %ebx", ".byte 100,103,144"},
			wantErr: ErrStartMarkerNotFound,
		},
		{
			name:    "start marker only",
			arch:    "x86",
			lines:   []string{"movl $111, %ebx", ".byte 100,103,144", "nop"},
			wantErr: ErrEndMarkerNotFound,
		},
		{
			name:    "payload mismatch",
			arch:    "x86",
			lines:   []string{"movl $111, %ebx", ".byte 144,103,100", "nop", "movl $222, %ebx", ".byte 100,103,144"},
			wantErr: ErrStartMarkerNotFound,
		},
		{
			name:    "move is last line",
			arch:    "x86",
			lines:   []string{"movl $111, %ebx", ".byte 100,103,144", "movl $222, %ebx"},
			wantErr: ErrEndMarkerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parseX86(t, tt.lines...)
			_, err := ExtractKernel(s, tt.arch, WithLogger(logging.Discard()))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestScannerLogsMalformedLines(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	s := parseX86(t,
		"movl %ebx",
		".byte 100,103,144",
		"movl $foo, %ebx",
		".byte 100,103,144",
		"movl $111, %ebx",
		".byte 100,103,144",
		"nop",
		"movl $222, %ebx",
		".byte 100,103,144",
	)
	start, end := NewScanner(isa.X86.Profile(), logger).Find(s)
	if start != 6 || end != 7 {
		t.Fatalf("Find = (%d, %d), want (6, 7)", start, end)
	}

	out := buf.String()
	if got := strings.Count(out, "skipping malformed marker candidate"); got != 2 {
		t.Errorf("expected 2 warnings, got %d: %s", got, out)
	}
	if !strings.Contains(out, "index=0") || !strings.Contains(out, "index=2") {
		t.Errorf("warnings should name the line index: %s", out)
	}
}

func TestKernelSharesNoCapacity(t *testing.T) {
	s := parseX86(t,
		"movl $111, %ebx",
		".byte 100,103,144",
		"nop",
		"movl $222, %ebx",
		".byte 100,103,144",
	)
	k, err := ExtractKernel(s, "x86", WithLogger(logging.Discard()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = append(k, asm.Line{Instruction: "ud2"})
	if s[3].Instruction != "movl" {
		t.Errorf("appending to the kernel overwrote the source stream")
	}
}
