package emit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnmarkedLabel = errors.New("label defined but never marked")
	ErrBodyBuilt     = errors.New("body already built")
)

// Label is a branch target inside one body.
type Label int

// Action executes one op. A returned error is stored in the frame and control jumps to the exit mark.
type Action func(f *Frame) error

// Condition decides whether a branch is taken. A nil condition always branches.
type Condition func(f *Frame) bool

type instruction struct {
	op      OpCode
	operand int
	action  Action
	branch  bool
	label   Label
	cond    Condition
}

// BodyBuilder assembles an op sequence.
type BodyBuilder struct {
	instrs []instruction
	labels []int
	exit   int
	built  bool
}

func NewBodyBuilder() *BodyBuilder {
	return &BodyBuilder{exit: -1}
}

func (b *BodyBuilder) DefineLabel() Label {
	b.labels = append(b.labels, -1)
	return Label(len(b.labels) - 1)
}

// MarkLabel binds l to the next emitted instruction.
func (b *BodyBuilder) MarkLabel(l Label) {
	b.labels[l] = len(b.instrs)
}

// MarkExit starts the cleanup region at the next emitted instruction.
func (b *BodyBuilder) MarkExit() {
	b.exit = len(b.instrs)
}

func (b *BodyBuilder) Emit(op OpCode, operand int, action Action) {
	b.instrs = append(b.instrs, instruction{op: op, operand: operand, action: action})
}

func (b *BodyBuilder) EmitBranch(op OpCode, target Label, cond Condition) {
	b.instrs = append(b.instrs, instruction{op: op, branch: true, label: target, cond: cond})
}

// Build finalizes the body. A trailing OpReturn is appended when missing.
func (b *BodyBuilder) Build() (*Body, error) {
	if b.built {
		return nil, ErrBodyBuilt
	}

	for i, pos := range b.labels {
		if pos < 0 {
			return nil, fmt.Errorf("%w: label %d", ErrUnmarkedLabel, i)
		}
	}

	if n := len(b.instrs); n == 0 || b.instrs[n-1].op != OpReturn {
		b.Emit(OpReturn, 0, nil)
	}

	exit := b.exit
	if exit < 0 {
		exit = len(b.instrs) - 1
	}

	b.built = true

	return &Body{instrs: b.instrs, labels: b.labels, exit: exit}, nil
}

// Body is an executable op sequence.
type Body struct {
	instrs []instruction
	labels []int
	exit   int
}

// Run interprets the body. A panic raised by an action is not recovered;
// the cleanup region runs while it unwinds and the panic continues unchanged.
func (b *Body) Run(f *Frame) {
	completed := false
	defer func() {
		if !completed {
			b.cleanup(f)
		}
	}()

	pc := 0
	for pc < len(b.instrs) {
		in := b.instrs[pc]

		switch {
		case in.op == OpReturn:
			completed = true
			return
		case in.branch:
			if in.cond == nil || in.cond(f) {
				pc = b.labels[in.label]
				continue
			}
		case in.action != nil:
			if err := in.action(f); err != nil {
				if f.Err == nil {
					f.Err = err
				}

				if pc < b.exit {
					pc = b.exit
					continue
				}
			}
		}

		pc++
	}

	completed = true
}

func (b *Body) cleanup(f *Frame) {
	for _, in := range b.instrs[b.exit:] {
		if in.branch || in.action == nil || in.op == OpExit {
			continue
		}

		_ = in.action(f)
	}
}

// Listing returns the op codes in emission order.
func (b *Body) Listing() []OpCode {
	ops := make([]OpCode, len(b.instrs))
	for i, in := range b.instrs {
		ops[i] = in.op
	}

	return ops
}

// String disassembles the body, one instruction per line.
func (b *Body) String() string {
	var sb strings.Builder

	for i, in := range b.instrs {
		fmt.Fprintf(&sb, "%04d %s", i, in.op)

		switch {
		case in.branch:
			fmt.Fprintf(&sb, " -> %04d", b.labels[in.label])
		case in.operand != 0 || in.op == OpBoxByRef || in.op == OpStoreByRef || in.op == OpSubstituteSelf:
			fmt.Fprintf(&sb, " %d", in.operand)
		}

		if i == b.exit {
			sb.WriteString(" ; exit")
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}
