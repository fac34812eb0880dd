// printer.go - IR 文本输出
//
// 输出格式与 internal/parser 接受的格式一致：
//
//	define i64 @f(i128* %p) {
//	entry:
//	  %x = load i128, i128* %p, align 16
//	  %y = trunc i128 %x to i64
//	  ret i64 %y
//	}

package ir

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// slotTracker 为匿名值分配打印编号
type slotTracker map[Value]string

func (s slotTracker) ident(v Value) string {
	if v == nil {
		return "<null>"
	}
	if _, ok := v.(*Const); ok || v.Name() != "" {
		return v.Ident()
	}
	if s != nil {
		if id, ok := s[v]; ok {
			return id
		}
	}
	return "%<unnamed>"
}

func newSlotTracker(fn *Func) slotTracker {
	s := make(slotTracker)
	n := 0
	assign := func(v Value) {
		if v.Name() == "" && !v.Type().IsVoid() {
			s[v] = fmt.Sprintf("%%_%d", n)
			n++
		}
	}
	for _, p := range fn.Params {
		assign(p)
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			assign(inst)
		}
	}
	return s
}

// typed 返回 "类型 值" 形式
func (s slotTracker) typed(v Value) string {
	return v.Type().String() + " " + s.ident(v)
}

func formatInstr(i *Instr, s slotTracker) string {
	var sb strings.Builder
	if !i.typ.IsVoid() {
		sb.WriteString(s.ident(i))
		sb.WriteString(" = ")
	}

	ops := i.operands
	switch {
	case i.op == OpPhi:
		sb.WriteString("phi ")
		sb.WriteString(i.typ.String())
		incoming := make([]string, len(ops))
		for n := range ops {
			incoming[n] = fmt.Sprintf(" [ %s, %s ]", s.ident(ops[n]), i.blocks[n].Ident())
		}
		sb.WriteString(strings.Join(incoming, ","))

	case i.op.IsCast():
		fmt.Fprintf(&sb, "%s %s to %s", i.op, s.typed(ops[0]), i.typ)

	case i.op.IsBinary():
		fmt.Fprintf(&sb, "%s %s, %s", i.op, s.typed(ops[0]), s.ident(ops[1]))

	case i.op == OpICmp:
		fmt.Fprintf(&sb, "icmp %s %s, %s", i.pred, s.typed(ops[0]), s.ident(ops[1]))

	case i.op == OpSelect:
		fmt.Fprintf(&sb, "select %s, %s, %s", s.typed(ops[0]), s.typed(ops[1]), s.typed(ops[2]))

	case i.op == OpLoad:
		fmt.Fprintf(&sb, "load %s, %s", i.typ, s.typed(ops[0]))
		writeAlign(&sb, i.align)

	case i.op == OpStore:
		fmt.Fprintf(&sb, "store %s, %s", s.typed(ops[0]), s.typed(ops[1]))
		writeAlign(&sb, i.align)

	case i.op == OpGEP:
		fmt.Fprintf(&sb, "getelementptr %s, %s, %s", ops[0].Type().Elem(), s.typed(ops[0]), s.typed(ops[1]))

	case i.op == OpAlloca:
		fmt.Fprintf(&sb, "alloca %s", i.typ.Elem())
		writeAlign(&sb, i.align)

	case i.op == OpInsertElement:
		fmt.Fprintf(&sb, "insertelement %s, %s, %s", s.typed(ops[0]), s.typed(ops[1]), s.typed(ops[2]))

	case i.op == OpExtractElement:
		fmt.Fprintf(&sb, "extractelement %s, %s", s.typed(ops[0]), s.typed(ops[1]))

	case i.op == OpBr:
		fmt.Fprintf(&sb, "br label %s", i.blocks[0].Ident())

	case i.op == OpCondBr:
		fmt.Fprintf(&sb, "br %s, label %s, label %s", s.typed(ops[0]), i.blocks[0].Ident(), i.blocks[1].Ident())

	case i.op == OpSwitch:
		fmt.Fprintf(&sb, "switch %s, label %s [", s.typed(ops[0]), i.blocks[0].Ident())
		cases := lo.Map(ops[1:], func(c Value, n int) string {
			return fmt.Sprintf(" %s, label %s", s.typed(c), i.blocks[n+1].Ident())
		})
		sb.WriteString(strings.Join(cases, ""))
		sb.WriteString(" ]")

	case i.op == OpRet:
		if len(ops) == 0 {
			sb.WriteString("ret void")
		} else {
			fmt.Fprintf(&sb, "ret %s", s.typed(ops[0]))
		}

	case i.op == OpUnreachable:
		sb.WriteString("unreachable")

	default:
		fmt.Fprintf(&sb, "%s %s", i.op, i.typ)
	}
	return sb.String()
}

func writeAlign(sb *strings.Builder, align int) {
	if align > 0 {
		fmt.Fprintf(sb, ", align %d", align)
	}
}

// ============================================================================
// 函数与模块
// ============================================================================

// Signature 返回函数头，例如 define void @f(i128* %p)
func (f *Func) Signature() string {
	return f.signature(newSlotTracker(f))
}

func (f *Func) signature(s slotTracker) string {
	params := lo.Map(f.Params, func(p *Param, _ int) string { return s.typed(p) })
	return fmt.Sprintf("define %s @%s(%s)", f.RetType, f.Name, strings.Join(params, ", "))
}

// String 返回函数的文本形式
func (f *Func) String() string {
	s := newSlotTracker(f)
	var sb strings.Builder

	sb.WriteString(f.signature(s))
	sb.WriteString(" {\n")
	for i, b := range f.Blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", b.name)
		for _, inst := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(formatInstr(inst, s))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// String 返回模块的文本形式
func (m *Module) String() string {
	return strings.Join(lo.Map(m.Funcs, func(f *Func, _ int) string { return f.String() }), "\n")
}
