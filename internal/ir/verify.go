// verify.go - IR 结构校验

package ir

import (
	"fmt"

	"go.uber.org/multierr"
)

// Verify 检查函数结构是否合法，返回所有问题的合并错误
func Verify(fn *Func) error {
	var errs error
	report := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf("%s: "+format, append([]interface{}{fn.Name}, args...)...))
	}

	if len(fn.Blocks) == 0 {
		report("function has no blocks")
		return errs
	}

	defined := make(map[Value]bool)
	index := make(map[*Instr]int)
	for _, p := range fn.Params {
		defined[p] = true
	}
	for _, b := range fn.Blocks {
		for idx, inst := range b.Instrs {
			defined[inst] = true
			index[inst] = idx
		}
	}

	preds := PredMap(fn)
	dom := ComputeDominators(fn)
	for _, b := range fn.Blocks {
		if b.Terminator() == nil {
			report("block %s does not end with a terminator", b.name)
		}
		seenNonPhi := false
		for idx, inst := range b.Instrs {
			if inst.parent != b {
				report("%s has a stale parent block", inst)
			}
			if inst.IsTerminator() && idx != len(b.Instrs)-1 {
				report("terminator %q in the middle of block %s", inst, b.name)
			}
			if inst.IsPhi() {
				if seenNonPhi {
					report("phi %s after non-phi instruction in %s", inst.Ident(), b.name)
				}
				if inst.NumIncoming() != len(preds[b]) {
					report("phi %s has %d incoming values, block %s has %d predecessors",
						inst.Ident(), inst.NumIncoming(), b.name, len(preds[b]))
				}
			} else {
				seenNonPhi = true
			}
			for n, op := range inst.operands {
				if op == nil {
					report("%s has a null operand #%d", inst.Ident(), n)
					continue
				}
				if ref, ok := op.(*Instr); ok && ref.op == OpInvalid {
					report("%s uses unresolved value %s", inst.Ident(), ref.Ident())
					continue
				}
				if IsConst(op) {
					continue
				}
				if !defined[op] {
					report("%q uses %s which is not defined in the function", inst, op.Ident())
					continue
				}
				def, ok := op.(*Instr)
				if !ok {
					continue
				}
				switch {
				case inst.IsPhi():
					// 来源值只需支配对应前驱块的末尾
					from := inst.IncomingBlock(n)
					if dom.Reachable(from) && !dom.Dominates(def.parent, from) {
						report("phi %s: %s does not dominate the edge from %s", inst.Ident(), def.Ident(), from.name)
					}
				case !dom.Reachable(b):
					// 不可达块中的使用不受支配关系约束
				case def.parent == b:
					if index[def] >= idx {
						report("%q uses %s before its definition", inst, def.Ident())
					}
				case !dom.Dominates(def.parent, b):
					report("%q uses %s which does not dominate it", inst, def.Ident())
				}
			}
			if err := checkTypes(inst); err != nil {
				report("%q: %v", inst, err)
			}
		}
	}
	return errs
}

func checkTypes(i *Instr) error {
	ops := i.operands
	switch {
	case i.op.IsBinary():
		if len(ops) != 2 || ops[0].Type() != i.typ || ops[1].Type() != i.typ {
			return fmt.Errorf("operand types do not match result %s", i.typ)
		}
	case i.op == OpICmp:
		if len(ops) != 2 || ops[0].Type() != ops[1].Type() {
			return fmt.Errorf("compared values have different types")
		}
	case i.op == OpSelect:
		if len(ops) != 3 || ops[0].Type() != Int(1) || ops[1].Type() != i.typ || ops[2].Type() != i.typ {
			return fmt.Errorf("malformed select")
		}
	case i.op == OpPhi:
		for _, v := range ops {
			if v != nil && v.Type() != i.typ {
				return fmt.Errorf("incoming %s does not match phi type %s", v.Type(), i.typ)
			}
		}
	case i.op == OpLoad:
		if len(ops) != 1 || !ops[0].Type().IsPointer() || ops[0].Type().Elem() != i.typ {
			return fmt.Errorf("load type does not match pointer")
		}
	case i.op == OpStore:
		if len(ops) != 2 || !ops[1].Type().IsPointer() || ops[1].Type().Elem() != ops[0].Type() {
			return fmt.Errorf("store type does not match pointer")
		}
	}
	return nil
}

// VerifyLegal 检查函数中不再出现超过 maxBits 位的整数值
func VerifyLegal(fn *Func, maxBits int) error {
	var errs error
	check := func(v Value, where *Instr) {
		if t := v.Type(); t.IsInt() && t.Bits() > maxBits {
			errs = multierr.Append(errs, fmt.Errorf("%s: %q still uses %s", fn.Name, where, t))
		}
	}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instrs {
			check(inst, inst)
			for _, op := range inst.operands {
				if op != nil {
					check(op, inst)
				}
			}
		}
	}
	return errs
}
