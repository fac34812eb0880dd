package interp

import (
	"fmt"

	"github.com/holiman/uint256"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// exec 执行一条非终止、非 phi 指令
func (f *frame) exec(inst *ir.Instr) (Value, error) {
	t := inst.Type()
	if t.IsInt() {
		if err := checkWidth(t.Bits()); err != nil {
			return Value{}, err
		}
	}

	ops := make([]Value, inst.NumOperands())
	for i := range ops {
		v, err := f.get(inst.Operand(i))
		if err != nil {
			return Value{}, err
		}
		ops[i] = v
	}

	switch op := inst.Op(); {
	case op.IsBinary():
		return binary(op, t, &ops[0].Int, &ops[1].Int)
	case op.IsCast():
		return cast(op, inst.Operand(0).Type(), t, ops[0])
	}

	switch inst.Op() {
	case ir.OpICmp:
		bits := inst.Operand(0).Type().Bits()
		if inst.Operand(0).Type().IsPointer() {
			bits = 64
		}
		if compare(inst.Pred(), &ops[0].Int, &ops[1].Int, bits) {
			return FromUint64(1), nil
		}
		return FromUint64(0), nil

	case ir.OpSelect:
		if ops[0].Int.IsZero() {
			return ops[2], nil
		}
		return ops[1], nil

	case ir.OpLoad:
		return f.m.Mem.Load(ops[0].Int.Uint64(), t)

	case ir.OpStore:
		return Value{}, f.m.Mem.Store(ops[1].Int.Uint64(), inst.Operand(0).Type(), ops[0])

	case ir.OpGEP:
		idxTy := inst.Operand(1).Type()
		idx := int64(signExtend(&ops[1].Int, idxTy.Bits()).Uint64())
		stride := int64(f.m.Mem.layout.AllocSize(t.Elem()))
		return FromUint64(ops[0].Int.Uint64() + uint64(idx*stride)), nil

	case ir.OpAlloca:
		return FromUint64(f.m.Mem.Alloc(t.Elem(), inst.Align())), nil

	case ir.OpInsertElement:
		idx := int(ops[2].Int.Uint64())
		if idx >= t.Len() {
			return Value{}, runtimeErr(lerrors.R0006, fmt.Sprintf("insertelement index %d out of range", idx))
		}
		elems := make([]uint256.Int, t.Len())
		copy(elems, ops[0].Elems)
		elems[idx] = *mask(new(uint256.Int).Set(&ops[1].Int), t.Elem().Bits())
		return Value{Elems: elems}, nil

	case ir.OpExtractElement:
		idx := int(ops[1].Int.Uint64())
		if idx >= len(ops[0].Elems) {
			return Value{}, runtimeErr(lerrors.R0006, fmt.Sprintf("extractelement index %d out of range", idx))
		}
		return Value{Int: ops[0].Elems[idx]}, nil

	default:
		return Value{}, runtimeErr(lerrors.R0006, "cannot execute "+inst.Op().String())
	}
}

// ============================================================================
// 二元运算
// ============================================================================

// binary 计算 bits 位整数的二元运算
//
// 移位位数不小于位宽时按 0 处理，与扩展时的约定一致。
func binary(op ir.Op, t *ir.Type, x, y *uint256.Int) (Value, error) {
	bits := t.Bits()
	z := new(uint256.Int)
	switch op {
	case ir.OpAdd:
		z.Add(x, y)
	case ir.OpSub:
		z.Sub(x, y)
	case ir.OpMul:
		z.Mul(x, y)
	case ir.OpAnd:
		z.And(x, y)
	case ir.OpOr:
		z.Or(x, y)
	case ir.OpXor:
		z.Xor(x, y)
	case ir.OpUDiv, ir.OpURem, ir.OpSDiv, ir.OpSRem:
		if y.IsZero() {
			return Value{}, runtimeErr(lerrors.R0004, "division by zero")
		}
		switch op {
		case ir.OpUDiv:
			z.Div(x, y)
		case ir.OpURem:
			z.Mod(x, y)
		case ir.OpSDiv:
			z.SDiv(signExtend(x, bits), signExtend(y, bits))
		default:
			z.SMod(signExtend(x, bits), signExtend(y, bits))
		}
	case ir.OpShl, ir.OpLShr, ir.OpAShr:
		n := uint(0)
		if y.IsUint64() && y.Uint64() < uint64(bits) {
			n = uint(y.Uint64())
		}
		switch op {
		case ir.OpShl:
			z.Lsh(x, n)
		case ir.OpLShr:
			z.Rsh(x, n)
		default:
			z.SRsh(signExtend(x, bits), n)
		}
	default:
		return Value{}, runtimeErr(lerrors.R0006, "unknown binary operator "+op.String())
	}
	return Value{Int: *mask(z, bits)}, nil
}

func compare(p ir.Predicate, x, y *uint256.Int, bits int) bool {
	switch p {
	case ir.PredEQ:
		return x.Eq(y)
	case ir.PredNE:
		return !x.Eq(y)
	case ir.PredUGT:
		return x.Gt(y)
	case ir.PredUGE:
		return !x.Lt(y)
	case ir.PredULT:
		return x.Lt(y)
	case ir.PredULE:
		return !x.Gt(y)
	}
	sx, sy := signExtend(x, bits), signExtend(y, bits)
	switch p {
	case ir.PredSGT:
		return sx.Sgt(sy)
	case ir.PredSGE:
		return !sx.Slt(sy)
	case ir.PredSLT:
		return sx.Slt(sy)
	default:
		return !sx.Sgt(sy)
	}
}

// ============================================================================
// 类型转换
// ============================================================================

func cast(op ir.Op, from, to *ir.Type, v Value) (Value, error) {
	switch op {
	case ir.OpZExt:
		return Value{Int: v.Int}, nil
	case ir.OpSExt:
		return Value{Int: *mask(signExtend(&v.Int, from.Bits()), to.Bits())}, nil
	case ir.OpTrunc:
		return Value{Int: *mask(new(uint256.Int).Set(&v.Int), to.Bits())}, nil
	}

	// bitcast
	if from.IsPointer() {
		return v, nil
	}
	raw, err := packBits(from, v)
	if err != nil {
		return Value{}, err
	}
	return unpackBits(to, raw)
}
