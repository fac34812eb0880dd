package expand

import (
	"errors"
	"math/big"

	"go.uber.org/zap"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// converter 把单条指令改写为低段 / 高段上的指令
type converter struct {
	fn     *ir.Func
	state  *State
	layout ir.DataLayout
	b      *ir.Builder
	logger *zap.Logger
}

// suffix 给派生值命名；匿名值的派生值也保持匿名
func suffix(name, s string) string {
	if name == "" {
		return ""
	}
	return name + s
}

// convert 转换一条指令
//
// 插入点位于 inst 之后，新生成的超宽指令会在本轮遍历稍后被访问并继续拆分。
func (c *converter) convert(inst *ir.Instr) error {
	c.logger.Debug("expanding large integer",
		zap.String("func", c.fn.Name),
		zap.Stringer("inst", inst))

	c.b = ir.NewBuilder(inst.Parent())
	c.b.SetInsertPointAfter(inst)

	var err error
	switch op := inst.Op(); op {
	case ir.OpPhi:
		err = c.convertPhi(inst)
	case ir.OpZExt:
		err = c.convertZExt(inst)
	case ir.OpTrunc:
		err = c.convertTrunc(inst)
	case ir.OpBitCast:
		err = c.convertBitCast(inst)
	case ir.OpAnd, ir.OpOr, ir.OpXor:
		err = c.convertBitwise(inst)
	case ir.OpShl:
		err = c.convertShl(inst)
	case ir.OpLShr, ir.OpAShr:
		err = c.convertShr(inst)
	case ir.OpAdd, ir.OpSub:
		err = c.convertAddSub(inst)
	case ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem:
		err = lerrors.NewExpandError(lerrors.KindUnsupportedBinaryOp, inst, "%s", op)
	case ir.OpLoad:
		err = c.convertLoad(inst)
	case ir.OpStore:
		err = c.convertStore(inst)
	case ir.OpICmp:
		err = c.convertICmp(inst)
	case ir.OpSelect:
		err = c.convertSelect(inst)
	default:
		err = lerrors.NewExpandError(lerrors.KindUnhandledInstruction, inst, "%s", op)
	}

	var ee *lerrors.ExpandError
	if errors.As(err, &ee) && ee.Inst == nil {
		ee.Inst = inst
	}
	return err
}

// ============================================================================
// phi / 类型转换
// ============================================================================

func (c *converter) convertPhi(inst *ir.Instr) error {
	tys := SplitType(inst.Type())
	n := inst.NumIncoming()
	name := inst.Name()
	lo := c.b.CreatePhi(tys.Lo, n, suffix(name, ".lo"))
	hi := c.b.CreatePhi(tys.Hi, n, suffix(name, ".hi"))
	for i := 0; i < n; i++ {
		in := inst.IncomingValue(i)
		from := inst.IncomingBlock(i)

		// 回边上的来源可能还没有转换，先占位，遍历结束后修补
		var ops Pair
		if c.state.HasConverted(in) {
			var err error
			if ops, err = c.state.Converted(in); err != nil {
				return err
			}
		} else {
			ops = c.state.RecordForwardRef(in, lo, hi, i)
		}
		lo.AddIncoming(ops.Lo, from)
		hi.AddIncoming(ops.Hi, from)
	}
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

func (c *converter) convertZExt(inst *ir.Instr) error {
	src := inst.Operand(0)
	tys := SplitType(inst.Type())
	name := inst.Name()

	var result Pair
	if !ShouldConvert(src) {
		result.Lo = c.b.CreateZExtOrTrunc(src, tys.Lo, suffix(name, ".lo"))
		result.Hi = ir.ConstUint64(tys.Hi, 0)
	} else {
		ops, err := c.state.Converted(src)
		if err != nil {
			return err
		}
		result.Lo = ops.Lo
		result.Hi = c.b.CreateZExt(ops.Hi, tys.Hi, suffix(name, ".hi"))
	}
	c.state.RecordPair(inst, result)
	return nil
}

func (c *converter) convertTrunc(inst *ir.Instr) error {
	src := inst.Operand(0)
	ops, err := c.state.Converted(src)
	if err != nil {
		return err
	}
	name := inst.Name()

	// 截断到合法位宽只需要低段
	if !ShouldConvert(inst) {
		c.state.RecordLegal(inst, c.b.CreateZExtOrTrunc(ops.Lo, inst.Type(), name))
		return nil
	}
	tys := SplitType(inst.Type())
	hi := c.b.CreateZExtOrTrunc(ops.Hi, tys.Hi, suffix(name, ".hi"))
	c.state.RecordPair(inst, Pair{Lo: ops.Lo, Hi: hi})
	return nil
}

func (c *converter) convertBitCast(inst *ir.Instr) error {
	src := inst.Operand(0)
	switch {
	case inst.Type().IsVector() && ShouldConvert(src):
		return c.convertIntToVector(inst)
	case src.Type().IsVector() && ShouldConvert(inst):
		return c.convertVectorToInt(inst)
	default:
		return lerrors.NewExpandError(lerrors.KindUnhandledInstruction, inst, "bitcast from %s to %s", src.Type(), inst.Type())
	}
}

// convertIntToVector 超宽整数 -> 向量：拆出所有分段，统一元素类型后拼成向量
func (c *converter) convertIntToVector(inst *ir.Instr) error {
	chain, err := c.splitChain(inst.Operand(0))
	if err != nil {
		return err
	}
	elems, err := c.unifyElementTypes(chain)
	if err != nil {
		return err
	}

	vecTy := ir.Vector(elems[0].Type(), len(elems))
	var vec ir.Value = ir.Undef(vecTy)
	for i, e := range elems {
		vec = c.b.CreateInsertElement(vec, e, i, "")
	}
	vec = c.b.CreateBitCast(vec, inst.Type(), "")
	c.state.RecordLegal(inst, vec)
	return nil
}

// convertVectorToInt 向量 -> 超宽整数：按元素切片，低段取前 64 位的元素，其余元素组成高段
func (c *converter) convertVectorToInt(inst *ir.Instr) error {
	src := inst.Operand(0)
	tys := SplitType(inst.Type())
	elemBits := src.Type().Elem().Bits()
	if elemBits > LegalWidth || LegalWidth%elemBits != 0 || tys.Hi.Bits()%elemBits != 0 {
		return lerrors.NewExpandError(lerrors.KindMalformedVector, inst,
			"%d-bit elements cannot be split at bit %d", elemBits, LegalWidth)
	}

	root, child := src, 0
	if ve, ok := c.state.vector(src); ok {
		root, child = ve.parent, ve.childID
	} else if !c.state.hasElements(src) {
		c.extractAll(src)
		// 抽取可能插在同一块中 inst 之前，插入点需要重新定位
		c.b.SetInsertPointAfter(inst)
	}

	lowNo := LegalWidth / elemBits
	highNo := tys.Hi.Bits() / elemBits
	loElems, err := c.gather(root, child, lowNo)
	if err != nil {
		return err
	}
	hiElems, err := c.gather(root, child+lowNo, highNo)
	if err != nil {
		return err
	}

	name := inst.Name()
	lo := c.b.CreateBitCast(c.buildVectorOrScalar(loElems), tys.Lo, suffix(name, ".lo"))
	newVec := c.buildVectorOrScalar(hiElems)
	hi := c.b.CreateBitCast(newVec, tys.Hi, suffix(name, ".hi"))

	// 高段仍超宽时会再次走到这里，从根向量的偏移处继续切片
	c.state.recordVector(newVec, vectorElement{parent: root, childID: child + lowNo})
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

func (c *converter) gather(root ir.Value, from, n int) ([]ir.Value, error) {
	out := make([]ir.Value, 0, n)
	for i := 0; i < n; i++ {
		e, err := c.state.element(root, from+i)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ============================================================================
// 二元运算
// ============================================================================

func (c *converter) operands(inst *ir.Instr) (Pair, Pair, error) {
	lhs, err := c.state.Converted(inst.Operand(0))
	if err != nil {
		return Pair{}, Pair{}, err
	}
	rhs, err := c.state.Converted(inst.Operand(1))
	if err != nil {
		return Pair{}, Pair{}, err
	}
	return lhs, rhs, nil
}

func (c *converter) convertBitwise(inst *ir.Instr) error {
	lhs, rhs, err := c.operands(inst)
	if err != nil {
		return err
	}
	name := inst.Name()
	lo := c.b.CreateBinOp(inst.Op(), lhs.Lo, rhs.Lo, suffix(name, ".lo"))
	hi := c.b.CreateBinOp(inst.Op(), lhs.Hi, rhs.Hi, suffix(name, ".hi"))
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

// shiftAmount 返回常量移位位数；超过总位宽按 0 处理
func shiftAmount(inst *ir.Instr) (int, error) {
	amt, ok := inst.Operand(1).(*ir.Const)
	if !ok || amt.Kind() != ir.ConstIntKind {
		return 0, lerrors.NewExpandError(lerrors.KindVariableShift, inst, "")
	}
	width := inst.Type().Bits()
	v := amt.Int()
	if v.Cmp(big.NewInt(int64(width))) >= 0 {
		return 0, nil
	}
	return int(v.Int64()), nil
}

//	|<------------Hi---------->|<-------Lo------>|
//	|abcdefghijklmnopqrstuvwxyz|ABCDEFGHIJKLMNOPQ|
//
//	|efghijklmnopqrstuvwxyzABCD|EFGHIJKLMNOPQ0000|  s < 64: 部分 Lo 进入 Hi
//	|vwxyzABCDEFGHIJKLMNOPQ0000|00000000000000000|  s >= 64: Lo 为 0，保留部分 Hi
//	|DEFGHIJKLMNOPQ000000000000|00000000000000000|  s >= 64 + Hi 位宽: Hi 全部移出
func (c *converter) convertShl(inst *ir.Instr) error {
	s, err := shiftAmount(inst)
	if err != nil {
		return err
	}
	lhs, err := c.state.Converted(inst.Operand(0))
	if err != nil {
		return err
	}
	if s == 0 {
		c.state.RecordPair(inst, lhs)
		return nil
	}

	tys := SplitType(inst.Type())
	hiBits := tys.Hi.Bits()
	name := inst.Name()

	var lo, hi ir.Value
	switch {
	case s < LegalWidth:
		lo = c.b.CreateShl(lhs.Lo, s, suffix(name, ".lo"))
		shr := c.b.CreateLShr(lhs.Lo, LegalWidth-s, suffix(name, ".lo.shr"))
		hi = c.b.CreateZExtOrTrunc(shr, tys.Hi, suffix(name, ".lo.ext"))
	case s == LegalWidth:
		lo = ir.ConstUint64(tys.Lo, 0)
		hi = c.b.CreateZExtOrTrunc(lhs.Lo, tys.Hi, suffix(name, ".lo.ext"))
	default:
		lo = ir.ConstUint64(tys.Lo, 0)
		ext := c.b.CreateZExtOrTrunc(lhs.Lo, tys.Hi, suffix(name, ".lo.ext"))
		hi = c.b.CreateShl(ext, s-LegalWidth, suffix(name, ".lo.shl"))
	}
	if s < hiBits {
		hiShl := c.b.CreateShl(lhs.Hi, s, suffix(name, ".hi.shl"))
		hi = c.b.CreateOr(hi, hiShl, suffix(name, ".or"))
	}
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

//	|<--Hi-->|<-------Lo------>|
//	|abcdefgh|ABCDEFGHIJKLMNOPQ|
//
//	|0000abcd|defgABCDEFGHIJKLM|  s < 64: 部分 Hi 进入 Lo
//	|00000000|00abcdefgABCDEFGH|  s >= Hi 位宽: Hi 为 0（ashr 为符号位）
//	|00000000|000000000000abcde|  s > 64: Lo 只剩 Hi 的一部分
func (c *converter) convertShr(inst *ir.Instr) error {
	s, err := shiftAmount(inst)
	if err != nil {
		return err
	}
	lhs, err := c.state.Converted(inst.Operand(0))
	if err != nil {
		return err
	}
	if s == 0 {
		c.state.RecordPair(inst, lhs)
		return nil
	}

	op := inst.Op()
	arith := op == ir.OpAShr
	tys := SplitType(inst.Type())
	hiBits := tys.Hi.Bits()
	name := inst.Name()

	ext := func(v ir.Value, nm string) ir.Value {
		if arith {
			return c.b.CreateSExtOrTrunc(v, tys.Lo, nm)
		}
		return c.b.CreateZExtOrTrunc(v, tys.Lo, nm)
	}

	var lo, hi ir.Value
	switch {
	case s < LegalWidth:
		hiPart := c.b.CreateShl(ext(lhs.Hi, suffix(name, ".hi.ext")), LegalWidth-s, suffix(name, ".hi.shl"))
		loPart := c.b.CreateLShr(lhs.Lo, s, suffix(name, ".lo.shr"))
		lo = c.b.CreateOr(hiPart, loPart, suffix(name, ".lo"))
	case s == LegalWidth:
		lo = ext(lhs.Hi, suffix(name, ".hi.ext"))
	default:
		shifted := c.b.CreateBinOp(op, lhs.Hi, ir.ConstUint64(tys.Hi, uint64(s-LegalWidth)), suffix(name, ".hi.shr"))
		lo = ext(shifted, suffix(name, ".lo.ext"))
	}

	switch {
	case s < hiBits:
		hi = c.b.CreateBinOp(op, lhs.Hi, ir.ConstUint64(tys.Hi, uint64(s)), suffix(name, ".hi"))
	case arith:
		hi = c.b.CreateAShr(lhs.Hi, hiBits-1, suffix(name, ".hi"))
	default:
		hi = ir.ConstUint64(tys.Hi, 0)
	}
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

// convertAddSub 低段允许回绕，进位 / 借位通过无符号比较得到
func (c *converter) convertAddSub(inst *ir.Instr) error {
	lhs, rhs, err := c.operands(inst)
	if err != nil {
		return err
	}
	tys := SplitType(inst.Type())
	name := inst.Name()

	var lo, hi ir.Value
	if inst.Op() == ir.OpAdd {
		cmp := c.b.CreateICmp(ir.PredULT, lhs.Lo, rhs.Lo, suffix(name, ".cmp"))
		limit := c.b.CreateSelect(cmp, rhs.Lo, lhs.Lo, suffix(name, ".limit"))
		lo = c.b.CreateAdd(lhs.Lo, rhs.Lo, suffix(name, ".lo"))
		overflowed := c.b.CreateICmp(ir.PredULT, lo, limit, suffix(name, ".overflowed"))
		carry := c.b.CreateZExtOrTrunc(overflowed, tys.Hi, suffix(name, ".carry"))
		sum := c.b.CreateAdd(lhs.Hi, rhs.Hi, suffix(name, ".hi"))
		hi = c.b.CreateAdd(sum, carry, suffix(name, ".carried"))
	} else {
		borrow := c.b.CreateICmp(ir.PredULT, lhs.Lo, rhs.Lo, suffix(name, ".borrow"))
		borrowing := c.b.CreateSExtOrTrunc(borrow, tys.Hi, suffix(name, ".borrowing"))
		lo = c.b.CreateSub(lhs.Lo, rhs.Lo, suffix(name, ".lo"))
		diff := c.b.CreateSub(lhs.Hi, rhs.Hi, suffix(name, ".hi"))
		hi = c.b.CreateAdd(diff, borrowing, suffix(name, ".borrowed"))
	}
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

// ============================================================================
// 内存
// ============================================================================

// alignPair 低段使用原对齐（未指定时取整个类型的首选对齐），高段对齐不超过 8
func (c *converter) alignPair(align int, t *ir.Type) (int, int) {
	lo := align
	if lo == 0 {
		lo = c.layout.PrefAlign(t)
	}
	return lo, ir.MinAlign(lo, legalBytes)
}

// limbPointers 返回指向低段和高段的指针（高段位于低段之后 8 字节）
func (c *converter) limbPointers(ptr ir.Value, tys TypePair) (ir.Value, ir.Value) {
	as := ptr.Type().AddrSpace()
	name := ptr.Name()
	loPtr := c.b.CreateBitCast(ptr, ir.Pointer(tys.Lo, as), suffix(name, ".loty"))
	hiAddr := c.b.CreateConstGEP(loPtr, 1, suffix(name, ".hi.gep"))
	hiPtr := c.b.CreateBitCast(hiAddr, ir.Pointer(tys.Hi, as), suffix(name, ".hity"))
	return loPtr, hiPtr
}

func (c *converter) convertLoad(inst *ir.Instr) error {
	tys := SplitType(inst.Type())
	loAlign, hiAlign := c.alignPair(inst.Align(), inst.Type())
	loPtr, hiPtr := c.limbPointers(inst.Operand(0), tys)
	name := inst.Name()
	lo := c.b.CreateLoad(loPtr, loAlign, suffix(name, ".lo"))
	hi := c.b.CreateLoad(hiPtr, hiAlign, suffix(name, ".hi"))
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

func (c *converter) convertStore(inst *ir.Instr) error {
	val := inst.Operand(0)
	if !ShouldConvert(val) {
		return lerrors.NewExpandError(lerrors.KindUnhandledInstruction, inst, "store of %s", val.Type())
	}
	vals, err := c.state.Converted(val)
	if err != nil {
		return err
	}
	tys := SplitType(val.Type())
	loAlign, hiAlign := c.alignPair(inst.Align(), val.Type())
	loPtr, hiPtr := c.limbPointers(inst.Operand(1), tys)
	lo := c.b.CreateStore(vals.Lo, loPtr, loAlign)
	hi := c.b.CreateStore(vals.Hi, hiPtr, hiAlign)
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}

// ============================================================================
// 比较与选择
// ============================================================================

// convertICmp 只支持相等比较：两段都相等才相等，ne 取反
func (c *converter) convertICmp(inst *ir.Instr) error {
	pred := inst.Pred()
	if !pred.IsEquality() {
		return lerrors.NewExpandError(lerrors.KindUnsupportedPredicate, inst, "icmp %s", pred)
	}
	lhs, rhs, err := c.operands(inst)
	if err != nil {
		return err
	}
	name := inst.Name()
	lo := c.b.CreateICmp(ir.PredEQ, lhs.Lo, rhs.Lo, suffix(name, ".lo"))
	hi := c.b.CreateICmp(ir.PredEQ, lhs.Hi, rhs.Hi, suffix(name, ".hi"))

	var result ir.Value
	if pred == ir.PredEQ {
		result = c.b.CreateAnd(lo, hi, suffix(name, ".result"))
	} else {
		eq := c.b.CreateAnd(lo, hi, suffix(name, ".eq"))
		result = c.b.CreateXor(eq, ir.ConstBool(true), suffix(name, ".result"))
	}
	c.state.RecordLegal(inst, result)
	return nil
}

func (c *converter) convertSelect(inst *ir.Instr) error {
	cond := inst.Operand(0)
	t, err := c.state.Converted(inst.Operand(1))
	if err != nil {
		return err
	}
	f, err := c.state.Converted(inst.Operand(2))
	if err != nil {
		return err
	}
	name := inst.Name()
	lo := c.b.CreateSelect(cond, t.Lo, f.Lo, suffix(name, ".lo"))
	hi := c.b.CreateSelect(cond, t.Hi, f.Hi, suffix(name, ".hi"))
	c.state.RecordPair(inst, Pair{Lo: lo, Hi: hi})
	return nil
}
