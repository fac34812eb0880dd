package expand

import (
	"github.com/samber/lo"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// buildVectorOrScalar 把元素依次插入新向量；只有一个元素时直接返回它
//
// 总位宽超宽的向量只是中间结果（它的高段会从根向量重新切片），
// 这些插入指令会在最后被删除。
func (c *converter) buildVectorOrScalar(elems []ir.Value) ir.Value {
	if len(elems) == 1 {
		return elems[0]
	}
	elemTy := elems[0].Type()
	vecTy := ir.Vector(elemTy, len(elems))
	keep := IsLegal(vecTy.PrimitiveBits())

	var vec ir.Value = ir.Undef(vecTy)
	for i, e := range elems {
		ins := c.b.CreateInsertElement(vec, e, i, "")
		if !keep {
			c.state.addEraseCandidate(ins)
		}
		vec = ins
	}
	return vec
}

// splitChain 返回值的完整分段序列：Lo, Lo', ..., 最后的合法高段
func (c *converter) splitChain(v ir.Value) ([]ir.Value, error) {
	var chain []ir.Value
	for ShouldConvert(v) {
		p, err := c.state.Converted(v)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p.Lo)
		v = p.Hi
	}
	return append(chain, v), nil
}

// unifyElementTypes 让所有元素使用同一类型（最小位宽），较宽的元素按向量拆开
func (c *converter) unifyElementTypes(src []ir.Value) ([]ir.Value, error) {
	minWidth := lo.Min(lo.Map(src, func(v ir.Value, _ int) int { return v.Type().PrimitiveBits() }))
	unified := lo.EveryBy(src, func(v ir.Value) bool { return v.Type().PrimitiveBits() == minWidth })
	if unified {
		return src, nil
	}

	elemTy := ir.Int(minWidth)
	var dst []ir.Value
	for _, v := range src {
		size := v.Type().PrimitiveBits()
		if size%minWidth != 0 {
			return nil, lerrors.NewExpandError(lerrors.KindMalformedVector, nil,
				"%d-bit limb is not a multiple of %d bits", size, minWidth)
		}
		if size == minWidth {
			dst = append(dst, v)
			continue
		}
		n := size / minWidth
		casted := c.b.CreateBitCast(v, ir.Vector(elemTy, n), "")
		for j := 0; j < n; j++ {
			dst = append(dst, c.b.CreateExtractElement(casted, j, ""))
		}
	}
	return dst, nil
}

// extractAll 在向量定义处提取所有元素并缓存，保证缓存支配该向量的所有使用
func (c *converter) extractAll(vec ir.Value) {
	var bb *ir.Block
	var idx int
	switch def := vec.(type) {
	case *ir.Instr:
		bb = def.Parent()
		if def.IsPhi() {
			idx = bb.FirstNonPhi()
		} else {
			idx = bb.IndexOf(def) + 1
		}
	default:
		bb = c.fn.Entry()
		idx = bb.FirstNonPhi()
	}

	b := ir.NewBuilder(bb)
	b.SetInsertPoint(bb, idx)
	name := vec.Name()
	for i := 0; i < vec.Type().Len(); i++ {
		c.state.appendElement(vec, b.CreateExtractElement(vec, i, suffix(name, ".elem")))
	}
}
