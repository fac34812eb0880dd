package expand

import (
	"math/big"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// Pair 超宽值拆分后的低段和高段
type Pair struct {
	Lo, Hi ir.Value
}

// vectorElement 记录一个中间向量来自哪个根向量的第几个元素
type vectorElement struct {
	parent  ir.Value
	childID int
}

// forwardRef phi 在来源值转换之前就被访问时记录的待修补项
type forwardRef struct {
	val    ir.Value
	lo, hi *ir.Instr
	edge   int
}

// State 一次函数扩展的转换状态
//
// 按逆后序遍历时，只有 phi 可能先于其来源值被访问，
// 其余指令的操作数总是已经转换过。
type State struct {
	illegals map[ir.Value]Pair     // 超宽值 -> 拆分结果
	legals   map[ir.Value]ir.Value // 结果合法的指令 -> 替换值
	toErase  []*ir.Instr
	forward  []forwardRef
	vectors  map[ir.Value]vectorElement
	elements map[ir.Value][]ir.Value // 根向量 -> 已提取的元素
}

// NewState 创建空的转换状态
func NewState() *State {
	return &State{
		illegals: make(map[ir.Value]Pair),
		legals:   make(map[ir.Value]ir.Value),
		vectors:  make(map[ir.Value]vectorElement),
		elements: make(map[ir.Value][]ir.Value),
	}
}

// Converted 返回 v 的拆分结果，常量按需折叠
func (s *State) Converted(v ir.Value) (Pair, error) {
	if !ShouldConvert(v) {
		return Pair{}, lerrors.NewExpandError(lerrors.KindUnmappedValue, nil, "%s is not an oversized integer", v.Ident())
	}
	if c, ok := v.(*ir.Const); ok {
		return expandConstant(c)
	}
	found, ok := s.illegals[v]
	if !ok {
		return Pair{}, lerrors.NewExpandError(lerrors.KindUnmappedValue, nil, "%s %s", v.Type(), v.Ident())
	}
	if r, ok := s.legals[found.Lo]; ok {
		found.Lo = r
	}
	if r, ok := s.legals[found.Hi]; ok {
		found.Hi = r
	}
	return found, nil
}

// HasConverted 检查 v 是否已有拆分结果（常量总是有）
func (s *State) HasConverted(v ir.Value) bool {
	if ir.IsConst(v) {
		return true
	}
	_, ok := s.illegals[v]
	return ok
}

// RecordForwardRef 记录 phi 的前向引用，返回该来源暂用的 undef 占位
func (s *State) RecordForwardRef(v ir.Value, lo, hi *ir.Instr, edge int) Pair {
	s.forward = append(s.forward, forwardRef{val: v, lo: lo, hi: hi, edge: edge})
	return Pair{Lo: ir.Undef(lo.Type()), Hi: ir.Undef(hi.Type())}
}

// RecordPair 记录超宽指令的拆分结果，原指令稍后删除
func (s *State) RecordPair(from *ir.Instr, to Pair) {
	s.toErase = append(s.toErase, from)
	s.illegals[from] = to
}

// RecordLegal 结果合法的指令：把使用者改为 to，名字交给 to，原指令稍后删除
func (s *State) RecordLegal(from *ir.Instr, to ir.Value) {
	if ShouldConvert(from) {
		panic("expand: recording an oversized value as legal")
	}
	s.toErase = append(s.toErase, from)
	ir.ReplaceAllUsesWith(from, to)
	// 参数和常量保留自己的名字
	if _, ok := to.(*ir.Instr); ok {
		ir.TakeName(to, from)
	}
	s.legals[from] = to
}

// addEraseCandidate 删除临时生成的指令
func (s *State) addEraseCandidate(inst *ir.Instr) {
	s.toErase = append(s.toErase, inst)
}

// PatchForwardRefs 遍历结束后把最终的低段 / 高段填入 phi
//
// 高段本身超宽时，高段 phi 已经被拆分过，补丁需要沿着它的拆分结果继续向下。
func (s *State) PatchForwardRefs() (int, error) {
	patched := 0
	for _, f := range s.forward {
		ops, err := s.Converted(f.val)
		if err != nil {
			return patched, err
		}
		if err := s.patchJoin(f.lo, f.hi, f.edge, ops); err != nil {
			return patched, err
		}
		patched++
	}
	return patched, nil
}

func (s *State) patchJoin(lo, hi *ir.Instr, edge int, ops Pair) error {
	lo.SetIncomingValue(edge, ops.Lo)
	hi.SetIncomingValue(edge, ops.Hi)
	if !ShouldConvert(hi) {
		return nil
	}
	inner, ok := s.illegals[hi]
	if !ok {
		return lerrors.NewExpandError(lerrors.KindUnmappedValue, hi, "join was never expanded")
	}
	innerLo, okLo := inner.Lo.(*ir.Instr)
	innerHi, okHi := inner.Hi.(*ir.Instr)
	if !okLo || !okHi || !innerLo.IsPhi() || !innerHi.IsPhi() {
		return lerrors.NewExpandError(lerrors.KindUnmappedValue, hi, "join expanded into non-join limbs")
	}
	next, err := s.Converted(ops.Hi)
	if err != nil {
		return err
	}
	return s.patchJoin(innerLo, innerHi, edge, next)
}

// EraseQueued 断开并删除所有已被替换的指令，返回删除数量
func (s *State) EraseQueued() (int, error) {
	for _, inst := range s.toErase {
		inst.DropAllReferences()
	}
	for _, inst := range s.toErase {
		if ir.HasUses(inst) {
			users := ir.Users(inst)
			return 0, lerrors.NewExpandError(lerrors.KindUnhandledInstruction, users[0],
				"%s is still used after expansion", inst.Ident())
		}
	}
	for _, inst := range s.toErase {
		inst.EraseFromParent()
	}
	n := len(s.toErase)
	s.toErase = nil
	return n, nil
}

// ============================================================================
// 向量元素缓存
// ============================================================================

func (s *State) appendElement(root, elem ir.Value) {
	s.elements[root] = append(s.elements[root], elem)
}

func (s *State) element(root ir.Value, id int) (ir.Value, error) {
	elems := s.elements[root]
	if id < 0 || id >= len(elems) {
		return nil, lerrors.NewExpandError(lerrors.KindMalformedVector, nil,
			"element %d of %s was never extracted", id, root.Ident())
	}
	return elems[id], nil
}

func (s *State) hasElements(root ir.Value) bool {
	return len(s.elements[root]) > 0
}

func (s *State) recordVector(child ir.Value, elem vectorElement) {
	s.vectors[child] = elem
}

func (s *State) vector(child ir.Value) (vectorElement, bool) {
	e, ok := s.vectors[child]
	return e, ok
}

// ============================================================================
// 常量折叠
// ============================================================================

// expandConstant 把超宽常量拆成两个常量
func expandConstant(c *ir.Const) (Pair, error) {
	tys := SplitType(c.Type())
	switch c.Kind() {
	case ir.UndefKind:
		return Pair{Lo: ir.Undef(tys.Lo), Hi: ir.Undef(tys.Hi)}, nil
	case ir.ConstIntKind:
		v := c.Int()
		return Pair{
			Lo: ir.ConstInt(tys.Lo, v),
			Hi: ir.ConstInt(tys.Hi, new(big.Int).Rsh(v, LegalWidth)),
		}, nil
	default:
		return Pair{}, lerrors.NewExpandError(lerrors.KindUnsupportedConstant, nil, "%s", c)
	}
}
