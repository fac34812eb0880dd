package expand

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// Expander 大整数扩展
type Expander struct {
	layout ir.DataLayout
	logger *zap.Logger
}

// Option Expander 选项
type Option func(*Expander)

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// New 创建 Expander，layout 为 nil 时使用默认布局
func New(layout ir.DataLayout, opts ...Option) *Expander {
	if layout == nil {
		layout = ir.NewDefaultLayout()
	}
	e := &Expander{layout: layout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result 一次函数扩展的统计
type Result struct {
	Modified    bool
	Expanded    int // 转换的指令数
	ForwardRefs int // 修补的前向引用数
	Erased      int // 删除的指令数
}

// Run 扩展函数中所有超宽整数
//
// 失败时函数可能已被部分修改，调用方需要在副本上运行（见 internal/pass）。
func (e *Expander) Run(fn *ir.Func) (Result, error) {
	var res Result
	for _, p := range fn.Params {
		if ShouldConvert(p) {
			return res, &lerrors.ExpandError{
				Kind:   lerrors.KindIllegalArgument,
				Func:   fn.Name,
				Detail: fmt.Sprintf("%s %%%s", p.Type(), p.Name()),
			}
		}
	}

	if !lo.SomeBy(fn.Instrs(), needsConversion) {
		return res, nil
	}

	// 不可达块不会执行，其中的值也可能先于定义被访问，直接删除
	if removed := fn.RemoveUnreachableBlocks(); removed > 0 {
		res.Modified = true
		e.logger.Debug("removed unreachable blocks", zap.String("func", fn.Name), zap.Int("count", removed))
	}

	state := NewState()
	c := &converter{fn: fn, state: state, layout: e.layout, logger: e.logger}

	for _, bb := range ir.ReversePostOrder(fn) {
		for i := 0; i < len(bb.Instrs); i++ {
			inst := bb.Instrs[i]
			if !needsConversion(inst) {
				continue
			}
			if err := c.convert(inst); err != nil {
				return res, withFunc(err, fn)
			}
			res.Modified = true
			res.Expanded++
			// 缓存向量元素时可能在当前指令之前插入指令
			i = bb.IndexOf(inst)
		}
	}

	patched, err := state.PatchForwardRefs()
	if err != nil {
		return res, withFunc(err, fn)
	}
	res.ForwardRefs = patched
	if patched > 0 {
		e.logger.Debug("patched forward references", zap.String("func", fn.Name), zap.Int("count", patched))
	}

	erased, err := state.EraseQueued()
	if err != nil {
		return res, withFunc(err, fn)
	}
	res.Erased = erased
	e.logger.Debug("expanded function",
		zap.String("func", fn.Name),
		zap.Int("expanded", res.Expanded),
		zap.Int("erased", erased))
	return res, nil
}

func withFunc(err error, fn *ir.Func) error {
	var ee *lerrors.ExpandError
	if errors.As(err, &ee) && ee.Func == "" {
		ee.Func = fn.Name
	}
	return err
}
