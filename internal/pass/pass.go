// Package pass 按顺序在函数上运行 Pass，并在模块级并行处理函数。
//
// 每个函数都在副本上运行整条流水线，全部成功后才替换原函数，
// 因此失败的函数保持原样。
package pass

import (
	"context"
	"errors"
	"fmt"

	"github.com/tangzhangming/limbs/internal/expand"
	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// ============================================================================
// Pass 接口
// ============================================================================

// Pass 函数级 Pass
type Pass interface {
	Name() string
	Run(ctx context.Context, fn *ir.Func) (bool, error) // 返回是否有修改
}

// Error 某个 Pass 在某个函数上失败
type Error struct {
	Pass string
	Func *ir.Func  // 原函数
	Inst *ir.Instr // 原函数中出错的指令，可能为 nil
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pass, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ============================================================================
// 大整数扩展 Pass
// ============================================================================

// ExpandPass 包装 expand.Expander
type ExpandPass struct {
	expander *expand.Expander
	stats    *Stats
}

// NewExpandPass 创建扩展 Pass，stats 可以为 nil
func NewExpandPass(e *expand.Expander, stats *Stats) *ExpandPass {
	return &ExpandPass{expander: e, stats: stats}
}

// Name 返回 Pass 名称
func (p *ExpandPass) Name() string {
	return "expand-large-ints"
}

// Run 运行 Pass
func (p *ExpandPass) Run(ctx context.Context, fn *ir.Func) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, err := p.expander.Run(fn)
	if err != nil {
		return false, err
	}
	if p.stats != nil {
		p.stats.record(res)
	}
	return res.Modified, nil
}

// ============================================================================
// 校验 Pass
// ============================================================================

// VerifyPass 检查函数结构
type VerifyPass struct{}

// Name 返回 Pass 名称
func (VerifyPass) Name() string {
	return "verify"
}

// Run 运行 Pass
func (VerifyPass) Run(_ context.Context, fn *ir.Func) (bool, error) {
	return false, ir.Verify(fn)
}

// VerifyLegalPass 检查函数中不再有超宽整数
type VerifyLegalPass struct {
	Width int
}

// Name 返回 Pass 名称
func (VerifyLegalPass) Name() string {
	return "verify-legal"
}

// Run 运行 Pass
func (p VerifyLegalPass) Run(_ context.Context, fn *ir.Func) (bool, error) {
	width := p.Width
	if width == 0 {
		width = expand.LegalWidth
	}
	return false, ir.VerifyLegal(fn, width)
}

// ============================================================================
// 错误定位
// ============================================================================

// locate 把副本中的出错指令映射回原函数
func locate(err error, passName string, orig *ir.Func, origins map[*ir.Instr]*ir.Instr) *Error {
	pe := &Error{Pass: passName, Func: orig, Err: err}
	var ee *lerrors.ExpandError
	if !errors.As(err, &ee) {
		return pe
	}
	if inst, ok := ee.Inst.(*ir.Instr); ok {
		// 新生成的指令在原函数中没有对应
		pe.Inst = origins[inst]
	}
	return pe
}
