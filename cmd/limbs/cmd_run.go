package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/interp"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/pass"
)

// runCommand 解释执行函数
//
// 整数参数直接传入；指针参数会分配一个指向类型的对象，
// 参数值写入该对象，执行结束后输出对象的内容。向量用逗号分隔元素。
func (a *app) runCommand() *cobra.Command {
	var (
		expanded bool
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:   "run <file.ll> <function> [args...]",
		Short: i18n.T(i18n.CmdRunShort),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := load(args[0])
			if err != nil {
				return err
			}
			fn, err := src.function(args[1])
			if err != nil {
				return err
			}

			if expanded {
				fn, err = a.expandOne(cmd.Context(), src, fn)
				if err != nil {
					return err
				}
			}

			m := interp.New(a.cfg.DataLayout(), interp.WithMaxSteps(maxSteps), interp.WithLogger(a.logger))
			err = execute(cmd.OutOrStdout(), m, fn, args[2:])
			var re *lerrors.RuntimeError
			if errors.As(err, &re) {
				src.reporter.ReportRuntimeError(re)
				return &exitError{code: 1}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&expanded, "expanded", false, "run the function after expansion")
	cmd.Flags().IntVar(&maxSteps, "max-steps", interp.DefaultMaxSteps, "maximum number of executed instructions")
	// 函数名之后的 -1 等是参数而不是选项
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// expandOne 扩展单个函数，失败时输出诊断
func (a *app) expandOne(ctx context.Context, src *source, fn *ir.Func) (*ir.Func, error) {
	out, _, err := a.pipeline().RunFunc(ctx, fn)
	if err != nil {
		return nil, src.fail(pass.Diagnostics(err, src.path, src.srcmap))
	}
	return out, nil
}

// slot 指针参数对应的对象
type slot struct {
	param *ir.Param
	addr  uint64
}

func execute(w io.Writer, m *interp.Machine, fn *ir.Func, raw []string) error {
	if len(raw) != len(fn.Params) {
		return &lerrors.RuntimeError{
			Code:    lerrors.R0005,
			Func:    fn.Name,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(fn.Params), len(raw)),
		}
	}

	args := make([]interp.Value, len(raw))
	var slots []slot
	for i, p := range fn.Params {
		t := p.Type()
		if t.IsPointer() {
			v, err := parseValue(t.Elem(), raw[i])
			if err != nil {
				return fmt.Errorf("%s", i18n.T(i18n.ErrBadArgument, raw[i], p.Ident()))
			}
			addr := m.Mem.Alloc(t.Elem(), 0)
			if err := m.Mem.Store(addr, t.Elem(), v); err != nil {
				return err
			}
			slots = append(slots, slot{param: p, addr: addr})
			args[i] = interp.FromUint64(addr)
			continue
		}
		v, err := parseValue(t, raw[i])
		if err != nil {
			return fmt.Errorf("%s", i18n.T(i18n.ErrBadArgument, raw[i], p.Ident()))
		}
		args[i] = v
	}

	ret, err := m.Call(fn, args...)
	if err != nil {
		return err
	}
	if !fn.RetType.IsVoid() {
		fmt.Fprintf(w, "ret %s %s\n", fn.RetType, ret.Format(fn.RetType))
	}
	for _, s := range slots {
		elem := s.param.Type().Elem()
		v, err := m.Mem.Load(s.addr, elem)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s = %s %s\n", s.param.Ident(), elem, v.Format(elem))
	}
	return nil
}

// parseValue 解析整数（十进制、0x 十六进制，可为负数）或逗号分隔的向量
func parseValue(t *ir.Type, s string) (interp.Value, error) {
	if t.IsVector() {
		parts := strings.Split(s, ",")
		if len(parts) != t.Len() {
			return interp.Value{}, fmt.Errorf("expected %d elements, got %d", t.Len(), len(parts))
		}
		elems := make([]uint64, len(parts))
		for i, part := range parts {
			v, err := parseInt(t.Elem(), strings.TrimSpace(part))
			if err != nil {
				return interp.Value{}, err
			}
			elems[i] = v.Uint64()
		}
		return interp.FromElems(elems...), nil
	}
	if !t.IsInt() && !t.IsPointer() {
		return interp.Value{}, fmt.Errorf("unsupported parameter type %s", t)
	}
	return parseInt(t, s)
}

func parseInt(t *ir.Type, s string) (interp.Value, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return interp.Value{}, fmt.Errorf("invalid integer %q", s)
	}
	bits := lo.Ternary(t.IsPointer(), 64, t.Bits())
	if bits < interp.MaxBits {
		m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		v.And(v, m.Sub(m, big.NewInt(1)))
	}
	return interp.FromBig(v), nil
}
