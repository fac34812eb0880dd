package interp

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/ir"
)

// DefaultMaxSteps 默认执行步数上限
const DefaultMaxSteps = 1 << 20

// Machine 解释器
type Machine struct {
	Mem      *Memory
	MaxSteps int
	logger   *zap.Logger
}

// Option Machine 选项
type Option func(*Machine)

// WithMaxSteps 设置执行步数上限
func WithMaxSteps(n int) Option {
	return func(m *Machine) { m.MaxSteps = n }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New 创建解释器
func New(layout ir.DataLayout, opts ...Option) *Machine {
	if layout == nil {
		layout = ir.NewDefaultLayout()
	}
	m := &Machine{Mem: NewMemory(layout), MaxSteps: DefaultMaxSteps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// frame 一次函数调用的状态
type frame struct {
	m    *Machine
	fn   *ir.Func
	vals map[ir.Value]Value
	cur  *ir.Block
	inst *ir.Instr
}

// Call 执行函数，返回值对 void 函数无意义
func (m *Machine) Call(fn *ir.Func, args ...Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, &lerrors.RuntimeError{
			Code:    lerrors.R0005,
			Func:    fn.Name,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(fn.Params), len(args)),
		}
	}
	f := &frame{m: m, fn: fn, vals: make(map[ir.Value]Value)}
	for i, p := range fn.Params {
		f.vals[p] = args[i]
	}
	v, err := f.run()
	if err != nil {
		return Value{}, f.annotate(err)
	}
	return v, nil
}

// annotate 给解释错误补充位置
func (f *frame) annotate(err error) error {
	var re *lerrors.RuntimeError
	if !errors.As(err, &re) {
		return err
	}
	if re.Func == "" {
		re.Func = f.fn.Name
	}
	if re.Block == "" && f.cur != nil {
		re.Block = f.cur.Name()
	}
	if re.Inst == "" && f.inst != nil {
		re.Inst = f.inst.String()
	}
	return re
}

func (f *frame) run() (Value, error) {
	var prev *ir.Block
	f.cur = f.fn.Entry()
	steps := 0
	for {
		if f.cur == nil {
			return Value{}, runtimeErr(lerrors.R0006, "function has no entry block")
		}
		if err := f.enterBlock(prev); err != nil {
			return Value{}, err
		}
		var next *ir.Block
		for _, inst := range f.cur.Instrs {
			if inst.IsPhi() {
				continue
			}
			steps++
			if f.m.MaxSteps > 0 && steps > f.m.MaxSteps {
				return Value{}, runtimeErr(lerrors.R0001, fmt.Sprintf("exceeded %d steps", f.m.MaxSteps))
			}
			f.inst = inst
			switch inst.Op() {
			case ir.OpRet:
				if inst.NumOperands() == 0 {
					return Value{}, nil
				}
				return f.get(inst.Operand(0))
			case ir.OpBr:
				next = inst.Blocks()[0]
			case ir.OpCondBr:
				c, err := f.get(inst.Operand(0))
				if err != nil {
					return Value{}, err
				}
				if c.Int.IsZero() {
					next = inst.Blocks()[1]
				} else {
					next = inst.Blocks()[0]
				}
			case ir.OpSwitch:
				dest, err := f.switchTarget(inst)
				if err != nil {
					return Value{}, err
				}
				next = dest
			case ir.OpUnreachable:
				return Value{}, runtimeErr(lerrors.R0006, "reached unreachable")
			default:
				v, err := f.exec(inst)
				if err != nil {
					return Value{}, err
				}
				if !inst.Type().IsVoid() {
					f.vals[inst] = v
				}
			}
			if next != nil {
				break
			}
		}
		if next == nil {
			return Value{}, runtimeErr(lerrors.R0006, "block "+f.cur.Name()+" has no terminator")
		}
		prev, f.cur = f.cur, next
	}
}

// enterBlock 同时求值块首的所有 phi
func (f *frame) enterBlock(prev *ir.Block) error {
	var phis []*ir.Instr
	var vals []Value
	for _, inst := range f.cur.Instrs {
		if !inst.IsPhi() {
			break
		}
		f.inst = inst
		found := false
		for i := 0; i < inst.NumIncoming(); i++ {
			if inst.IncomingBlock(i) == prev {
				v, err := f.get(inst.IncomingValue(i))
				if err != nil {
					return err
				}
				phis = append(phis, inst)
				vals = append(vals, v)
				found = true
				break
			}
		}
		if !found {
			return runtimeErr(lerrors.R0006, "phi has no incoming value for the predecessor")
		}
	}
	for i, p := range phis {
		f.vals[p] = vals[i]
	}
	return nil
}

func (f *frame) switchTarget(inst *ir.Instr) (*ir.Block, error) {
	c, err := f.get(inst.Operand(0))
	if err != nil {
		return nil, err
	}
	blocks := inst.Blocks()
	for i := 1; i < inst.NumOperands(); i++ {
		cv, err := f.get(inst.Operand(i))
		if err != nil {
			return nil, err
		}
		if cv.Int.Eq(&c.Int) {
			return blocks[i], nil
		}
	}
	return blocks[0], nil
}

// get 读取操作数的值，undef / poison 读作 0
func (f *frame) get(v ir.Value) (Value, error) {
	if c, ok := v.(*ir.Const); ok {
		return constValue(c)
	}
	val, ok := f.vals[v]
	if !ok {
		return Value{}, runtimeErr(lerrors.R0006, "use of "+v.Ident()+" before definition")
	}
	return val, nil
}

func constValue(c *ir.Const) (Value, error) {
	t := c.Type()
	if t.IsInt() {
		if err := checkWidth(t.Bits()); err != nil {
			return Value{}, err
		}
	}
	if c.Kind() == ir.ConstIntKind {
		return FromBig(c.Int()), nil
	}
	if t.IsVector() {
		return Value{Elems: make([]uint256.Int, t.Len())}, nil
	}
	return Value{}, nil
}

func runtimeErr(code, msg string) error {
	return &lerrors.RuntimeError{Code: code, Message: msg}
}
