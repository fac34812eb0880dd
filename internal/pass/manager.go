// manager.go - Pass 管理器

package pass

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tangzhangming/limbs/internal/expand"
	"github.com/tangzhangming/limbs/internal/ir"
)

// ============================================================================
// 统计
// ============================================================================

// Stats Pass 统计信息，可被多个 goroutine 同时更新
type Stats struct {
	Functions   atomic.Int64
	Modified    atomic.Int64
	Failed      atomic.Int64
	Expanded    atomic.Int64
	ForwardRefs atomic.Int64
	Erased      atomic.Int64
}

func (s *Stats) record(r expand.Result) {
	s.Expanded.Add(int64(r.Expanded))
	s.ForwardRefs.Add(int64(r.ForwardRefs))
	s.Erased.Add(int64(r.Erased))
}

// Snapshot 统计快照
type Snapshot struct {
	Functions   int64 `json:"functions"`
	Modified    int64 `json:"modified"`
	Failed      int64 `json:"failed"`
	Expanded    int64 `json:"expanded"`
	ForwardRefs int64 `json:"forward_refs"`
	Erased      int64 `json:"erased"`
}

// Snapshot 返回当前统计
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Functions:   s.Functions.Load(),
		Modified:    s.Modified.Load(),
		Failed:      s.Failed.Load(),
		Expanded:    s.Expanded.Load(),
		ForwardRefs: s.ForwardRefs.Load(),
		Erased:      s.Erased.Load(),
	}
}

// ============================================================================
// Pass 管理器
// ============================================================================

// Manager Pass 管理器
type Manager struct {
	passes      []Pass
	parallelism int
	logger      *zap.Logger
	stats       *Stats
}

// Option Manager 选项
type Option func(*Manager)

// WithParallelism 设置模块级同时处理的函数数量
func WithParallelism(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.parallelism = n
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager 创建 Pass 管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{parallelism: 1, logger: zap.NewNop(), stats: &Stats{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewStandardPipeline 创建标准流水线：扩展，随后可选地校验
func NewStandardPipeline(layout ir.DataLayout, verify bool, opts ...Option) *Manager {
	m := NewManager(opts...)
	m.AddPass(NewExpandPass(expand.New(layout, expand.WithLogger(m.logger)), m.stats))
	if verify {
		m.AddPass(VerifyPass{})
		m.AddPass(VerifyLegalPass{Width: expand.LegalWidth})
	}
	return m
}

// AddPass 添加 Pass
func (m *Manager) AddPass(p Pass) {
	m.passes = append(m.passes, p)
}

// Names 返回 Pass 名称
func (m *Manager) Names() []string {
	names := make([]string, len(m.passes))
	for i, p := range m.passes {
		names[i] = p.Name()
	}
	return names
}

// Stats 获取统计信息
func (m *Manager) Stats() *Stats {
	return m.stats
}

// RunFunc 在 fn 的副本上运行所有 Pass
//
// 成功且有修改时返回副本，没有修改时返回 fn 本身；失败时 fn 不受影响。
func (m *Manager) RunFunc(ctx context.Context, fn *ir.Func) (*ir.Func, bool, error) {
	m.stats.Functions.Inc()
	work, origins := fn.CloneWithOrigins()

	changed := false
	for _, p := range m.passes {
		c, err := p.Run(ctx, work)
		if err != nil {
			m.stats.Failed.Inc()
			m.logger.Debug("pass failed",
				zap.String("pass", p.Name()),
				zap.String("func", fn.Name),
				zap.Error(err))
			return fn, false, locate(err, p.Name(), fn, origins)
		}
		changed = changed || c
	}

	if !changed {
		return fn, false, nil
	}
	m.stats.Modified.Inc()
	m.logger.Debug("function rewritten", zap.String("func", fn.Name))
	return work, true, nil
}

// RunModule 对模块中的每个函数运行流水线，返回被修改的函数数量
//
// 失败的函数保持原样，其余函数照常替换；所有失败合并为一个错误返回。
func (m *Manager) RunModule(ctx context.Context, mod *ir.Module) (int, error) {
	results := make([]*ir.Func, len(mod.Funcs))
	modified := atomic.NewInt64(0)

	var mu sync.Mutex
	var errs error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i, fn := range mod.Funcs {
		i, fn := i, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, changed, err := m.RunFunc(ctx, fn)
			results[i] = out
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return nil
			}
			if changed {
				modified.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(modified.Load()), multierr.Append(errs, err)
	}

	for i, out := range results {
		if out != nil {
			mod.Funcs[i] = out
		}
	}
	m.logger.Info("module processed",
		zap.String("module", mod.Name),
		zap.Int("functions", len(mod.Funcs)),
		zap.Int64("modified", modified.Load()),
		zap.Bool("failed", errs != nil))
	return int(modified.Load()), errs
}
