package main

import (
	"fmt"
	"os"

	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/parser"
)

// exitError 诊断已经输出，只需以非零状态退出
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// source 一个解析过的输入文件
type source struct {
	path     string
	text     string
	module   *ir.Module
	srcmap   *parser.SourceMap
	reporter *lerrors.Reporter
}

// load 读取并解析 IR 文件，有语法错误时输出诊断并返回 exitError
func load(path string) (*source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := &source{path: path, text: string(data), reporter: lerrors.NewReporter(os.Stderr)}
	s.reporter.SetSource(path, s.text)

	p := parser.New(s.text, path)
	s.module = p.Parse()
	s.srcmap = p.SourceMap()
	if p.HasErrors() {
		for _, e := range p.Errors() {
			s.reporter.ReportError(e.ToCompileError())
		}
		s.reporter.Summary()
		return nil, &exitError{code: 1}
	}
	return s, nil
}

// fail 输出诊断并返回 exitError
func (s *source) fail(diags []*lerrors.CompileError) error {
	for _, d := range diags {
		s.reporter.ReportError(d)
	}
	s.reporter.Summary()
	return &exitError{code: 1}
}

// function 按名字查找函数
func (s *source) function(name string) (*ir.Func, error) {
	fn := s.module.Func(name)
	if fn == nil {
		return nil, fmt.Errorf("%s", i18n.T(i18n.ErrFuncNotFound, name))
	}
	return fn, nil
}
