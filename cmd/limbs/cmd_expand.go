package main

import (
	"fmt"
	"io"
	"os"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tangzhangming/limbs/internal/expand"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/pass"
)

// expandCommand 扩展文件中的所有函数并输出
func (a *app) expandCommand() *cobra.Command {
	var (
		output   string
		stats    bool
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "expand <file.ll>",
		Short: i18n.T(i18n.CmdExpandShort),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := load(args[0])
			if err != nil {
				return err
			}

			m := a.pipeline()
			if _, err := m.RunModule(cmd.Context(), src.module); err != nil {
				return src.fail(pass.Diagnostics(err, src.path, src.srcmap))
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if _, err := io.WriteString(w, src.module.String()); err != nil {
				return err
			}
			a.logger.Info("expanded", zap.String("file", src.path), zap.String("output", output))

			if stats || jsonMode {
				return printStats(cmd.ErrOrStderr(), m.Stats().Snapshot(), jsonMode)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the expanded IR to this file instead of stdout")
	cmd.Flags().BoolVar(&stats, "stats", false, "print expansion statistics to stderr")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print statistics as JSON (implies --stats)")
	return cmd
}

func printStats(w io.Writer, s pass.Snapshot, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, i18n.T(i18n.MsgStats, s.Functions, s.Modified, s.Expanded, s.ForwardRefs, s.Erased))
	return err
}

// checkCommand 解析、校验并试扩展，只报告问题不输出 IR
func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.ll>",
		Short: i18n.T(i18n.CmdCheckShort),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := load(args[0])
			if err != nil {
				return err
			}

			// 先校验输入结构，再在副本上扩展并校验结果
			m := pass.NewManager(pass.WithParallelism(a.cfg.Expand.Parallelism), pass.WithLogger(a.logger))
			m.AddPass(pass.VerifyPass{})
			m.AddPass(pass.NewExpandPass(expand.New(a.cfg.DataLayout(), expand.WithLogger(a.logger)), m.Stats()))
			m.AddPass(pass.VerifyPass{})
			m.AddPass(pass.VerifyLegalPass{Width: a.cfg.Expand.LegalWidth})

			work := &ir.Module{Name: src.module.Name, Funcs: append([]*ir.Func(nil), src.module.Funcs...)}
			if _, err := m.RunModule(cmd.Context(), work); err != nil {
				diags := pass.Diagnostics(err, src.path, src.srcmap)
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T(i18n.ErrCheckFailed, src.path, len(diags)))
				return src.fail(diags)
			}

			fmt.Fprintln(cmd.OutOrStdout(), i18n.T(i18n.MsgCheckOK, src.path, len(src.module.Funcs)))
			return nil
		},
	}
}
