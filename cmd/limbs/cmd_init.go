package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tangzhangming/limbs/internal/config"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/lsp"
)

// initCommand 在当前目录生成默认配置
func (a *app) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: i18n.T(i18n.CmdInitShort),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			// 检查是否已存在配置文件
			configPath := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s", i18n.T(i18n.ErrConfigExists, configPath))
			}

			cfg := config.Default()
			cfg.UI.Lang = string(i18n.GetLanguage())
			if err := cfg.Save(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T(i18n.MsgConfigSaved, configPath))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing "+config.FileName)
	return cmd
}

// lspCommand 通过标准输入输出运行诊断服务器
func (a *app) lspCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: i18n.T(i18n.CmdLSPShort),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer(os.Stdin, os.Stdout,
				lsp.WithLogger(a.logger),
				lsp.WithPipeline(a.pipeline))
			return server.Run(cmd.Context())
		},
	}
}
