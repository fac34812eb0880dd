// limbs - 将超过 64 位的整数拆分为 64 位分段
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/limbs/internal/config"
	lerrors "github.com/tangzhangming/limbs/internal/errors"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/pass"
)

const (
	Version = "0.1.0"
)

// app 命令之间共享的状态
type app struct {
	// 全局参数
	configPath string
	lang       string
	logLevel   string

	cfg     *config.Config
	cfgFile string // 实际加载的配置文件，可能为空
	logger  *zap.Logger
}

func main() {
	a := &app{}
	root := a.rootCommand()
	if err := root.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, lerrors.Red("error: ")+err.Error())
		os.Exit(1)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) rootCommand() *cobra.Command {
	// 帮助文本在解析参数之前生成，先按环境选择语言
	i18n.SetLanguageFromString(detectLanguage())

	root := &cobra.Command{
		Use:           "limbs",
		Short:         i18n.T(i18n.CmdRootShort),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			return a.setup(start)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to "+config.FileName+" (default: search upwards from the input file)")
	flags.StringVar(&a.lang, "lang", "", "message language: en or zh")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.expandCommand(),
		a.checkCommand(),
		a.runCommand(),
		a.initCommand(),
		a.lspCommand(),
	)
	return root
}

// setup 加载配置并初始化语言和日志，命令行参数优先于配置文件
func (a *app) setup(startPath string) error {
	if enableVirtualTerminal() {
		lerrors.SetColorsEnabled(true)
	}

	cfg, path, err := config.Resolve(a.configPath, startPath)
	if err != nil {
		return err
	}
	a.cfg, a.cfgFile = cfg, path

	switch {
	case a.lang != "":
		i18n.SetLanguageFromString(a.lang)
	case path != "":
		i18n.SetLanguageFromString(cfg.UI.Lang)
	}

	if a.logLevel != "" {
		if _, err := zapcore.ParseLevel(a.logLevel); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.Log.Level = a.logLevel
	}
	a.logger, err = cfg.Logger()
	if err != nil {
		return err
	}
	if path != "" {
		a.logger.Debug("loaded config", zap.String("path", path))
	}
	return nil
}

// pipeline 按配置创建扩展流水线
func (a *app) pipeline() *pass.Manager {
	return pass.NewStandardPipeline(a.cfg.DataLayout(), a.cfg.Expand.Verify,
		pass.WithParallelism(a.cfg.Expand.Parallelism),
		pass.WithLogger(a.logger))
}
