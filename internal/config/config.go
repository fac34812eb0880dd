// Package config 读写 limbs.toml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/limbs/internal/expand"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
)

// 常量定义
const (
	FileName = "limbs.toml" // 配置文件名
)

// Config 工具配置
type Config struct {
	Expand ExpandConfig `toml:"expand"`
	Layout LayoutConfig `toml:"layout"`
	Log    LogConfig    `toml:"log"`
	UI     UIConfig     `toml:"ui"`
}

// ExpandConfig 扩展 Pass 配置
type ExpandConfig struct {
	// LegalWidth 合法整数位宽，算法固定为 64
	LegalWidth int `toml:"legal_width"`

	// Verify 扩展后是否校验结构与位宽
	Verify bool `toml:"verify"`

	// Parallelism 同时处理的函数数量
	Parallelism int `toml:"parallelism"`
}

// LayoutConfig 数据布局
type LayoutConfig struct {
	MaxIntAlign int `toml:"max_int_align"`
	PointerSize int `toml:"pointer_size"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`  // debug / info / warn / error
	Format string `toml:"format"` // console / json
}

// UIConfig 界面配置
type UIConfig struct {
	Lang string `toml:"lang"` // en / zh
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Expand: ExpandConfig{
			LegalWidth:  expand.LegalWidth,
			Verify:      true,
			Parallelism: 1,
		},
		Layout: LayoutConfig{MaxIntAlign: 16, PointerSize: 8},
		Log:    LogConfig{Level: "info", Format: "console"},
		UI:     UIConfig{Lang: "en"},
	}
}

// Load 从文件加载配置，缺省的字段取默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate 检查配置取值，返回所有问题
func (c *Config) Validate() error {
	var errs error
	if c.Expand.LegalWidth != expand.LegalWidth {
		errs = multierr.Append(errs, fmt.Errorf("expand.legal_width must be %d, got %d", expand.LegalWidth, c.Expand.LegalWidth))
	}
	if c.Expand.Parallelism < 1 {
		errs = multierr.Append(errs, fmt.Errorf("expand.parallelism must be at least 1, got %d", c.Expand.Parallelism))
	}
	if !isPowerOf2(c.Layout.MaxIntAlign) {
		errs = multierr.Append(errs, fmt.Errorf("layout.max_int_align must be a power of two, got %d", c.Layout.MaxIntAlign))
	}
	if c.Layout.PointerSize != 4 && c.Layout.PointerSize != 8 {
		errs = multierr.Append(errs, fmt.Errorf("layout.pointer_size must be 4 or 8, got %d", c.Layout.PointerSize))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = multierr.Append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if _, ok := i18n.ParseLanguage(c.UI.Lang); !ok {
		errs = multierr.Append(errs, fmt.Errorf("ui.lang must be one of %v, got %q", i18n.Languages(), c.UI.Lang))
	}
	return errs
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// DataLayout 按配置创建数据布局
func (c *Config) DataLayout() ir.DataLayout {
	return &ir.DefaultLayout{MaxIntAlign: c.Layout.MaxIntAlign, PointerSize: c.Layout.PointerSize}
}

// Logger 按配置创建日志
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// ============================================================================
// 保存
// ============================================================================

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	// 生成带注释的配置文件内容
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[expand]\n")
	sb.WriteString("# 合法整数位宽（固定为 64）\n")
	sb.WriteString(fmt.Sprintf("legal_width = %d\n", c.Expand.LegalWidth))
	sb.WriteString("# 扩展后校验结构与位宽\n")
	sb.WriteString(fmt.Sprintf("verify = %t\n", c.Expand.Verify))
	sb.WriteString("# 同时处理的函数数量\n")
	sb.WriteString(fmt.Sprintf("parallelism = %d\n\n", c.Expand.Parallelism))

	sb.WriteString("[layout]\n")
	sb.WriteString(fmt.Sprintf("max_int_align = %d\n", c.Layout.MaxIntAlign))
	sb.WriteString(fmt.Sprintf("pointer_size = %d\n\n", c.Layout.PointerSize))

	sb.WriteString("[log]\n")
	sb.WriteString("# debug / info / warn / error\n")
	sb.WriteString(fmt.Sprintf("level = %q\n", c.Log.Level))
	sb.WriteString("# console / json\n")
	sb.WriteString(fmt.Sprintf("format = %q\n\n", c.Log.Format))

	sb.WriteString("[ui]\n")
	sb.WriteString("# en / zh\n")
	sb.WriteString(fmt.Sprintf("lang = %q\n", c.UI.Lang))

	return sb.String()
}

// ============================================================================
// 查找
// ============================================================================

// FindConfigFile 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve 加载显式指定的配置；未指定时从 startPath 向上查找，找不到则用默认值
func Resolve(explicit, startPath string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = FindConfigFile(startPath)
	}
	if path == "" {
		return Default(), "", nil
	}
	c, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return c, path, nil
}
