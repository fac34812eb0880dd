package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/limbs/internal/config"
	"github.com/tangzhangming/limbs/internal/expand"
	"github.com/tangzhangming/limbs/internal/i18n"
	"github.com/tangzhangming/limbs/internal/ir"
	"github.com/tangzhangming/limbs/internal/parser"
	"github.com/tangzhangming/limbs/internal/pass"
)

const addFile = `define void @add(i128* %p, i128* %q) {
entry:
  %x = load i128, i128* %p
  %y = load i128, i128* %q
  %s = add i128 %x, %y
  store i128 %s, i128* %p
  ret void
}

define i64 @sum(i64 %a, i64 %b) {
entry:
  %c = add i64 %a, %b
  ret i64 %c
}
`

const shiftFile = `define void @shift(i128* %p) {
entry:
  %x = load i128, i128* %p
  %y = shl i128 %x, %x
  store i128 %y, i128* %p
  ret void
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	defer i18n.SetLanguage(i18n.LangEnglish)

	a := &app{}
	root := a.rootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--lang", "en", "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestExpandCommand(t *testing.T) {
	path := writeFile(t, "add.ll", addFile)

	out, stderr, err := runCLI(t, "expand", "--json", path)
	require.NoError(t, err)

	m, err := parser.ParseString(out, "out.ll")
	require.NoError(t, err, out)
	require.Len(t, m.Funcs, 2)
	for _, fn := range m.Funcs {
		assert.NoError(t, ir.VerifyLegal(fn, expand.LegalWidth), fn.String())
	}

	var stats pass.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(stderr)), &stats), stderr)
	assert.Equal(t, int64(2), stats.Functions)
	assert.Equal(t, int64(1), stats.Modified)
}

func TestExpandCommandOutputFile(t *testing.T) {
	path := writeFile(t, "add.ll", addFile)
	dst := filepath.Join(t.TempDir(), "out.ll")

	out, stderr, err := runCLI(t, "expand", "--stats", "-o", dst, path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "functions: 2, modified: 1")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "define i64 @sum(i64 %a, i64 %b)")
}

func TestExpandCommandFailure(t *testing.T) {
	path := writeFile(t, "shift.ll", shiftFile)
	out, _, err := runCLI(t, "expand", path)

	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.code)
	assert.Empty(t, out)
}

func TestCheckCommand(t *testing.T) {
	out, _, err := runCLI(t, "check", writeFile(t, "add.ll", addFile))
	require.NoError(t, err)
	assert.Contains(t, out, "2 function(s) OK")

	_, stderr, err := runCLI(t, "check", writeFile(t, "shift.ll", shiftFile))
	var exit *exitError
	require.ErrorAs(t, err, &exit)
	assert.Contains(t, stderr, "1 problem(s) found")

	_, _, err = runCLI(t, "check", writeFile(t, "bad.ll", "define void @f( {\n"))
	require.ErrorAs(t, err, &exit)
}

func TestRunCommand(t *testing.T) {
	path := writeFile(t, "add.ll", addFile)

	for _, extra := range [][]string{nil, {"--expanded"}} {
		args := append([]string{"run"}, extra...)
		args = append(args, path, "add", "0x10000000000000001", "0xffffffffffffffff")
		out, _, err := runCLI(t, args...)
		require.NoError(t, err)
		assert.Equal(t, "%p = i128 36893488147419103232\n%q = i128 18446744073709551615\n", out)
	}

	out, _, err := runCLI(t, "run", path, "sum", "40", "2")
	require.NoError(t, err)
	assert.Equal(t, "ret i64 42\n", out)

	out, _, err = runCLI(t, "run", path, "sum", "-1", "2")
	require.NoError(t, err)
	assert.Equal(t, "ret i64 1\n", out)

	// 选项写在文件之前，其后的负数都是参数
	out, _, err = runCLI(t, "run", "--expanded", "--max-steps", "100", path, "sum", "-7", "-3")
	require.NoError(t, err)
	assert.Equal(t, "ret i64 18446744073709551606\n", out)
}

func TestRunCommandErrors(t *testing.T) {
	path := writeFile(t, "add.ll", addFile)

	_, _, err := runCLI(t, "run", path, "missing")
	assert.EqualError(t, err, "function @missing not found")

	_, _, err = runCLI(t, "run", path, "sum", "1")
	var exit *exitError
	assert.ErrorAs(t, err, &exit)

	_, _, err = runCLI(t, "run", path, "sum", "one", "2")
	assert.EqualError(t, err, `invalid argument "one" for parameter %a`)

	_, _, err = runCLI(t, "run", "--expanded", writeFile(t, "shift.ll", shiftFile), "shift", "1")
	assert.ErrorAs(t, err, &exit)
}

func TestParseValue(t *testing.T) {
	v, err := parseValue(ir.Int(8), "-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v.Uint64())

	v, err = parseValue(ir.Vector(ir.Int(32), 3), "1, 2,0x10")
	require.NoError(t, err)
	assert.Equal(t, "<i32 1, i32 2, i32 16>", v.Format(ir.Vector(ir.Int(32), 3)))

	_, err = parseValue(ir.Vector(ir.Int(32), 3), "1,2")
	assert.Error(t, err)
	_, err = parseValue(ir.Int(32), "x")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, _, err := runCLI(t, "init", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, config.FileName)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.UI.Lang)

	_, _, err = runCLI(t, "init", dir)
	assert.EqualError(t, err, path+" already exists")

	_, _, err = runCLI(t, "init", "--force", dir)
	assert.NoError(t, err)
}

func TestConfigFileIsUsed(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Expand.Verify = false
	cfg.Expand.Parallelism = 3
	require.NoError(t, cfg.Save(filepath.Join(dir, config.FileName)))
	path := filepath.Join(dir, "add.ll")
	require.NoError(t, os.WriteFile(path, []byte(addFile), 0644))

	a := &app{}
	root := a.rootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--lang", "en", "--log-level", "error", "check", path})
	require.NoError(t, root.Execute())
	defer i18n.SetLanguage(i18n.LangEnglish)

	assert.Equal(t, filepath.Join(dir, config.FileName), a.cfgFile)
	assert.Equal(t, 3, a.cfg.Expand.Parallelism)
	assert.Equal(t, []string{"expand-large-ints"}, a.pipeline().Names())
}

func TestBadLogLevel(t *testing.T) {
	_, _, err := runCLI(t, "--log-level", "loud", "check", writeFile(t, "add.ll", addFile))
	assert.ErrorContains(t, err, "--log-level")
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, "zh", normalizeLang("zh_CN.UTF-8"))
	assert.Equal(t, "en", normalizeLang("en_US.UTF-8"))
	assert.Equal(t, "en", normalizeLang("C"))
}
