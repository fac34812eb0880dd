package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/limbs/internal/ir"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 64, c.Expand.LegalWidth)
	assert.True(t, c.Expand.Verify)

	l := c.DataLayout()
	assert.Equal(t, 16, l.PrefAlign(ir.Int(128)))
	assert.Equal(t, 8, l.StoreSize(ir.Pointer(ir.Int(8), 0)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	c := Default()
	c.Expand.Parallelism = 4
	c.Log.Level = "debug"
	c.Log.Format = "json"
	c.UI.Lang = "zh"
	require.NoError(t, c.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# 合法整数位宽")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, 1, c.Expand.Parallelism)
	assert.Equal(t, 16, c.Layout.MaxIntAlign)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[expand\n"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[expand]\nlegal_width = 32\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "expand.legal_width must be 64, got 32")
}

func TestValidateReportsEverything(t *testing.T) {
	c := Default()
	c.Expand.Parallelism = 0
	c.Layout.MaxIntAlign = 12
	c.Layout.PointerSize = 2
	c.Log.Level = "loud"
	c.Log.Format = "xml"
	c.UI.Lang = "fr"

	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"expand.parallelism",
		"layout.max_int_align",
		"layout.pointer_size",
		"log.level",
		"log.format",
		"ui.lang must be one of [en zh]",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	file := filepath.Join(nested, "input.ll")
	require.NoError(t, os.WriteFile(file, []byte(""), 0644))

	assert.Equal(t, "", FindConfigFile(filepath.Join(root, "nope")))

	require.NoError(t, Default().Save(filepath.Join(root, FileName)))
	found := FindConfigFile(file)
	want, err := filepath.Abs(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.Equal(t, want, found)

	c, path, err := Resolve("", nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, Default(), c)
}

func TestLogger(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		c := Default()
		c.Log.Format = format
		l, err := c.Logger()
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
