package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileIfChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.v")

	require.NoError(t, WriteFileIfChanged(path, []byte("one"), 0666))
	info1, err := os.Stat(path)
	require.NoError(t, err)

	// unchanged contents leave the file alone
	require.NoError(t, WriteFileIfChanged(path, []byte("one"), 0666))
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())

	require.NoError(t, WriteFileIfChanged(path, []byte("two"), 0666))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestCompileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Simple.hs")
	require.NoError(t, os.WriteFile(src, []byte(
		"module Simple where\nid' :: a -> a\nid' x = x\n"), 0666))

	var errOut strings.Builder
	opts := Options{
		OutputDir:  filepath.Join(dir, "out"),
		BaseLibDir: filepath.Join("..", "base"),
		Stderr:     &errOut,
	}
	require.NoError(t, Compile([]string{src}, opts))

	generated, err := os.ReadFile(filepath.Join(dir, "out", "Simple.v"))
	require.NoError(t, err)
	assert.Contains(t, string(generated), "Module Simple.")
	assert.Contains(t, string(generated), "Definition id'")

	// the interface and project glue are written next to the output
	_, err = os.Stat(filepath.Join(dir, "out", "Simple.iface"))
	assert.NoError(t, err)
	project, err := os.ReadFile(filepath.Join(dir, "out", "_CoqProject"))
	require.NoError(t, err)
	assert.Contains(t, string(project), "-Q . Generated")
}

func TestCompileNoCoqProject(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "M.hs")
	require.NoError(t, os.WriteFile(src, []byte("module M where\n"), 0666))

	opts := Options{
		OutputDir:    dir,
		BaseLibDir:   filepath.Join("..", "base"),
		NoCoqProject: true,
		Stderr:       &strings.Builder{},
	}
	require.NoError(t, Compile([]string{src}, opts))
	_, err := os.Stat(filepath.Join(dir, "_CoqProject"))
	assert.True(t, os.IsNotExist(err))
}

func TestCompileReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Bad.hs")
	require.NoError(t, os.WriteFile(src, []byte(
		"module Bad where\nf :: Integer\nf = g\n"), 0666))

	var errOut strings.Builder
	opts := Options{
		OutputDir:  dir,
		BaseLibDir: filepath.Join("..", "base"),
		Stderr:     &errOut,
	}
	err := Compile([]string{src}, opts)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "unknown value g")
	// no partial output for the failing module
	_, statErr := os.Stat(filepath.Join(dir, "Bad.v"))
	assert.True(t, os.IsNotExist(statErr))
}
