package predefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[[types]]
haskell-name = "[]"
coq-name = "List"
arity = 1

[[constructors]]
haskell-name = ":"
haskell-type = "a -> [] a -> [] a"
coq-name = "cons"
coq-smart-name = "Cons"
arity = 2

[[functions]]
haskell-name = "+"
haskell-type = "Integer -> Integer -> Integer"
coq-name = "addInteger"
arity = 2
partial = false

[[functions]]
haskell-name = "div"
haskell-type = "Integer -> Integer -> Integer"
coq-name = "divInteger"
arity = 2
partial = true
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Types, 1)
	assert.Equal(t, "List", f.Types[0].CoqName)
	assert.Equal(t, 1, f.Types[0].Arity)
	require.Len(t, f.Constructors, 1)
	assert.Equal(t, "Cons", f.Constructors[0].CoqSmartName)
	assert.Equal(t, "a -> [] a -> [] a", f.Constructors[0].HaskellType)
	require.Len(t, f.Functions, 2)
	assert.False(t, f.Functions[0].Partial)
	assert.True(t, f.Functions[1].Partial)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("types = 3"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0666))
	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Functions, 2)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestShippedEnvFileParses(t *testing.T) {
	f, err := Load(filepath.Join("..", "base", "env.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, f.Types)
	assert.NotEmpty(t, f.Constructors)
	assert.NotEmpty(t, f.Functions)
}
