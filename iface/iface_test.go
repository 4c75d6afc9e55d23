package iface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInterface() *ModuleInterface {
	return &ModuleInterface{
		Name: "Queue",
		Types: []TypeExport{
			{HaskellName: "Queue", CoqName: "Queue", Arity: 1},
		},
		Cons: []ConExport{
			{HaskellName: "MkQueue", TypeName: "Queue", HaskellType: "[] a -> [] a -> Queue a",
				CoqName: "mkQueue", SmartName: "MkQueue", Arity: 2},
		},
		Funcs: []FuncExport{
			{HaskellName: "front", HaskellType: "Queue a -> a", CoqName: "front",
				Arity: 1, TypeArity: 1, Partial: true},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, sampleInterface()))

	m, err := Load(dir, "Queue")
	require.NoError(t, err)
	assert.Equal(t, "Queue", m.Name)
	require.Len(t, m.Funcs, 1)
	assert.True(t, m.Funcs[0].Partial)
	assert.Equal(t, "Queue a -> a", m.Funcs[0].HaskellType)
	require.Len(t, m.Cons, 1)
	assert.Equal(t, "MkQueue", m.Cons[0].SmartName)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no interface for module Nope")
}
