// Package iface reads and writes module interface files. Compiling
// M.hs produces M.iface next to the generated M.v; importing modules
// load it to learn the exported entries without reprocessing the
// source. The payload is msgpack-encoded.
package iface

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the payload format changes.
const schemaVersion uint16 = 1

// ModuleInterface lists the entries a compiled module exports.
type ModuleInterface struct {
	Schema uint16
	Name   string

	Types []TypeExport
	Syns  []SynExport
	Cons  []ConExport
	Funcs []FuncExport
}

// TypeExport is an exported data type.
type TypeExport struct {
	HaskellName string
	CoqName     string
	Arity       int
}

// SynExport is an exported type synonym.
type SynExport struct {
	HaskellName string
	CoqName     string
	Arity       int
}

// ConExport is an exported data constructor with its raw and smart
// target names. HaskellType is the constructor's full source type,
// re-parsed by importers to type pattern binders.
type ConExport struct {
	HaskellName string
	TypeName    string
	HaskellType string
	CoqName     string
	SmartName   string
	Arity       int
}

// FuncExport is an exported function.
type FuncExport struct {
	HaskellName string
	HaskellType string
	CoqName     string
	Arity       int
	TypeArity   int
	Partial     bool
}

// Path returns the interface file path for module name under dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".iface")
}

// Save writes the interface for m into dir.
func Save(dir string, m *ModuleInterface) error {
	m.Schema = schemaVersion
	raw, err := msgpack.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "could not encode interface for %s", m.Name)
	}
	if err := os.WriteFile(Path(dir, m.Name), raw, 0666); err != nil {
		return errors.Wrapf(err, "could not write interface for %s", m.Name)
	}
	return nil
}

// Load reads the interface of module name from dir.
func Load(dir, name string) (*ModuleInterface, error) {
	raw, err := os.ReadFile(Path(dir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "no interface for module %s", name)
	}
	var m ModuleInterface
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "could not decode interface for %s", name)
	}
	if m.Schema != schemaVersion {
		return nil, errors.Errorf("interface for %s has schema %d, expected %d (recompile it)",
			name, m.Schema, schemaVersion)
	}
	return &m, nil
}
