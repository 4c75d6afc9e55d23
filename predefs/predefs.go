// Package predefs defines the configuration (using toml) for the
// predefined entries the base library exports to every compiled module.
//
// See [EnvFile] for the format of the toml file itself.
package predefs

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// EnvFile is the table-of-tables structure of an environment file.
// Each array enumerates entries that are entered into the environment
// before any source module is processed.
type EnvFile struct {
	Types        []TypeEntry `toml:"types"`
	Constructors []ConEntry  `toml:"constructors"`
	Functions    []FuncEntry `toml:"functions"`
}

// TypeEntry maps a predefined type constructor to its Coq name.
type TypeEntry struct {
	HaskellName string `toml:"haskell-name"`
	CoqName     string `toml:"coq-name"`
	Arity       int    `toml:"arity"`
}

// ConEntry maps a predefined data constructor to its raw and smart
// Coq names. HaskellType is the constructor's full source type.
type ConEntry struct {
	HaskellName  string `toml:"haskell-name"`
	HaskellType  string `toml:"haskell-type"`
	CoqName      string `toml:"coq-name"`
	CoqSmartName string `toml:"coq-smart-name"`
	Arity        int    `toml:"arity"`
}

// FuncEntry maps a predefined function to its Coq name.
type FuncEntry struct {
	HaskellName string `toml:"haskell-name"`
	HaskellType string `toml:"haskell-type"`
	CoqName     string `toml:"coq-name"`
	Arity       int    `toml:"arity"`
	Partial     bool   `toml:"partial"`
}

// Parse decodes an environment file.
func Parse(raw []byte) (EnvFile, error) {
	var f EnvFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return EnvFile{}, errors.Wrap(err, "could not parse environment file")
	}
	return f, nil
}

// Load reads and decodes the environment file at path.
func Load(path string) (EnvFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EnvFile{}, errors.Wrapf(err, "environment file %s could not be read", path)
	}
	f, err := Parse(raw)
	if err != nil {
		return EnvFile{}, errors.Wrapf(err, "in %s", path)
	}
	return f, nil
}
