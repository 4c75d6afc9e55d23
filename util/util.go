// Package util drives whole compilations: it reads source files,
// parses and converts them in order, and writes the generated .v and
// .iface files plus the _CoqProject glue.
package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/hascoq/hascoq"
	"github.com/hascoq/hascoq/iface"
	"github.com/hascoq/hascoq/parser"
	"github.com/hascoq/hascoq/predefs"
	"github.com/hascoq/hascoq/report"
)

// Options are the driver settings, mirroring the CLI flags.
type Options struct {
	OutputDir    string
	BaseLibDir   string
	NoCoqProject bool
	Stderr       io.Writer
}

func (o Options) withDefaults() Options {
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.BaseLibDir == "" {
		o.BaseLibDir = "base"
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// EnvFileName is the environment file looked up in the base library
// directory.
const EnvFileName = "env.toml"

// Compile compiles the given source files in order. Modules can import
// modules compiled earlier in the same run, or in previous runs whose
// interface files are still in the output directory. The first fatal
// error stops the run with no output for the failing module.
func Compile(inputs []string, opts Options) error {
	opts = opts.withDefaults()
	envFile, err := predefs.Load(filepath.Join(opts.BaseLibDir, EnvFileName))
	if err != nil {
		return err
	}
	conv := hascoq.NewConverter(hascoq.Config{}, envFile)

	if err := os.MkdirAll(opts.OutputDir, 0777); err != nil {
		return errors.Wrap(err, "could not create output directory")
	}

	for _, input := range inputs {
		if err := compileOne(conv, input, opts); err != nil {
			return err
		}
	}

	if !opts.NoCoqProject {
		if err := writeCoqProject(opts); err != nil {
			return err
		}
	}
	return nil
}

func compileOne(conv *hascoq.Converter, input string, opts Options) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", input)
	}
	rep := report.NewReporter()
	store := report.NewSourceStore()
	store.Add(input, string(src))

	mod, err := parser.ParseModule(input, string(src), rep)
	if err != nil {
		store.RenderAll(opts.Stderr, rep)
		return errors.Wrapf(err, "%s does not parse", input)
	}

	// make previously compiled interfaces available for this module's
	// imports
	for _, imp := range mod.Imports {
		if _, ok := conv.Interface(imp.Mod); ok {
			continue
		}
		m, err := iface.Load(opts.OutputDir, imp.Mod)
		if err != nil {
			continue // conversion reports the unknown module with a span
		}
		conv.AddInterface(m)
	}

	file, intf, err := conv.ConvertModule(mod, rep)
	store.RenderAll(opts.Stderr, rep)
	if err != nil {
		return errors.Wrapf(err, "could not compile %s", input)
	}

	var out strings.Builder
	if err := file.Write(&out); err != nil {
		return err
	}
	vPath := filepath.Join(opts.OutputDir, intf.Name+".v")
	if err := WriteFileIfChanged(vPath, []byte(out.String()), 0666); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintln(opts.Stderr, red("could not write output"))
		return err
	}
	return iface.Save(opts.OutputDir, intf)
}

// writeCoqProject emits a _CoqProject file mapping the base library
// and the generated output into their logical paths.
func writeCoqProject(opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "-Q %s Base\n", filepath.Join(opts.BaseLibDir, "coq"))
	fmt.Fprintf(&b, "-Q . Generated\n")
	path := filepath.Join(opts.OutputDir, "_CoqProject")
	return WriteFileIfChanged(path, []byte(b.String()), 0666)
}

// fileHasContents returns true if the file at path has data. It returns false
// if any errors are encountered along the way.
func fileHasContents(path string, data []byte) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil || stat.Size() != int64(len(data)) {
		return false
	}
	var buf [4096]byte
	for {
		n, err := f.Read(buf[:])
		if err != nil && err != io.EOF {
			return false
		}
		// got to end of file and contents are same
		if n == 0 {
			return true
		}
		if !bytes.Equal(buf[:n], data[:n]) {
			return false
		}
		data = data[n:]
	}
}

// WriteFileIfChanged writes data to file name, first checking if it
// already has those contents.
//
// Same interface as [os.WriteFile] - creates name if it doesn't exist
// with perm, but doesn't set perm if the file does exist.
func WriteFileIfChanged(name string, data []byte, perm os.FileMode) error {
	if fileHasContents(name, data) {
		return nil
	}
	return os.WriteFile(name, data, perm)
}
