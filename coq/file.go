package coq

import (
	"fmt"
	"io"
)

// File is a complete generated .v file: a header comment, the Require
// preamble, and one module holding every other sentence.
type File struct {
	SourceFile string
	Requires   []Require
	Module     Module
}

func (f File) headerNotice() Comment {
	return Comment(fmt.Sprintf("autogenerated from %s", f.SourceFile))
}

// Write outputs the Coq source for a File.
func (f File) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, f.headerNotice().CoqSentence()); err != nil {
		return err
	}
	for _, r := range f.Requires {
		if _, err := fmt.Fprintln(w, r.CoqSentence()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, f.Module.CoqSentence())
	return err
}
