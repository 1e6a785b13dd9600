// Package toolchain maps language identifiers to compile and run command templates.
package toolchain

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// EntryPointStrategy decides how the program entry point is named.
type EntryPointStrategy int

const (
	// EntryFixed uses the workspace file stem.
	EntryFixed EntryPointStrategy = iota
	// EntryFromSource extracts a class name from the source text (Java).
	EntryFromSource
)

// Spec describes how one language is compiled and run. Specs are immutable once registered.
type Spec struct {
	ID              string
	Name            string
	Version         string
	SourceExtension string
	// CompileCmd is empty for interpreted languages.
	CompileCmd string
	RunCmd     string
	EntryPoint EntryPointStrategy
	// Dedicated gives each workspace its own directory instead of flat files.
	Dedicated bool
}

// Compiled reports whether the language has a compile step.
func (s Spec) Compiled() bool {
	return strings.TrimSpace(s.CompileCmd) != ""
}

// Paths are the concrete values substituted into a command template.
type Paths struct {
	Source     string
	Executable string
	Dir        string
	Entry      string
}

// CompileCommand expands the compile template. It returns nil for interpreted languages.
func (s Spec) CompileCommand(p Paths) ([]string, error) {
	if !s.Compiled() {
		return nil, nil
	}
	return expand(s.CompileCmd, p)
}

// RunCommand expands the run template.
func (s Spec) RunCommand(p Paths) ([]string, error) {
	return expand(s.RunCmd, p)
}

// Binaries returns the host programs the templates invoke, for availability checks.
func (s Spec) Binaries() []string {
	var bins []string
	for _, tpl := range []string{s.CompileCmd, s.RunCmd} {
		fields, err := shlex.Split(tpl)
		if err != nil || len(fields) == 0 {
			continue
		}
		if strings.Contains(fields[0], "{") {
			continue
		}
		bins = append(bins, fields[0])
	}
	return bins
}

func expand(tpl string, p Paths) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("toolchain: command template is empty")
	}
	r := strings.NewReplacer(
		"{src}", quote(p.Source),
		"{bin}", quote(p.Executable),
		"{dir}", quote(p.Dir),
		"{entry}", quote(p.Entry),
	)
	fields, err := shlex.Split(r.Replace(tpl))
	if err != nil {
		return nil, fmt.Errorf("toolchain: parse command template %q: %w", tpl, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("toolchain: command is empty after expansion")
	}
	return fields, nil
}

// quote protects substituted paths from being split on whitespace.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
