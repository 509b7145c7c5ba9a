//go:build yara

// Package crossval differentially tests this engine's matching-rule set
// against real libyara for the same rule source and input.
package crossval

import (
	"os"
	"time"

	yara "github.com/hillu/go-yara/v4"
)

// CompileYara compiles yaraSource with libyara via cgo, the reference
// engine this package diffs against.
func CompileYara(yaraSource string) (*yara.Rules, error) {
	c, err := yara.NewCompiler()
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "crossval-*.yar")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(yaraSource); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	src, err := os.Open(f.Name())
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if err := c.AddFile(src, ""); err != nil {
		return nil, err
	}
	return c.GetRules()
}

// MatchYara runs the compiled libyara rules against data and returns the
// matching rule identifiers.
func MatchYara(rules *yara.Rules, data []byte) ([]string, error) {
	var mr yara.MatchRules
	if err := rules.ScanMem(data, 0, 30*time.Second, &mr); err != nil {
		return nil, err
	}
	names := make([]string, len(mr))
	for i, m := range mr {
		names[i] = m.Rule
	}
	return names, nil
}
