package scanner_test

import (
	"testing"

	"github.com/sansecio/yarax/compiler"
	_ "github.com/sansecio/yarax/modules/hashmod"
	"github.com/sansecio/yarax/parser"
	"github.com/sansecio/yarax/scanner"
	"github.com/sansecio/yarax/types"
)

func mustScanner(t *testing.T, source string) *scanner.Scanner {
	t.Helper()
	p := parser.New()
	rs, err := p.Parse(source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	compiled, err := compiler.Compile(rs)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return scanner.NewScanner(compiled)
}

func matchingNames(res *scanner.ScanResults) []string {
	var names []string
	cur := res.MatchingRules()
	for {
		r, ok := cur.Next()
		if !ok {
			break
		}
		names = append(names, r.Name())
	}
	return names
}

// Scenario 1: trivial match.
func TestScanTrivialMatch(t *testing.T) {
	s := mustScanner(t, `rule r { strings: $a = "foo" condition: $a }`)

	res := s.Scan([]byte("foobar"))
	names := matchingNames(res)
	if len(names) != 1 || names[0] != "r" {
		t.Fatalf("matching rules = %v, want [r]", names)
	}

	cur := res.MatchingRules()
	rule, _ := cur.Next()
	patterns := rule.Patterns()
	if len(patterns) != 1 || patterns[0].Identifier() != "$a" {
		t.Fatalf("patterns = %+v, want one $a", patterns)
	}
	matches := patterns[0].Matches()
	if len(matches) != 1 || matches[0].Offset != 0 || matches[0].Length != 3 {
		t.Fatalf("matches = %+v, want [{0 3}]", matches)
	}
}

// Scenario 2: no match.
func TestScanNoMatch(t *testing.T) {
	s := mustScanner(t, `rule r { strings: $a = "foo" condition: $a }`)

	res := s.Scan([]byte("bar"))
	if names := matchingNames(res); len(names) != 0 {
		t.Fatalf("matching rules = %v, want none", names)
	}

	nonMatching := res.NonMatchingRules()
	if nonMatching.Len() != 1 {
		t.Fatalf("non-matching len = %d, want 1", nonMatching.Len())
	}
	r, ok := nonMatching.Next()
	if !ok || r.Name() != "r" {
		t.Fatalf("non-matching rule = %v, ok=%v, want r", r, ok)
	}
}

// Scenario 3: multiple patterns, one rule.
func TestScanMultiplePatterns(t *testing.T) {
	s := mustScanner(t, `rule r { strings: $a = "foo" $b = "baz" condition: $a and $b }`)

	res := s.Scan([]byte("foobaz"))
	if names := matchingNames(res); len(names) != 1 || names[0] != "r" {
		t.Fatalf("matching rules = %v, want [r]", names)
	}

	cur := res.MatchingRules()
	rule, _ := cur.Next()
	var aOffset, bOffset int64 = -1, -1
	for _, p := range rule.Patterns() {
		matches := p.Matches()
		if len(matches) != 1 {
			t.Fatalf("pattern %s matches = %+v, want exactly one", p.Identifier(), matches)
		}
		switch p.Identifier() {
		case "$a":
			aOffset = matches[0].Offset
		case "$b":
			bOffset = matches[0].Offset
		}
	}
	if aOffset != 0 || bOffset != 3 {
		t.Fatalf("$a at %d, $b at %d, want 0 and 3", aOffset, bOffset)
	}
}

// Scenario 4: condition without patterns.
func TestScanConditionWithoutPatterns(t *testing.T) {
	s := mustScanner(t, `rule size { condition: filesize == 5 }`)

	res := s.Scan([]byte("hello"))
	if names := matchingNames(res); len(names) != 1 || names[0] != "size" {
		t.Fatalf("matching rules = %v, want [size]", names)
	}

	cur := res.MatchingRules()
	rule, _ := cur.Next()
	if patterns := rule.Patterns(); len(patterns) != 0 {
		t.Fatalf("patterns = %+v, want none", patterns)
	}
}

// Scenario 4, negative case: filesize mismatch leaves the rule unmatched.
func TestScanFilesizeMismatch(t *testing.T) {
	s := mustScanner(t, `rule size { condition: filesize == 5 }`)

	res := s.Scan([]byte("hi"))
	if names := matchingNames(res); len(names) != 0 {
		t.Fatalf("matching rules = %v, want none", names)
	}
}

// Scenario 5: global-rule merge. Both a global and a regular rule match;
// ordering must be deterministic across repeated scans.
func TestScanGlobalRuleMerge(t *testing.T) {
	s := mustScanner(t, `
rule g1 { strings: $a = "foo" condition: $a }
global rule g2 { strings: $b = "foo" condition: $b }
`)

	res := s.Scan([]byte("foo"))
	names := matchingNames(res)
	if len(names) != 2 {
		t.Fatalf("matching rules = %v, want 2 entries", names)
	}

	res2 := s.Scan([]byte("foo"))
	names2 := matchingNames(res2)
	if len(names2) != len(names) {
		t.Fatalf("second scan matching rules = %v, want same shape as %v", names2, names)
	}
	for i := range names {
		if names[i] != names2[i] {
			t.Fatalf("ordering not deterministic: %v vs %v", names, names2)
		}
	}
}

// Scenario 6: re-scan isolation.
func TestScanReScanIsolation(t *testing.T) {
	s := mustScanner(t, `rule r { strings: $a = "foo" condition: $a }`)

	first := s.Scan([]byte("foo"))
	if names := matchingNames(first); len(names) != 1 {
		t.Fatalf("first scan matching rules = %v, want [r]", names)
	}

	second := s.Scan([]byte("bar"))
	if names := matchingNames(second); len(names) != 0 {
		t.Fatalf("second scan matching rules = %v, want none", names)
	}

	cur := second.MatchingRules()
	if cur.Len() != 0 {
		t.Fatalf("second scan matching cursor len = %d, want 0", cur.Len())
	}
	nonMatching := second.NonMatchingRules()
	r, ok := nonMatching.Next()
	if !ok || r.Name() != "r" {
		t.Fatalf("second scan non-matching = %v, ok=%v, want r", r, ok)
	}
	if len(r.Patterns()[0].Matches()) != 0 {
		t.Fatalf("$a.matches after re-scan = %+v, want empty", r.Patterns()[0].Matches())
	}
}

// TestScanWithModuleImport exercises the module driver (spec.md §4.D): the
// scan must run the "hash" module's main, mount its structure on the root,
// and invoke the rule program without error even though the condition
// grammar here has no dotted module-field access yet.
func TestScanWithModuleImport(t *testing.T) {
	s := mustScanner(t, `
import "hash"
rule r { strings: $a = "foo" condition: $a }
`)

	res := s.Scan([]byte("foobar"))
	if names := matchingNames(res); len(names) != 1 || names[0] != "r" {
		t.Fatalf("matching rules = %v, want [r]", names)
	}
}

func TestSetGlobalUndeclaredVariable(t *testing.T) {
	s := mustScanner(t, `rule r { condition: 1 == 1 }`)

	err := s.SetGlobal("missing", types.Integer(1))
	if err == nil {
		t.Fatal("expected error for undeclared variable")
	}
}
