// Package compiler builds a compiled rule set (compiler.RuleSet) from an
// ast.RuleSet: the "rule program" spec.md treats as produced by an
// out-of-scope external compiler. It owns pattern/atom/regex generation,
// the Aho-Corasick automaton, and condition-to-bytecode compilation.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	regexp "github.com/wasilibs/go-re2"
	"github.com/wasilibs/go-re2/experimental"

	"github.com/sansecio/yarax/ahocorasick"
	"github.com/sansecio/yarax/ast"
	"github.com/sansecio/yarax/internal/vm"
	"github.com/sansecio/yarax/types"
)

// minAtomLength is the minimum length of atoms extracted from regexes for
// use in the Aho-Corasick matcher. 3 bytes gives 16M possible values
// (256^3), making false positives rare while still allowing generic
// regexes.
const minAtomLength = 3

// Options configures compilation behavior.
type Options struct {
	// SkipInvalidRegex silently skips regexes that are invalid or require a
	// full buffer scan, instead of returning an error.
	SkipInvalidRegex bool

	// SkipSubtypes filters out rules whose meta "subtype" field matches any
	// of the given values. Rules without a "subtype" meta, or with an empty
	// value, are never filtered.
	SkipSubtypes []string
}

// Meta is one meta: entry on a compiled rule.
type Meta struct {
	Identifier string
	Value      any
}

// PatternRef backs one pattern occurrence in the Aho-Corasick pool back to
// the rule and string it was generated from, and to the regex it confirms
// when it is an atom rather than a full literal.
type PatternRef struct {
	RuleIndex  int
	StringName string
	Fullword   bool
	RegexIdx   int // -1 for a literal pattern; >= 0 when this pattern is an atom for regexPatterns[RegexIdx]
}

// IsAtom reports whether this pattern only pre-filters a regex rather than
// being a direct match.
func (p PatternRef) IsAtom() bool { return p.RegexIdx >= 0 }

// RegexPattern is a compiled regex string requiring confirmation against
// the buffer around an atom candidate (or, if it has no atom, the whole
// buffer).
type RegexPattern struct {
	Re         *regexp.Regexp
	RuleIndex  int
	StringName string
	HasAtom    bool
}

// RuleDescriptor is one compiled rule.
type RuleDescriptor struct {
	Name        string
	Namespace   string
	IsGlobal    bool
	Metas       []Meta
	Condition   ast.Expr
	Program     *vm.Program
	StringNames []string
}

// RuleSet is the compiled form of an ast.RuleSet, ready for scanning.
type RuleSet struct {
	Rules         []*RuleDescriptor
	Matcher       *ahocorasick.AhoCorasick
	Patterns      [][]byte
	PatternMap    []PatternRef
	RegexPatterns []*RegexPattern
	Imports       []string
	Globals       *types.Struct

	NumRules    int
	NumPatterns int
}

// Stats returns compilation statistics: Aho-Corasick pool size and regex
// pattern count.
func (r *RuleSet) Stats() (acPatterns, regexPatterns int) {
	return len(r.Patterns), len(r.RegexPatterns)
}

// Compile compiles an ast.RuleSet with default options.
func Compile(rs *ast.RuleSet) (*RuleSet, error) {
	return CompileWithOptions(rs, Options{})
}

// CompileWithOptions compiles an ast.RuleSet into a RuleSet ready for
// scanning.
func CompileWithOptions(rs *ast.RuleSet, opts Options) (*RuleSet, error) {
	out := &RuleSet{
		Imports: rs.Imports,
		Globals: types.NewStruct("root"),
	}

	var allPatterns [][]byte
	var errs []error
	ruleIdx := 0

	skipSubtypes := make(map[string]bool, len(opts.SkipSubtypes))
	for _, t := range opts.SkipSubtypes {
		if t != "" {
			skipSubtypes[t] = true
		}
	}

	for _, r := range rs.Rules {
		if r.Condition == nil {
			continue
		}
		if len(skipSubtypes) > 0 {
			if subtype := metaValue(r, "subtype"); subtype != "" && skipSubtypes[subtype] {
				continue
			}
		}

		rd := &RuleDescriptor{
			Name:      r.Name,
			Namespace: r.Namespace,
			IsGlobal:  r.Global,
			Metas:     make([]Meta, len(r.Meta)),
			Condition: r.Condition,
		}
		for i, m := range r.Meta {
			rd.Metas[i] = Meta{Identifier: m.Key, Value: m.Value}
		}
		for _, s := range r.Strings {
			rd.StringNames = append(rd.StringNames, s.Name)
		}
		out.Rules = append(out.Rules, rd)

		for _, s := range r.Strings {
			patterns, isRegex := generatePatterns(s)
			if isRegex {
				var err error
				allPatterns, err = compileRegex(out, s, r.Name, ruleIdx, allPatterns, opts)
				if err != nil {
					errs = append(errs, err)
				}
				continue
			}
			for _, p := range patterns {
				out.PatternMap = append(out.PatternMap, PatternRef{
					RuleIndex:  ruleIdx,
					StringName: s.Name,
					Fullword:   s.Modifiers.Fullword,
					RegexIdx:   -1,
				})
				allPatterns = append(allPatterns, p)
			}
		}
		ruleIdx++
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	out.Patterns = allPatterns
	out.NumPatterns = len(allPatterns)
	out.NumRules = len(out.Rules)
	if len(allPatterns) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder()
		ac := builder.BuildByte(allPatterns)
		out.Matcher = &ac
	}

	for i, rd := range out.Rules {
		rd.Program = compileCondition(rd.Condition, rd.StringNames, out, i)
	}

	return out, nil
}

func compileRegex(out *RuleSet, s *ast.StringDef, ruleName string, ruleIdx int, allPatterns [][]byte, opts Options) ([][]byte, error) {
	var rePattern string
	var caseInsensitive bool

	switch v := s.Value.(type) {
	case ast.RegexString:
		rePattern = buildRE2Pattern(v.Pattern, v.Modifiers)
		caseInsensitive = v.Modifiers.CaseInsensitive
	case ast.HexString:
		rePattern = "(?s)" + hexStringToRegex(v)
		caseInsensitive = false
	default:
		return allPatterns, nil
	}
	compiled, err := experimental.CompileLatin1(rePattern)
	if err != nil {
		if opts.SkipInvalidRegex {
			return allPatterns, nil
		}
		return nil, fmt.Errorf("rule %q string %s: invalid regex: %w", ruleName, s.Name, err)
	}

	atoms, hasAtoms := extractAtoms(rePattern, minAtomLength)
	requiresFullScan := !hasAtoms || caseInsensitive
	if requiresFullScan {
		if opts.SkipInvalidRegex {
			return allPatterns, nil
		}
		return nil, fmt.Errorf("rule %q string %s: regex requires full buffer scan", ruleName, s.Name)
	}

	rp := &RegexPattern{
		Re:         compiled,
		RuleIndex:  ruleIdx,
		StringName: s.Name,
		HasAtom:    true,
	}
	regexIdx := len(out.RegexPatterns)
	out.RegexPatterns = append(out.RegexPatterns, rp)

	for _, atom := range atoms {
		out.PatternMap = append(out.PatternMap, PatternRef{RegexIdx: regexIdx})
		allPatterns = append(allPatterns, atom)
	}
	return allPatterns, nil
}

func generatePatterns(s *ast.StringDef) ([][]byte, bool) {
	switch v := s.Value.(type) {
	case ast.TextString:
		if s.Modifiers.Base64 {
			return generateBase64Patterns([]byte(v.Value)), false
		}
		return [][]byte{[]byte(v.Value)}, false
	case ast.RegexString:
		return nil, true
	case ast.HexString:
		if isSimpleHexString(v) {
			return [][]byte{hexStringToBytes(v)}, false
		}
		return nil, true
	default:
		return nil, false
	}
}

func isSimpleHexString(h ast.HexString) bool {
	for _, t := range h.Tokens {
		if _, ok := t.(ast.HexByte); !ok {
			return false
		}
	}
	return true
}

func hexStringToBytes(h ast.HexString) []byte {
	result := make([]byte, 0, len(h.Tokens))
	for _, t := range h.Tokens {
		if b, ok := t.(ast.HexByte); ok {
			result = append(result, b.Value)
		}
	}
	return result
}

func hexStringToRegex(h ast.HexString) string {
	var sb strings.Builder

	i := 0
	for i < len(h.Tokens) {
		switch t := h.Tokens[i].(type) {
		case ast.HexByte:
			fmt.Fprintf(&sb, "\\x%02x", t.Value)
		case ast.HexWildcard:
			count := 1
			for i+count < len(h.Tokens) {
				if _, ok := h.Tokens[i+count].(ast.HexWildcard); ok {
					count++
				} else {
					break
				}
			}
			if count == 1 {
				sb.WriteByte('.')
			} else {
				fmt.Fprintf(&sb, ".{%d}", count)
			}
			i += count - 1
		case ast.HexJump:
			writeJump(&sb, t)
		case ast.HexAlt:
			writeAlt(&sb, t)
		}
		i++
	}

	return sb.String()
}

func writeJump(sb *strings.Builder, j ast.HexJump) {
	switch {
	case j.Min == nil && j.Max == nil:
		sb.WriteString(".*")
	case j.Min != nil && j.Max != nil && *j.Min == *j.Max:
		fmt.Fprintf(sb, ".{%d}", *j.Min)
	case j.Min != nil && j.Max != nil:
		fmt.Fprintf(sb, ".{%d,%d}", *j.Min, *j.Max)
	case j.Min != nil:
		fmt.Fprintf(sb, ".{%d,}", *j.Min)
	case j.Max != nil:
		fmt.Fprintf(sb, ".{0,%d}", *j.Max)
	}
}

func writeAlt(sb *strings.Builder, a ast.HexAlt) {
	sb.WriteString("(?:")
	for i, item := range a.Alternatives {
		if i > 0 {
			sb.WriteByte('|')
		}
		if item.Wildcard {
			sb.WriteByte('.')
		} else if item.Byte != nil {
			fmt.Fprintf(sb, "\\x%02x", *item.Byte)
		}
	}
	sb.WriteByte(')')
}

func generateBase64Patterns(data []byte) [][]byte {
	return base64Variants(data)
}

func buildRE2Pattern(pattern string, mods ast.RegexModifiers) string {
	var prefix string
	if mods.CaseInsensitive {
		prefix = "(?i)"
	}
	if mods.DotMatchesAll {
		prefix += "(?s)"
	}
	if mods.Multiline {
		prefix += "(?m)"
	}
	return prefix + fixCommaQuantifiers(pattern)
}

// fixCommaQuantifiers rewrites {,N} to {0,N} because RE2 treats {,N} as
// literal text rather than a quantifier.
func fixCommaQuantifiers(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			b.WriteByte(pattern[i])
			b.WriteByte(pattern[i+1])
			i++
			continue
		}
		if pattern[i] == '{' && i+1 < len(pattern) && pattern[i+1] == ',' {
			b.WriteString("{0")
			continue
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}

func metaValue(r *ast.Rule, key string) string {
	for _, m := range r.Meta {
		if m.Key == key {
			if s, ok := m.Value.(string); ok {
				return s
			}
			return ""
		}
	}
	return ""
}

// DefineGlobal declares a global variable with its initial value, the
// compile-time counterpart of scanner.Scanner.SetGlobal's runtime check.
func (r *RuleSet) DefineGlobal(name string, v types.Value) {
	r.Globals.AddField(name, v)
}

// PatternIDsFor returns every pattern id in r.PatternMap that backs string
// name within rule ruleIdx: the literal's own id, or every atom id feeding
// the regex that string compiled to.
func (r *RuleSet) PatternIDsFor(ruleIdx int, name string) []int {
	var ids []int
	for pid, ref := range r.PatternMap {
		if ref.IsAtom() {
			rp := r.RegexPatterns[ref.RegexIdx]
			if rp.RuleIndex == ruleIdx && rp.StringName == name {
				ids = append(ids, pid)
			}
			continue
		}
		if ref.RuleIndex == ruleIdx && ref.StringName == name {
			ids = append(ids, pid)
		}
	}
	return ids
}
