// Package parser turns YARA rule source into an ast.RuleSet.
package parser

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/sansecio/yarax/ast"
)

// Parser parses YARA rules.
type Parser struct {
	pp *participle.Parser[File]
}

// New creates a new YARA parser.
func New() *Parser {
	pp := participle.MustBuild[File](
		participle.Lexer(yaraLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
		participle.UseLookahead(2),
	)
	return &Parser{pp: pp}
}

// Parse parses YARA rules from a string.
func (p *Parser) Parse(input string) (*ast.RuleSet, error) {
	f, err := p.pp.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return buildRuleSet(f), nil
}

// ParseFile parses YARA rules from a file.
func (p *Parser) ParseFile(filename string) (*ast.RuleSet, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return p.Parse(string(content))
}

func buildRuleSet(f *File) *ast.RuleSet {
	rs := &ast.RuleSet{}
	for _, imp := range f.Imports {
		rs.Imports = append(rs.Imports, unquoteString(imp.Name))
	}
	for _, rg := range f.Rules {
		rs.Rules = append(rs.Rules, buildRule(rg))
	}
	return rs
}

func buildRule(rg *RuleGrammar) *ast.Rule {
	r := &ast.Rule{
		Name:      rg.Name,
		Namespace: "default",
		Global:    rg.Global,
		Private:   rg.Private,
		Tags:      rg.Tags,
	}
	if rg.Meta != nil {
		for _, me := range rg.Meta.Entries {
			r.Meta = append(r.Meta, buildMetaEntry(me))
		}
	}
	if rg.Strings != nil {
		for _, sd := range rg.Strings.Defs {
			r.Strings = append(r.Strings, buildStringDef(sd))
		}
	}
	if rg.Condition != nil {
		r.Condition = buildOrExpr(rg.Condition.Expr)
	}
	return r
}

func buildMetaEntry(me *MetaEntryGrammar) *ast.MetaEntry {
	entry := &ast.MetaEntry{Key: me.Key}
	switch {
	case me.StringValue != nil:
		entry.Value = *me.StringValue
	case me.IntValue != nil:
		entry.Value = *me.IntValue
	case me.BoolValue != nil:
		entry.Value = *me.BoolValue == "true"
	}
	return entry
}

func buildStringDef(sd *StringDefGrammar) *ast.StringDef {
	def := &ast.StringDef{Name: sd.Name}
	switch {
	case sd.Text != nil:
		def.Value = ast.TextString{Value: unquoteString(*sd.Text)}
	case sd.Hex != nil:
		def.Value = hexStringFromBody(*sd.Hex)
	case sd.Regex != nil:
		pattern, mods := parseRegex(*sd.Regex)
		def.Value = ast.RegexString{Pattern: pattern, Modifiers: mods}
	}
	for _, m := range sd.Modifiers {
		switch m {
		case "base64":
			def.Modifiers.Base64 = true
		case "base64wide":
			def.Modifiers.Base64Wide = true
		case "fullword":
			def.Modifiers.Fullword = true
		case "wide":
			def.Modifiers.Wide = true
		case "ascii":
			def.Modifiers.Ascii = true
		case "nocase":
			def.Modifiers.Nocase = true
		case "xor":
			def.Modifiers.Xor = true
		case "private":
			def.Modifiers.Private = true
		}
	}
	return def
}

func buildOrExpr(e *OrExpr) ast.Expr {
	left := buildAndExpr(e.Left)
	if e.Right == nil {
		return left
	}
	return ast.BinaryExpr{Op: "or", Left: left, Right: buildOrExpr(e.Right)}
}

func buildAndExpr(e *AndExpr) ast.Expr {
	left := buildCmpExpr(e.Left)
	if e.Right == nil {
		return left
	}
	return ast.BinaryExpr{Op: "and", Left: left, Right: buildAndExpr(e.Right)}
}

func buildCmpExpr(e *CmpExpr) ast.Expr {
	left := buildPrimary(e.Left)
	if e.Right == nil {
		return left
	}
	return ast.BinaryExpr{Op: "==", Left: left, Right: buildPrimary(e.Right)}
}

func buildPrimary(p *Primary) ast.Expr {
	var inner ast.Expr
	switch {
	case p.AnyOf != nil:
		inner = ast.AnyOf{Pattern: quantifierPattern(p.AnyOf)}
	case p.AllOf != nil:
		inner = ast.AllOf{Pattern: quantifierPattern(p.AllOf)}
	case p.FuncCall != nil:
		arg := ast.Expr(ast.IntLit{})
		if p.FuncCall.Arg != nil {
			arg = ast.IntLit{Value: *p.FuncCall.Arg}
		}
		inner = ast.FuncCall{Name: p.FuncCall.Name, Args: []ast.Expr{arg}}
	case p.AtExpr != nil:
		pos := ast.Expr(ast.IntLit{})
		if p.AtExpr.Pos != nil {
			pos = ast.IntLit{Value: *p.AtExpr.Pos}
		}
		inner = ast.AtExpr{Ref: ast.StringRef{Name: p.AtExpr.Ref}, Pos: pos}
	case p.StrRef != nil:
		inner = ast.StringRef{Name: *p.StrRef}
	case p.HexInt != nil:
		v, _ := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(*p.HexInt, "0x"), "0X"), 16, 64)
		inner = ast.IntLit{Value: v}
	case p.Int != nil:
		inner = ast.IntLit{Value: *p.Int}
	case p.Filesize:
		inner = ast.FilesizeRef{}
	case p.Paren != nil:
		inner = ast.ParenExpr{Inner: buildOrExpr(p.Paren)}
	}
	if p.Not {
		return ast.FuncCall{Name: "not", Args: []ast.Expr{inner}}
	}
	return inner
}

func quantifierPattern(q *QuantifierSuffix) string {
	if q.Them {
		return "them"
	}
	if q.Pattern != nil {
		return *q.Pattern
	}
	return ""
}

func unquoteString(s string) string {
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteByte('\\')
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func parseRegex(s string) (string, ast.RegexModifiers) {
	s = s[1:]
	var mods ast.RegexModifiers
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		for _, c := range s[idx+1:] {
			switch c {
			case 'i':
				mods.CaseInsensitive = true
			case 's':
				mods.DotMatchesAll = true
			case 'm':
				mods.Multiline = true
			}
		}
		s = s[:idx]
	}
	return s, mods
}

func parseHexAlt(s string) ast.HexAlt {
	if len(s) < 2 {
		return ast.HexAlt{}
	}
	s = s[1 : len(s)-1]
	parts := strings.Split(s, "|")
	items := make([]ast.HexAltItem, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "??" {
			items[i] = ast.HexAltItem{Wildcard: true}
		} else {
			b, _ := strconv.ParseUint(part, 16, 8)
			v := byte(b)
			items[i] = ast.HexAltItem{Byte: &v}
		}
	}
	return ast.HexAlt{Alternatives: items}
}

func parseHexJump(s string) ast.HexJump {
	s = strings.Trim(s, "[] \t")
	if s == "-" {
		return ast.HexJump{}
	}
	if idx := strings.Index(s, "-"); idx >= 0 {
		var jump ast.HexJump
		if minStr := strings.TrimSpace(s[:idx]); minStr != "" {
			min, _ := strconv.Atoi(minStr)
			jump.Min = &min
		}
		if maxStr := strings.TrimSpace(s[idx+1:]); maxStr != "" {
			max, _ := strconv.Atoi(maxStr)
			jump.Max = &max
		}
		return jump
	}
	n, _ := strconv.Atoi(s)
	return ast.HexJump{Min: &n, Max: &n}
}
