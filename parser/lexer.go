package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// yaraLexer tokenizes YARA rule source for the participle parser. It is a
// single flat token set rather than the mode-switching lexer YARA's own
// grammar implies, because participle's lookahead handles section boundaries
// (meta/strings/condition) once the tokens themselves are unambiguous.
var yaraLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*([^*]|\*[^/])*\*/`},

	// Hex string body: the raw bytes between { and } are captured whole and
	// decoded by hexStringFromBody, since a per-token hex grammar fights
	// participle's single left-to-right token stream for alternations like
	// (41|42) that contain their own parens.
	{Name: "HexBody", Pattern: `\{(\s*[0-9A-Fa-f?\[\]\-() \t\r\n|]+\s*)\}`},

	{Name: "Regex", Pattern: `/(\\.|[^/\\\n])+/[ismx]*`},
	{Name: "Eq2", Pattern: `==`},
	{Name: "StringIdent", Pattern: `\$[A-Za-z0-9_]*\*?`},
	{Name: "HexIntLit", Pattern: `0[xX][0-9A-Fa-f]+`},
	{Name: "IntLit", Pattern: `[0-9]+(KB|MB)?`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}()\[\]:,=<>!+\-*\\\/.%^&|~]`},
})
