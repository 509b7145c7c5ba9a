package parser

import (
	"strconv"
	"strings"

	"github.com/sansecio/yarax/ast"
)

// hexStringFromBody decodes a HexBody token's raw text, including its
// surrounding braces, into the hex token sequence.
func hexStringFromBody(raw string) ast.HexString {
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	var tokens []ast.HexToken
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '?' && i+1 < len(body) && body[i+1] == '?':
			tokens = append(tokens, ast.HexWildcard{})
			i += 2
		case c == '[':
			end := strings.IndexByte(body[i:], ']')
			if end < 0 {
				i = len(body)
				break
			}
			tokens = append(tokens, parseHexJump(body[i:i+end+1]))
			i += end + 1
		case c == '(':
			end := strings.IndexByte(body[i:], ')')
			if end < 0 {
				i = len(body)
				break
			}
			tokens = append(tokens, parseHexAlt(body[i:i+end+1]))
			i += end + 1
		case isHexDigit(c):
			if i+1 < len(body) && isHexDigit(body[i+1]) {
				v, _ := strconv.ParseUint(body[i:i+2], 16, 8)
				tokens = append(tokens, ast.HexByte{Value: byte(v)})
				i += 2
			} else {
				i++
			}
		default:
			i++
		}
	}
	return ast.HexString{Tokens: tokens}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
