package compiler

import (
	"strings"

	"github.com/sansecio/yarax/ast"
	"github.com/sansecio/yarax/internal/vm"
)

// compileCondition converts a rule's condition AST into a vm.Program: a
// flat postfix instruction sequence rather than a tree walked at scan time.
func compileCondition(expr ast.Expr, stringNames []string, rs *RuleSet, ruleIdx int) *vm.Program {
	c := &condCompiler{stringNames: stringNames, rs: rs, ruleIdx: ruleIdx}
	c.emit(expr)
	return &vm.Program{Instrs: c.instrs, NeedsPatternSearch: c.needsSearch}
}

type condCompiler struct {
	instrs      []vm.Instr
	stringNames []string
	rs          *RuleSet
	ruleIdx     int
	needsSearch bool
}

// patternIDsFor resolves the pattern ids backing a string name within this
// rule; see RuleSet.PatternIDsFor.
func (c *condCompiler) patternIDsFor(name string) []int {
	return c.rs.PatternIDsFor(c.ruleIdx, name)
}

func (c *condCompiler) emit(expr ast.Expr) {
	switch e := expr.(type) {
	case ast.StringRef:
		c.needsSearch = true
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpStringRef, Str: e.Name, PatternIDs: c.patternIDsFor(e.Name)})

	case ast.AtExpr:
		c.needsSearch = true
		pos := int64(0)
		if lit, ok := e.Pos.(ast.IntLit); ok {
			pos = lit.Value
		}
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpAt, Str: e.Ref.Name, Int: pos, PatternIDs: c.patternIDsFor(e.Ref.Name)})

	case ast.IntLit:
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpPushInt, Int: e.Value})

	case ast.FilesizeRef:
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpFilesize})

	case ast.FuncCall:
		if e.Name == "not" {
			// Unary `not`, synthesized by the parser for the `not` keyword;
			// every other FuncCall name is a buffer read primitive.
			if len(e.Args) == 1 {
				c.emit(e.Args[0])
			}
			c.instrs = append(c.instrs, vm.Instr{Op: vm.OpNot})
			return
		}
		pos := int64(0)
		if len(e.Args) > 0 {
			if lit, ok := e.Args[0].(ast.IntLit); ok {
				pos = lit.Value
			}
		}
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpPushInt, Int: pos})
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpFuncCall, FuncName: e.Name})

	case ast.BinaryExpr:
		c.emit(e.Left)
		c.emit(e.Right)
		switch e.Op {
		case "and":
			c.instrs = append(c.instrs, vm.Instr{Op: vm.OpAnd})
		case "or":
			c.instrs = append(c.instrs, vm.Instr{Op: vm.OpOr})
		case "==":
			c.instrs = append(c.instrs, vm.Instr{Op: vm.OpEq})
		}

	case ast.ParenExpr:
		c.emit(e.Inner)

	case ast.AnyOf:
		c.needsSearch = true
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpAnyOf, StringGroups: c.stringGroupsFor(e.Pattern)})

	case ast.AllOf:
		c.needsSearch = true
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpAllOf, StringGroups: c.stringGroupsFor(e.Pattern)})

	default:
		c.instrs = append(c.instrs, vm.Instr{Op: vm.OpPushInt, Int: 0})
	}
}

// stringGroupsFor resolves matchingStringNames ("them" or a `$prefix*`
// wildcard) into one pattern-id group per matching string name.
func (c *condCompiler) stringGroupsFor(pattern string) [][]int {
	names := matchingStringNames(pattern, c.stringNames)
	groups := make([][]int, 0, len(names))
	for _, name := range names {
		groups = append(groups, c.patternIDsFor(name))
	}
	return groups
}

// matchingStringNames returns string names matching pattern, which is
// either "them" (all strings) or a wildcard like "$b64_*".
func matchingStringNames(pattern string, stringNames []string) []string {
	if pattern == "them" {
		return stringNames
	}
	if !strings.HasSuffix(pattern, "*") {
		for _, name := range stringNames {
			if name == pattern {
				return []string{name}
			}
		}
		return nil
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var result []string
	for _, name := range stringNames {
		if strings.HasPrefix(name, prefix) {
			result = append(result, name)
		}
	}
	return result
}
