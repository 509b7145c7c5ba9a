package scanner

import "github.com/sansecio/yarax/compiler"

// ScanResults is the read-only cursor bundle returned by Scan (spec.md
// §4.H). It borrows the context; Pattern.Matches returns copies of the
// recorded matches.
type ScanResults struct {
	rules *compiler.RuleSet
	ctx   *Context
}

// Rule is one compiled rule, exposed through a result cursor.
type Rule struct {
	rd      *compiler.RuleDescriptor
	ruleIdx int
	rules   *compiler.RuleSet
	ctx     *Context
}

// Name returns the rule's identifier.
func (r Rule) Name() string { return r.rd.Name }

// Namespace returns the rule's namespace.
func (r Rule) Namespace() string { return r.rd.Namespace }

// Patterns returns one Pattern per string the rule declares.
func (r Rule) Patterns() []Pattern {
	out := make([]Pattern, 0, len(r.rd.StringNames))
	for _, name := range r.rd.StringNames {
		out = append(out, Pattern{
			identifier: name,
			ids:        r.rules.PatternIDsFor(r.ruleIdx, name),
			ctx:        r.ctx,
		})
	}
	return out
}

// Pattern is one named string declared by a rule.
type Pattern struct {
	identifier string
	ids        []int
	ctx        *Context
}

// Identifier returns the string's name, e.g. "$a".
func (p Pattern) Identifier() string { return p.identifier }

// Matches returns the recorded occurrences of this pattern in the scanned
// data, copied into a new slice that does not share the context's backing
// arrays.
func (p Pattern) Matches() []Match {
	var out []Match
	for _, id := range p.ids {
		out = append(out, p.ctx.patternMatches[id]...)
	}
	return out
}

// MatchingRules returns a cursor over the rules that matched, in the order
// they were confirmed (regular rules first, then drained global-rule
// groups — see DESIGN.md's Open Question 3 decision).
func (r *ScanResults) MatchingRules() *MatchingRulesCursor {
	return &MatchingRulesCursor{res: r}
}

// MatchingRulesCursor walks rules_matching in order.
type MatchingRulesCursor struct {
	res *ScanResults
	idx int
}

// Len returns the exact number of remaining rules.
func (c *MatchingRulesCursor) Len() int {
	return len(c.res.ctx.rulesMatching) - c.idx
}

// Next yields the next matching rule, or false once exhausted.
func (c *MatchingRulesCursor) Next() (Rule, bool) {
	if c.idx >= len(c.res.ctx.rulesMatching) {
		return Rule{}, false
	}
	ruleIdx := c.res.ctx.rulesMatching[c.idx]
	c.idx++
	return c.res.ruleAt(ruleIdx), true
}

// NonMatchingRules returns a cursor over every rule whose matching-rules
// bitmap bit is zero, excluding trailing padding bits beyond num_rules.
func (r *ScanResults) NonMatchingRules() *NonMatchingRulesCursor {
	return &NonMatchingRulesCursor{res: r}
}

// NonMatchingRulesCursor scans the matching-rules bitmap for zero bits.
type NonMatchingRulesCursor struct {
	res  *ScanResults
	next int
}

// Len returns num_rules - |rules_matching|, saturating at zero.
func (c *NonMatchingRulesCursor) Len() int {
	n := c.res.rules.NumRules - len(c.res.ctx.rulesMatching)
	if n < 0 {
		return 0
	}
	return n
}

// Next yields the next non-matching rule, or false once exhausted.
func (c *NonMatchingRulesCursor) Next() (Rule, bool) {
	for c.next < c.res.rules.NumRules {
		ruleIdx := c.next
		c.next++
		if !c.res.ctx.mem.TestRuleBit(ruleIdx) {
			return c.res.ruleAt(ruleIdx), true
		}
	}
	return Rule{}, false
}

func (r *ScanResults) ruleAt(ruleIdx int) Rule {
	return Rule{rd: r.rules.Rules[ruleIdx], ruleIdx: ruleIdx, rules: r.rules, ctx: r.ctx}
}
