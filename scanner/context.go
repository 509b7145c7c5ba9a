// Package scanner is the scan runtime: it owns the per-scan execution
// context, drives the compiled rule program through internal/vm, invokes
// the module driver, and publishes results through read-only cursors.
package scanner

import (
	"github.com/sansecio/yarax/internal/vm"
	"github.com/sansecio/yarax/modules"
	"github.com/sansecio/yarax/stringpool"
	"github.com/sansecio/yarax/types"
)

// Match is one recorded occurrence of a pattern in the scanned data.
type Match struct {
	Offset int64
	Length int64
	XorKey *byte
}

// PartialMatch is a provisional hit for a pattern whose full match depends
// on a trailing condition (e.g. one piece of a chained hex pattern); it is
// promoted to a Match once the rest of the chain confirms, and discarded
// otherwise.
type PartialMatch struct {
	Offset int64
	Length int64
}

// stringPoolRecycleThreshold is the retained string-pool size above which
// Scan replaces it with a fresh pool rather than keep growing it, per
// spec.md §4.E step 3 / §9.
const stringPoolRecycleThreshold = 1_000_000

// Context is the scan context: all per-scan mutable state, reused across
// scans and owned exclusively by one Scanner.
type Context struct {
	pool *stringpool.Pool

	// root is the mutable per-scan copy of the compiled rule set's declared
	// globals, into which module outputs are inserted.
	root *types.Struct

	// currentStruct is a transient walker used during field resolution; it
	// must be nil between scans (spec.md §3 invariant 3).
	currentStruct *types.Struct

	// data is the scanned-data cursor: non-nil only during an active Scan
	// call (spec.md §3 invariant 1).
	data []byte

	rulesMatching       []int
	globalRulesMatching map[string][]int
	globalGroupOrder    []string // globalRulesMatching keys in the order each first recorded a match on this scanner, for deterministic drain order

	patternMatches map[int][]Match

	// unconfirmedMatches holds provisional hits for patterns with trailing
	// conditions (chained hex pieces); cleared at scan start alongside
	// patternMatches. No compiled pattern currently emits into it since
	// chained-piece patterns aren't in the supported string syntax, but the
	// table is part of the scan context regardless (spec.md §3/§4.E step 1).
	unconfirmedMatches map[int][]PartialMatch

	moduleOutputs map[string]modules.Message

	mem     *vm.Memory
	globals *vm.Globals

	// searchedPatterns guards the lazy pattern search (spec.md §9): the
	// rule program triggers it on first need, and it must run at most once
	// per scan regardless of how many rules reference pattern matches.
	searchedPatterns bool

	// scanner is the back-pointer to the owning Scanner, set once in
	// NewScanner and never relocated afterward (spec.md §4.A/§9).
	scanner *Scanner
}

func newContext(s *Scanner) *Context {
	rs := s.rules
	mem := vm.NewMemory(rs.NumRules, rs.NumPatterns)
	return &Context{
		pool:                stringpool.New(),
		root:                cloneStruct(rs.Globals),
		globalRulesMatching: make(map[string][]int),
		patternMatches:      make(map[int][]Match),
		unconfirmedMatches:  make(map[int][]PartialMatch),
		moduleOutputs:       make(map[string]modules.Message),
		mem:                 mem,
		globals:             &vm.Globals{MatchingPatternsBitmapBase: int32(mem.Layout().BPatterns)},
		scanner:             s,
	}
}

// Data implements modules.ScanContext.
func (c *Context) Data() []byte { return c.data }

func cloneStruct(s *types.Struct) *types.Struct {
	if s == nil {
		return types.NewStruct("root")
	}
	out := types.NewStruct(s.Name)
	for _, f := range s.Fields {
		out.AddField(f.Name, f.Value)
	}
	return out
}
