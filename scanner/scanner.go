package scanner

import (
	"encoding/binary"

	"github.com/sansecio/yarax/compiler"
	"github.com/sansecio/yarax/internal/vm"
	"github.com/sansecio/yarax/stringpool"
	"github.com/sansecio/yarax/types"
)

// Scanner owns a compiled rule set and one reusable Context; it is
// strictly sequential and single-owner (spec.md §5): concurrent Scan calls
// on the same Scanner are undefined.
type Scanner struct {
	rules *compiler.RuleSet
	ctx   *Context
}

// NewScanner constructs a Scanner over a compiled rule set.
func NewScanner(rules *compiler.RuleSet) *Scanner {
	s := &Scanner{rules: rules}
	s.ctx = newContext(s)
	return s
}

// ScanFile reads path and scans its contents, choosing the buffered-read
// or mmap ingest strategy by size (spec.md §4.F).
func (s *Scanner) ScanFile(path string) (*ScanResults, error) {
	data, cleanup, err := readFile(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return s.Scan(data), nil
}

// Scan runs the scan driver (spec.md §4.E) over data and returns a
// read-only result cursor bundle bound to the scanner's context.
func (s *Scanner) Scan(data []byte) *ScanResults {
	c := s.ctx

	c.reset()

	c.data = data
	c.globals.Filesize = int64(len(data))

	if c.pool.Size() > stringPoolRecycleThreshold {
		c.pool = stringpool.New()
	}

	c.runModuleDriver(s.rules.Imports)

	host := s.hostFuncs(c)
	for ruleID, rd := range s.rules.Rules {
		groupKey := ""
		if rd.IsGlobal {
			groupKey = rd.Namespace
		}
		vm.Exec(rd.Program, ruleID, rd.IsGlobal, groupKey, host)
	}

	c.finishScan()

	return &ScanResults{rules: s.rules, ctx: c}
}

// SetGlobal updates a declared field of the root structure (spec.md §4.G).
// The new value persists across subsequent scans until overwritten again.
func (s *Scanner) SetGlobal(name string, value types.Value) error {
	cur, ok := s.ctx.root.FieldByName(name)
	if !ok {
		return &VariableError{Name: name, Err: ErrUndeclaredVariable}
	}
	if !cur.EqType(value) {
		return &VariableError{Name: name, Err: ErrTypeMismatch}
	}
	s.ctx.root.AddField(name, value)
	return nil
}

func (s *Scanner) hostFuncs(c *Context) vm.HostFuncs {
	return vm.HostFuncs{
		SearchForPatterns: c.searchForPatterns,
		Filesize:          func() int64 { return c.globals.Filesize },

		TestPatternMatch: func(pid int) bool {
			if pid < 0 || pid >= s.rules.NumPatterns {
				return false
			}
			return c.mem.TestPatternBit(pid)
		},
		TestPatternMatchAt: func(pid int, pos int64) bool {
			return c.patternMatchedAt(pid, pos)
		},

		RecordRuleMatch: func(ruleID int) {
			c.mem.SetRuleBit(ruleID)
			c.rulesMatching = append(c.rulesMatching, ruleID)
		},
		RecordGlobalRuleMatch: func(groupKey string, ruleID int) {
			c.mem.SetRuleBit(ruleID)
			if _, ok := c.globalRulesMatching[groupKey]; !ok {
				c.globalGroupOrder = append(c.globalGroupOrder, groupKey)
			}
			c.globalRulesMatching[groupKey] = append(c.globalRulesMatching[groupKey], ruleID)
		},

		ReadUint8: func(pos int64) (uint8, bool) {
			if pos < 0 || int(pos) >= len(c.data) {
				return 0, false
			}
			return c.data[pos], true
		},
		ReadUint16: func(pos int64) (uint16, bool) {
			if pos < 0 || int(pos)+2 > len(c.data) {
				return 0, false
			}
			return binary.LittleEndian.Uint16(c.data[pos:]), true
		},
		ReadUint32: func(pos int64) (uint32, bool) {
			if pos < 0 || int(pos)+4 > len(c.data) {
				return 0, false
			}
			return binary.LittleEndian.Uint32(c.data[pos:]), true
		},
		ReadUint16BE: func(pos int64) (uint16, bool) {
			if pos < 0 || int(pos)+2 > len(c.data) {
				return 0, false
			}
			return binary.BigEndian.Uint16(c.data[pos:]), true
		},
		ReadUint32BE: func(pos int64) (uint32, bool) {
			if pos < 0 || int(pos)+4 > len(c.data) {
				return 0, false
			}
			return binary.BigEndian.Uint32(c.data[pos:]), true
		},
	}
}
