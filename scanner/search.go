package scanner

import "slices"

// maxMatchLen bounds the window searched around an atom candidate when
// confirming a regex, the same bound compiler.RuleSet.RegexProfile uses,
// so worst-case regex cost stays bounded regardless of file size.
const maxMatchLen = 1024

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

func checkWordBoundary(buf []byte, start, end int) bool {
	if start > 0 && isWordChar(buf[start-1]) {
		return false
	}
	if end < len(buf) && isWordChar(buf[end]) {
		return false
	}
	return true
}

func dedupePositions(positions []int) []int {
	if len(positions) <= 1 {
		return positions
	}
	slices.Sort(positions)
	j := 1
	for i := 1; i < len(positions); i++ {
		if positions[i] != positions[j-1] {
			positions[j] = positions[i]
			j++
		}
	}
	return positions[:j]
}

// searchForPatterns is the rule program's lazy "search_for_patterns" host
// function (spec.md §9): the scan driver never calls the Aho-Corasick
// matcher directly, only the rule program does, and only on first need.
// It runs at most once per scan regardless of how many rules request it.
func (c *Context) searchForPatterns() {
	if c.searchedPatterns {
		return
	}
	c.searchedPatterns = true

	rs := c.scanner.rules
	buf := c.data
	if rs.Matcher == nil {
		return
	}

	atomCandidates := make(map[int][]int)

	iter := rs.Matcher.IterOverlappingByte(buf)
	for match := iter.Next(); match != nil; match = iter.Next() {
		pid := match.Pattern()
		ref := rs.PatternMap[pid]

		if ref.IsAtom() {
			atomCandidates[ref.RegexIdx] = append(atomCandidates[ref.RegexIdx], match.Start())
			continue
		}

		if ref.Fullword && !checkWordBoundary(buf, match.Start(), match.End()) {
			continue
		}

		c.recordPatternMatch(pid, int64(match.Start()), int64(match.End()-match.Start()))
	}

	halfWindow := maxMatchLen / 2
	for regexIdx, positions := range atomCandidates {
		rp := rs.RegexPatterns[regexIdx]
		positions = dedupePositions(positions)

		for _, pos := range positions {
			start := max(0, pos-halfWindow)
			end := min(len(buf), pos+halfWindow)
			if loc := rp.Re.FindIndex(buf[start:end]); loc != nil {
				c.recordAtomGroupMatch(regexIdx, int64(start+loc[0]), int64(loc[1]-loc[0]))
				break
			}
		}
	}

	for regexIdx, rp := range rs.RegexPatterns {
		if rp.HasAtom {
			continue
		}
		if loc := rp.Re.FindIndex(buf); loc != nil {
			c.recordAtomGroupMatch(regexIdx, int64(loc[0]), int64(loc[1]-loc[0]))
		}
	}
}

func (c *Context) recordPatternMatch(pid int, offset, length int64) {
	c.patternMatches[pid] = append(c.patternMatches[pid], Match{Offset: offset, Length: length})
	c.mem.SetPatternBit(pid)
}

// recordAtomGroupMatch records a confirmed regex match under every atom
// pattern id that feeds it, so TestPatternMatch(pid) sees the match
// regardless of which atom the condition program happens to query.
func (c *Context) recordAtomGroupMatch(regexIdx int, offset, length int64) {
	rs := c.scanner.rules
	for pid, ref := range rs.PatternMap {
		if ref.IsAtom() && ref.RegexIdx == regexIdx {
			c.recordPatternMatch(pid, offset, length)
		}
	}
}

func (c *Context) patternMatchedAt(pid int, pos int64) bool {
	for _, m := range c.patternMatches[pid] {
		if m.Offset == pos {
			return true
		}
	}
	return false
}
