package scanner

// reset implements spec.md §4.E step 1 / §9's "clear_matches": per-pattern
// match vectors and rules_matching are cleared element-wise to retain
// their capacity, and both VM bitmaps are zeroed — unless every match
// table and rules_matching were already empty on entry, in which case the
// bitmaps are guaranteed already zero and the zeroing is skipped.
func (c *Context) reset() {
	// The bitmaps are the cheapest, always-accurate witness of "was
	// anything matched last scan": by invariant they stay in lockstep with
	// rules_matching and pattern_matches, so testing them directly (rather
	// than re-deriving emptiness from map/slice lengths, which drift once a
	// key exists with a truncated-to-zero slice) is both correct and exact.
	alreadyEmpty := c.mem.RulesBitmapIsZero()

	c.rulesMatching = c.rulesMatching[:0]
	for pid, matches := range c.patternMatches {
		c.patternMatches[pid] = matches[:0]
	}
	for pid, matches := range c.unconfirmedMatches {
		c.unconfirmedMatches[pid] = matches[:0]
	}
	for _, key := range c.globalGroupOrder {
		c.globalRulesMatching[key] = c.globalRulesMatching[key][:0]
	}

	if !alreadyEmpty {
		c.mem.ZeroBitmaps()
	}

	c.searchedPatterns = false
}

// finishScan implements spec.md §4.E steps 6-7: drain every global-rule
// group into rules_matching in globalGroupOrder (capacity retained), then
// detach the scanned-data pointer and current_struct so no result cursor
// can read through a stale buffer after Scan returns.
func (c *Context) finishScan() {
	for _, key := range c.globalGroupOrder {
		c.rulesMatching = append(c.rulesMatching, c.globalRulesMatching[key]...)
		c.globalRulesMatching[key] = c.globalRulesMatching[key][:0]
	}

	c.data = nil
	c.currentStruct = nil
}
