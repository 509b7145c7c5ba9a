package compiler

import (
	"cmp"
	"slices"
	"sort"
	"time"
)

// maxMatchLen bounds the window searched around an atom candidate when
// confirming a regex, keeping worst-case regex cost bounded regardless of
// file size.
const maxMatchLen = 1024

// RegexTiming holds the timing result for a single regex pattern.
type RegexTiming struct {
	Rule           string
	String         string
	Pattern        string
	MatchedAtoms   []string
	ExtractedAtoms []string
	Duration       time.Duration
	Calls          int
}

type atomCandidate struct {
	positions []int
	atoms     map[string]struct{}
}

// RegexProfile scans a buffer and returns per-regex timing information,
// sorted slowest first. It costs nothing at the scan-context boundary since
// it operates entirely on compile-time pattern data plus a throwaway
// buffer, so it is useful for diagnosing why a rule set is slow without
// touching scanner.Scanner at all.
func (r *RuleSet) RegexProfile(buf []byte) []RegexTiming {
	atomCandidates := make(map[int]*atomCandidate)

	if r.Matcher != nil {
		iter := r.Matcher.IterOverlappingByte(buf)
		for match := iter.Next(); match != nil; match = iter.Next() {
			ref := r.PatternMap[match.Pattern()]
			if !ref.IsAtom() {
				continue
			}
			ac := atomCandidates[ref.RegexIdx]
			if ac == nil {
				ac = &atomCandidate{atoms: make(map[string]struct{})}
				atomCandidates[ref.RegexIdx] = ac
			}
			ac.atoms[string(r.Patterns[match.Pattern()])] = struct{}{}
			ac.positions = append(ac.positions, match.Start())
		}
	}

	halfWindow := maxMatchLen / 2
	timings := make([]RegexTiming, 0, len(atomCandidates))

	for regexIdx, ac := range atomCandidates {
		rp := r.RegexPatterns[regexIdx]
		positions := dedupe(ac.positions)

		start := time.Now()
		calls := 0
		for _, pos := range positions {
			s := max(0, pos-halfWindow)
			e := min(len(buf), pos+halfWindow)
			rp.Re.FindIndex(buf[s:e])
			calls++
		}
		dur := time.Since(start)

		matchedAtoms := make([]string, 0, len(ac.atoms))
		for atom := range ac.atoms {
			matchedAtoms = append(matchedAtoms, atom)
		}
		sort.Strings(matchedAtoms)

		var extractedAtoms []string
		if atoms, ok := extractAtoms(rp.Re.String(), minAtomLength); ok {
			extractedAtoms = make([]string, len(atoms))
			for i, a := range atoms {
				extractedAtoms[i] = string(a)
			}
		}

		timings = append(timings, RegexTiming{
			Rule:           r.Rules[rp.RuleIndex].Name,
			String:         rp.StringName,
			Pattern:        rp.Re.String(),
			MatchedAtoms:   matchedAtoms,
			ExtractedAtoms: extractedAtoms,
			Duration:       dur,
			Calls:          calls,
		})
	}

	slices.SortFunc(timings, func(a, b RegexTiming) int {
		return cmp.Compare(b.Duration, a.Duration)
	})
	return timings
}

func dedupe(positions []int) []int {
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
