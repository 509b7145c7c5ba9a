package vm

// Exec runs one rule's compiled condition program, the Go equivalent of
// invoking the compiled rule program's single wasm-exported "main" for that
// rule. On a true result it records the match through the appropriate host
// function, mirroring how the rule program pushes RuleIds via host calls
// rather than returning them directly.
func Exec(prog *Program, ruleID int, isGlobal bool, groupKey string, host HostFuncs) bool {
	if prog.NeedsPatternSearch && host.SearchForPatterns != nil {
		host.SearchForPatterns()
	}

	stack := make([]int64, 0, 8)
	push := func(v int64) { stack = append(stack, v) }
	pop := func() int64 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	boolInt := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}

	for _, in := range prog.Instrs {
		switch in.Op {
		case OpPushInt:
			push(in.Int)

		case OpFilesize:
			if host.Filesize != nil {
				push(host.Filesize())
			} else {
				push(0)
			}

		case OpStringRef:
			matched := false
			for _, pid := range in.PatternIDs {
				if host.TestPatternMatch != nil && host.TestPatternMatch(pid) {
					matched = true
					break
				}
			}
			push(boolInt(matched))

		case OpAt:
			matched := false
			for _, pid := range in.PatternIDs {
				if host.TestPatternMatchAt != nil && host.TestPatternMatchAt(pid, in.Int) {
					matched = true
					break
				}
			}
			push(boolInt(matched))

		case OpFuncCall:
			pos := pop()
			var v int64
			switch in.FuncName {
			case "uint8":
				if host.ReadUint8 != nil {
					if b, ok := host.ReadUint8(pos); ok {
						v = int64(b)
					}
				}
			case "uint16":
				if host.ReadUint16 != nil {
					if b, ok := host.ReadUint16(pos); ok {
						v = int64(b)
					}
				}
			case "uint32":
				if host.ReadUint32 != nil {
					if b, ok := host.ReadUint32(pos); ok {
						v = int64(b)
					}
				}
			case "uint16be":
				if host.ReadUint16BE != nil {
					if b, ok := host.ReadUint16BE(pos); ok {
						v = int64(b)
					}
				}
			case "uint32be":
				if host.ReadUint32BE != nil {
					if b, ok := host.ReadUint32BE(pos); ok {
						v = int64(b)
					}
				}
			}
			push(v)

		case OpEq:
			b, a := pop(), pop()
			push(boolInt(a == b))

		case OpAnd:
			b, a := pop(), pop()
			push(boolInt(a != 0 && b != 0))

		case OpOr:
			b, a := pop(), pop()
			push(boolInt(a != 0 || b != 0))

		case OpNot:
			a := pop()
			push(boolInt(a == 0))

		case OpAnyOf:
			matched := false
			for _, group := range in.StringGroups {
				for _, pid := range group {
					if host.TestPatternMatch != nil && host.TestPatternMatch(pid) {
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
			push(boolInt(matched))

		case OpAllOf:
			all := len(in.StringGroups) > 0
			for _, group := range in.StringGroups {
				groupMatched := false
				for _, pid := range group {
					if host.TestPatternMatch != nil && host.TestPatternMatch(pid) {
						groupMatched = true
						break
					}
				}
				if !groupMatched {
					all = false
					break
				}
			}
			push(boolInt(all))
		}
	}

	matched := len(stack) > 0 && stack[len(stack)-1] != 0
	if matched {
		if isGlobal {
			if host.RecordGlobalRuleMatch != nil {
				host.RecordGlobalRuleMatch(groupKey, ruleID)
			}
		} else if host.RecordRuleMatch != nil {
			host.RecordRuleMatch(ruleID)
		}
	}
	return matched
}
