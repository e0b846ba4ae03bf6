package chain

// VariantSplit is a token cut into its variant prefix and the rest
type VariantSplit struct {
	Prefix string // e.g. "md:hover:" or "[&>div]:", empty when absent
	Rest   string // utility chain following the prefix
}

// SplitVariantPrefix peels off as many leading "segment:" pairs as possible.
// A segment is either a plain run of characters or a bracketed arbitrary
// variant. The first segment not terminated by a separator ends the prefix.
func SplitVariantPrefix(token string) VariantSplit {
	i := 0
	lastVariantEnd := 0

	for i < len(token) {
		if token[i] == '[' {
			i = skipBracketGroup(token, i)
			if i < len(token) && token[i] == Separator {
				i++
				lastVariantEnd = i
				continue
			}
			break
		}

		for i < len(token) && !isSegmentStop(token[i]) {
			i++
		}
		if i < len(token) && token[i] == Separator {
			i++
			lastVariantEnd = i
			continue
		}
		break
	}

	return VariantSplit{
		Prefix: token[:lastVariantEnd],
		Rest:   token[lastVariantEnd:],
	}
}

// skipBracketGroup returns the index just past the group opened at start,
// or len(s) when the group never closes
func skipBracketGroup(s string, start int) int {
	depth := 1
	i := start + 1
	for i < len(s) && depth > 0 {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		}
		i++
	}
	return i
}

func isSegmentStop(c byte) bool {
	return c == Separator || c == '[' || c == Delimiter
}
