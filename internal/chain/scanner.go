package chain

const (
	// Delimiter separates utilities that share one variant prefix
	Delimiter = '|'
	// Separator terminates a variant segment
	Separator = ':'
)

// ContainsUnbracketedDelimiter reports whether text holds a delimiter
// outside of any [...] group. Unbalanced brackets are tolerated.
func ContainsUnbracketedDelimiter(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
		case Delimiter:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// SplitOnUnbracketedDelimiter splits text on every delimiter found at
// bracket depth 0. The result always has at least one element.
func SplitOnUnbracketedDelimiter(text string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
		case Delimiter:
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}
