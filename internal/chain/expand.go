package chain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options controls how a document is rewritten
type Options struct {
	// AttributeOnly restricts rewriting to quoted attribute values
	// (name="..." or name='...'). Everything else passes through untouched,
	// which keeps script operators such as a bitwise-or intact.
	AttributeOnly bool
}

// Change records one token that was expanded
type Change struct {
	Line   int    // 1-based line of the original token
	Offset int    // byte offset of the original token
	Before string // token as written
	After  string // expanded replacement
}

// ExpandToken expands a chained token such as "hover:a|b" into
// "hover:a hover:b". Tokens without a variant prefix are never expanded.
func ExpandToken(token string) string {
	split := SplitVariantPrefix(token)
	if split.Prefix == "" || !ContainsUnbracketedDelimiter(split.Rest) {
		return token
	}

	parts := SplitOnUnbracketedDelimiter(split.Rest)
	if len(parts) <= 1 {
		return token
	}

	var b strings.Builder
	b.Grow(len(token) + len(parts)*(len(split.Prefix)+1))
	for i, part := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(split.Prefix)
		b.WriteString(part)
	}
	return b.String()
}

// Expand rewrites every chained token in text using the default mode
func Expand(text string) string {
	return ExpandDocument(text, Options{})
}

// ExpandDocument rewrites every chained token in text
func ExpandDocument(text string, opts Options) string {
	return rewrite(text, opts, nil)
}

// Rewrite is ExpandDocument that also reports each expanded token
func Rewrite(text string, opts Options) (string, []Change) {
	rec := &recorder{text: text, line: 1}
	out := rewrite(text, opts, rec)
	return out, rec.changes
}

func rewrite(text string, opts Options, rec *recorder) string {
	// Fast path: nothing to split.
	if strings.IndexByte(text, Delimiter) < 0 {
		return text
	}

	d := documentRewriter{text: text, rec: rec}
	d.out.Grow(len(text) + len(text)/8)
	if opts.AttributeOnly {
		d.attributesOnly()
	} else {
		d.everything()
	}
	if !d.changed {
		return text
	}
	return d.out.String()
}

// documentRewriter walks text once, left to right, claiming attribute spans
// before bare tokens. Spans never overlap.
type documentRewriter struct {
	text    string
	out     strings.Builder
	rec     *recorder
	changed bool
}

// everything rewrites attribute values and bare whitespace-delimited tokens
func (d *documentRewriter) everything() {
	text := d.text
	i := 0
	for i < len(text) {
		if n := spaceWidth(text, i); n > 0 {
			d.out.WriteString(text[i : i+n])
			i += n
			continue
		}
		if attr, ok := matchAttribute(text, i); ok {
			d.attribute(attr)
			i = attr.end
			continue
		}
		j := tokenEnd(text, i)
		d.token(i, j)
		i = j
	}
}

// attributesOnly rewrites attribute values and copies everything else
func (d *documentRewriter) attributesOnly() {
	text := d.text
	i := 0
	for i < len(text) {
		if isNameByte(text[i]) && (i == 0 || !isNameByte(text[i-1])) {
			if attr, ok := matchAttribute(text, i); ok {
				d.attribute(attr)
				i = attr.end
				continue
			}
		}
		d.out.WriteByte(text[i])
		i++
	}
}

// attribute writes name=<quote>value<quote> with every sub-token of value
// expanded. Whitespace between sub-tokens is kept as written.
func (d *documentRewriter) attribute(attr attributeSpan) {
	text := d.text
	d.out.WriteString(text[attr.start:attr.valueStart])
	i := attr.valueStart
	for i < attr.valueEnd {
		if n := spaceWidth(text, i); n > 0 {
			d.out.WriteString(text[i : i+n])
			i += n
			continue
		}
		j := tokenEnd(text[:attr.valueEnd], i)
		d.token(i, j)
		i = j
	}
	d.out.WriteString(text[attr.valueEnd:attr.end])
}

func (d *documentRewriter) token(start, end int) {
	tok := d.text[start:end]
	expanded := ExpandToken(tok)
	if expanded != tok {
		d.changed = true
		if d.rec != nil {
			d.rec.add(start, tok, expanded)
		}
	}
	d.out.WriteString(expanded)
}

// attributeSpan locates name="value" in the source text
type attributeSpan struct {
	start      int // first byte of the name
	valueStart int // first byte after the opening quote
	valueEnd   int // index of the closing quote
	end        int // first byte after the closing quote
}

// matchAttribute matches name="value" or name='value' at i. The closing
// quote must be the same character and on the same line.
func matchAttribute(text string, i int) (attributeSpan, bool) {
	j := i
	for j < len(text) && isNameByte(text[j]) {
		j++
	}
	if j == i || j+1 >= len(text) || text[j] != '=' {
		return attributeSpan{}, false
	}
	quote := text[j+1]
	if quote != '"' && quote != '\'' {
		return attributeSpan{}, false
	}
	valueStart := j + 2
	for k := valueStart; k < len(text); k++ {
		switch text[k] {
		case quote:
			return attributeSpan{start: i, valueStart: valueStart, valueEnd: k, end: k + 1}, true
		case '\n', '\r':
			return attributeSpan{}, false
		}
	}
	return attributeSpan{}, false
}

// isNameByte reports whether c may appear in an attribute name. Besides word
// characters this admits the punctuation used by HTML and template
// attributes: data-x, :class, @click.prevent.
func isNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '-', ':', '@', '.':
		return true
	}
	return false
}

// spaceWidth returns the byte width of the whitespace rune at i, or 0
func spaceWidth(text string, i int) int {
	c := text[i]
	if c < utf8.RuneSelf {
		switch c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return 1
		}
		return 0
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if unicode.IsSpace(r) || r == '\uFEFF' {
		return size
	}
	return 0
}

// tokenEnd returns the end of the non-whitespace run starting at i
func tokenEnd(text string, i int) int {
	for i < len(text) && spaceWidth(text, i) == 0 {
		i++
	}
	return i
}

// recorder collects changes and keeps a running line count
type recorder struct {
	text    string
	changes []Change
	line    int
	lineAt  int
}

func (r *recorder) add(offset int, before, after string) {
	r.line += strings.Count(r.text[r.lineAt:offset], "\n")
	r.lineAt = offset
	r.changes = append(r.changes, Change{
		Line:   r.line,
		Offset: offset,
		Before: before,
		After:  after,
	})
}
