package chain

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpandToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"simple chain", "hover:bg-red-500|text-white", "hover:bg-red-500 hover:text-white"},
		{"three utilities", "hover:a|b|c", "hover:a hover:b hover:c"},
		{"stacked variants", "md:max-lg:bg-red-500|scale-110", "md:max-lg:bg-red-500 md:max-lg:scale-110"},
		{"arbitrary variant", "[&>div]:text-red|font-bold", "[&>div]:text-red [&>div]:font-bold"},
		{"arbitrary value with pipe", "hover:bg-[url(a|b)]|text-white", "hover:bg-[url(a|b)] hover:text-white"},
		{"no prefix", "bg-red-500|text-white", "bg-red-500|text-white"},
		{"no delimiter", "hover:bg-red-500", "hover:bg-red-500"},
		{"pipe only inside brackets", "bg-[url(a|b)]", "bg-[url(a|b)]"},
		{"prefixed pipe inside brackets", "md:bg-[url(a|b)]", "md:bg-[url(a|b)]"},
		{"unterminated bracket", "hover:[a|b", "hover:[a|b"},
		{"empty part kept", "hover:a||b", "hover:a hover: hover:b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandToken(tt.token); got != tt.want {
				t.Errorf("ExpandToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestExpandDocument(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts Options
		want string
	}{
		{
			name: "bare token",
			text: "hover:bg-red-500|text-white",
			want: "hover:bg-red-500 hover:text-white",
		},
		{
			name: "range variant",
			text: "md:max-lg:bg-red-500|scale-110",
			want: "md:max-lg:bg-red-500 md:max-lg:scale-110",
		},
		{
			name: "arbitrary value untouched",
			text: "bg-[url(a|b)]",
			want: "bg-[url(a|b)]",
		},
		{
			name: "double quoted attribute",
			text: `class="hover:a|b" other`,
			want: `class="hover:a hover:b" other`,
		},
		{
			name: "single quoted attribute",
			text: `class='p-2 focus:ring|outline-none'`,
			want: `class='p-2 focus:ring focus:outline-none'`,
		},
		{
			name: "attribute whitespace preserved",
			text: "class=\"  hover:a|b\tfocus:c|d \"",
			want: "class=\"  hover:a hover:b\tfocus:c focus:d \"",
		},
		{
			name: "markup element",
			text: `<div class="flex hover:bg-red-500|text-white">x</div>`,
			want: `<div class="flex hover:bg-red-500 hover:text-white">x</div>`,
		},
		{
			name: "hyphenated attribute name",
			text: `<x data-class="md:a|b">`,
			want: `<x data-class="md:a md:b">`,
		},
		{
			name: "bound attribute",
			text: `<x :class="md:a|b">`,
			want: `<x :class="md:a md:b">`,
		},
		{
			name: "multiple lines",
			text: "hover:a|b\n\nfocus:c|d",
			want: "hover:a hover:b\n\nfocus:c focus:d",
		},
		{
			name: "unicode whitespace",
			text: "hover:a|b\u00a0focus:c|d",
			want: "hover:a hover:b\u00a0focus:c focus:d",
		},
		{
			name: "no prefix bare",
			text: "bg-red-500|text-white",
			want: "bg-red-500|text-white",
		},
		{
			name: "attribute only without quotes",
			text: "hover:a|b",
			opts: Options{AttributeOnly: true},
			want: "hover:a|b",
		},
		{
			name: "attribute only bitwise or",
			text: "const x = a | b",
			opts: Options{AttributeOnly: true},
			want: "const x = a | b",
		},
		{
			name: "attribute only call argument",
			text: "document.querySelector('main').classList.add('hover:bg-red-500|scale-110')",
			opts: Options{AttributeOnly: true},
			want: "document.querySelector('main').classList.add('hover:bg-red-500|scale-110')",
		},
		{
			name: "attribute only jsx",
			text: `return <a className="hover:bg-red-500|text-white" onClick={() => f(a|b)}>x</a>`,
			opts: Options{AttributeOnly: true},
			want: `return <a className="hover:bg-red-500 hover:text-white" onClick={() => f(a|b)}>x</a>`,
		},
		{
			name: "attribute only mid run",
			text: `el.className='md:a|b';`,
			opts: Options{AttributeOnly: true},
			want: `el.className='md:a md:b';`,
		},
		{
			name: "attribute value does not span lines",
			text: "className=\"md:a|b\nmd:c|d\"",
			opts: Options{AttributeOnly: true},
			want: "className=\"md:a|b\nmd:c|d\"",
		},
		{
			name: "mismatched quotes",
			text: `className="md:a|b'`,
			opts: Options{AttributeOnly: true},
			want: `className="md:a|b'`,
		},
		{
			name: "comparison is not an attribute",
			text: `a=="md:a|b"`,
			opts: Options{AttributeOnly: true},
			want: `a=="md:a|b"`,
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandDocument(tt.text, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExpandDocument mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandDocumentIdempotent(t *testing.T) {
	docs := []string{
		"hover:bg-red-500|text-white",
		`<div class="md:max-lg:a|b [&>p]:x|y|z bg-[url(a|b)]">`,
		"const x = a | b\nel.className = 'hover:a|b'",
		"focus:ring|ring-offset-2 sm:p-[calc(1rem|2rem)]|m-2",
		"hover:a||b",
	}
	for _, doc := range docs {
		for _, opts := range []Options{{}, {AttributeOnly: true}} {
			once := ExpandDocument(doc, opts)
			twice := ExpandDocument(once, opts)
			if once != twice {
				t.Errorf("ExpandDocument not idempotent for %q (attributeOnly=%v):\n once: %q\ntwice: %q",
					doc, opts.AttributeOnly, once, twice)
			}
		}
	}
}

func TestExpandTokenIdentityWithoutDelimiter(t *testing.T) {
	for _, tok := range []string{"hover:bg-red-500", "bg-[a|b]", "md:[&>*|x]:p-2", "plain", "]x|"} {
		if ContainsUnbracketedDelimiter(SplitVariantPrefix(tok).Rest) {
			continue
		}
		if got := ExpandToken(tok); got != tok {
			t.Errorf("ExpandToken(%q) = %q, want it unchanged", tok, got)
		}
	}
}

func TestRewriteReportsChanges(t *testing.T) {
	text := "<div class=\"hover:a|b\">\n  <p class='x md:c|d'>plain</p>\n</div>"

	out, changes := Rewrite(text, Options{AttributeOnly: true})

	want := []Change{
		{Line: 1, Offset: strings.Index(text, "hover:a|b"), Before: "hover:a|b", After: "hover:a hover:b"},
		{Line: 2, Offset: strings.Index(text, "md:c|d"), Before: "md:c|d", After: "md:c md:d"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if out != ExpandDocument(text, Options{AttributeOnly: true}) {
		t.Errorf("Rewrite output %q differs from ExpandDocument", out)
	}
}

func TestRewriteNoChanges(t *testing.T) {
	text := "<div class=\"p-4\">a | b</div>"
	out, changes := Rewrite(text, Options{})
	if out != text {
		t.Errorf("Rewrite(%q) = %q, want input back", text, out)
	}
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}
