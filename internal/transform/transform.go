package transform

import (
	"strings"

	"github.com/gubarz/twchain/internal/chain"
)

// Rules decides which files are rewritten and in which mode
type Rules struct {
	Extensions       []string // files ending in one of these are rewritten
	ScriptExtensions []string // subset rewritten in attribute-only mode
	Exclude          []string // directory names never entered
}

// DefaultRules returns the built-in allow-list: markup, templating and
// script files, skipping dependency directories
func DefaultRules() Rules {
	return Rules{
		Extensions: []string{
			".js", ".jsx", ".ts", ".tsx",
			".html", ".vue", ".svelte", ".astro",
			".md", ".mdx", ".blade.php", ".php",
		},
		ScriptExtensions: []string{".js", ".jsx", ".ts", ".tsx"},
		Exclude:          []string{"node_modules"},
	}
}

// Result is a rewritten file
type Result struct {
	Code    string
	Changes []chain.Change
}

// Hook is the per-file entry point used by the walker, the watcher and
// stdin rewriting
type Hook struct {
	extensions       []string
	scriptExtensions []string
	exclude          map[string]bool
	attributesOnly   bool
}

// NewHook creates a hook for the given rules
func NewHook(rules Rules) *Hook {
	h := &Hook{
		extensions:       normalizeExtensions(rules.Extensions),
		scriptExtensions: normalizeExtensions(rules.ScriptExtensions),
		exclude:          make(map[string]bool, len(rules.Exclude)),
	}
	for _, dir := range rules.Exclude {
		dir = strings.Trim(strings.TrimSpace(dir), `/\`)
		if dir != "" {
			h.exclude[dir] = true
		}
	}
	return h
}

// WithAttributesOnly forces attribute-only mode for every file
func (h *Hook) WithAttributesOnly(on bool) *Hook {
	h.attributesOnly = on
	return h
}

// Excluded reports whether any segment of path is an excluded directory
func (h *Hook) Excluded(path string) bool {
	for _, seg := range splitPath(path) {
		if h.exclude[seg] {
			return true
		}
	}
	return false
}

// ExcludedDir reports whether a directory with this base name is skipped
func (h *Hook) ExcludedDir(name string) bool {
	return h.exclude[name]
}

// Eligible reports whether id should be rewritten at all
func (h *Hook) Eligible(id string) bool {
	if h.Excluded(id) {
		return false
	}
	return hasAnySuffix(id, h.extensions)
}

// Mode selects attribute-only rewriting for script files
func (h *Hook) Mode(id string) chain.Options {
	return chain.Options{
		AttributeOnly: h.attributesOnly || hasAnySuffix(id, h.scriptExtensions),
	}
}

// Transform rewrites code for the file id. It returns nil when the file is
// not eligible or when nothing changed, so callers can skip further work.
func (h *Hook) Transform(code, id string) *Result {
	if !h.Eligible(id) {
		return nil
	}
	return h.Rewrite(code, id)
}

// Rewrite is Transform without the eligibility check, for input whose
// name was chosen by the user (stdin)
func (h *Hook) Rewrite(code, id string) *Result {
	out, changes := chain.Rewrite(code, h.Mode(id))
	if out == code {
		return nil
	}
	return &Result{Code: out, Changes: changes}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func hasAnySuffix(id string, suffixes []string) bool {
	lower := strings.ToLower(id)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}
