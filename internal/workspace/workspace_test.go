package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/twchain/internal/transform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), `<div class="hover:a|b">x</div>`)
	writeFile(t, filepath.Join(root, "src", "App.tsx"), "const n = a | b\nreturn <p className=\"md:x|y\" />\n")
	writeFile(t, filepath.Join(root, "src", "util.ts"), "export const mask = a | b\n")
	writeFile(t, filepath.Join(root, "src", "clean.vue"), `<p class="p-4">ok</p>`)
	writeFile(t, filepath.Join(root, "style.css"), ".x { hover:a|b }")
	writeFile(t, filepath.Join(root, "node_modules", "lib", "index.js"), `className="hover:a|b"`)
	return root
}

func TestCollect(t *testing.T) {
	root := newProject(t)
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))

	files, err := rw.Collect(context.Background(), []string{root, filepath.Join(root, "index.html")})
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "index.html"),
		filepath.Join(root, "src", "App.tsx"),
		filepath.Join(root, "src", "clean.vue"),
		filepath.Join(root, "src", "util.ts"),
	}
	assert.Equal(t, want, files)
}

func TestCollectSkipsIneligibleFileArgument(t *testing.T) {
	root := newProject(t)
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))

	files, err := rw.Collect(context.Background(), []string{filepath.Join(root, "style.css")})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollectMissingPath(t *testing.T) {
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))

	_, err := rw.Collect(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCollectCancelled(t *testing.T) {
	root := newProject(t)
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rw.Collect(ctx, []string{root})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	root := newProject(t)
	rw := NewRewriter(transform.NewHook(transform.DefaultRules())).WithWorkers(4)
	ctx := context.Background()

	files, err := rw.Collect(ctx, []string{root})
	require.NoError(t, err)

	changes, err := rw.Run(ctx, files)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	html := changes[0]
	assert.Equal(t, filepath.Join(root, "index.html"), html.Path)
	assert.Equal(t, `<div class="hover:a hover:b">x</div>`, html.Rewritten)
	assert.Equal(t, os.FileMode(0o644), html.Mode)
	require.Len(t, html.Changes, 1)
	assert.Equal(t, "hover:a|b", html.Changes[0].Before)

	tsx := changes[1]
	assert.Equal(t, filepath.Join(root, "src", "App.tsx"), tsx.Path)
	assert.Equal(t, "const n = a | b\nreturn <p className=\"md:x md:y\" />\n", tsx.Rewritten)
	assert.Equal(t, 2, tsx.Changes[0].Line)

	// Nothing is written by Run.
	data, err := os.ReadFile(html.Path)
	require.NoError(t, err)
	assert.Equal(t, html.Original, string(data))
}

func TestRunReadError(t *testing.T) {
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))

	_, err := rw.Run(context.Background(), []string{filepath.Join(t.TempDir(), "gone.html")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.html")
}

func TestRewriteReader(t *testing.T) {
	rw := NewRewriter(transform.NewHook(transform.DefaultRules()))

	fc, err := rw.RewriteReader(strings.NewReader("x = a | b; el.className='md:a|b'"), "input.ts")
	require.NoError(t, err)
	assert.Equal(t, "x = a | b; el.className='md:a md:b'", fc.Rewritten)
	assert.Len(t, fc.Changes, 1)

	fc, err = rw.RewriteReader(strings.NewReader("plain text"), "-")
	require.NoError(t, err)
	assert.Equal(t, fc.Original, fc.Rewritten)
	assert.Empty(t, fc.Changes)
}
