package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/gubarz/twchain/internal/chain"
	"github.com/gubarz/twchain/internal/logging"
	"github.com/gubarz/twchain/internal/transform"
)

// ErrChangesFound is returned by checks when at least one file would be
// rewritten
var ErrChangesFound = errors.New("chained classes need expanding")

// FileChange is a file whose rewritten content differs from disk
type FileChange struct {
	Path      string         // Path as collected
	Original  string         // Content read from disk
	Rewritten string         // Content after expansion
	Mode      fs.FileMode    // Permission bits to keep when writing back
	Changes   []chain.Change // Expanded tokens, in source order
}

// Rewriter finds eligible files and rewrites them concurrently
type Rewriter struct {
	hook    *transform.Hook
	workers int
	log     *zap.Logger
}

// NewRewriter creates a rewriter around the given hook
func NewRewriter(hook *transform.Hook) *Rewriter {
	return &Rewriter{
		hook:    hook,
		workers: 1,
		log:     zap.NewNop(),
	}
}

// WithWorkers sets how many files are rewritten at once
func (r *Rewriter) WithWorkers(n int) *Rewriter {
	if n < 1 {
		n = 1
	}
	r.workers = n
	return r
}

// WithLogger sets the logger
func (r *Rewriter) WithLogger(l *zap.Logger) *Rewriter {
	r.log = logging.OrNop(l)
	return r
}

// Hook returns the per-file hook
func (r *Rewriter) Hook() *transform.Hook {
	return r.hook
}

// Collect expands roots into the sorted list of eligible files. Directories
// are walked recursively, skipping excluded directory names.
func (r *Rewriter) Collect(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("path error: %w", err)
		}
		if !info.IsDir() {
			if r.hook.Eligible(root) {
				add(root)
			} else {
				r.log.Debug("skipping ineligible file", zap.String("path", root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && r.hook.ExcludedDir(d.Name()) {
					r.log.Debug("skipping excluded directory", zap.String("path", path))
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && r.hook.Eligible(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Run rewrites files concurrently and returns the ones that changed,
// sorted by path. Files are only read; nothing is written.
func (r *Rewriter) Run(ctx context.Context, files []string) ([]FileChange, error) {
	p := pool.NewWithResults[*FileChange]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(r.workers)

	for _, path := range files {
		path := path
		p.Go(func(ctx context.Context) (*FileChange, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return r.RewriteFile(path)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(results))
	for _, fc := range results {
		if fc != nil {
			changes = append(changes, *fc)
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	r.log.Info("rewrite finished",
		zap.Int("files", len(files)),
		zap.Int("changed", len(changes)))
	return changes, nil
}

// RewriteFile rewrites a single file in memory. It returns nil when the file
// is not eligible or would not change.
func (r *Rewriter) RewriteFile(path string) (*FileChange, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	result := r.hook.Transform(string(data), path)
	if result == nil {
		return nil, nil
	}
	r.log.Debug("expanded chained classes",
		zap.String("path", path),
		zap.Int("tokens", len(result.Changes)))

	return &FileChange{
		Path:      path,
		Original:  string(data),
		Rewritten: result.Code,
		Mode:      info.Mode().Perm(),
		Changes:   result.Changes,
	}, nil
}

// RewriteReader rewrites content read from rd. The mode is chosen from id,
// which does not need to be an eligible file name. Unchanged input returns
// a FileChange with Rewritten equal to Original and no Changes.
func (r *Rewriter) RewriteReader(rd io.Reader, id string) (*FileChange, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	fc := &FileChange{Path: id, Original: string(data), Rewritten: string(data)}
	if result := r.hook.Rewrite(fc.Original, id); result != nil {
		fc.Rewritten = result.Code
		fc.Changes = result.Changes
	}
	return fc, nil
}
