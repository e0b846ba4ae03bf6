package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/gubarz/twchain/internal/chain"
	"github.com/gubarz/twchain/internal/workspace"
)

// Summary renders a one-line count of expanded tokens and files
func Summary(changes []workspace.FileChange) string {
	tokens := 0
	for _, fc := range changes {
		tokens += len(fc.Changes)
	}
	if len(changes) == 0 {
		return styles.Dim.Render("no chained classes found")
	}
	return fmt.Sprintf("%s in %s",
		styles.After.Render(plural(tokens, "chained token")),
		styles.Path.Render(plural(len(changes), "file")))
}

// Report writes every expanded token grouped by file
func Report(w io.Writer, changes []workspace.FileChange) error {
	var b strings.Builder
	for _, fc := range changes {
		b.WriteString(styles.Path.Render(fc.Path))
		b.WriteString("\n")
		for _, c := range fc.Changes {
			b.WriteString("  ")
			b.WriteString(formatChange(c))
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// formatChange renders "L12  hover:a|b → hover:a hover:b"
func formatChange(c chain.Change) string {
	return styles.Line.Render(fmt.Sprintf("L%-4d", c.Line)) + " " +
		styles.Before.Render(c.Before) + " → " +
		styles.After.Render(c.After)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
