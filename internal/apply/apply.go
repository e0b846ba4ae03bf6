package apply

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/gubarz/twchain/internal/logging"
	"github.com/gubarz/twchain/internal/workspace"
)

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using the system clipboard
type systemClipboard struct{}

// Copy copies text to the system clipboard
func (systemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// ============================================================================
// Output Modes
// ============================================================================

// Mode represents what happens to rewritten files
type Mode string

const (
	ModePrint Mode = "print" // write rewritten content to the output
	ModeWrite Mode = "write" // overwrite files in place
	ModeList  Mode = "list"  // list paths of files that would change
	ModeCopy  Mode = "copy"  // copy the rewritten content of one file
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePrint, ModeWrite, ModeList, ModeCopy:
		return m, nil
	case "":
		return ModePrint, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (supported: print, write, list, copy)", s)
	}
}

// ============================================================================
// Applier
// ============================================================================

// Applier hands rewritten files to their destination
type Applier struct {
	out       io.Writer
	clipboard Clipboard
	log       *zap.Logger
}

// NewApplier creates an applier printing to out
func NewApplier(out io.Writer) *Applier {
	return &Applier{
		out:       out,
		clipboard: systemClipboard{},
		log:       zap.NewNop(),
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (a *Applier) WithClipboard(c Clipboard) *Applier {
	a.clipboard = c
	return a
}

// WithLogger sets the logger
func (a *Applier) WithLogger(l *zap.Logger) *Applier {
	a.log = logging.OrNop(l)
	return a
}

// Apply handles changes according to mode
func (a *Applier) Apply(changes []workspace.FileChange, mode Mode) error {
	switch mode {
	case ModeWrite:
		for _, fc := range changes {
			if err := WriteFile(fc); err != nil {
				return err
			}
			a.log.Info("rewrote file",
				zap.String("path", fc.Path),
				zap.Int("tokens", len(fc.Changes)))
		}
		return nil
	case ModeList:
		for _, fc := range changes {
			if _, err := fmt.Fprintln(a.out, fc.Path); err != nil {
				return err
			}
		}
		return nil
	case ModeCopy:
		if len(changes) != 1 {
			return fmt.Errorf("copy needs exactly one rewritten file, got %d", len(changes))
		}
		return a.clipboard.Copy(changes[0].Rewritten)
	default: // print
		multi := len(changes) > 1
		for _, fc := range changes {
			if multi {
				if _, err := fmt.Fprintf(a.out, "==> %s <==\n", fc.Path); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(a.out, fc.Rewritten); err != nil {
				return err
			}
		}
		return nil
	}
}

// WriteFile replaces fc.Path with the rewritten content. The content goes to
// a temporary file in the same directory first, so readers never observe a
// partial file.
func WriteFile(fc workspace.FileChange) error {
	dir := filepath.Dir(fc.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fc.Path)+".twchain-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", fc.Path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.WriteString(tmp, fc.Rewritten); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", fc.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", fc.Path, err)
	}

	mode := fc.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("write %s: %w", fc.Path, err)
	}
	if err := os.Rename(tmpName, fc.Path); err != nil {
		return fmt.Errorf("write %s: %w", fc.Path, err)
	}
	return nil
}
