package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gubarz/twchain/internal/apply"
	"github.com/gubarz/twchain/internal/chain"
	"github.com/gubarz/twchain/internal/config"
	"github.com/gubarz/twchain/internal/logging"
	"github.com/gubarz/twchain/internal/transform"
	"github.com/gubarz/twchain/internal/ui"
	"github.com/gubarz/twchain/internal/watch"
	"github.com/gubarz/twchain/internal/workspace"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "twchain [path...]",
		Short: "Expand chained utility classes",
		Long: `Rewrites chained utility classes such as hover:bg-red-500|text-white
into hover:bg-red-500 hover:text-white so utility-class scanners see every class.

Paths may be files or directories (default "."). Use "-" to read stdin.
Script files (.js .jsx .ts .tsx) are only rewritten inside quoted attribute values.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         runRewrite,
	}

	rootCmd.PersistentFlags().Bool("attributes-only", false, "Only rewrite quoted attribute values, for every file")
	rootCmd.PersistentFlags().IntP("workers", "j", 0, "Files rewritten concurrently (default: number of CPUs)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.Flags().StringP("output", "o", "", "Output mode: print, write, list, copy")
	rootCmd.Flags().BoolP("write", "w", false, "Write files in place (shorthand for -o write)")
	rootCmd.Flags().BoolP("list", "l", false, "List files that would change (shorthand for -o list)")
	rootCmd.Flags().Bool("copy", false, "Copy the rewritten file to the clipboard (shorthand for -o copy)")
	rootCmd.Flags().String("stdin-filename", "stdin", "File name used to pick the mode when reading stdin")

	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("attributes_only", rootCmd.PersistentFlags().Lookup("attributes-only"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "check [path...]",
			Short: "Report chained classes without rewriting; exit 1 when any are found",
			RunE:  runCheck,
		},
		&cobra.Command{
			Use:   "token <token>...",
			Short: "Show how tokens are split and expanded",
			Args:  cobra.MinimumNArgs(1),
			RunE:  runToken,
		},
		&cobra.Command{
			Use:   "watch [dir]",
			Short: "Rewrite files in place whenever they change",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runWatch,
		},
		&cobra.Command{
			Use:   "review [path...]",
			Short: "Interactively pick which rewrites to write",
			RunE:  runReview,
		},
	)

	return rootCmd
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
}

// ============================================================================
// Wiring
// ============================================================================

func newLogger() *zap.Logger {
	return logging.New(config.GetLogLevel())
}

func newRewriter(log *zap.Logger) *workspace.Rewriter {
	hook := transform.NewHook(config.Rules()).WithAttributesOnly(config.GetAttributesOnly())
	return workspace.NewRewriter(hook).
		WithWorkers(config.GetWorkers()).
		WithLogger(log)
}

func pathsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// collectChanges walks paths and returns the files that would change
func collectChanges(ctx context.Context, rw *workspace.Rewriter, paths []string) ([]workspace.FileChange, error) {
	files, err := rw.Collect(ctx, paths)
	if err != nil {
		return nil, err
	}
	return rw.Run(ctx, files)
}

// ============================================================================
// Commands
// ============================================================================

func runRewrite(cmd *cobra.Command, args []string) error {
	// Handle output mode flags
	if w, _ := cmd.Flags().GetBool("write"); w {
		config.SetOutput(string(apply.ModeWrite))
	} else if l, _ := cmd.Flags().GetBool("list"); l {
		config.SetOutput(string(apply.ModeList))
	} else if c, _ := cmd.Flags().GetBool("copy"); c {
		config.SetOutput(string(apply.ModeCopy))
	}

	mode, err := apply.ParseMode(config.GetOutput())
	if err != nil {
		return err
	}

	log := newLogger()
	defer log.Sync()
	rw := newRewriter(log)
	applier := apply.NewApplier(cmd.OutOrStdout()).WithLogger(log)

	if len(args) == 1 && args[0] == "-" {
		name, _ := cmd.Flags().GetString("stdin-filename")
		return rewriteStdin(cmd.InOrStdin(), name, rw, applier, mode)
	}

	changes, err := collectChanges(cmd.Context(), rw, pathsOrDefault(args))
	if err != nil {
		return err
	}
	if err := applier.Apply(changes, mode); err != nil {
		return err
	}
	if mode == apply.ModeWrite || mode == apply.ModeList {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Summary(changes))
	}
	return nil
}

func rewriteStdin(in io.Reader, name string, rw *workspace.Rewriter, applier *apply.Applier, mode apply.Mode) error {
	if mode == apply.ModeWrite {
		return errors.New("cannot write stdin in place")
	}
	fc, err := rw.RewriteReader(in, name)
	if err != nil {
		return err
	}
	if mode == apply.ModeList && len(fc.Changes) == 0 {
		return nil
	}
	return applier.Apply([]workspace.FileChange{*fc}, mode)
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	changes, err := collectChanges(cmd.Context(), newRewriter(log), pathsOrDefault(args))
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}
	if err := ui.Report(cmd.OutOrStdout(), changes); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.Summary(changes))
	return workspace.ErrChangesFound
}

func runToken(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, tok := range args {
		split := chain.SplitVariantPrefix(tok)
		fmt.Fprintf(out, "%s\n  prefix: %q\n  rest:   %q\n  parts:  %q\n  result: %s\n",
			tok, split.Prefix, split.Rest,
			chain.SplitOnUnbracketedDelimiter(split.Rest),
			chain.ExpandToken(tok))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	log := newLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.New(root, newRewriter(log), apply.NewApplier(cmd.OutOrStdout()).WithLogger(log)).
		WithDebounce(config.GetWatchDebounce()).
		WithLogger(log).
		OnRewrite(func(fc workspace.FileChange) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s (%d)\n", fc.Path, len(fc.Changes))
		})
	return w.Run(ctx)
}

func runReview(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer log.Sync()

	changes, err := collectChanges(cmd.Context(), newRewriter(log), pathsOrDefault(args))
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Summary(changes))
		return nil
	}

	written, err := ui.Run(changes, apply.NewApplier(cmd.OutOrStdout()).WithLogger(log))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d of %d files\n", written, len(changes))
	return nil
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
