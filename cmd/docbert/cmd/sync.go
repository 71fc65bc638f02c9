package cmd

import (
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
	"github.com/docbert/docbert/internal/watcher"
	"github.com/docbert/docbert/pkg/docbert"
)

func newSyncCmd() *cobra.Command {
	var all bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync [collection]",
		Short: "Reconcile a collection (or every collection) against disk",
		Long: `Walks a collection's root, diffs it against stored document metadata,
and ingests new/changed files while removing deleted ones. Pass --all
to sync every registered collection, or --watch to keep syncing as
files change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" && !all {
				return errors.New("sync requires a collection name or --all")
			}
			if watch {
				if all {
					return errors.New("--watch requires a single collection, not --all")
				}
				return runSyncWatch(cmd, name)
			}
			return runSync(cmd, name, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "sync every registered collection")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep syncing as files under the collection root change")
	return cmd
}

func runSync(cmd *cobra.Command, name string, all bool) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	out := output.New(cmd.OutOrStdout())
	ctx := cmd.Context()

	if all {
		results, err := engine.SyncAll(ctx)
		if err != nil {
			return errors.New(docerrors.FormatForCLI(err))
		}
		for _, r := range results {
			printSyncResult(out, r)
		}
		return nil
	}

	r, err := engine.Sync(ctx, name)
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	printSyncResult(out, r)
	return nil
}

func printSyncResult(out *output.Writer, r docbert.SyncResult) {
	out.Successf("%s: +%d new, ~%d changed, -%d deleted", r.Collection, r.New, r.Changed, r.Deleted)
	for _, f := range r.Failed {
		out.Warningf("  failed: %s (%s)", f.RelativePath, f.Err)
	}
}

// runSyncWatch syncs once, then keeps resyncing the collection whenever
// its root changes, coalescing bursts via the watcher's own debouncer
// rather than resyncing per individual file event.
func runSyncWatch(cmd *cobra.Command, name string) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	out := output.New(cmd.OutOrStdout())
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	colls, err := engine.ListCollections()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	var root string
	for _, c := range colls {
		if c.Name == name {
			root = c.RootPath
		}
	}
	if root == "" {
		return errors.New("no such collection: " + name)
	}

	sync := func() {
		r, err := engine.Sync(ctx, name)
		if err != nil {
			slog.Error("watch sync failed", slog.String("collection", name), slog.String("error", err.Error()))
			return
		}
		printSyncResult(out, r)
	}
	sync()

	w, err := watcher.NewHybridWatcher(watcher.Options{DebounceWindow: 500 * time.Millisecond})
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}

	go func() {
		if err := w.Start(ctx, root); err != nil && ctx.Err() == nil {
			slog.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() { _ = w.Stop() }()

	out.Statusf("watching %s for changes (ctrl-c to stop)", root)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events():
			if !ok {
				return nil
			}
			sync()
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
