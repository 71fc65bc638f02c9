// Package cmd provides the CLI commands for docbert.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docbert/docbert/internal/logging"
	"github.com/docbert/docbert/internal/profiling"
	"github.com/docbert/docbert/pkg/version"
)

// Profiling flags, grounded on the teacher's root command.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// Debug logging flag.
var (
	debugMode      bool
	loggingCleanup func()
	offline        bool
)

// NewRootCmd creates the root command for the docbert CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docbert",
		Short: "Local hybrid lexical+neural document search",
		Long: `docbert indexes collections of local documents and searches them with
a hybrid BM25 + ColBERT-style MaxSim pipeline.

It runs entirely locally: documents never leave the machine, and the
default encoder needs no network access once its weights are cached.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("docbert version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&offline, "offline", false, "use the deterministic static encoder, skipping model downloads")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "write a CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "write a heap profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "write an execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.docbert/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newCollectionCmd())
	cmd.AddCommand(newContextCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSemanticSearchCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newMultiGetCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newModelCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode || os.Getenv("DOCBERT_LOG") != "" {
		cfg := logging.DefaultConfig()
		if debugMode {
			cfg = logging.DebugConfig()
		}
		logger, cleanup, err := logging.Setup(cfg)
		if err != nil {
			return fmt.Errorf("setup file logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("file logging enabled", slog.String("level", cfg.Level), slog.String("log_file", logging.DefaultLogPath()))
	}

	var err error
	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
	}
	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("start trace: %w", err)
		}
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("write memory profile: %w", err)
		}
	}
	if loggingCleanup != nil {
		slog.Info("file logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
