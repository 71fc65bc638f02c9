package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
	"github.com/docbert/docbert/internal/retrieval"
)

type semanticSearchOptions struct {
	limit    int
	minScore float64
	format   string
	all      bool
}

func newSemanticSearchCmd() *cobra.Command {
	var opts semanticSearchOptions

	cmd := &cobra.Command{
		Use:   "ssearch <query>",
		Short: "Pure MaxSim search, ignoring BM25 candidate selection",
		Long: `Scores every embedded document by MaxSim against the query,
exhaustively rather than only the BM25 candidate set. Slower than
'docbert search' but doesn't depend on lexical overlap.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSemanticSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "drop results scoring below this threshold")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")
	cmd.Flags().BoolVar(&opts.all, "all", false, "return every match above min-score, ignoring limit")

	return cmd
}

func runSemanticSearch(ctx context.Context, cmd *cobra.Command, query string, opts semanticSearchOptions) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	results, err := engine.Semantic(ctx, retrieval.SemanticParams{
		Query:    query,
		Count:    opts.limit,
		MinScore: opts.minScore,
		All:      opts.all,
	})
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return writeJSONResults(cmd, results)
	}
	return writeTextResults(out, query, results)
}
