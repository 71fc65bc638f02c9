package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
	"github.com/docbert/docbert/internal/retrieval"
)

type searchOptions struct {
	limit      int
	collection string
	minScore   float64
	format     string
	bm25Only   bool
	noFuzzy    bool
	all        bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Hybrid BM25 + MaxSim search over indexed documents",
		Long: `Runs the hybrid pipeline: a BM25 candidate pass over the text index,
then a per-token MaxSim rerank against the embedding store, unless
--bm25-only is set.

Examples:
  docbert search "renewal notice template"
  docbert search "escrow terms" --collection contracts --limit 5
  docbert search "vendor onboarding" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&opts.collection, "collection", "c", "", "restrict results to one collection")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "drop results scoring below this threshold")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")
	cmd.Flags().BoolVar(&opts.bm25Only, "bm25-only", false, "skip the encoder, score and rank by BM25 alone")
	cmd.Flags().BoolVar(&opts.noFuzzy, "no-fuzzy", false, "disable the fuzzy text-index fallback")
	cmd.Flags().BoolVar(&opts.all, "all", false, "return every match above min-score, ignoring limit")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	results, err := engine.Search(ctx, retrieval.HybridParams{
		Query:      query,
		Count:      opts.limit,
		Collection: opts.collection,
		MinScore:   opts.minScore,
		BM25Only:   opts.bm25Only,
		NoFuzzy:    opts.noFuzzy,
		All:        opts.all,
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

func writeTextResults(out *output.Writer, query string, results []retrieval.Result) error {
	out.Statusf("found %d results for %q", len(results), query)
	out.Newline()
	for _, r := range results {
		out.Statusf("%d. [%s] %s/%s (score: %.3f)", r.Rank, r.DocIDShort, r.Collection, r.Path, r.Score)
		if r.Title != "" {
			out.Status("   " + r.Title)
		}
	}
	return nil
}

func writeJSONResults(cmd *cobra.Command, results []retrieval.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
