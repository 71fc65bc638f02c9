package cmd

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newMultiGetCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "multi-get <doc-id> [doc-id...]",
		Short: "Fetch several documents by short ID in one call",
		Long:  `IDs that don't resolve are silently omitted rather than failing the batch.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMultiGet(cmd.Context(), cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runMultiGet(ctx context.Context, cmd *cobra.Command, docIDs []string, jsonOutput bool) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	docs, err := engine.MultiGet(ctx, docIDs)
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	out := output.New(cmd.OutOrStdout())
	for i, doc := range docs {
		if i > 0 {
			out.Newline()
		}
		out.Statusf("%s  %s/%s", doc.DocIDShort, doc.Collection, doc.Path)
		if doc.Title != "" {
			out.Status(doc.Title)
		}
		out.Status(doc.Body)
	}
	return nil
}
