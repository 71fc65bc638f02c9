package cmd

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newGetCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <doc-id>",
		Short: "Fetch a document's current title and body by short ID",
		Long: `Resolves a short document ID, as printed by 'docbert search', to its
current content, re-reading the file from disk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runGet(ctx context.Context, cmd *cobra.Command, docID string, jsonOutput bool) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	doc, found, err := engine.Get(ctx, docID)
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	if !found {
		return errors.New("no document found for id " + docID)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("%s  %s/%s", doc.DocIDShort, doc.Collection, doc.Path)
	if doc.Title != "" {
		out.Status(doc.Title)
	}
	out.Newline()
	out.Status(doc.Body)
	return nil
}
