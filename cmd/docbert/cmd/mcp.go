package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run docbert as an MCP stdio server",
		Long: `Exposes docbert_search, semantic_search, docbert_get,
docbert_multi_get, and docbert_status as MCP tools over stdio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			srv, err := mcpserver.New(engine)
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport (only stdio is supported)")
	return cmd
}
