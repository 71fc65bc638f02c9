package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newRebuildCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rebuild [collection]",
		Short: "Discard and reingest a collection's indexed documents",
		Long: `Clears the text index and embedding store entries for a collection
and reingests its root from scratch. This is the remedy for Store
corruption, which is never auto-repaired.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" && !all {
				return errors.New("rebuild requires a collection name or --all")
			}

			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			out := output.New(cmd.OutOrStdout())
			if all {
				results, err := engine.RebuildAll(cmd.Context())
				if err != nil {
					return errors.New(docerrors.FormatForCLI(err))
				}
				for _, r := range results {
					printSyncResult(out, r)
				}
				return nil
			}

			r, err := engine.Rebuild(cmd.Context(), name)
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			printSyncResult(out, r)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "rebuild every registered collection")
	return cmd
}
