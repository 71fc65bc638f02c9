package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage indexed document collections",
	}
	cmd.AddCommand(newCollectionAddCmd())
	cmd.AddCommand(newCollectionRemoveCmd())
	cmd.AddCommand(newCollectionListCmd())
	return cmd
}

func newCollectionAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Register a directory as a collection root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.AddCollection(args[0], args[1]); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Successf("added collection %q at %s", args[0], args[1])
			return nil
		},
	}
}

func newCollectionRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a collection and every document it indexed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.RemoveCollection(context.Background(), args[0]); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Successf("removed collection %q", args[0])
			return nil
		},
	}
}

func newCollectionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			colls, err := engine.ListCollections()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}

			rows := make([][]string, 0, len(colls))
			for _, c := range colls {
				rows = append(rows, []string{c.Name, c.RootPath})
			}
			output.New(cmd.OutOrStdout()).Table([]string{"NAME", "ROOT"}, rows)
			return nil
		},
	}
}
