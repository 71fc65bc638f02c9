package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Manage bert:// context annotations",
		Long:  `A context attaches a free-form description to a bert://<collection> URI, for callers that need to describe what a collection holds.`,
	}
	cmd.AddCommand(newContextAddCmd())
	cmd.AddCommand(newContextRemoveCmd())
	cmd.AddCommand(newContextListCmd())
	return cmd
}

func newContextAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <uri> <description>",
		Short: "Set or replace a context's description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.AddContext(args[0], args[1]); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Successf("set context %s", args[0])
			return nil
		},
	}
}

func newContextRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uri>",
		Short: "Remove a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.RemoveContext(args[0]); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Successf("removed context %s", args[0])
			return nil
		},
	}
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			contexts, err := engine.ListContexts()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}

			rows := make([][]string, 0, len(contexts))
			for _, c := range contexts {
				rows = append(rows, []string{c.URI, c.Description})
			}
			output.New(cmd.OutOrStdout()).Table([]string{"URI", "DESCRIPTION"}, rows)
			return nil
		},
	}
}
