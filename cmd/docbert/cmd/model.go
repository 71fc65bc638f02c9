package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect or override the active encoder model",
	}
	cmd.AddCommand(newModelShowCmd())
	cmd.AddCommand(newModelSetCmd())
	cmd.AddCommand(newModelClearCmd())
	return cmd
}

func newModelShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configured model setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			value, found, err := engine.ModelShow()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}

			out := output.New(cmd.OutOrStdout())
			if !found {
				out.Status("no model override set; resolved from DOCBERT_MODEL or the compiled-in default")
				return nil
			}
			out.Status(value)
			return nil
		},
	}
}

func newModelSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <model-id>",
		Short: "Store the model setting (DOCBERT_MODEL, when set, takes precedence)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.ModelSet(args[0]); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Successf("model set to %s", args[0])
			return nil
		},
	}
}

func newModelClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the model override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine()
			if err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			defer func() { _ = engine.Close() }()

			if err := engine.ModelClear(); err != nil {
				return errors.New(docerrors.FormatForCLI(err))
			}
			output.New(cmd.OutOrStdout()).Success("model override cleared")
			return nil
		},
	}
}
