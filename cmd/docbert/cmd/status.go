package cmd

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/output"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active model and per-collection document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, yaml")
	return cmd
}

func runStatus(cmd *cobra.Command, format string) error {
	engine, err := openEngine()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}
	defer func() { _ = engine.Close() }()

	st, err := engine.Status()
	if err != nil {
		return errors.New(docerrors.FormatForCLI(err))
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer func() { _ = enc.Close() }()
		return enc.Encode(st)
	case "text":
	default:
		return errors.New("unknown --format " + format + ", want text, json, or yaml")
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("model: %s", st.ModelID)
	out.Statusf("data dir: %s", st.DataDir)
	out.Newline()

	rows := make([][]string, 0, len(st.Collections))
	for _, c := range st.Collections {
		rows = append(rows, []string{c.Name, c.RootPath, strconv.Itoa(c.DocumentCount)})
	}
	out.Table([]string{"COLLECTION", "ROOT", "DOCUMENTS"}, rows)
	return nil
}
