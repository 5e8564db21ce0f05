package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/catalog"
	"mercator-hq/chatrelay/pkg/cli"
)

var modelsFlags struct {
	format string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	Long: `List the models served by GET /api/models.

The list comes from catalog.models_file when configured, otherwise from the
built-in defaults.

Examples:
  chatrelay models
  chatrelay models --format json`,
	RunE: listModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsFlags.format, "format", "table", "output format: table, json, csv")
}

type modelTable []catalog.Model

func (t modelTable) Headers() []string { return []string{"ID", "NAME", "PROVIDER"} }

func (t modelTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, m := range t {
		rows = append(rows, []string{m.ID, m.Name, m.Provider})
	}
	return rows
}

func listModels(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(modelsFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	models, err := catalog.New(cfg.Catalog, nil)
	if err != nil {
		return cli.NewConfigError(cfg.Catalog.ModelsFile, err)
	}

	var data any = modelTable(models.Models())
	if format == cli.FormatJSON {
		data = models.Models()
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}
