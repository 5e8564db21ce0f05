package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/catalog"
	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providerfactory"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration exactly as "run" would and report problems.

Besides the configuration schema, validate builds every provider adapter
(checking response shape names and base URLs) and loads the model catalog
file, if one is configured.

Examples:
  # Validate the default config file
  chatrelay validate

  # Validate a specific file and print a JSON summary
  chatrelay validate --config prod.yaml --format json`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "table", "output format: table, json")
}

// providerSummary is one row of the validate output.
type providerSummary struct {
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
	APIKey  bool   `json:"api_key"`
	Shapes  int    `json:"response_shapes"`
}

type validateResult struct {
	ConfigFile   string            `json:"config_file"`
	Listen       string            `json:"listen_address"`
	DefaultModel string            `json:"default_model"`
	Providers    []providerSummary `json:"providers"`
	Models       int               `json:"models"`
	AuditBackend string            `json:"audit_backend,omitempty"`
}

func (r *validateResult) Headers() []string {
	return []string{"PROVIDER", "BASE URL", "API KEY", "SHAPES"}
}

func (r *validateResult) Rows() [][]string {
	rows := make([][]string, 0, len(r.Providers))
	for _, p := range r.Providers {
		key := "no"
		if p.APIKey {
			key = "yes"
		}
		rows = append(rows, []string{p.Name, p.BaseURL, key, fmt.Sprint(p.Shapes)})
	}
	return rows
}

func validateConfig(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := summarizeConfig(cfg)
	if err != nil {
		return err
	}
	result.ConfigFile = configPath()

	out := cmd.OutOrStdout()
	if format == cli.FormatTable {
		fmt.Fprintln(out, "✓ Configuration valid")
		fmt.Fprintf(out, "  listen: %s, default model: %s, models: %d\n\n", result.Listen, result.DefaultModel, result.Models)
	}
	return cli.NewFormatter(format).FormatTo(out, result)
}

// summarizeConfig builds the components run would build and reports on them.
func summarizeConfig(cfg *config.Config) (*validateResult, error) {
	manager, err := providerfactory.NewManagerFromConfig(cfg)
	if err != nil {
		return nil, cli.NewConfigError(configPath(), err)
	}
	defer manager.Close()

	models, err := catalog.New(cfg.Catalog, nil)
	if err != nil {
		return nil, cli.NewConfigError(cfg.Catalog.ModelsFile, err)
	}

	result := &validateResult{
		Listen:       cfg.Proxy.ListenAddress,
		DefaultModel: cfg.Relay.DefaultModel,
		Models:       len(models.Models()),
	}
	if cfg.Audit.Enabled {
		result.AuditBackend = cfg.Audit.Backend
	}

	for name, pc := range cfg.Providers {
		result.Providers = append(result.Providers, providerSummary{
			Name:    name,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey != "" || cfg.Relay.DefaultAPIKey != "",
			Shapes:  len(pc.ResponseShapes),
		})
	}
	sort.Slice(result.Providers, func(i, j int) bool {
		return result.Providers[i].Name < result.Providers[j].Name
	})

	return result, nil
}
