package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/audit/export"
	"mercator-hq/chatrelay/pkg/audit/query"
	"mercator-hq/chatrelay/pkg/audit/retention"
	"mercator-hq/chatrelay/pkg/audit/storage"
	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
)

var auditFlags struct {
	since      time.Duration
	timeRange  string
	requestID  string
	provider   string
	model      string
	outcome    string
	limit      int
	offset     int
	sortBy     string
	sortOrder  string
	format     string
	output     string
	days       int
	maxRecords int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the request audit log",
	Long: `Query and prune the audit log written by "chatrelay run".

Audit records hold request metadata only (provider, model, outcome, timings);
no message content is stored. The commands need the sqlite backend, since
memory records live only as long as the server process.

Subcommands:
  list   - List audit records with filters
  prune  - Apply the retention policy now`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records",
	Long: `List audit records, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-01-19T00:00:00Z/2026-01-20T00:00:00Z"

Examples:
  # Errors in the last 24 hours
  chatrelay audit list --since 24h --outcome error

  # One request by ID
  chatrelay audit list --request-id 550e8400-e29b-41d4-a716-446655440000

  # Export to CSV
  chatrelay audit list --format csv --output audit.csv`,
	RunE: listAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records outside the retention policy",
	Long: `Delete records older than the retention period and the oldest records
beyond the maximum record count. Flags override the configured policy.

Examples:
  chatrelay audit prune
  chatrelay audit prune --days 7 --max-records 100000`,
	RunE: pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)

	f := auditListCmd.Flags()
	f.DurationVar(&auditFlags.since, "since", 0, "only records newer than this duration (e.g. 24h)")
	f.StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	f.StringVar(&auditFlags.requestID, "request-id", "", "filter by request ID")
	f.StringVar(&auditFlags.provider, "provider", "", "filter by provider")
	f.StringVar(&auditFlags.model, "model", "", "filter by model")
	f.StringVar(&auditFlags.outcome, "outcome", "", "filter by outcome (done, error, rejected, disconnected)")
	f.IntVar(&auditFlags.limit, "limit", 0, "max results (default from config)")
	f.IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	f.StringVar(&auditFlags.sortBy, "sort-by", "", "sort field: request_time, recorded_time, duration")
	f.StringVar(&auditFlags.sortOrder, "sort-order", "", "sort order: asc, desc")
	f.StringVar(&auditFlags.format, "format", "table", "output format: table, json, csv")
	f.StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", 0, "retention in days (default from config)")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", 0, "maximum records kept (default from config)")
}

// openAuditStorage opens the configured audit backend for CLI use.
func openAuditStorage() (*config.Config, audit.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Audit.Backend != "sqlite" {
		return nil, nil, cli.NewConfigError(configPath(),
			fmt.Errorf("audit backend %q keeps no records outside the server; configure audit.backend: sqlite", cfg.Audit.Backend))
	}

	store, err := storage.New(cfg.Audit)
	if err != nil {
		return nil, nil, cli.NewCommandError("audit", err)
	}
	return cfg, store, nil
}

func listAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}

	q, err := buildAuditQuery(time.Now())
	if err != nil {
		return err
	}

	cfg, store, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	v := query.NewValidator(cfg.Audit.Query)
	v.ApplyDefaults(q)
	if err := v.Validate(q); err != nil {
		return cli.NewUsageError("%v", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("audit list", err)
	}

	out := cmd.OutOrStdout()
	if auditFlags.output != "" {
		f, err := os.Create(auditFlags.output)
		if err != nil {
			return cli.NewCommandError("audit list", err)
		}
		defer f.Close()
		out = f
	}

	return writeRecords(ctx, out, format, records)
}

func writeRecords(ctx context.Context, w io.Writer, format cli.OutputFormat, records []*audit.Record) error {
	var exporter audit.Exporter
	switch format {
	case cli.FormatJSON:
		exporter = export.NewJSONExporter(true)
	case cli.FormatCSV:
		exporter = export.NewCSVExporter(true)
	default:
		return cli.NewFormatter(format).FormatTo(w, recordTable(records))
	}

	if err := exporter.Export(ctx, records, w); err != nil {
		return cli.NewCommandError("audit list", err)
	}
	return nil
}

// buildAuditQuery translates list flags into a query.
func buildAuditQuery(now time.Time) (*audit.Query, error) {
	q := &audit.Query{
		RequestID: auditFlags.requestID,
		Provider:  auditFlags.provider,
		Model:     auditFlags.model,
		Outcome:   auditFlags.outcome,
		Limit:     auditFlags.limit,
		Offset:    auditFlags.offset,
		SortBy:    auditFlags.sortBy,
		SortOrder: auditFlags.sortOrder,
	}

	if auditFlags.since > 0 && auditFlags.timeRange != "" {
		return nil, cli.NewUsageError("--since and --time-range are mutually exclusive")
	}

	if auditFlags.since > 0 {
		start := now.Add(-auditFlags.since)
		q.StartTime = &start
	}

	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime = &start
		q.EndTime = &end
	}

	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	startStr, endStr, ok := strings.Cut(s, "/")
	if !ok {
		return time.Time{}, time.Time{}, cli.NewUsageError("invalid time range %q (expected: start/end)", s)
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, cli.NewUsageError("invalid start time: %v", err)
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, cli.NewUsageError("invalid end time: %v", err)
	}

	return start, end, nil
}

type recordTable []*audit.Record

func (t recordTable) Headers() []string {
	return []string{"TIME", "REQUEST ID", "PROVIDER", "MODEL", "OUTCOME", "STATUS", "FRAMES", "DURATION", "ERROR"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.RequestTime.Format(time.RFC3339),
			r.RequestID,
			r.Provider,
			r.Model,
			r.Outcome,
			fmt.Sprint(r.Status),
			fmt.Sprint(r.Frames),
			r.Duration.Round(time.Millisecond).String(),
			truncateCell(r.Error, 60),
		})
	}
	return rows
}

func truncateCell(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, store, err := openAuditStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	policy := cfg.Audit.Retention
	if auditFlags.days > 0 {
		policy.Days = auditFlags.days
	}
	if auditFlags.maxRecords > 0 {
		policy.MaxRecords = auditFlags.maxRecords
	}
	if policy.Days <= 0 && policy.MaxRecords <= 0 {
		return cli.NewUsageError("no retention policy: set --days or --max-records")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deleted, err := retention.NewPruner(store, policy).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d audit records\n", deleted)
	return nil
}
