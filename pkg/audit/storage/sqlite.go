package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

// sortColumns maps query sort fields to columns.
var sortColumns = map[string]string{
	"request_time":  "request_time",
	"recorded_time": "recorded_time",
	"duration":      "duration",
}

// SQLiteStorage implements audit.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config config.AuditSQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path and
// initializes its schema.
func NewSQLiteStorage(cfg config.AuditSQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Driver == "" {
		cfg.Driver = config.SQLiteDriverPure
	}
	if cfg.Path == "" {
		return nil, audit.NewStorageError("sqlite", "open", fmt.Errorf("database path is required"))
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, audit.NewStorageError("sqlite", "open", err)
		}
	}

	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// sqliteDSN builds a connection string carrying the pragmas, so every
// pooled connection gets them and not only the first one.
func sqliteDSN(cfg config.AuditSQLiteConfig) (string, error) {
	busy := cfg.BusyTimeout.Milliseconds()
	params := url.Values{}

	switch cfg.Driver {
	case config.SQLiteDriverPure:
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy))
		if cfg.WALMode {
			params.Add("_pragma", "journal_mode(WAL)")
		}
	case config.SQLiteDriverCGO:
		params.Set("_busy_timeout", fmt.Sprint(busy))
		if cfg.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	default:
		return "", fmt.Errorf("unknown sqlite driver %q (must be %q or %q)",
			cfg.Driver, config.SQLiteDriverPure, config.SQLiteDriverCGO)
	}

	return "file:" + cfg.Path + "?" + params.Encode(), nil
}

// initialize creates the schema and checks its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)

	return nil
}

// Store inserts a record.
func (s *SQLiteStorage) Store(ctx context.Context, record *audit.Record) error {
	query := "INSERT INTO audit_records (" + recordColumns + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", 21), ", ") + ")"

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.RequestTime.UnixNano(), record.RecordedTime.UnixNano(),
		record.RemoteAddr, record.UserAgent,
		record.Provider, record.Model, record.EndpointHost, record.Stream,
		record.Turns, record.History, record.AttachmentChars, record.Truncated,
		record.Outcome, record.Status, record.Frames, record.Error, record.ErrorType,
		int64(record.FirstDeltaLatency), int64(record.Duration),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query returns records matching the query.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + recordColumns + " FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = "request_time"
	}
	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s, id %s", column, order, order)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*audit.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes matching records.
func (s *SQLiteStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(query *audit.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "request_time >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "request_time <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	filters := []struct {
		column string
		value  string
	}{
		{"request_id", query.RequestID},
		{"provider", query.Provider},
		{"model", query.Model},
		{"outcome", query.Outcome},
	}
	for _, f := range filters {
		if f.value != "" {
			conditions = append(conditions, f.column+" = ?")
			args = append(args, f.value)
		}
	}

	return strings.Join(conditions, " AND "), args
}

// scanRow scans a row selected with recordColumns.
func scanRow(rows *sql.Rows) (*audit.Record, error) {
	var (
		record                 audit.Record
		requestNs, recordedNs  int64
		firstDeltaNs, duration int64
	)

	err := rows.Scan(
		&record.ID, &record.RequestID, &requestNs, &recordedNs,
		&record.RemoteAddr, &record.UserAgent,
		&record.Provider, &record.Model, &record.EndpointHost, &record.Stream,
		&record.Turns, &record.History, &record.AttachmentChars, &record.Truncated,
		&record.Outcome, &record.Status, &record.Frames, &record.Error, &record.ErrorType,
		&firstDeltaNs, &duration,
	)
	if err != nil {
		return nil, err
	}

	record.RequestTime = time.Unix(0, requestNs)
	record.RecordedTime = time.Unix(0, recordedNs)
	record.FirstDeltaLatency = time.Duration(firstDeltaNs)
	record.Duration = time.Duration(duration)

	return &record, nil
}
