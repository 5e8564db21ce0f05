package query

import (
	"fmt"

	"mercator-hq/chatrelay/pkg/audit"
	"mercator-hq/chatrelay/pkg/config"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"request_time":  true,
	"recorded_time": true,
	"duration":      true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// Validator checks queries against configured limits.
type Validator struct {
	defaultLimit int
	maxLimit     int
}

// NewValidator creates a validator from the audit query configuration.
// Zero values fall back to DefaultLimit and MaxLimit.
func NewValidator(cfg config.AuditQueryConfig) *Validator {
	v := &Validator{defaultLimit: cfg.DefaultLimit, maxLimit: cfg.MaxLimit}
	if v.maxLimit <= 0 {
		v.maxLimit = MaxLimit
	}
	if v.defaultLimit <= 0 || v.defaultLimit > v.maxLimit {
		v.defaultLimit = min(DefaultLimit, v.maxLimit)
	}
	return v
}

// Validate returns a *audit.QueryError if any parameter is invalid.
func (v *Validator) Validate(q *audit.Query) error {
	if q.Limit < 0 {
		return audit.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > v.maxLimit {
		return audit.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", v.maxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return audit.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}
	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return audit.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return audit.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
	}

	if q.Outcome != "" && !audit.ValidOutcome(q.Outcome) {
		return audit.NewQueryError(q, fmt.Errorf("invalid outcome: %s (must be 'done', 'error', 'rejected' or 'disconnected')", q.Outcome))
	}

	return nil
}

// ApplyDefaults fills in limit and sorting.
func (v *Validator) ApplyDefaults(q *audit.Query) {
	if q.Limit == 0 {
		q.Limit = v.defaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "request_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
