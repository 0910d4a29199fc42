package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// UsageStats aggregates recorded generation usage over a window.
type UsageStats struct {
	RequestCount     int64   `json:"request_count"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
}

// Store defines the persistence interface for the generation orchestrator.
type Store interface {
	// Integrations
	ListEnabledIntegrations(ctx context.Context) ([]model.Integration, error)
	UpsertIntegration(ctx context.Context, integ model.Integration) (int64, error)
	SetIntegrationLastError(ctx context.Context, integrationID int64, message string) error

	// Industry contexts
	LookupICP(ctx context.Context, industry, icpType string) (*model.IndustryContext, error)
	ListIndustries(ctx context.Context) ([]string, error)
	UpsertICP(ctx context.Context, icp model.IndustryContext) error

	// Usage
	InsertUsage(ctx context.Context, rec model.UsageRecord) error
	SumUsageSince(ctx context.Context, integrationID int64, since time.Time) (float64, error)
	UsageStatsSince(ctx context.Context, since time.Time) (*UsageStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres store depends on.
// pgxmock satisfies it, which keeps store tests off a live database.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}
