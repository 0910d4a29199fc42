package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and single-node deployments where Postgres is not available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS integrations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	provider   TEXT,
	auth_type  TEXT NOT NULL DEFAULT 'api_key',
	base_url   TEXT,
	api_key    TEXT,
	api_secret TEXT,
	metadata   TEXT,
	priority   INTEGER NOT NULL DEFAULT 0,
	enabled    INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_integrations_enabled ON integrations(enabled);

CREATE TABLE IF NOT EXISTS industry_icps (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	industry              TEXT NOT NULL,
	icp_type              TEXT NOT NULL DEFAULT 'dewpoint',
	naics_code            TEXT,
	icp_persona           TEXT NOT NULL,
	prompt_instructions   TEXT NOT NULL,
	primary_pain_category TEXT,
	gtm_primary           TEXT,
	profit_score          INTEGER,
	ltv_score             INTEGER,
	speed_to_close_score  INTEGER,
	economic_drivers      TEXT,
	negative_icps         TEXT,
	discovery_guidance    TEXT,
	UNIQUE (industry, icp_type)
);

CREATE TABLE IF NOT EXISTS api_usage (
	id                TEXT PRIMARY KEY,
	user_id           INTEGER,
	shadow_id         TEXT,
	integration_id    INTEGER,
	model             TEXT,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_cost        REAL NOT NULL DEFAULT 0,
	recorded_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_api_usage_integration ON api_usage(integration_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_api_usage_recorded_at ON api_usage(recorded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) ListEnabledIntegrations(ctx context.Context) ([]model.Integration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, provider, auth_type, base_url, api_key, api_secret, metadata, priority, enabled, created_at FROM integrations WHERE enabled = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list integrations")
	}
	defer rows.Close()

	var integs []model.Integration
	for rows.Next() {
		var integ model.Integration
		var provider, baseURL, apiKey, apiSecret, metadataJSON sql.NullString

		if err := rows.Scan(&integ.ID, &integ.Name, &provider, &integ.AuthType, &baseURL,
			&apiKey, &apiSecret, &metadataJSON, &integ.Priority, &integ.Enabled, &integ.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan integration")
		}
		integ.Provider = provider.String
		integ.BaseURL = baseURL.String
		integ.APIKey = apiKey.String
		integ.APISecret = apiSecret.String
		if metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &integ.Metadata); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal metadata for integration %d", integ.ID)
			}
		}
		integs = append(integs, integ)
	}
	return integs, eris.Wrap(rows.Err(), "sqlite: list integrations iterate")
}

func (s *SQLiteStore) UpsertIntegration(ctx context.Context, integ model.Integration) (int64, error) {
	metadataJSON, err := json.Marshal(integ.Metadata)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: marshal metadata")
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO integrations (name, provider, auth_type, base_url, api_key, api_secret, metadata, priority, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
			provider = excluded.provider,
			auth_type = excluded.auth_type,
			base_url = excluded.base_url,
			api_key = excluded.api_key,
			api_secret = excluded.api_secret,
			metadata = excluded.metadata,
			priority = excluded.priority,
			enabled = excluded.enabled
		 RETURNING id`,
		integ.Name, integ.Provider, integ.AuthType, integ.BaseURL,
		integ.APIKey, integ.APISecret, string(metadataJSON), integ.Priority, integ.Enabled,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert integration %s", integ.Name)
	}
	return id, nil
}

// SetIntegrationLastError stores the failure message under the metadata
// last_error key. SQLite lacks a jsonb merge operator on older builds, so
// the metadata document is rewritten in Go.
func (s *SQLiteStore) SetIntegrationLastError(ctx context.Context, integrationID int64, message string) error {
	var metadataJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT metadata FROM integrations WHERE id = ?`, integrationID,
	).Scan(&metadataJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return eris.Errorf("integration not found: %d", integrationID)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: read metadata for integration %d", integrationID)
	}

	metadata := map[string]any{}
	if metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err != nil {
			return eris.Wrapf(err, "sqlite: unmarshal metadata for integration %d", integrationID)
		}
	}
	metadata["last_error"] = message

	updated, err := json.Marshal(metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metadata")
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE integrations SET metadata = ? WHERE id = ?`, string(updated), integrationID,
	)
	return eris.Wrapf(err, "sqlite: set last error for integration %d", integrationID)
}

func (s *SQLiteStore) LookupICP(ctx context.Context, industry, icpType string) (*model.IndustryContext, error) {
	var icp model.IndustryContext
	var naics, pain, gtm, drivers, negatives, guidance sql.NullString
	var profit, ltv, speed sql.NullInt64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, industry, icp_type, naics_code, icp_persona, prompt_instructions, primary_pain_category, gtm_primary, profit_score, ltv_score, speed_to_close_score, economic_drivers, negative_icps, discovery_guidance FROM industry_icps WHERE LOWER(industry) = LOWER(?) AND icp_type = ? LIMIT 1`,
		industry, icpType,
	).Scan(&icp.ID, &icp.Industry, &icp.ICPType, &naics, &icp.Persona, &icp.PromptInstructions,
		&pain, &gtm, &profit, &ltv, &speed, &drivers, &negatives, &guidance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: lookup icp %s/%s", industry, icpType)
	}

	icp.NAICSCode = naics.String
	icp.PrimaryPainCategory = pain.String
	icp.GTMPrimary = gtm.String
	icp.EconomicDrivers = drivers.String
	icp.NegativeICPs = negatives.String
	icp.DiscoveryGuidance = guidance.String
	icp.ProfitScore = int(profit.Int64)
	icp.LTVScore = int(ltv.Int64)
	icp.SpeedToCloseScore = int(speed.Int64)
	return &icp, nil
}

func (s *SQLiteStore) ListIndustries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT industry FROM industry_icps ORDER BY industry`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list industries")
	}
	defer rows.Close()

	var industries []string
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan industry")
		}
		industries = append(industries, industry)
	}
	return industries, eris.Wrap(rows.Err(), "sqlite: list industries iterate")
}

func (s *SQLiteStore) UpsertICP(ctx context.Context, icp model.IndustryContext) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO industry_icps (industry, icp_type, naics_code, icp_persona, prompt_instructions, primary_pain_category, gtm_primary, profit_score, ltv_score, speed_to_close_score, economic_drivers, negative_icps, discovery_guidance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (industry, icp_type) DO UPDATE SET
			naics_code = excluded.naics_code,
			icp_persona = excluded.icp_persona,
			prompt_instructions = excluded.prompt_instructions,
			primary_pain_category = excluded.primary_pain_category,
			gtm_primary = excluded.gtm_primary,
			profit_score = excluded.profit_score,
			ltv_score = excluded.ltv_score,
			speed_to_close_score = excluded.speed_to_close_score,
			economic_drivers = excluded.economic_drivers,
			negative_icps = excluded.negative_icps,
			discovery_guidance = excluded.discovery_guidance`,
		icp.Industry, icp.ICPType, icp.NAICSCode, icp.Persona, icp.PromptInstructions,
		icp.PrimaryPainCategory, icp.GTMPrimary,
		icp.ProfitScore, icp.LTVScore, icp.SpeedToCloseScore,
		icp.EconomicDrivers, icp.NegativeICPs, icp.DiscoveryGuidance,
	)
	return eris.Wrapf(err, "sqlite: upsert icp %s/%s", icp.Industry, icp.ICPType)
}

func (s *SQLiteStore) InsertUsage(ctx context.Context, rec model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_usage (id, user_id, shadow_id, integration_id, model, prompt_tokens, completion_tokens, total_cost, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.ShadowID, rec.IntegrationID, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.CostUSD, rec.Timestamp,
	)
	return eris.Wrap(err, "sqlite: insert usage")
}

func (s *SQLiteStore) SumUsageSince(ctx context.Context, integrationID int64, since time.Time) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_cost), 0) FROM api_usage WHERE integration_id = ? AND recorded_at >= ?`,
		integrationID, since,
	).Scan(&total)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: sum usage for integration %d", integrationID)
	}
	return total, nil
}

func (s *SQLiteStore) UsageStatsSince(ctx context.Context, since time.Time) (*UsageStats, error) {
	var stats UsageStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(total_cost), 0) FROM api_usage WHERE recorded_at >= ?`,
		since,
	).Scan(&stats.RequestCount, &stats.PromptTokens, &stats.CompletionTokens, &stats.TotalCostUSD)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: usage stats")
	}
	return &stats, nil
}
