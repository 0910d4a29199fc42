package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot path: every generation request ranks
// integrations, checks budgets, and records usage.
var preparedStatements = map[string]string{
	"list_enabled_integrations": `SELECT id, name, provider, auth_type, base_url, api_key, api_secret, metadata, priority, enabled, created_at FROM integrations WHERE enabled = TRUE ORDER BY id`,
	"lookup_icp":                `SELECT id, industry, icp_type, naics_code, icp_persona, prompt_instructions, primary_pain_category, gtm_primary, profit_score, ltv_score, speed_to_close_score, economic_drivers, negative_icps, discovery_guidance FROM industry_icps WHERE LOWER(industry) = LOWER($1) AND icp_type = $2 LIMIT 1`,
	"insert_usage":              `INSERT INTO api_usage (id, user_id, shadow_id, integration_id, model, prompt_tokens, completion_tokens, total_cost, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"sum_usage_since":           `SELECT COALESCE(SUM(total_cost), 0) FROM api_usage WHERE integration_id = $1 AND recorded_at >= $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS integrations (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	provider   TEXT,
	auth_type  TEXT NOT NULL DEFAULT 'api_key',
	base_url   TEXT,
	api_key    TEXT,
	api_secret TEXT,
	metadata   JSONB,
	priority   INTEGER NOT NULL DEFAULT 0,
	enabled    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_integrations_enabled ON integrations(enabled);

CREATE TABLE IF NOT EXISTS industry_icps (
	id                    BIGSERIAL PRIMARY KEY,
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

CREATE INDEX IF NOT EXISTS idx_industry_icps_industry ON industry_icps(LOWER(industry));

CREATE TABLE IF NOT EXISTS api_usage (
	id                TEXT PRIMARY KEY,
	user_id           BIGINT,
	shadow_id         TEXT,
	integration_id    BIGINT,
	model             TEXT,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_cost        NUMERIC(12, 6) NOT NULL DEFAULT 0,
	recorded_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_api_usage_integration ON api_usage(integration_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_api_usage_recorded_at ON api_usage(recorded_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListEnabledIntegrations(ctx context.Context) ([]model.Integration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, provider, auth_type, base_url, api_key, api_secret, metadata, priority, enabled, created_at FROM integrations WHERE enabled = TRUE ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list integrations")
	}
	defer rows.Close()

	var integs []model.Integration
	for rows.Next() {
		integ, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integs = append(integs, integ)
	}
	return integs, eris.Wrap(rows.Err(), "postgres: list integrations iterate")
}

func scanIntegration(rows pgx.Rows) (model.Integration, error) {
	var integ model.Integration
	var provider, baseURL, apiKey, apiSecret *string
	var metadataJSON []byte

	if err := rows.Scan(&integ.ID, &integ.Name, &provider, &integ.AuthType, &baseURL,
		&apiKey, &apiSecret, &metadataJSON, &integ.Priority, &integ.Enabled, &integ.CreatedAt); err != nil {
		return model.Integration{}, eris.Wrap(err, "postgres: scan integration")
	}
	if provider != nil {
		integ.Provider = *provider
	}
	if baseURL != nil {
		integ.BaseURL = *baseURL
	}
	if apiKey != nil {
		integ.APIKey = *apiKey
	}
	if apiSecret != nil {
		integ.APISecret = *apiSecret
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &integ.Metadata); err != nil {
			return model.Integration{}, eris.Wrapf(err, "postgres: unmarshal metadata for integration %d", integ.ID)
		}
	}
	return integ, nil
}

func (s *PostgresStore) UpsertIntegration(ctx context.Context, integ model.Integration) (int64, error) {
	metadataJSON, err := json.Marshal(integ.Metadata)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: marshal metadata")
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO integrations (name, provider, auth_type, base_url, api_key, api_secret, metadata, priority, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (name) DO UPDATE SET
			provider = EXCLUDED.provider,
			auth_type = EXCLUDED.auth_type,
			base_url = EXCLUDED.base_url,
			api_key = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			metadata = EXCLUDED.metadata,
			priority = EXCLUDED.priority,
			enabled = EXCLUDED.enabled
		 RETURNING id`,
		integ.Name, nullable(integ.Provider), integ.AuthType, nullable(integ.BaseURL),
		nullable(integ.APIKey), nullable(integ.APISecret), metadataJSON, integ.Priority, integ.Enabled,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert integration %s", integ.Name)
	}
	return id, nil
}

func (s *PostgresStore) SetIntegrationLastError(ctx context.Context, integrationID int64, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE integrations SET metadata = COALESCE(metadata, '{}'::jsonb) || jsonb_build_object('last_error', $2::text) WHERE id = $1`,
		integrationID, message,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set last error for integration %d", integrationID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("integration not found: %d", integrationID)
	}
	return nil
}

func (s *PostgresStore) LookupICP(ctx context.Context, industry, icpType string) (*model.IndustryContext, error) {
	var icp model.IndustryContext
	var naics, pain, gtm, drivers, negatives, guidance *string
	var profit, ltv, speed *int

	err := s.pool.QueryRow(ctx,
		`SELECT id, industry, icp_type, naics_code, icp_persona, prompt_instructions, primary_pain_category, gtm_primary, profit_score, ltv_score, speed_to_close_score, economic_drivers, negative_icps, discovery_guidance FROM industry_icps WHERE LOWER(industry) = LOWER($1) AND icp_type = $2 LIMIT 1`,
		industry, icpType,
	).Scan(&icp.ID, &icp.Industry, &icp.ICPType, &naics, &icp.Persona, &icp.PromptInstructions,
		&pain, &gtm, &profit, &ltv, &speed, &drivers, &negatives, &guidance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: lookup icp %s/%s", industry, icpType)
	}

	icp.NAICSCode = deref(naics)
	icp.PrimaryPainCategory = deref(pain)
	icp.GTMPrimary = deref(gtm)
	icp.EconomicDrivers = deref(drivers)
	icp.NegativeICPs = deref(negatives)
	icp.DiscoveryGuidance = deref(guidance)
	if profit != nil {
		icp.ProfitScore = *profit
	}
	if ltv != nil {
		icp.LTVScore = *ltv
	}
	if speed != nil {
		icp.SpeedToCloseScore = *speed
	}
	return &icp, nil
}

func (s *PostgresStore) ListIndustries(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT industry FROM industry_icps ORDER BY industry`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list industries")
	}
	defer rows.Close()

	var industries []string
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, eris.Wrap(err, "postgres: scan industry")
		}
		industries = append(industries, industry)
	}
	return industries, eris.Wrap(rows.Err(), "postgres: list industries iterate")
}

func (s *PostgresStore) UpsertICP(ctx context.Context, icp model.IndustryContext) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO industry_icps (industry, icp_type, naics_code, icp_persona, prompt_instructions, primary_pain_category, gtm_primary, profit_score, ltv_score, speed_to_close_score, economic_drivers, negative_icps, discovery_guidance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (industry, icp_type) DO UPDATE SET
			naics_code = EXCLUDED.naics_code,
			icp_persona = EXCLUDED.icp_persona,
			prompt_instructions = EXCLUDED.prompt_instructions,
			primary_pain_category = EXCLUDED.primary_pain_category,
			gtm_primary = EXCLUDED.gtm_primary,
			profit_score = EXCLUDED.profit_score,
			ltv_score = EXCLUDED.ltv_score,
			speed_to_close_score = EXCLUDED.speed_to_close_score,
			economic_drivers = EXCLUDED.economic_drivers,
			negative_icps = EXCLUDED.negative_icps,
			discovery_guidance = EXCLUDED.discovery_guidance`,
		icp.Industry, icp.ICPType, nullable(icp.NAICSCode), icp.Persona, icp.PromptInstructions,
		nullable(icp.PrimaryPainCategory), nullable(icp.GTMPrimary),
		icp.ProfitScore, icp.LTVScore, icp.SpeedToCloseScore,
		nullable(icp.EconomicDrivers), nullable(icp.NegativeICPs), nullable(icp.DiscoveryGuidance),
	)
	return eris.Wrapf(err, "postgres: upsert icp %s/%s", icp.Industry, icp.ICPType)
}

func (s *PostgresStore) InsertUsage(ctx context.Context, rec model.UsageRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_usage (id, user_id, shadow_id, integration_id, model, prompt_tokens, completion_tokens, total_cost, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.UserID, nullable(rec.ShadowID), rec.IntegrationID, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.CostUSD, rec.Timestamp,
	)
	return eris.Wrap(err, "postgres: insert usage")
}

func (s *PostgresStore) SumUsageSince(ctx context.Context, integrationID int64, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cost), 0) FROM api_usage WHERE integration_id = $1 AND recorded_at >= $2`,
		integrationID, since,
	).Scan(&total)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: sum usage for integration %d", integrationID)
	}
	return total, nil
}

func (s *PostgresStore) UsageStatsSince(ctx context.Context, since time.Time) (*UsageStats, error) {
	var stats UsageStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(total_cost), 0) FROM api_usage WHERE recorded_at >= $1`,
		since,
	).Scan(&stats.RequestCount, &stats.PromptTokens, &stats.CompletionTokens, &stats.TotalCostUSD)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: usage stats")
	}
	return &stats, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
