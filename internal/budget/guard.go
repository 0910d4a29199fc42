// Package budget enforces per-integration daily spend caps. The guard is
// consulted once per candidate attempt, before any credential is decrypted.
package budget

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

// ErrExceeded marks an integration that has spent past its daily cap.
var ErrExceeded = eris.New("budget: daily limit exceeded")

// SpendReader reports accumulated usage cost for an integration.
type SpendReader interface {
	SumUsageSince(ctx context.Context, integrationID int64, since time.Time) (float64, error)
}

// Guard checks integrations against their configured daily limits.
type Guard struct {
	spend SpendReader
	now   func() time.Time
}

// NewGuard creates a Guard reading spend from the given source.
func NewGuard(spend SpendReader) *Guard {
	return &Guard{spend: spend, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (g *Guard) WithNow(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Check returns ErrExceeded when the integration's spend since local
// midnight has reached its daily cap. Store errors are wrapped and
// returned; the executor treats either outcome as a candidate skip.
func (g *Guard) Check(ctx context.Context, integ model.Integration) error {
	limit := integ.DailyLimitUSD()
	spent, err := g.spend.SumUsageSince(ctx, integ.ID, startOfDay(g.now()))
	if err != nil {
		return eris.Wrapf(err, "budget: read spend for integration %d", integ.ID)
	}
	if spent >= limit {
		zap.L().Warn("budget: integration over daily cap",
			zap.Int64("integration_id", integ.ID),
			zap.String("integration", integ.Name),
			zap.Float64("spent_usd", spent),
			zap.Float64("limit_usd", limit),
		)
		return eris.Wrapf(ErrExceeded, "integration %d spent $%.4f of $%.2f", integ.ID, spent, limit)
	}
	return nil
}

// startOfDay truncates t to local midnight, matching the accounting window
// the usage dashboard reports.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
