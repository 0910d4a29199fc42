package budget

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

type fakeSpend struct {
	spent     map[int64]float64
	err       error
	lastSince time.Time
}

func (f *fakeSpend) SumUsageSince(_ context.Context, integrationID int64, since time.Time) (float64, error) {
	f.lastSince = since
	if f.err != nil {
		return 0, f.err
	}
	return f.spent[integrationID], nil
}

func integrationWithLimit(id int64, limit float64) model.Integration {
	integ := model.Integration{ID: id, Name: "openai-prod"}
	if limit > 0 {
		integ.Metadata = map[string]any{"daily_limit_usd": limit}
	}
	return integ
}

func TestCheck_UnderLimit(t *testing.T) {
	guard := NewGuard(&fakeSpend{spent: map[int64]float64{1: 2.50}})
	assert.NoError(t, guard.Check(context.Background(), integrationWithLimit(1, 5.00)))
}

func TestCheck_AtLimit(t *testing.T) {
	guard := NewGuard(&fakeSpend{spent: map[int64]float64{1: 5.00}})
	err := guard.Check(context.Background(), integrationWithLimit(1, 5.00))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrExceeded))
}

func TestCheck_OverLimit(t *testing.T) {
	guard := NewGuard(&fakeSpend{spent: map[int64]float64{1: 7.31}})
	err := guard.Check(context.Background(), integrationWithLimit(1, 5.00))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrExceeded))
}

func TestCheck_DefaultLimitApplies(t *testing.T) {
	guard := NewGuard(&fakeSpend{spent: map[int64]float64{1: model.DefaultDailyLimitUSD}})
	err := guard.Check(context.Background(), integrationWithLimit(1, 0))
	assert.True(t, eris.Is(err, ErrExceeded))
}

func TestCheck_StoreErrorIsNotExceeded(t *testing.T) {
	guard := NewGuard(&fakeSpend{err: eris.New("connection refused")})
	err := guard.Check(context.Background(), integrationWithLimit(1, 5.00))
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrExceeded))
}

func TestCheck_WindowStartsAtLocalMidnight(t *testing.T) {
	loc := time.FixedZone("TEST", -5*3600)
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, loc)
	spend := &fakeSpend{spent: map[int64]float64{}}

	guard := NewGuard(spend).WithNow(func() time.Time { return now })
	require.NoError(t, guard.Check(context.Background(), integrationWithLimit(1, 5.00)))

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, loc), spend.lastSince)
}
