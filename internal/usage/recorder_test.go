package usage

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dewpoint-ai/blueprint-cli/internal/budget"
	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

type captureWriter struct {
	mu      sync.Mutex
	records []model.UsageRecord
	err     error
}

func (w *captureWriter) InsertUsage(_ context.Context, rec model.UsageRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.records = append(w.records, rec)
	return nil
}

func (w *captureWriter) all() []model.UsageRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.UsageRecord(nil), w.records...)
}

func TestRecord_PricesAndPersists(t *testing.T) {
	writer := &captureWriter{}
	rec := NewRecorder(writer, budget.DefaultRates())

	rec.Record(model.UsageRecord{
		IntegrationID:    1,
		Model:            "gpt-4o",
		PromptTokens:     1_000_000,
		CompletionTokens: 1_000_000,
	})
	rec.Wait()

	records := writer.all()
	require.Len(t, records, 1)
	// gpt-4o: $5/M input + $15/M output.
	assert.InDelta(t, 20.0, records[0].CostUSD, 1e-9)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestRecord_WriteFailureNeverPropagates(t *testing.T) {
	writer := &captureWriter{err: eris.New("database gone")}
	rec := NewRecorder(writer, budget.DefaultRates())

	assert.NotPanics(t, func() {
		rec.Record(model.UsageRecord{IntegrationID: 1, Model: "gpt-4o"})
		rec.Wait()
	})
}

func TestRecord_ExplicitCostKept(t *testing.T) {
	writer := &captureWriter{}
	rec := NewRecorder(writer, budget.DefaultRates())

	rec.Record(model.UsageRecord{IntegrationID: 1, Model: "gpt-4o", CostUSD: 0.42})
	rec.Wait()

	records := writer.all()
	require.Len(t, records, 1)
	assert.InDelta(t, 0.42, records[0].CostUSD, 1e-9)
}
