// Package usage records token and cost accounting for successful
// generations. Recording is strictly best-effort: a write failure is
// logged and dropped, never surfaced to the request path.
package usage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/budget"
	"github.com/dewpoint-ai/blueprint-cli/internal/model"
)

const writeTimeout = 10 * time.Second

// Writer is the persistence port for usage records.
type Writer interface {
	InsertUsage(ctx context.Context, rec model.UsageRecord) error
}

// Recorder writes usage records asynchronously.
type Recorder struct {
	writer Writer
	rates  budget.Rates
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder priced with the given rate table.
func NewRecorder(writer Writer, rates budget.Rates) *Recorder {
	return &Recorder{writer: writer, rates: rates}
}

// Record computes the cost of a generation and persists it without
// blocking the caller. The write uses its own deadline so a slow database
// cannot hold a goroutine forever.
func (r *Recorder) Record(rec model.UsageRecord) {
	if rec.CostUSD == 0 {
		rec.CostUSD = r.rates.Cost(rec.Model, rec.PromptTokens, rec.CompletionTokens)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				zap.L().Error("usage recorder panic", zap.Any("panic", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := r.writer.InsertUsage(ctx, rec); err != nil {
			zap.L().Error("usage record write failed",
				zap.Int64("integration_id", rec.IntegrationID),
				zap.String("model", rec.Model),
				zap.String("subject", rec.Subject()),
				zap.Error(err))
			return
		}
		zap.L().Debug("usage recorded",
			zap.Int64("integration_id", rec.IntegrationID),
			zap.String("model", rec.Model),
			zap.String("subject", rec.Subject()),
			zap.Int("prompt_tokens", rec.PromptTokens),
			zap.Int("completion_tokens", rec.CompletionTokens),
			zap.Float64("cost_usd", rec.CostUSD))
	}()
}

// Wait blocks until all in-flight writes finish. Used on shutdown and in
// tests; the request path never calls it.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
