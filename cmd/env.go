package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dewpoint-ai/blueprint-cli/internal/budget"
	"github.com/dewpoint-ai/blueprint-cli/internal/fallback"
	"github.com/dewpoint-ai/blueprint-cli/internal/icp"
	"github.com/dewpoint-ai/blueprint-cli/internal/normalize"
	"github.com/dewpoint-ai/blueprint-cli/internal/orchestrator"
	"github.com/dewpoint-ai/blueprint-cli/internal/secret"
	"github.com/dewpoint-ai/blueprint-cli/internal/store"
	"github.com/dewpoint-ai/blueprint-cli/internal/usage"
	"github.com/dewpoint-ai/blueprint-cli/pkg/openai"
)

// appEnv bundles the wired subsystems a command needs.
type appEnv struct {
	Store    store.Store
	Crypter  *secret.AESCrypter
	Rates    budget.Rates
	Recorder *usage.Recorder
	Executor *orchestrator.Executor
}

// initEnv validates config for the given mode and wires the pipeline.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	rates := budget.DefaultRates()
	if cfg.Budget.RatesPath != "" {
		rates, err = budget.LoadRates(cfg.Budget.RatesPath)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	env := &appEnv{Store: st, Rates: rates}

	if cfg.Secret.Passphrase != "" {
		env.Crypter, err = secret.NewAESCrypter(cfg.Secret.Passphrase)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	if mode == "admin" {
		return env, nil
	}

	var norm icp.IndustryNormalizer
	if cfg.AI.OpenAIKey != "" {
		norm = icp.NewNormalizationService(openai.NewClient(cfg.AI.OpenAIKey), st)
	} else {
		zap.L().Info("no platform OpenAI key configured, industry normalization disabled")
	}

	env.Recorder = usage.NewRecorder(st, rates)
	env.Executor = orchestrator.NewExecutor(
		st,
		icp.NewResolver(st, norm),
		budget.NewGuard(st),
		env.Crypter,
		orchestrator.NewProviderDispatcher(),
		normalize.New(),
		fallback.New(),
		env.Recorder,
		st,
	)
	return env, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Close drains pending usage writes before releasing the store.
func (e *appEnv) Close() {
	if e.Recorder != nil {
		e.Recorder.Wait()
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}
