package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/nightgrid/captiond/internal/consensus"
	"github.com/nightgrid/captiond/internal/oracle"
	"github.com/nightgrid/captiond/internal/rules"
	"github.com/nightgrid/captiond/internal/trainer"
	anthropicpkg "github.com/nightgrid/captiond/pkg/anthropic"
)

// initStore opens the configured rule store.
func initStore(ctx context.Context) (rules.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := rules.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	case "postgres":
		st, err := rules.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine wires the full consensus pipeline on top of an open store.
// Returns nil without error when no Anthropic key is configured; callers
// that need extraction must treat nil as unavailable.
func initEngine(st rules.Store) (*consensus.Engine, error) {
	if cfg.Anthropic.Key == "" {
		return nil, nil
	}

	estimator := rules.NewEstimator(st)
	selector := rules.NewSelector(st, cfg.Rules, estimator)
	recorder := trainer.NewRecorder(st, estimator, cfg.Trainer)

	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	claude := oracle.NewClaude(client, cfg.Anthropic, cfg.Oracle)

	return consensus.NewEngine(selector, claude, recorder), nil
}
