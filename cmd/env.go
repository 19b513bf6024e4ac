package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/catalog"
	"github.com/aeolive/competitor-cli/internal/config"
	"github.com/aeolive/competitor-cli/internal/discovery"
	"github.com/aeolive/competitor-cli/internal/profile"
	"github.com/aeolive/competitor-cli/internal/store"
)

// discoveryEnv holds what the discover/batch/serve commands share.
type discoveryEnv struct {
	Catalog *catalog.Catalog
	Service *discovery.Service
	Store   store.Store // nil when the journal is disabled
}

// Close releases the journal, if any.
func (e *discoveryEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initDiscovery validates config for mode, loads the catalog, and builds the
// pipeline. The journal is opened only when withStore is set, and then a
// configured driver is required.
func initDiscovery(ctx context.Context, mode string, withStore bool) (*discoveryEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	env := &discoveryEnv{
		Catalog: cat,
		Service: discovery.NewFromCatalog(cat, profileOptions(cfg.Discovery)),
	}

	if withStore {
		st, err := requireStore(ctx)
		if err != nil {
			return nil, err
		}
		env.Store = st
	}

	return env, nil
}

func loadCatalog(c config.CatalogConfig) (*catalog.Catalog, error) {
	if c.Path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(c.Path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded catalog override",
		zap.String("path", c.Path),
		zap.Int("industries", len(cat.Industries())),
	)
	return cat, nil
}

func profileOptions(d config.DiscoveryConfig) profile.Options {
	return profile.Options{
		Timeout:      d.FetchTimeout(),
		UserAgent:    d.UserAgent,
		MaxBodyBytes: d.MaxBodyBytes,
		ExcerptChars: d.ExcerptChars,
		MaxKeywords:  d.MaxKeywords,
	}
}

// initStore opens the configured journal. It returns nil for driver "none".
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// requireStore is initStore for commands that make no sense without a journal.
func requireStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return store.Guard(st, store.GuardConfig{}), nil
}
