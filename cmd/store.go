package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/inmind-gr/office-radar/internal/store"
)

// initStore opens the configured SQLite database and applies migrations.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
