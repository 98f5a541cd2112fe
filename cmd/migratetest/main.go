package main

import (
	"context"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/repositories"
	"github.com/myrjola/faqforge/internal/sqlite"
	"github.com/myrjola/faqforge/internal/state"
	"github.com/myrjola/faqforge/internal/testhelpers"
	"log/slog"
	"os"
	"time"
)

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	var (
		err       error
		start     = time.Now()
		ctx       context.Context
		sqliteURL string
		ok        bool
		cancel    context.CancelFunc
	)
	ctx = context.Background()
	ctx, cancel = context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds

	if sqliteURL, ok = os.LookupEnv("FAQFORGE_STATE_SQLITE_URL"); !ok {
		logger.LogAttrs(ctx, slog.LevelError, "FAQFORGE_STATE_SQLITE_URL not set")
		os.Exit(1)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, sqliteURL, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating database",
			slog.String("url", sqliteURL), errors.SlogError(err))
		os.Exit(1)
	}

	// Restoring decodes every persisted collection, so a migration that mangled the entries fails here.
	repository := repositories.NewKVRepository(db, logger)
	var store *state.Store
	if store, err = state.Open(ctx, repository, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error restoring state", errors.SlogError(err))
		os.Exit(1)
	}
	entries, err := repository.Entries(ctx)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error listing state entries", errors.SlogError(err))
		os.Exit(1)
	}
	if len(entries) > 0 && len(store.Topics()) == 0 {
		logger.LogAttrs(ctx, slog.LevelError, "state has entries but no topics, something is likely wrong",
			slog.Int("entries", len(entries)))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "state restored",
		slog.Int("entries", len(entries)),
		slog.Int("topics", len(store.Topics())),
		slog.Int("questions", len(store.Questions())),
		slog.Int("faqs", len(store.FAQs())))

	if err = db.Close(); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error closing database", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Migration test successful 🙌", slog.Duration("duration", time.Since(start)))
	cancel()
	os.Exit(0)
}
