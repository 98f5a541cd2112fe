package main

import (
	"context"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/myrjola/faqforge/internal/apiclient"
	"github.com/myrjola/faqforge/internal/envstruct"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/logging"
	"github.com/myrjola/faqforge/internal/repositories"
	"github.com/myrjola/faqforge/internal/sqlite"
	"github.com/myrjola/faqforge/internal/state"
	"github.com/myrjola/faqforge/internal/workbench"
	"github.com/spf13/cobra"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

type config struct {
	ServerURL string `env:"FAQFORGE_SERVER_URL" envDefault:"http://localhost:4000"`
	// SQLiteURL holds the topics, questions, FAQs and settings between invocations.
	SQLiteURL   string        `env:"FAQFORGE_STATE_SQLITE_URL" envDefault:"./faqforge.sqlite"`
	Diagnostics bool          `env:"FAQFORGE_DIAGNOSTICS" envDefault:"false"`
	LogLevel    string        `env:"FAQFORGE_LOG_LEVEL" envDefault:"warn"`
	Limit       int           `env:"FAQFORGE_LIMIT" envDefault:"0"`
	TagPause    time.Duration `env:"FAQFORGE_TAG_PAUSE" envDefault:"200ms"`
}

// session is what the commands operate on.
type session struct {
	store       *state.Store
	bench       *workbench.Workbench
	api         workbench.API
	diagnostics bool
	close       func(ctx context.Context) error
}

// cli opens the session lazily so that help and usage work without a database or a server.
type cli struct {
	open    func(ctx context.Context) (*session, error)
	session *session
}

func (c *cli) get(ctx context.Context) (*session, error) {
	if c.session != nil {
		return c.session, nil
	}
	s, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

func (c *cli) close(ctx context.Context) error {
	if c.session == nil || c.session.close == nil {
		return nil
	}
	return c.session.close(ctx)
}

var (
	pipelineGroup = &cobra.Group{
		ID:    "pipeline",
		Title: "FAQ pipeline",
	}
	configGroup = &cobra.Group{
		ID:    "config",
		Title: "Configuration",
	}
)

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "faqforge",
		Short: "Generate FAQs from topics",
		Long: `Manages topics, generates questions about them with every configured provider, groups near-duplicates and
combines the result into a FAQ exportable as JSONL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddGroup(pipelineGroup, configGroup)
	root.AddCommand(topicsCmd(c), questionsCmd(c), faqCmd(c), settingsCmd(c), providersCmd(c))
	return root
}

// openSession opens the state database and connects the workbench to the API server. The server session cookie
// is restored from the state and written back on close, so that consecutive invocations share the server session.
func openSession(ctx context.Context, cfg config, logger *slog.Logger) (*session, error) {
	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open state database", slog.String("url", cfg.SQLiteURL))
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}

	store, err := state.Open(ctx, repositories.NewKVRepository(db, logger), logger)
	if err != nil {
		closeDB()
		return nil, errors.Wrap(err, "open state")
	}
	client, err := apiclient.New(cfg.ServerURL)
	if err != nil {
		closeDB()
		return nil, errors.Wrap(err, "new api client")
	}
	if cookie := store.SessionCookie(); cookie != "" {
		if err = client.SetSessionCookie(cookie); err != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "dropping stored session cookie", errors.SlogError(err))
		}
	}

	return &session{
		store: store,
		bench: workbench.New(client, store, logger, workbench.Options{
			Diagnostics: cfg.Diagnostics,
			Limit:       cfg.Limit,
			TagPause:    cfg.TagPause,
		}),
		api:         client,
		diagnostics: cfg.Diagnostics,
		close: func(ctx context.Context) error {
			defer closeDB()
			if cookieErr := store.SetSessionCookie(ctx, client.SessionCookie()); cookieErr != nil {
				return errors.Wrap(cookieErr, "save session cookie")
			}
			return nil
		},
	}, nil
}

func run(ctx context.Context, args []string, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}
	logger := logging.NewLogger(os.Stderr, level)

	c := &cli{
		open: func(ctx context.Context) (*session, error) {
			return openSession(ctx, cfg, logger)
		},
		session: nil,
	}
	root := newRootCmd(c)
	root.SetArgs(args)
	err = root.ExecuteContext(ctx)
	if closeErr := c.close(ctx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

func main() {
	// A missing .env file is fine, the environment may already be complete.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], os.LookupEnv); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
