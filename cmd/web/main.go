package main

import (
	"context"
	"fmt"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/joho/godotenv"
	"github.com/myrjola/faqforge/internal/ai"
	"github.com/myrjola/faqforge/internal/envstruct"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/grouping"
	"github.com/myrjola/faqforge/internal/logging"
	"github.com/myrjola/faqforge/internal/pprofserver"
	"github.com/myrjola/faqforge/internal/sqlite"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type application struct {
	logger         *slog.Logger
	ai             *ai.Client
	grouping       *grouping.Engine
	analysis       ai.ProviderID
	sessionManager *scs.SessionManager
	validate       *validator.Validate
	index          *template.Template
	diagnostics    bool
	requestTimeout time.Duration
}

type config struct {
	// Addr is the address to listen on. Choose a random port with "localhost:0".
	Addr string `env:"FAQFORGE_ADDR" envDefault:"localhost:4000"`
	// SQLiteURL holds the sessions. The default in-memory database keeps server state transient.
	SQLiteURL string `env:"FAQFORGE_SQLITE_URL" envDefault:":memory:"`
	// PprofAddr is the loopback port of the pprof server, e.g. ":6060". Empty disables it.
	PprofAddr        string        `env:"FAQFORGE_PPROF_ADDR" envDefault:""`
	Diagnostics      bool          `env:"FAQFORGE_DIAGNOSTICS" envDefault:"false"`
	AnalysisProvider string        `env:"FAQFORGE_ANALYSIS_PROVIDER" envDefault:"Claude"`
	RequestTimeout   time.Duration `env:"FAQFORGE_REQUEST_TIMEOUT" envDefault:"3m"`
	ProviderTimeout  time.Duration `env:"FAQFORGE_PROVIDER_TIMEOUT" envDefault:"2m"`
	SessionLifetime  time.Duration `env:"FAQFORGE_SESSION_LIFETIME" envDefault:"12h"`
	SecureCookie     bool          `env:"FAQFORGE_SECURE_COOKIE" envDefault:"false"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel      string        `env:"FAQFORGE_OPENAI_MODEL" envDefault:"gpt-4"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY" envDefault:""`
	AnthropicBaseURL string        `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com/v1/"`
	AnthropicModel   string        `env:"FAQFORGE_ANTHROPIC_MODEL" envDefault:"claude-3-opus-20240229"`
	GoogleAPIKey     string        `env:"GOOGLE_API_KEY" envDefault:""`
	GoogleBaseURL    string        `env:"GOOGLE_BASE_URL" envDefault:""`
	GoogleModel      string        `env:"FAQFORGE_GOOGLE_MODEL" envDefault:"gemini-pro"`
}

func (cfg config) aiConfig() ai.Config {
	return ai.Config{
		OpenAI: ai.ProviderConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			DefaultModel: cfg.OpenAIModel,
		},
		Anthropic: ai.ProviderConfig{
			APIKey:       cfg.AnthropicAPIKey,
			BaseURL:      cfg.AnthropicBaseURL,
			DefaultModel: cfg.AnthropicModel,
		},
		Google: ai.ProviderConfig{
			APIKey:       cfg.GoogleAPIKey,
			BaseURL:      cfg.GoogleBaseURL,
			DefaultModel: cfg.GoogleModel,
		},
		Timeout: cfg.ProviderTimeout,
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	analysis, err := ai.ParseProvider(cfg.AnalysisProvider)
	if err != nil {
		return errors.Wrap(err, "parse analysis provider")
	}

	if cfg.PprofAddr != "" {
		// Loopback only so that it's not open to the world.
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	aiClient, err := ai.NewFromConfig(ctx, cfg.aiConfig(), logger)
	if err != nil {
		return errors.Wrap(err, "new ai client")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SQLiteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite, 30*time.Minute) //nolint:mnd // 30 minutes
	defer sessionStore.StopCleanup()
	sessionManager := scs.New()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Name = sessionCookieName
	sessionManager.Cookie.Secure = cfg.SecureCookie
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return errors.Wrap(err, "register notblank validation")
	}

	index, err := parseIndexTemplate()
	if err != nil {
		return errors.Wrap(err, "parse index template")
	}

	app := application{
		logger:         logger,
		ai:             aiClient,
		grouping:       grouping.NewEngine(aiClient, analysis, logger),
		analysis:       analysis,
		sessionManager: sessionManager,
		validate:       validate,
		index:          index,
		diagnostics:    cfg.Diagnostics,
		requestTimeout: cfg.RequestTimeout,
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "configured",
		slog.String("analysisProvider", string(analysis)),
		slog.Bool("diagnostics", cfg.Diagnostics),
		slog.Bool("secureCookie", cfg.SecureCookie),
		slog.Int("providers", len(aiClient.Providers())))

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	// A missing .env file is fine, the environment may already be complete.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(os.Getenv("FAQFORGE_LOG_LEVEL"))
	logger := logging.NewLogger(os.Stdout, level)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "falling back to info level", errors.SlogError(err))
	}
	if err = run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
