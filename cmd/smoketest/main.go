package main

import (
	"context"
	"github.com/myrjola/faqforge/internal/apiclient"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/logging"
	"io"
	"log/slog"
	"os"
	"time"
)

// TestServer checks the endpoints that answer without calling a provider.
func TestServer(ctx context.Context, client *apiclient.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()
	var err error

	if err = client.Healthy(ctx); err != nil {
		return errors.Wrap(err, "health check")
	}
	providers, analysis, err := client.Providers(ctx)
	if err != nil {
		return errors.Wrap(err, "list providers")
	}
	if len(providers) == 0 {
		return errors.New("no provider configured")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "providers", slog.Any("providers", providers),
		slog.String("analysisProvider", string(analysis)))

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get index page")
	}
	if listed := doc.Find("#providers li[data-provider]").Length(); listed != len(providers) {
		return errors.New("index page disagrees with the provider list",
			slog.Int("listed", listed), slog.Int("providers", len(providers)))
	}

	// Exporting before generating is a validation error, which proves the session layer answers.
	var apiErr *apiclient.Error
	if err = client.ExportFAQ(ctx, io.Discard); err == nil {
		return errors.New("empty export succeeded")
	}
	if !errors.As(err, &apiErr) || apiErr.Code != "validation" {
		return errors.Wrap(err, "expected a validation error from an empty export")
	}
	if client.SessionCookie() == "" {
		return errors.New("no session cookie issued")
	}
	return nil
}

func main() {
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only the server URL to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <server URL>")
		os.Exit(1)
	}

	var (
		url    = os.Args[1]
		client *apiclient.Client
		err    error
	)
	ctx = logging.WithAttrs(ctx, slog.String("url", url))

	if client, err = apiclient.New(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestServer(ctx, client, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing server", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
	os.Exit(0)
}
