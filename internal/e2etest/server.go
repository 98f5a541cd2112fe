// Package e2etest runs a server in-process and talks to it over HTTP.
package e2etest

import (
	"context"
	"fmt"
	"github.com/myrjola/faqforge/internal/apiclient"
	"github.com/myrjola/faqforge/internal/errors"
	"github.com/myrjola/faqforge/internal/logging"
	"io"
	"log/slog"
	"time"
)

type Server struct {
	url    string
	client *apiclient.Client
}

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

const readyTimeout = 5 * time.Second

// StartServer starts the test server, waits for it to be ready, and return the server URL for testing.
//
// logSink is the writer to which the server logs are written. You usually want to use [io.Discard].
// lookupEnv is a function that returns the value of an environment variable. It has same signature as [os.LookupEnv].
// run is the function that starts the server. We expect the server to log the address it's listening on with
// LogAddrKey. The server stops when ctx is cancelled.
func StartServer(
	ctx context.Context,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run func(context.Context, *slog.Logger, func(string) (string, bool)) error,
) (*Server, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	// We need to grab the dynamically allocated port from the log output.
	addrCh := make(chan string, 1)
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))

	// Start the server and wait for it to be ready.
	go func() {
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(context.Cause(ctx), "server stopped before listening")
	case addr := <-addrCh:
		var (
			err    error
			client *apiclient.Client
		)
		serverURL := fmt.Sprintf("http://%s", addr)
		if client, err = apiclient.New(serverURL); err != nil {
			return nil, errors.Wrap(err, "new client")
		}
		if err = client.WaitForReady(ctx, readyTimeout); err != nil {
			return nil, errors.Wrap(err, "wait for ready")
		}
		return &Server{
			url:    serverURL,
			client: client,
		}, nil
	}
}

func (s *Server) Client() *apiclient.Client {
	return s.client
}

// NewClient returns a client with a fresh cookie jar, i.e. a separate session.
func (s *Server) NewClient() (*apiclient.Client, error) {
	client, err := apiclient.New(s.url)
	if err != nil {
		return nil, errors.Wrap(err, "new client")
	}
	return client, nil
}

func (s *Server) URL() string {
	return s.url
}
