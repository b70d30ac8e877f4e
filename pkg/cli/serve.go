package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/gqlfixtures/pkg/cli/internal/output"
	"github.com/getmockd/gqlfixtures/pkg/graphql"
	gqltest "github.com/getmockd/gqlfixtures/pkg/testing"
)

const (
	defaultServeAddr = "localhost:4280"
	shutdownTimeout  = 5 * time.Second
)

var (
	serveAddr string
	servePath string
	serveMock mockFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve [schema-file]",
	Short: "Serve a mocked schema over HTTP",
	Long: `Serve a mocked schema over HTTP until interrupted.

The schema file may be omitted when the fixtures file names the schema.

Examples:
  # Serve on the default address
  gqlfixtures serve schema.graphql

  # Serve with fixtures on a custom address and path
  gqlfixtures serve schema.graphql -f fixtures.yaml --addr :8080 --path /api/graphql

  # Serve the schema referenced by the fixtures file
  gqlfixtures serve -f fixtures.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		schema, err := serveSchema(args)
		if err != nil {
			return err
		}

		srv, err := newMockServer(cmd, schema, &serveMock, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serveMockServer(ctx, cmd.OutOrStdout(), logger, srv, serveAddr, servePath, nil)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "Address to listen on")
	serveCmd.Flags().StringVar(&servePath, "path", graphql.DefaultPath, "URL path of the GraphQL endpoint")
	serveMock.register(serveCmd)
}

// serveSchema loads the schema named on the command line, falling back to the
// schema declared by the fixtures file.
func serveSchema(args []string) (*graphql.Schema, error) {
	if len(args) == 1 {
		schema, err := graphql.LoadSchema(graphql.File(args[0]), graphql.WithSourceName(args[0]))
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %s", describeSchemaError(err))
		}
		return schema, nil
	}

	f, err := loadFixtures(&serveMock)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, errors.New("a schema file or a fixtures file with a schema is required")
	}
	schema, err := f.LoadSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %s", describeSchemaError(err))
	}
	return schema, nil
}

// serveMockServer serves srv on addr until ctx is done. ready, when set, receives
// the endpoint URL once the listener is bound.
func serveMockServer(ctx context.Context, out io.Writer, logger *slog.Logger, srv *gqltest.MockServer, addr, path string, ready func(url string)) error {
	if path == "" {
		path = graphql.DefaultPath
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, srv.Handler())

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	endpoint := "http://" + ln.Addr().String() + path
	fmt.Fprintf(out, "Serving mocked GraphQL schema at %s\n", endpoint)
	logger.Info("server started", "addr", ln.Addr().String(), "path", path)
	if ready != nil {
		ready(endpoint)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(out, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		output.Warn(out, "server shutdown error: %v", err)
	}
	logger.Info("server stopped")
	return nil
}
