package testing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
	"github.com/getmockd/gqlfixtures/pkg/logging"
	"github.com/getmockd/gqlfixtures/pkg/mock"
)

// Config configures a MockServer. The zero value mocks every field with defaults.
type Config struct {
	// Store remembers generated values across queries. A private store is used when nil.
	Store mock.Store
	// Mocks overrides generated values per type or field.
	Mocks mock.Mocks
	// Resolvers overrides fields with resolver functions, such as Spy.Resolve.
	Resolvers mock.Resolvers
	// Context is exposed to resolvers through graphql.ContextValues.
	Context map[string]any
	// Root is the value top-level resolvers receive as their source.
	Root map[string]any
	// PreserveResolvers keeps resolvers the schema was loaded with.
	PreserveResolvers bool
	// Seed makes generated values reproducible.
	Seed *uint64
	// Logger receives execution logs. Logging is disabled when nil.
	Logger *slog.Logger
}

// MockServer runs GraphQL operations against a mocked schema.
// It is safe for concurrent use.
type MockServer struct {
	// Store, Mocks and Resolvers are the values the server was configured with.
	Store     mock.Store
	Mocks     mock.Mocks
	Resolvers mock.Resolvers

	schema   *graphql.Schema
	executor *graphql.Executor
	context  map[string]any
	root     map[string]any
	logger   *slog.Logger

	mu      sync.Mutex
	httpSrv *httptest.Server
	baseURL string
}

// New mocks schema with cfg and returns a server bound to the mocked schema.
// schema itself is not modified; use graphql.LoadSchema to obtain one.
func New(schema *graphql.Schema, cfg Config) (*MockServer, error) {
	if cfg.Mocks == nil {
		cfg.Mocks = mock.Mocks{}
	}
	if cfg.Resolvers == nil {
		cfg.Resolvers = mock.StaticResolvers{}
	}
	logger := logging.OrNop(cfg.Logger)

	mocked, err := mock.AddMocksToSchema(mock.Options{
		Schema:            schema,
		Store:             cfg.Store,
		Mocks:             cfg.Mocks,
		Resolvers:         cfg.Resolvers,
		PreserveResolvers: cfg.PreserveResolvers,
		Seed:              cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mock schema: %w", err)
	}

	return &MockServer{
		Store:     cfg.Store,
		Mocks:     cfg.Mocks,
		Resolvers: cfg.Resolvers,
		schema:    mocked,
		executor:  graphql.NewExecutor(mocked, logger),
		context:   cfg.Context,
		root:      cfg.Root,
		logger:    logger,
	}, nil
}

// MustNew is like New but fails the test on error.
func MustNew(t testing.TB, schema *graphql.Schema, cfg Config) *MockServer {
	t.Helper()
	m, err := New(schema, cfg)
	if err != nil {
		t.Fatalf("failed to create mock server: %v", err)
	}
	return m
}

// Schema returns the mocked schema.
func (m *MockServer) Schema() *graphql.Schema {
	return m.schema
}

// Query executes query with variables. Parse, validation and resolver errors are
// reported in the response.
func (m *MockServer) Query(ctx context.Context, query string, variables map[string]any) *graphql.GraphQLResponse {
	return m.Do(ctx, &graphql.GraphQLRequest{
		Query:     query,
		Variables: variables,
	})
}

// Do executes req. The configured root and context are used when req sets none.
func (m *MockServer) Do(ctx context.Context, req *graphql.GraphQLRequest) *graphql.GraphQLResponse {
	if req == nil {
		req = &graphql.GraphQLRequest{}
	}
	exec := *req
	if exec.Root == nil {
		exec.Root = m.root
	}
	if exec.Context == nil {
		exec.Context = m.context
	}
	return m.executor.Execute(ctx, &exec)
}

// QueryAll executes reqs concurrently and returns their responses in order.
// It fails only if ctx is done before every request has started.
func (m *MockServer) QueryAll(ctx context.Context, reqs []*graphql.GraphQLRequest) ([]*graphql.GraphQLResponse, error) {
	responses := make([]*graphql.GraphQLResponse, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			responses[i] = m.Do(ctx, req)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// Handler returns a graphql.Handler serving the mocked schema at graphql.DefaultPath.
func (m *MockServer) Handler() *graphql.Handler {
	return graphql.NewHandler(m.executor, graphql.DefaultPath,
		graphql.WithRoot(m.root),
		graphql.WithContext(m.context),
		graphql.WithLogger(m.logger),
	)
}

// Start serves the mocked schema over HTTP and returns the GraphQL endpoint URL.
// The server is stopped when the test completes.
func (m *MockServer) Start(t testing.TB) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpSrv != nil {
		return m.baseURL + graphql.DefaultPath
	}

	handler := m.Handler()
	mux := http.NewServeMux()
	mux.Handle(handler.Pattern(), handler)

	m.httpSrv = httptest.NewServer(mux)
	m.baseURL = m.httpSrv.URL
	t.Cleanup(m.Stop)

	m.logger.Debug("mock graphql server started", "url", m.baseURL+graphql.DefaultPath)

	return m.baseURL + graphql.DefaultPath
}

// Stop stops the HTTP server started by Start. It is safe to call more than once.
func (m *MockServer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
}

// URL returns the GraphQL endpoint URL, or "" if the server has never been started.
func (m *MockServer) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.baseURL == "" {
		return ""
	}
	return m.baseURL + graphql.DefaultPath
}

// Client returns an http.Client configured to work with the mock server.
func (m *MockServer) Client() *http.Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpSrv != nil {
		return m.httpSrv.Client()
	}
	return http.DefaultClient
}
