package testing

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
	"github.com/getmockd/gqlfixtures/pkg/mock"
)

// Builder assembles a MockServer using a fluent API:
//
//	server, err := testing.NewBuilder(schema).
//	    MockValue("ID", "123").
//	    MockField("Query.version", func(map[string]any) any { return "1.0" }).
//	    Resolve("Query.user", spy.Resolve).
//	    WithContext(map[string]any{"user": "admin"}).
//	    Build()
type Builder struct {
	schema    *graphql.Schema
	cfg       Config
	mocks     mock.Mocks
	resolvers mock.StaticResolvers
	factory   mock.ResolverFactory
	err       error // First error encountered during building
}

// NewBuilder starts building a MockServer for schema.
func NewBuilder(schema *graphql.Schema) *Builder {
	return &Builder{
		schema:    schema,
		mocks:     mock.Mocks{},
		resolvers: mock.StaticResolvers{},
	}
}

// setError records the first error encountered during building.
// Subsequent errors are ignored (first error wins pattern).
func (b *Builder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *Builder) Err() error {
	return b.err
}

// MockType sets the type mock of typeName.
func (b *Builder) MockType(typeName string, fn mock.TypeMock) *Builder {
	if _, ok := b.mocks[typeName].(mock.FieldMocks); ok {
		b.setError(fmt.Errorf("MockType: %s already has field mocks", typeName))
		return b
	}
	b.mocks[typeName] = fn
	return b
}

// MockValue mocks typeName with a constant value. For object types value is a
// map[string]any of field values.
func (b *Builder) MockValue(typeName string, value any) *Builder {
	return b.MockType(typeName, func() any { return value })
}

// MockField sets the mock of a "Type.field" path.
func (b *Builder) MockField(path string, fn mock.FieldMock) *Builder {
	fp := graphql.ParseFieldPath(path)
	if fp.FieldName == "" {
		b.setError(fmt.Errorf("MockField: %q must be of the form Type.field", path))
		return b
	}

	fields, ok := b.mocks[fp.TypeName].(mock.FieldMocks)
	if !ok {
		if _, exists := b.mocks[fp.TypeName]; exists {
			b.setError(fmt.Errorf("MockField: %s already has a type mock", fp.TypeName))
			return b
		}
		fields = mock.FieldMocks{}
		b.mocks[fp.TypeName] = fields
	}
	fields[fp.FieldName] = fn
	return b
}

// Resolve installs a resolver for a "Type.field" path.
func (b *Builder) Resolve(path string, fn graphql.FieldResolveFn) *Builder {
	fp := graphql.ParseFieldPath(path)
	if fp.FieldName == "" {
		b.setError(fmt.Errorf("Resolve: %q must be of the form Type.field", path))
		return b
	}
	if b.factory != nil {
		b.setError(errors.New("Resolve: cannot be combined with WithResolverFactory"))
		return b
	}

	if b.resolvers[fp.TypeName] == nil {
		b.resolvers[fp.TypeName] = make(map[string]graphql.FieldResolveFn)
	}
	b.resolvers[fp.TypeName][fp.FieldName] = fn
	return b
}

// WithResolverFactory builds the resolvers from the server's store.
func (b *Builder) WithResolverFactory(factory mock.ResolverFactory) *Builder {
	if len(b.resolvers) > 0 {
		b.setError(errors.New("WithResolverFactory: cannot be combined with Resolve"))
		return b
	}
	b.factory = factory
	return b
}

// WithFixtures adds the mocks and resolvers of fixture data.
func (b *Builder) WithFixtures(f *mock.Fixtures) *Builder {
	mocks, err := f.BuildMocks()
	if err != nil {
		b.setError(fmt.Errorf("WithFixtures: %w", err))
		return b
	}
	for typeName, m := range mocks {
		switch m := m.(type) {
		case mock.TypeMock:
			b.MockType(typeName, m)
		case mock.FieldMocks:
			for fieldName, fn := range m {
				b.MockField(typeName+"."+fieldName, fn)
			}
		}
	}

	resolvers, err := f.BuildResolvers()
	if err != nil {
		b.setError(fmt.Errorf("WithFixtures: %w", err))
		return b
	}
	for typeName, fields := range resolvers {
		for fieldName, fn := range fields {
			b.Resolve(typeName+"."+fieldName, fn)
		}
	}
	return b
}

// WithStore sets the store generated values are kept in.
func (b *Builder) WithStore(store mock.Store) *Builder {
	b.cfg.Store = store
	return b
}

// WithRoot sets the root value.
func (b *Builder) WithRoot(root map[string]any) *Builder {
	b.cfg.Root = root
	return b
}

// WithContext sets the context record exposed to resolvers.
func (b *Builder) WithContext(values map[string]any) *Builder {
	b.cfg.Context = values
	return b
}

// WithSeed makes generated values reproducible.
func (b *Builder) WithSeed(seed uint64) *Builder {
	b.cfg.Seed = &seed
	return b
}

// PreserveResolvers keeps resolvers the schema was loaded with.
func (b *Builder) PreserveResolvers() *Builder {
	b.cfg.PreserveResolvers = true
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.cfg.Logger = logger
	return b
}

// Config returns the configuration built so far.
func (b *Builder) Config() Config {
	cfg := b.cfg
	cfg.Mocks = b.mocks
	if b.factory != nil {
		cfg.Resolvers = b.factory
	} else {
		cfg.Resolvers = b.resolvers
	}
	return cfg
}

// Build creates the MockServer.
func (b *Builder) Build() (*MockServer, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.schema, b.Config())
}

// MustBuild is like Build but fails the test on error.
func (b *Builder) MustBuild(t testing.TB) *MockServer {
	t.Helper()
	server, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build mock server: %v", err)
	}
	return server
}
