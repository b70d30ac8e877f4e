package graphql

import (
	"context"
	"log/slog"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/getmockd/gqlfixtures/pkg/logging"
)

// Executor executes GraphQL operations against a schema.
// It is safe for concurrent use; the schema is never modified by execution.
type Executor struct {
	schema *Schema
	logger *slog.Logger
}

// NewExecutor creates a new executor for schema. A nil logger disables logging.
func NewExecutor(schema *Schema, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Executor{
		schema: schema,
		logger: logger,
	}
}

// Schema returns the schema operations run against.
func (e *Executor) Schema() *Schema {
	return e.schema
}

// Execute executes a GraphQL request and returns a response. Parse, validation and
// resolver failures are reported in the response's Errors.
func (e *Executor) Execute(ctx context.Context, req *GraphQLRequest) *GraphQLResponse {
	if req == nil || req.Query == "" {
		return &GraphQLResponse{
			Errors: []GraphQLError{{Message: "query is required"}},
		}
	}

	result := gql.Do(gql.Params{
		Schema:         e.schema.exec,
		RequestString:  req.Query,
		RootObject:     req.Root,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        WithContextValues(ctx, req.Context),
	})

	resp := &GraphQLResponse{
		Extensions: result.Extensions,
	}
	if data, ok := result.Data.(map[string]interface{}); ok {
		resp.Data = data
	}
	if len(result.Errors) > 0 {
		resp.Errors = convertErrors(result.Errors)
	}

	e.logger.Debug("executed graphql operation",
		"operation", req.OperationName,
		"errors", len(resp.Errors),
	)

	return resp
}

func convertErrors(errs []gqlerrors.FormattedError) []GraphQLError {
	out := make([]GraphQLError, len(errs))
	for i, fe := range errs {
		gqlErr := GraphQLError{
			Message:    fe.Message,
			Path:       fe.Path,
			Extensions: fe.Extensions,
		}
		for _, loc := range fe.Locations {
			gqlErr.Locations = append(gqlErr.Locations, GraphQLErrorLocation{Line: loc.Line, Column: loc.Column})
		}
		out[i] = gqlErr
	}
	return out
}

type contextValuesKey struct{}

// WithContextValues returns a context carrying values for ContextValues. A nil map
// leaves ctx unchanged.
func WithContextValues(ctx context.Context, values map[string]interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if values == nil {
		return ctx
	}
	return context.WithValue(ctx, contextValuesKey{}, values)
}

// ContextValues returns the context record a query was executed with, or nil.
// Resolvers call it with ResolveParams.Context.
func ContextValues(ctx context.Context) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	values, _ := ctx.Value(contextValuesKey{}).(map[string]interface{})
	return values
}
