package graphql

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

var (
	// ErrInvalidSchemaSource is returned by LoadSchema for a source that is not a
	// schema, a document, SDL text or an SDL file.
	ErrInvalidSchemaSource = errors.New("invalid schema source")

	// ErrNoQueryType is wrapped in a SchemaBuildError when the type definitions do
	// not declare a Query type with at least one field.
	ErrNoQueryType = errors.New("schema must define a Query type with at least one field")
)

// ParseError reports SDL text that is not syntactically valid.
type ParseError struct {
	// Source is the name of the SDL source ("schema" or a file path).
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse GraphQL schema %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Locations returns the positions reported by the parser, if any.
func (e *ParseError) Locations() []GraphQLErrorLocation {
	return errorLocations(e.Err)
}

// SchemaBuildError reports type definitions that parse but cannot form a schema,
// such as references to undefined types.
type SchemaBuildError struct {
	Err error
}

func (e *SchemaBuildError) Error() string {
	return fmt.Sprintf("failed to build GraphQL schema: %v", e.Err)
}

func (e *SchemaBuildError) Unwrap() error {
	return e.Err
}

// Locations returns the positions reported by the validator, if any.
func (e *SchemaBuildError) Locations() []GraphQLErrorLocation {
	return errorLocations(e.Err)
}

func errorLocations(err error) []GraphQLErrorLocation {
	var gqlErr *gqlerror.Error
	if !errors.As(err, &gqlErr) {
		return nil
	}
	locs := make([]GraphQLErrorLocation, 0, len(gqlErr.Locations))
	for _, l := range gqlErr.Locations {
		locs = append(locs, GraphQLErrorLocation{Line: l.Line, Column: l.Column})
	}
	return locs
}
