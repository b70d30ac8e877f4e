package graphql

import (
	gql "github.com/graphql-go/graphql"
)

// FieldResolveFn computes the value of a single field. It is the graphql-go resolver
// signature, re-exported so callers do not need a second import.
type FieldResolveFn = gql.FieldResolveFn

// ResolveParams is passed to every FieldResolveFn.
type ResolveParams = gql.ResolveParams

// ScalarConfig configures serialization and parsing of a custom scalar.
type ScalarConfig = gql.ScalarConfig

// ResolverMap maps type name -> field name -> resolver.
type ResolverMap map[string]map[string]FieldResolveFn

// Lookup returns the resolver registered for typeName.fieldName, or nil.
func (m ResolverMap) Lookup(typeName, fieldName string) FieldResolveFn {
	if m == nil {
		return nil
	}
	return m[typeName][fieldName]
}

// GraphQLRequest represents a single GraphQL operation to execute.
type GraphQLRequest struct {
	// Query is the GraphQL query string.
	Query string `json:"query"`
	// OperationName is the name of the operation to execute (for multi-operation documents).
	OperationName string `json:"operationName,omitempty"`
	// Variables are the variable values for the query.
	Variables map[string]interface{} `json:"variables,omitempty"`
	// Root is the root value handed to top-level resolvers as their source.
	Root map[string]interface{} `json:"-"`
	// Context is exposed to every resolver through ContextValues.
	Context map[string]interface{} `json:"-"`
}

// GraphQLResponse represents a GraphQL response.
type GraphQLResponse struct {
	// Data contains the result of the query execution.
	Data map[string]interface{} `json:"data,omitempty"`
	// Errors contains any errors that occurred during execution.
	Errors []GraphQLError `json:"errors,omitempty"`
	// Extensions contains additional response metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// HasErrors reports whether the response carries any errors.
func (r *GraphQLResponse) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// GraphQLError represents a GraphQL error in the response format.
type GraphQLError struct {
	// Message is the error message.
	Message string `json:"message"`
	// Locations indicates where in the query the error occurred.
	Locations []GraphQLErrorLocation `json:"locations,omitempty"`
	// Path is the response field path where the error occurred.
	Path []interface{} `json:"path,omitempty"`
	// Extensions contains additional error metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Error implements error so a response error can be logged or wrapped directly.
func (e GraphQLError) Error() string {
	return e.Message
}

// GraphQLErrorLocation represents a location in a GraphQL document.
type GraphQLErrorLocation struct {
	// Line is the line number (1-indexed).
	Line int `json:"line"`
	// Column is the column number (1-indexed).
	Column int `json:"column"`
}

// FieldPath represents a path to a field in the schema (e.g., "Query.user" or "Mutation.createUser").
type FieldPath struct {
	// TypeName is the parent type name (e.g., "Query", "Mutation", "User").
	TypeName string
	// FieldName is the field name.
	FieldName string
}

// String returns the string representation of the field path.
func (fp FieldPath) String() string {
	if fp.TypeName == "" {
		return fp.FieldName
	}
	return fp.TypeName + "." + fp.FieldName
}

// ParseFieldPath parses a field path string (e.g., "Query.user") into a FieldPath.
func ParseFieldPath(path string) FieldPath {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return FieldPath{
				TypeName:  path[:i],
				FieldName: path[i+1:],
			}
		}
	}
	// No dot found, treat the whole string as a type name
	return FieldPath{TypeName: path}
}

// TypeNamer is implemented by values that know which concrete object type they
// represent. It is consulted when resolving interface and union fields.
type TypeNamer interface {
	GraphQLTypeName() string
}

// TypeNameOf returns the concrete type name carried by v: the GraphQLTypeName of a
// TypeNamer, or the "__typename" entry of a map. It returns "" when unknown.
func TypeNameOf(v interface{}) string {
	switch val := v.(type) {
	case TypeNamer:
		return val.GraphQLTypeName()
	case map[string]interface{}:
		if name, ok := val["__typename"].(string); ok {
			return name
		}
	}
	return ""
}
