package graphql

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// Source is a schema in one of the forms LoadSchema accepts: Loaded, Document, SDL
// or File. Use SourceOf to convert a dynamically typed value.
type Source interface {
	schemaSource()
}

// Loaded is a schema that has already been built. LoadSchema returns it unchanged.
type Loaded struct {
	Schema *Schema
}

// Document is a parsed SDL document. It should not contain the built-in prelude;
// LoadSchema adds it unless the document already carries built-in definitions.
type Document struct {
	Doc *ast.SchemaDocument
}

// SDL is raw schema definition language text.
type SDL string

// File is the path of a file containing SDL text.
type File string

// invalidSource wraps a value SourceOf could not classify.
type invalidSource struct {
	value interface{}
}

func (Loaded) schemaSource()        {}
func (Document) schemaSource()      {}
func (SDL) schemaSource()           {}
func (File) schemaSource()          {}
func (invalidSource) schemaSource() {}

// SourceOf classifies v as a Source. Schemas, parsed documents and strings map onto
// Loaded, Document and SDL; a value that already is a Source is returned as is.
// Anything else yields a source that LoadSchema rejects with ErrInvalidSchemaSource.
func SourceOf(v interface{}) Source {
	switch val := v.(type) {
	case Source:
		return val
	case *Schema:
		if val == nil {
			break
		}
		return Loaded{Schema: val}
	case *ast.SchemaDocument:
		if val == nil {
			break
		}
		return Document{Doc: val}
	case string:
		return SDL(val)
	case []byte:
		return SDL(val)
	}
	return invalidSource{value: v}
}
