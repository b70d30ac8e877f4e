package graphql

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"

	gql "github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// Schema is a validated, executable GraphQL schema with convenient accessors
// for types, queries, mutations, and subscriptions.
type Schema struct {
	ast           *ast.Schema
	source        string
	types         map[string]*ast.Definition
	queries       map[string]*ast.FieldDefinition
	mutations     map[string]*ast.FieldDefinition
	subscriptions map[string]*ast.FieldDefinition

	exec      gql.Schema
	resolvers ResolverMap
	scalars   map[string]ScalarConfig
}

// BuildOption configures how LoadSchema builds the executable schema.
type BuildOption func(*buildOptions)

type buildOptions struct {
	name      string
	resolvers ResolverMap
	scalars   map[string]ScalarConfig
}

// WithResolvers installs resolvers on the built schema. Fields without a resolver
// read the same-named key or struct field of their parent value.
func WithResolvers(resolvers ResolverMap) BuildOption {
	return func(o *buildOptions) {
		o.resolvers = resolvers
	}
}

// WithScalar configures serialization and parsing for the custom scalar name.
// Scalars without a configuration pass values through unchanged.
func WithScalar(name string, cfg ScalarConfig) BuildOption {
	return func(o *buildOptions) {
		if o.scalars == nil {
			o.scalars = make(map[string]ScalarConfig)
		}
		o.scalars[name] = cfg
	}
}

// WithSourceName sets the name SDL text is reported under in parse errors.
func WithSourceName(name string) BuildOption {
	return func(o *buildOptions) {
		o.name = name
	}
}

// LoadSchema normalizes src into an executable schema.
//
// A Loaded source is returned unchanged. SDL text and files are parsed, documents are
// used as given, and the result is validated and built with opts applied. Every call
// with a non-Loaded source builds a new schema.
func LoadSchema(src Source, opts ...BuildOption) (*Schema, error) {
	o := buildOptions{name: "schema"}
	for _, opt := range opts {
		opt(&o)
	}

	var doc *ast.SchemaDocument
	var text string

	switch s := src.(type) {
	case Loaded:
		if s.Schema == nil {
			return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchemaSource)
		}
		return s.Schema, nil
	case Document:
		if s.Doc == nil {
			return nil, fmt.Errorf("%w: nil document", ErrInvalidSchemaSource)
		}
		doc = cloneDocument(s.Doc)
		text = formatDocument(s.Doc)
	case SDL:
		parsed, err := parseSDL(o.name, string(s))
		if err != nil {
			return nil, err
		}
		doc, text = parsed, string(s)
	case File:
		data, err := os.ReadFile(string(s))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", string(s), err)
		}
		parsed, err := parseSDL(string(s), string(data))
		if err != nil {
			return nil, err
		}
		doc, text = parsed, string(data)
	case invalidSource:
		return nil, fmt.Errorf("%w: %T", ErrInvalidSchemaSource, s.value)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidSchemaSource, src)
	}

	return buildSchema(doc, text, o)
}

// ParseSDL parses SDL text into a document without validating it. Syntax errors
// are returned as *ParseError.
func ParseSDL(sdl string) (*ast.SchemaDocument, error) {
	return parseSDL("schema", sdl)
}

func parseSDL(name, sdl string) (*ast.SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	return doc, nil
}

// withPrelude returns doc merged with the built-in scalar and directive
// definitions, unless doc already contains them.
func withPrelude(doc *ast.SchemaDocument) (*ast.SchemaDocument, error) {
	for _, def := range doc.Definitions {
		if def.BuiltIn {
			return doc, nil
		}
	}

	prelude, err := parser.ParseSchema(validator.Prelude)
	if err != nil {
		return nil, err
	}

	merged := &ast.SchemaDocument{}
	merged.Merge(prelude)
	merged.Merge(doc)
	return merged, nil
}

func buildSchema(doc *ast.SchemaDocument, text string, o buildOptions) (*Schema, error) {
	full, err := withPrelude(doc)
	if err != nil {
		return nil, &SchemaBuildError{Err: err}
	}

	validated, verr := validator.ValidateSchemaDocument(full)
	if verr != nil {
		return nil, &SchemaBuildError{Err: verr}
	}

	s := newSchema(validated, text)
	if !s.HasQuery() {
		return nil, &SchemaBuildError{Err: ErrNoQueryType}
	}
	s.resolvers = o.resolvers
	s.scalars = o.scalars

	exec, err := buildExecutable(s, Hooks{})
	if err != nil {
		return nil, &SchemaBuildError{Err: err}
	}
	s.exec = exec

	return s, nil
}

// cloneDocument copies the definitions of doc so that validation, which appends
// extension members and introspection fields to them, leaves doc untouched.
func cloneDocument(doc *ast.SchemaDocument) *ast.SchemaDocument {
	clone := *doc
	clone.Definitions = make(ast.DefinitionList, len(doc.Definitions))
	for i, def := range doc.Definitions {
		d := *def
		d.Directives = slices.Clip(def.Directives)
		d.Interfaces = slices.Clip(def.Interfaces)
		d.Fields = slices.Clip(def.Fields)
		d.Types = slices.Clip(def.Types)
		d.EnumValues = slices.Clip(def.EnumValues)
		clone.Definitions[i] = &d
	}
	return &clone
}

func formatDocument(doc *ast.SchemaDocument) string {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return buf.String()
}

// newSchema creates a new Schema from a parsed ast.Schema.
func newSchema(schema *ast.Schema, source string) *Schema {
	s := &Schema{
		ast:           schema,
		source:        source,
		types:         make(map[string]*ast.Definition),
		queries:       make(map[string]*ast.FieldDefinition),
		mutations:     make(map[string]*ast.FieldDefinition),
		subscriptions: make(map[string]*ast.FieldDefinition),
	}

	for name, def := range schema.Types {
		s.types[name] = def
	}

	// Index query fields (excluding introspection fields)
	if schema.Query != nil {
		for _, field := range schema.Query.Fields {
			if !isIntrospectionField(field.Name) {
				s.queries[field.Name] = field
			}
		}
	}

	if schema.Mutation != nil {
		for _, field := range schema.Mutation.Fields {
			s.mutations[field.Name] = field
		}
	}

	if schema.Subscription != nil {
		for _, field := range schema.Subscription.Fields {
			s.subscriptions[field.Name] = field
		}
	}

	return s
}

// Derive builds a new executable from the same type definitions, with resolvers and
// type resolution supplied by hooks. The receiver is left untouched.
func (s *Schema) Derive(hooks Hooks) (*Schema, error) {
	derived := &Schema{
		ast:           s.ast,
		source:        s.source,
		types:         s.types,
		queries:       s.queries,
		mutations:     s.mutations,
		subscriptions: s.subscriptions,
		resolvers:     s.resolvers,
		scalars:       s.scalars,
	}

	exec, err := buildExecutable(derived, hooks)
	if err != nil {
		return nil, &SchemaBuildError{Err: err}
	}
	derived.exec = exec

	return derived, nil
}

// isIntrospectionField returns true if the field name is a built-in introspection field.
func isIntrospectionField(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

// AST returns the underlying gqlparser AST schema.
func (s *Schema) AST() *ast.Schema {
	return s.ast
}

// Source returns the SDL the schema was built from. For Document sources this is
// the formatted document.
func (s *Schema) Source() string {
	return s.source
}

// Executable returns the graphql-go schema queries run against.
func (s *Schema) Executable() *gql.Schema {
	return &s.exec
}

// Resolver returns the resolver installed with WithResolvers for typeName.fieldName, or nil.
func (s *Schema) Resolver(typeName, fieldName string) FieldResolveFn {
	return s.resolvers.Lookup(typeName, fieldName)
}

// GetType returns a type definition by name, or nil if not found.
func (s *Schema) GetType(name string) *ast.Definition {
	return s.types[name]
}

// GetQueryField returns a query field definition by name, or nil if not found.
func (s *Schema) GetQueryField(name string) *ast.FieldDefinition {
	return s.queries[name]
}

// GetMutationField returns a mutation field definition by name, or nil if not found.
func (s *Schema) GetMutationField(name string) *ast.FieldDefinition {
	return s.mutations[name]
}

// GetSubscriptionField returns a subscription field definition by name, or nil if not found.
func (s *Schema) GetSubscriptionField(name string) *ast.FieldDefinition {
	return s.subscriptions[name]
}

// ListQueries returns all query field names in sorted order.
func (s *Schema) ListQueries() []string {
	return sortedKeys(s.queries)
}

// ListMutations returns all mutation field names in sorted order.
func (s *Schema) ListMutations() []string {
	return sortedKeys(s.mutations)
}

// ListSubscriptions returns all subscription field names in sorted order.
func (s *Schema) ListSubscriptions() []string {
	return sortedKeys(s.subscriptions)
}

func sortedKeys(m map[string]*ast.FieldDefinition) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTypes returns the names of all user-defined types in sorted order, optionally
// filtering by kind. Built-in scalars and introspection types are not listed.
func (s *Schema) ListTypes(kinds ...ast.DefinitionKind) []string {
	kindSet := make(map[ast.DefinitionKind]bool)
	for _, k := range kinds {
		kindSet[k] = true
	}

	names := make([]string, 0)
	for name, def := range s.types {
		if def.BuiltIn {
			continue
		}
		if len(kindSet) == 0 || kindSet[def.Kind] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HasQuery returns true if the schema has a query type with fields.
func (s *Schema) HasQuery() bool {
	return len(s.queries) > 0
}

// HasMutation returns true if the schema has a mutation type with fields.
func (s *Schema) HasMutation() bool {
	return len(s.mutations) > 0
}

// HasSubscription returns true if the schema has a subscription type with fields.
func (s *Schema) HasSubscription() bool {
	return len(s.subscriptions) > 0
}

// Validate reports schemas without a usable Query type. Schemas returned by
// LoadSchema always pass.
func (s *Schema) Validate() error {
	if !s.HasQuery() {
		return ErrNoQueryType
	}
	return nil
}

// GetField returns a field definition by type and field name.
func (s *Schema) GetField(typeName, fieldName string) *ast.FieldDefinition {
	def := s.GetType(typeName)
	if def == nil {
		return nil
	}
	return def.Fields.ForName(fieldName)
}

// IsScalarType returns true if the given type name is a scalar type.
func (s *Schema) IsScalarType(name string) bool {
	def := s.GetType(name)
	return def != nil && def.Kind == ast.Scalar
}

// IsEnumType returns true if the given type name is an enum type.
func (s *Schema) IsEnumType(name string) bool {
	return s.isKind(name, ast.Enum)
}

// IsInputType returns true if the given type name is an input type.
func (s *Schema) IsInputType(name string) bool {
	return s.isKind(name, ast.InputObject)
}

// IsObjectType returns true if the given type name is an object type.
func (s *Schema) IsObjectType(name string) bool {
	return s.isKind(name, ast.Object)
}

// IsInterfaceType returns true if the given type name is an interface type.
func (s *Schema) IsInterfaceType(name string) bool {
	return s.isKind(name, ast.Interface)
}

// IsUnionType returns true if the given type name is a union type.
func (s *Schema) IsUnionType(name string) bool {
	return s.isKind(name, ast.Union)
}

func (s *Schema) isKind(name string, kind ast.DefinitionKind) bool {
	def := s.GetType(name)
	return def != nil && def.Kind == kind
}

// GetEnumValues returns the enum values for an enum type, or nil if not an enum.
func (s *Schema) GetEnumValues(name string) []string {
	def := s.GetType(name)
	if def == nil || def.Kind != ast.Enum {
		return nil
	}

	values := make([]string, 0, len(def.EnumValues))
	for _, v := range def.EnumValues {
		values = append(values, v.Name)
	}
	return values
}

// GetInterfaceImplementors returns all types that implement the given interface.
func (s *Schema) GetInterfaceImplementors(interfaceName string) []string {
	var implementors []string
	for name, def := range s.types {
		if def.Kind != ast.Object {
			continue
		}
		for _, iface := range def.Interfaces {
			if iface == interfaceName {
				implementors = append(implementors, name)
				break
			}
		}
	}
	sort.Strings(implementors)
	return implementors
}

// GetUnionMembers returns the member types of a union, or nil if not a union.
func (s *Schema) GetUnionMembers(name string) []string {
	def := s.GetType(name)
	if def == nil || def.Kind != ast.Union {
		return nil
	}

	members := make([]string, 0, len(def.Types))
	members = append(members, def.Types...)
	sort.Strings(members)
	return members
}
