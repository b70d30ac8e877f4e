package mock

import (
	"errors"
	"fmt"
	"sort"

	gql "github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
)

// Options configures AddMocksToSchema.
type Options struct {
	// Schema is the schema to mock. It is not modified.
	Schema *graphql.Schema
	// Store remembers generated values. A private MemoryStore is used when nil.
	Store Store
	// Mocks overrides generated values per type or field.
	Mocks Mocks
	// Resolvers overrides fields with real resolvers.
	Resolvers Resolvers
	// PreserveResolvers keeps resolvers installed with graphql.WithResolvers for
	// fields that Resolvers does not override.
	PreserveResolvers bool
	// Seed makes generated values reproducible.
	Seed *uint64
}

// AddMocksToSchema returns a new schema whose fields are resolved, in order of
// precedence, by:
//
//  1. the matching entry of Resolvers (or a preserved schema resolver);
//  2. the value already present on the parent object, such as a field returned by a
//     resolver, a TypeMock entry or the root value;
//  3. the FieldMocks entry of the parent type, or a TypeMock of the parent type;
//  4. a value generated for the field's return type, using a TypeMock for that type
//     when one exists.
//
// Values from steps 3 and 4 are remembered in the store per object and field.
func AddMocksToSchema(opts Options) (*graphql.Schema, error) {
	if opts.Schema == nil {
		return nil, errors.New("mock: schema is required")
	}

	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}

	var resolvers StaticResolvers
	if opts.Resolvers != nil {
		resolvers = opts.Resolvers.resolverMap(store)
	}

	if err := validateMocks(opts.Schema, opts.Mocks); err != nil {
		return nil, err
	}
	if err := validateResolvers(opts.Schema, resolvers); err != nil {
		return nil, err
	}

	m := &mocker{
		store:     store,
		mocks:     opts.Mocks,
		resolvers: resolvers,
		preserve:  opts.PreserveResolvers,
		gen:       newGenerator(opts.Seed),
		roots:     rootTypes(opts.Schema.AST()),
	}

	return opts.Schema.Derive(graphql.Hooks{
		FieldResolver: m.fieldResolver,
		ResolveType:   m.resolveType,
	})
}

func rootTypes(s *ast.Schema) map[string]bool {
	roots := make(map[string]bool, 3)
	for _, def := range []*ast.Definition{s.Query, s.Mutation, s.Subscription} {
		if def != nil {
			roots[def.Name] = true
		}
	}
	return roots
}

func validateMocks(schema *graphql.Schema, mocks Mocks) error {
	for typeName, mock := range mocks {
		def := schema.GetType(typeName)
		if def == nil {
			return fmt.Errorf("%w: mocks[%q]", ErrUnknownType, typeName)
		}
		fields, ok := mock.(FieldMocks)
		if !ok {
			continue
		}
		for fieldName := range fields {
			if def.Fields.ForName(fieldName) == nil {
				return fmt.Errorf("%w: mocks[%q][%q]", ErrUnknownField, typeName, fieldName)
			}
		}
	}
	return nil
}

func validateResolvers(schema *graphql.Schema, resolvers StaticResolvers) error {
	for typeName, fields := range resolvers {
		def := schema.GetType(typeName)
		if def == nil || def.Kind != ast.Object {
			return fmt.Errorf("%w: resolvers[%q]", ErrUnknownType, typeName)
		}
		for fieldName := range fields {
			if def.Fields.ForName(fieldName) == nil {
				return fmt.Errorf("%w: resolvers[%q][%q]", ErrUnknownField, typeName, fieldName)
			}
		}
	}
	return nil
}

// object is a generated value of an object type. Its key identifies it in the store.
type object struct {
	typeName string
	key      string
	values   map[string]any
}

func (o *object) GraphQLTypeName() string {
	return o.typeName
}

type mocker struct {
	store     Store
	mocks     Mocks
	resolvers StaticResolvers
	preserve  bool
	gen       *generator
	roots     map[string]bool
}

func (m *mocker) fieldResolver(typeName string, field *ast.FieldDefinition, base graphql.FieldResolveFn) graphql.FieldResolveFn {
	resolver := m.resolvers.lookup(typeName, field.Name)
	if resolver == nil && m.preserve {
		resolver = base
	}
	name := field.Name

	return func(p graphql.ResolveParams) (interface{}, error) {
		if resolver != nil {
			return resolver(p)
		}
		if v, ok := sourceValue(p, name); ok {
			return v, nil
		}
		return m.generated(typeName, name, p), nil
	}
}

// sourceValue reads name from the parent value. Function values are called, so
// mocks can return lazily computed fields.
func sourceValue(p graphql.ResolveParams, name string) (any, bool) {
	var v any
	var ok bool

	switch src := p.Source.(type) {
	case nil:
		return nil, false
	case *object:
		v, ok = src.values[name]
	case map[string]any:
		v, ok = src[name]
	default:
		v, _ = gql.DefaultResolveFn(p)
		ok = v != nil
	}
	if !ok {
		return nil, false
	}

	switch fn := v.(type) {
	case func() any:
		return fn(), true
	case TypeMock:
		return fn(), true
	case func(map[string]any) any:
		return fn(p.Args), true
	case FieldMock:
		return fn(p.Args), true
	}
	return v, true
}

// generated returns the mock value of typeName.name, consulting the store first.
func (m *mocker) generated(typeName, name string, p graphql.ResolveParams) any {
	ref, keyed := m.refOf(typeName, p.Source)
	key := FieldKey(name, p.Args)

	if keyed {
		if v, ok := m.store.Get(ref, key); ok {
			return v
		}
	}

	gen := m.gen.derive(ref.TypeName, ref.Key, key)
	if !keyed {
		gen = m.gen.derive(typeName, key, fmt.Sprint(p.Info.Path.AsArray()))
	}
	v := m.generateField(gen, typeName, name, p)

	if keyed {
		m.store.Set(ref, key, v)
	}
	return v
}

// refOf identifies the parent object in the store. Parents without a stable
// identity are not stored.
func (m *mocker) refOf(typeName string, source any) (Ref, bool) {
	if m.roots[typeName] {
		return RootRef(typeName), true
	}
	switch src := source.(type) {
	case *object:
		return Ref{TypeName: typeName, Key: src.key}, true
	case map[string]any:
		if id, ok := src["id"]; ok && id != nil {
			return Ref{TypeName: typeName, Key: fmt.Sprint(id)}, true
		}
	}
	return Ref{}, false
}

func (m *mocker) generateField(gen *generator, typeName, name string, p graphql.ResolveParams) any {
	switch mock := m.mocks[typeName].(type) {
	case FieldMocks:
		if fn := mock[name]; fn != nil {
			return fn(p.Args)
		}
	case TypeMock:
		// Generated objects already carry their type mock's values.
		if _, isObject := p.Source.(*object); !isObject && mock != nil {
			if values, ok := mock().(map[string]any); ok {
				if v, ok := values[name]; ok {
					return v
				}
			}
		}
	}
	return m.generate(gen, p.Info.ReturnType, &p.Info.Schema)
}

// generate produces a default value of type t.
func (m *mocker) generate(gen *generator, t gql.Type, schema *gql.Schema) any {
	switch tt := t.(type) {
	case *gql.NonNull:
		return m.generate(gen, tt.OfType, schema)
	case *gql.List:
		items := make([]any, DefaultListLength)
		for i := range items {
			items[i] = m.generate(gen, tt.OfType, schema)
		}
		return items
	case *gql.Scalar:
		if mock, ok := m.mocks[tt.Name()].(TypeMock); ok && mock != nil {
			return mock()
		}
		return defaultScalar(gen, tt.Name())
	case *gql.Enum:
		if mock, ok := m.mocks[tt.Name()].(TypeMock); ok && mock != nil {
			return mock()
		}
		values := enumValues(tt)
		if len(values) == 0 {
			return nil
		}
		return values[gen.Pick(len(values))].Value
	case *gql.Object:
		return m.newObject(gen, tt.Name(), nil)
	case *gql.Interface:
		return m.newAbstract(gen, tt, schema)
	case *gql.Union:
		return m.newAbstract(gen, tt, schema)
	}
	return nil
}

func defaultScalar(gen *generator, name string) any {
	switch name {
	case "ID":
		return gen.ID()
	case "Int":
		return gen.Int()
	case "Float":
		return gen.Float()
	case "Boolean":
		return gen.Boolean()
	default:
		return DefaultString
	}
}

// newObject creates a mock object of typeName from its type mock overlaid with base.
func (m *mocker) newObject(gen *generator, typeName string, base map[string]any) *object {
	values := make(map[string]any)
	if mock, ok := m.mocks[typeName].(TypeMock); ok && mock != nil {
		if vals, ok := mock().(map[string]any); ok {
			for k, v := range vals {
				values[k] = v
			}
		}
	}
	for k, v := range base {
		values[k] = v
	}

	key := ""
	if id, ok := values["id"]; ok && id != nil {
		key = fmt.Sprint(id)
	} else {
		key = gen.ID()
	}

	return &object{typeName: typeName, key: key, values: values}
}

// newAbstract creates a mock object for an interface or union, choosing the
// concrete type from the type mock's "__typename" or at random.
func (m *mocker) newAbstract(gen *generator, abstract gql.Abstract, schema *gql.Schema) any {
	var base map[string]any
	typeName := ""
	if mock, ok := m.mocks[abstract.Name()].(TypeMock); ok && mock != nil {
		if vals, ok := mock().(map[string]any); ok {
			base = vals
			typeName, _ = vals["__typename"].(string)
		}
	}

	if typeName == "" {
		possible := possibleTypes(schema, abstract)
		if len(possible) == 0 {
			return nil
		}
		typeName = possible[gen.Pick(len(possible))].Name()
	}

	return m.newObject(gen, typeName, base)
}

// resolveType falls back to the first possible type for values returned by
// resolvers or mocks that do not name their type.
func (m *mocker) resolveType(p gql.ResolveTypeParams, abstract gql.Abstract) *gql.Object {
	possible := possibleTypes(&p.Info.Schema, abstract)
	if len(possible) == 0 {
		return nil
	}
	return possible[0]
}

// enumValues returns the values of enum sorted by name.
func enumValues(enum *gql.Enum) []*gql.EnumValueDefinition {
	values := append([]*gql.EnumValueDefinition(nil), enum.Values()...)
	sort.Slice(values, func(i, j int) bool {
		return values[i].Name < values[j].Name
	})
	return values
}

func possibleTypes(schema *gql.Schema, abstract gql.Abstract) []*gql.Object {
	possible := append([]*gql.Object(nil), schema.PossibleTypes(abstract)...)
	sort.Slice(possible, func(i, j int) bool {
		return possible[i].Name() < possible[j].Name()
	})
	return possible
}
