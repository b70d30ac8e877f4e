package graphql

import (
	"fmt"
	"sort"
	"strconv"

	gql "github.com/graphql-go/graphql"
	gqlast "github.com/graphql-go/graphql/language/ast"
	"github.com/vektah/gqlparser/v2/ast"
)

// Hooks customise a derived executable schema.
type Hooks struct {
	// FieldResolver returns the resolver for typeName.field. base is the resolver
	// installed with WithResolvers, or nil. When FieldResolver is nil, base is used.
	FieldResolver func(typeName string, field *ast.FieldDefinition, base FieldResolveFn) FieldResolveFn

	// ResolveType picks the concrete object for an interface or union value when the
	// value does not name its type itself.
	ResolveType func(p gql.ResolveTypeParams, abstract gql.Abstract) *gql.Object
}

var builtinScalars = map[string]*gql.Scalar{
	"Int":     gql.Int,
	"Float":   gql.Float,
	"String":  gql.String,
	"Boolean": gql.Boolean,
	"ID":      gql.ID,
}

// executableBuilder translates validated gqlparser definitions into graphql-go types.
type executableBuilder struct {
	schema *Schema
	hooks  Hooks
	types  map[string]gql.Type
}

func buildExecutable(s *Schema, hooks Hooks) (gql.Schema, error) {
	b := &executableBuilder{
		schema: s,
		hooks:  hooks,
		types:  make(map[string]gql.Type, len(s.types)),
	}

	names := make([]string, 0, len(s.types))
	for name := range s.types {
		names = append(names, name)
	}
	sort.Strings(names)

	// Interfaces first so objects can reference them, unions last so their
	// members exist. Fields are thunks and may refer to any type.
	order := []ast.DefinitionKind{ast.Scalar, ast.Enum, ast.InputObject, ast.Interface, ast.Object, ast.Union}
	for _, kind := range order {
		for _, name := range names {
			def := s.types[name]
			if def.Kind != kind {
				continue
			}
			if def.BuiltIn {
				if scalar, ok := builtinScalars[name]; ok {
					b.types[name] = scalar
				}
				continue
			}
			t, err := b.define(def)
			if err != nil {
				return gql.Schema{}, err
			}
			b.types[name] = t
		}
	}

	cfg := gql.SchemaConfig{
		Query:      b.object(s.ast.Query),
		Mutation:   b.object(s.ast.Mutation),
		Directives: b.directives(),
	}
	if s.ast.Subscription != nil {
		cfg.Subscription = b.object(s.ast.Subscription)
	}
	for _, name := range names {
		if t, ok := b.types[name]; ok && !s.types[name].BuiltIn {
			cfg.Types = append(cfg.Types, t)
		}
	}

	return gql.NewSchema(cfg)
}

func (b *executableBuilder) object(def *ast.Definition) *gql.Object {
	if def == nil {
		return nil
	}
	obj, _ := b.types[def.Name].(*gql.Object)
	return obj
}

func (b *executableBuilder) define(def *ast.Definition) (gql.Type, error) {
	switch def.Kind {
	case ast.Scalar:
		return b.scalar(def), nil
	case ast.Enum:
		return b.enum(def), nil
	case ast.InputObject:
		return b.inputObject(def), nil
	case ast.Interface:
		return b.iface(def), nil
	case ast.Object:
		return b.objectType(def)
	case ast.Union:
		return b.union(def)
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for %s", def.Kind, def.Name)
	}
}

func (b *executableBuilder) scalar(def *ast.Definition) *gql.Scalar {
	cfg, ok := b.schema.scalars[def.Name]
	if !ok {
		cfg = gql.ScalarConfig{
			Serialize:    passThrough,
			ParseValue:   passThrough,
			ParseLiteral: literalValue,
		}
	}
	cfg.Name = def.Name
	if cfg.Description == "" {
		cfg.Description = def.Description
	}
	return gql.NewScalar(cfg)
}

func passThrough(value interface{}) interface{} {
	return value
}

// literalValue converts an inline query literal for a custom scalar into a Go value.
func literalValue(v gqlast.Value) interface{} {
	switch val := v.(type) {
	case *gqlast.StringValue:
		return val.Value
	case *gqlast.BooleanValue:
		return val.Value
	case *gqlast.EnumValue:
		return val.Value
	case *gqlast.IntValue:
		if n, err := strconv.Atoi(val.Value); err == nil {
			return n
		}
		return val.Value
	case *gqlast.FloatValue:
		if f, err := strconv.ParseFloat(val.Value, 64); err == nil {
			return f
		}
		return val.Value
	case *gqlast.ListValue:
		list := make([]interface{}, 0, len(val.Values))
		for _, item := range val.Values {
			list = append(list, literalValue(item))
		}
		return list
	case *gqlast.ObjectValue:
		obj := make(map[string]interface{}, len(val.Fields))
		for _, field := range val.Fields {
			obj[field.Name.Value] = literalValue(field.Value)
		}
		return obj
	default:
		return nil
	}
}

func (b *executableBuilder) enum(def *ast.Definition) *gql.Enum {
	values := make(gql.EnumValueConfigMap, len(def.EnumValues))
	for _, v := range def.EnumValues {
		values[v.Name] = &gql.EnumValueConfig{
			Value:             v.Name,
			Description:       v.Description,
			DeprecationReason: deprecationReason(v.Directives),
		}
	}
	return gql.NewEnum(gql.EnumConfig{
		Name:        def.Name,
		Description: def.Description,
		Values:      values,
	})
}

func (b *executableBuilder) inputObject(def *ast.Definition) *gql.InputObject {
	return gql.NewInputObject(gql.InputObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: gql.InputObjectConfigFieldMapThunk(func() gql.InputObjectConfigFieldMap {
			fields := make(gql.InputObjectConfigFieldMap, len(def.Fields))
			for _, f := range def.Fields {
				fields[f.Name] = &gql.InputObjectFieldConfig{
					Type:         b.typeRef(f.Type),
					DefaultValue: defaultValue(f.DefaultValue),
					Description:  f.Description,
				}
			}
			return fields
		}),
	})
}

func (b *executableBuilder) iface(def *ast.Definition) *gql.Interface {
	var iface *gql.Interface
	iface = gql.NewInterface(gql.InterfaceConfig{
		Name:        def.Name,
		Description: def.Description,
		Fields: gql.FieldsThunk(func() gql.Fields {
			return b.fields(def, false)
		}),
		ResolveType: func(p gql.ResolveTypeParams) *gql.Object {
			return b.resolveType(p, iface)
		},
	})
	return iface
}

func (b *executableBuilder) union(def *ast.Definition) (*gql.Union, error) {
	members := make([]*gql.Object, 0, len(def.Types))
	for _, name := range def.Types {
		obj, ok := b.types[name].(*gql.Object)
		if !ok {
			return nil, fmt.Errorf("union %s: member %s is not an object type", def.Name, name)
		}
		members = append(members, obj)
	}

	var union *gql.Union
	union = gql.NewUnion(gql.UnionConfig{
		Name:        def.Name,
		Description: def.Description,
		Types:       members,
		ResolveType: func(p gql.ResolveTypeParams) *gql.Object {
			return b.resolveType(p, union)
		},
	})
	return union, nil
}

func (b *executableBuilder) objectType(def *ast.Definition) (*gql.Object, error) {
	interfaces := make([]*gql.Interface, 0, len(def.Interfaces))
	for _, name := range def.Interfaces {
		iface, ok := b.types[name].(*gql.Interface)
		if !ok {
			return nil, fmt.Errorf("object %s: %s is not an interface type", def.Name, name)
		}
		interfaces = append(interfaces, iface)
	}

	return gql.NewObject(gql.ObjectConfig{
		Name:        def.Name,
		Description: def.Description,
		Interfaces:  interfaces,
		Fields: gql.FieldsThunk(func() gql.Fields {
			return b.fields(def, true)
		}),
	}), nil
}

func (b *executableBuilder) fields(def *ast.Definition, withResolvers bool) gql.Fields {
	fields := make(gql.Fields, len(def.Fields))
	for _, f := range def.Fields {
		if isIntrospectionField(f.Name) {
			continue
		}
		field := &gql.Field{
			Name:              f.Name,
			Description:       f.Description,
			Type:              b.typeRef(f.Type),
			Args:              b.arguments(f.Arguments),
			DeprecationReason: deprecationReason(f.Directives),
		}
		if withResolvers {
			field.Resolve = b.fieldResolver(def.Name, f)
		}
		fields[f.Name] = field
	}
	return fields
}

func (b *executableBuilder) fieldResolver(typeName string, f *ast.FieldDefinition) gql.FieldResolveFn {
	base := b.schema.Resolver(typeName, f.Name)
	if b.hooks.FieldResolver == nil {
		return base
	}
	return b.hooks.FieldResolver(typeName, f, base)
}

func (b *executableBuilder) arguments(args ast.ArgumentDefinitionList) gql.FieldConfigArgument {
	if len(args) == 0 {
		return nil
	}
	out := make(gql.FieldConfigArgument, len(args))
	for _, a := range args {
		out[a.Name] = &gql.ArgumentConfig{
			Type:         b.typeRef(a.Type),
			DefaultValue: defaultValue(a.DefaultValue),
			Description:  a.Description,
		}
	}
	return out
}

// typeRef converts a gqlparser type reference, wrapping lists and non-null types.
func (b *executableBuilder) typeRef(t *ast.Type) gql.Type {
	var out gql.Type
	if t.Elem != nil {
		out = gql.NewList(b.typeRef(t.Elem))
	} else {
		out = b.types[t.NamedType]
	}
	if t.NonNull {
		out = gql.NewNonNull(out)
	}
	return out
}

func (b *executableBuilder) resolveType(p gql.ResolveTypeParams, abstract gql.Abstract) *gql.Object {
	if name := TypeNameOf(p.Value); name != "" {
		if obj, ok := b.types[name].(*gql.Object); ok {
			return obj
		}
	}
	if b.hooks.ResolveType != nil {
		return b.hooks.ResolveType(p, abstract)
	}
	return nil
}

// directives returns the specified directives plus any custom directive that can
// appear in an executable document.
func (b *executableBuilder) directives() []*gql.Directive {
	directives := append([]*gql.Directive{}, gql.SpecifiedDirectives...)

	names := make([]string, 0, len(b.schema.ast.Directives))
	for name := range b.schema.ast.Directives {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir := b.schema.ast.Directives[name]
		if dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn {
			continue
		}
		var locations []string
		for _, loc := range dir.Locations {
			if executableLocations[loc] {
				locations = append(locations, string(loc))
			}
		}
		if len(locations) == 0 {
			continue
		}
		directives = append(directives, gql.NewDirective(gql.DirectiveConfig{
			Name:        dir.Name,
			Description: dir.Description,
			Locations:   locations,
			Args:        b.arguments(dir.Arguments),
		}))
	}
	return directives
}

var executableLocations = map[ast.DirectiveLocation]bool{
	ast.LocationQuery:              true,
	ast.LocationMutation:           true,
	ast.LocationSubscription:       true,
	ast.LocationField:              true,
	ast.LocationFragmentDefinition: true,
	ast.LocationFragmentSpread:     true,
	ast.LocationInlineFragment:     true,
}

func deprecationReason(directives ast.DirectiveList) string {
	dir := directives.ForName("deprecated")
	if dir == nil {
		return ""
	}
	if arg := dir.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return "No longer supported"
}

// defaultValue converts an SDL default value into the Go value graphql-go hands to
// resolvers when the argument is omitted.
func defaultValue(v *ast.Value) interface{} {
	if v == nil {
		return nil
	}
	val, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return normalizeValue(val)
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case int64:
		return int(val)
	case []interface{}:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	case map[string]interface{}:
		for k := range val {
			val[k] = normalizeValue(val[k])
		}
		return val
	default:
		return v
	}
}
