package mock

import (
	"errors"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
)

var (
	// ErrUnknownType is returned when Mocks or Resolvers name a type the schema does not define.
	ErrUnknownType = errors.New("unknown type")

	// ErrUnknownField is returned when Mocks or Resolvers name a field the type does not define.
	ErrUnknownField = errors.New("unknown field")
)

// Mocks maps a type name to the mock generating its values.
type Mocks map[string]Mock

// Mock is either a TypeMock or FieldMocks.
type Mock interface {
	isMock()
}

// TypeMock generates a value for a whole type. For scalars and enums it returns the
// value itself; for object, interface and union types it returns a
// map[string]any of field values, where missing fields are mocked further.
// An interface or union mock may pick the concrete type with a "__typename" entry.
type TypeMock func() any

// FieldMock generates the value of one field from the field's arguments.
type FieldMock func(args map[string]any) any

// FieldMocks maps field names of a type to their generators.
type FieldMocks map[string]FieldMock

func (TypeMock) isMock()   {}
func (FieldMocks) isMock() {}

// Resolvers overrides field resolution with real resolver functions. It is either
// StaticResolvers or a ResolverFactory.
type Resolvers interface {
	resolverMap(store Store) StaticResolvers
}

// StaticResolvers maps type name -> field name -> resolver.
type StaticResolvers map[string]map[string]graphql.FieldResolveFn

// ResolverFactory builds resolvers from the store the mocked schema uses, so
// resolvers can read and write mock state.
type ResolverFactory func(store Store) StaticResolvers

func (r StaticResolvers) resolverMap(Store) StaticResolvers {
	return r
}

func (f ResolverFactory) resolverMap(store Store) StaticResolvers {
	if f == nil {
		return nil
	}
	return f(store)
}

func (r StaticResolvers) lookup(typeName, fieldName string) graphql.FieldResolveFn {
	if r == nil {
		return nil
	}
	return r[typeName][fieldName]
}
