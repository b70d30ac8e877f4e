// Package mock turns a GraphQL schema into one that answers every query with mock data.
//
// AddMocksToSchema derives a new schema from a loaded one. Fields without a mock or a
// resolver get default values for their type: a UUID for ID, "Hello World" for String
// and custom scalars, a number in [-100, 100] for Int and Float, a random boolean, a
// random enum value, two items for lists and a random concrete type for interfaces
// and unions.
//
// Mocks replace the defaults per type or per field:
//
//	mocked, err := mock.AddMocksToSchema(mock.Options{
//	    Schema: schema,
//	    Mocks: mock.Mocks{
//	        "ID":   mock.TypeMock(func() any { return "123" }),
//	        "User": mock.TypeMock(func() any { return map[string]any{"name": "Ada"} }),
//	        "Query": mock.FieldMocks{
//	            "version": func(map[string]any) any { return "1.0" },
//	        },
//	    },
//	})
//
// Resolvers take precedence over mocks. A resolver may return a partial object; the
// fields it leaves out are mocked:
//
//	Resolvers: mock.StaticResolvers{
//	    "Query": {"user": func(p graphql.ResolveParams) (interface{}, error) {
//	        return map[string]any{"id": p.Args["id"]}, nil
//	    }},
//	},
//
// A ResolverFactory receives the Store, so resolvers can read or seed the values
// other fields will return.
//
// Generated values are remembered in the Store per object and field, so an object
// returns the same data on every query. Objects are identified by their "id" field;
// root types share the key RootKey.
//
// Mocks and resolvers can also be read from YAML or JSON fixture files with
// LoadFixtures, or from every file matching a glob with LoadFixturesGlob. Fixture
// resolvers may be restricted with argument values or an expr-lang expression.
package mock
