// Package testing provides mock GraphQL servers for Go tests.
//
// A MockServer answers every query against a schema with mock data. Mocks and
// resolvers override the generated values where a test needs specific data.
//
// # Basic Usage
//
// Load a schema, create a server and run queries:
//
//	func TestUserQuery(t *testing.T) {
//	    schema, err := graphql.LoadSchema(graphql.File("testdata/schema.graphql"))
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    server := gqltest.MustNew(t, schema, gqltest.Config{
//	        Mocks: mock.Mocks{
//	            "ID": mock.TypeMock(func() any { return "123" }),
//	        },
//	    })
//
//	    resp := server.Query(ctx, `{ user(id: "1") { id name } }`, nil)
//	    gqltest.AssertNoErrors(t, resp)
//	    gqltest.AssertPath(t, resp, "$.user.id", "123")
//	}
//
// # Resolvers and Spies
//
// Resolvers take precedence over mocks. A Spy records how a resolver was called:
//
//	spy := gqltest.NewSpy(func(p graphql.ResolveParams) (interface{}, error) {
//	    return map[string]any{"id": p.Args["id"]}, nil
//	})
//	server := gqltest.MustNew(t, schema, gqltest.Config{
//	    Resolvers: mock.StaticResolvers{"Query": {"user": spy.Resolve}},
//	    Context:   map[string]any{"role": "admin"},
//	})
//
//	server.Query(ctx, `query($id: ID!) { user(id: $id) { name } }`, map[string]any{"id": "7"})
//	spy.AssertCalledTimes(t, 1)
//	spy.AssertCalledWith(t, map[string]any{"id": "7"})
//
// Fields the resolver leaves out of its result are still mocked.
//
// # Fluent Builder API
//
// The Builder assembles the same configuration step by step:
//
//	server := gqltest.NewBuilder(schema).
//	    MockValue("User", map[string]any{"name": "Ada"}).
//	    MockField("Query.version", func(map[string]any) any { return "1.0" }).
//	    Resolve("Mutation.createUser", spy.Resolve).
//	    WithSeed(42).
//	    MustBuild(t)
//
// # HTTP
//
// Code under test that talks to a GraphQL endpoint can be pointed at the server:
//
//	url := server.Start(t) // stopped automatically when the test completes
//	client := NewClient(url)
//
// # Assertions
//
//	gqltest.AssertNoErrors(t, resp)
//	gqltest.AssertErrorContains(t, resp, "not found")
//	gqltest.AssertData(t, resp, `{"user": {"id": "123", "name": "Ada"}}`)
//	gqltest.AssertPath(t, resp, "$.users[*].id", []string{"1", "2"})
package testing
