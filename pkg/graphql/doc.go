// Package graphql loads GraphQL schemas and executes operations against them.
//
// A schema can be given in several forms. LoadSchema normalizes each of them into a
// single executable *Schema:
//
//	schema, err := graphql.LoadSchema(graphql.SDL(`
//	    type Query {
//	        user(id: ID!): User
//	    }
//	    type User {
//	        id: ID!
//	        name: String!
//	    }
//	`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Already loaded schemas are returned unchanged, so helpers can accept any source:
//
//	schema, err := graphql.LoadSchema(graphql.SourceOf(v))
//
// Resolvers and custom scalars are supplied as build options:
//
//	schema, err := graphql.LoadSchema(graphql.File("schema.graphql"),
//	    graphql.WithResolvers(graphql.ResolverMap{
//	        "Query": {"user": func(p graphql.ResolveParams) (interface{}, error) {
//	            return map[string]interface{}{"id": p.Args["id"], "name": "Ada"}, nil
//	        }},
//	    }),
//	)
//
// Queries run through an Executor, either directly or over HTTP with a Handler:
//
//	exec := graphql.NewExecutor(schema, nil)
//	resp := exec.Execute(ctx, &graphql.GraphQLRequest{
//	    Query:     `query($id: ID!) { user(id: $id) { name } }`,
//	    Variables: map[string]interface{}{"id": "1"},
//	})
//
//	http.Handle("/graphql", graphql.NewHandler(exec, "/graphql"))
//
// Setup problems are returned as Go errors (ErrInvalidSchemaSource, *ParseError,
// *SchemaBuildError). Problems with an individual query are reported in
// GraphQLResponse.Errors.
package graphql
