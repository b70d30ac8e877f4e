package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/gqlfixtures/pkg/cli/internal/output"
	"github.com/getmockd/gqlfixtures/pkg/graphql"
	"github.com/getmockd/gqlfixtures/pkg/mock"
	gqltest "github.com/getmockd/gqlfixtures/pkg/testing"
)

// mockFlags are shared by the commands that build a mock server.
type mockFlags struct {
	fixtures string
	seed     uint64
}

func (f *mockFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.fixtures, "fixtures", "f", "", "Fixtures file or glob pattern (e.g. 'fixtures/**/*.yaml') with mocks and resolver responses")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Seed for reproducible mock values")
}

// schemaSummary is the validate command's JSON output.
type schemaSummary struct {
	File          string   `json:"file"`
	Valid         bool     `json:"valid"`
	Types         []string `json:"types"`
	Queries       []string `json:"queries"`
	Mutations     []string `json:"mutations,omitempty"`
	Subscriptions []string `json:"subscriptions,omitempty"`
}

var validateVerbose bool

var validateFixtures mockFlags

var validateCmd = &cobra.Command{
	Use:   "validate <schema-file>",
	Short: "Validate a GraphQL schema file",
	Long: `Validate a GraphQL schema file.

With --fixtures, the fixtures are also checked against the schema: every mocked
type and field and every resolver must exist.

Examples:
  # Validate a schema file
  gqlfixtures validate schema.graphql

  # Validate a schema together with its fixtures
  gqlfixtures validate schema.graphql -f fixtures.yaml

  # List every type by kind
  gqlfixtures validate schema.graphql --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaFile := args[0]
		logger := newLogger(cmd)

		schema, err := graphql.LoadSchema(graphql.File(schemaFile), graphql.WithSourceName(schemaFile))
		if err != nil {
			return fmt.Errorf("schema validation failed: %s", describeSchemaError(err))
		}

		if validateFixtures.fixtures != "" {
			if _, err := newMockServer(cmd, schema, &validateFixtures, logger); err != nil {
				return fmt.Errorf("fixtures validation failed: %w", err)
			}
		}

		summary := schemaSummary{
			File:          schemaFile,
			Valid:         true,
			Types:         schema.ListTypes(),
			Queries:       schema.ListQueries(),
			Mutations:     schema.ListMutations(),
			Subscriptions: schema.ListSubscriptions(),
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), summary)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Schema valid: %s\n", schemaFile)
		fmt.Fprintf(out, "  Types: %d\n", len(summary.Types))
		fmt.Fprintf(out, "  Queries: %d\n", len(summary.Queries))
		if len(summary.Mutations) > 0 {
			fmt.Fprintf(out, "  Mutations: %d\n", len(summary.Mutations))
		}
		if len(summary.Subscriptions) > 0 {
			fmt.Fprintf(out, "  Subscriptions: %d\n", len(summary.Subscriptions))
		}
		if validateFixtures.fixtures != "" {
			fmt.Fprintf(out, "  Fixtures: %s\n", validateFixtures.fixtures)
		}

		if validateVerbose {
			printTypeTable(out, schema)
		}
		return nil
	},
}

func printTypeTable(w io.Writer, schema *graphql.Schema) {
	title := cases.Title(language.English)
	fmt.Fprintln(w)
	tw := output.Table(w)
	fmt.Fprintln(tw, "TYPE\tKIND\tFIELDS")
	for _, name := range schema.ListTypes() {
		def := schema.GetType(name)
		fields := 0
		for _, f := range def.Fields {
			if !strings.HasPrefix(f.Name, "__") {
				fields++
			}
		}
		if def.Kind == ast.Enum {
			fields = len(def.EnumValues)
		}
		kind := strings.ReplaceAll(strings.ToLower(string(def.Kind)), "_", " ")
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, title.String(kind), fields)
	}
	_ = tw.Flush()
}

// describeSchemaError appends source positions to schema loading errors.
func describeSchemaError(err error) string {
	var locs []graphql.GraphQLErrorLocation
	var parseErr *graphql.ParseError
	var buildErr *graphql.SchemaBuildError
	switch {
	case errors.As(err, &parseErr):
		locs = parseErr.Locations()
	case errors.As(err, &buildErr):
		locs = buildErr.Locations()
	}
	if len(locs) == 0 {
		return err.Error()
	}
	return fmt.Sprintf("%v (line %d, column %d)", err, locs[0].Line, locs[0].Column)
}

var (
	queryVariables string
	queryOperation string
	queryPretty    bool
	queryMock      mockFlags
)

var queryCmd = &cobra.Command{
	Use:   "query <schema-file> <query>",
	Short: "Execute a query against a mocked schema",
	Long: `Execute a query against a mocked schema and print the response.

The query is a GraphQL document or @filename. The command exits with an error
when the response contains errors.

Examples:
  # Simple query
  gqlfixtures query schema.graphql "{ users { id name } }"

  # Query with variables
  gqlfixtures query schema.graphql \
    "query GetUser($id: ID!) { user(id: $id) { name } }" \
    -v '{"id": "123"}'

  # Query from file, with fixtures and reproducible values
  gqlfixtures query schema.graphql @query.graphql -f fixtures.yaml --seed 42`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		schema, err := graphql.LoadSchema(graphql.File(args[0]), graphql.WithSourceName(args[0]))
		if err != nil {
			return fmt.Errorf("failed to load schema: %s", describeSchemaError(err))
		}

		query, err := readQueryArg(args[1])
		if err != nil {
			return err
		}

		var variables map[string]interface{}
		if queryVariables != "" {
			if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		srv, err := newMockServer(cmd, schema, &queryMock, logger)
		if err != nil {
			return err
		}

		resp := srv.Do(cmd.Context(), &graphql.GraphQLRequest{
			Query:         query,
			Variables:     variables,
			OperationName: queryOperation,
		})

		body, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		if err := output.Raw(cmd.OutOrStdout(), body, queryPretty); err != nil {
			return err
		}

		if resp.HasErrors() {
			return fmt.Errorf("query returned %d error(s)", len(resp.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "List every type with its kind")
	validateFixtures.register(validateCmd)

	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "JSON object of variables")
	queryCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name for multi-operation documents")
	queryCmd.Flags().BoolVar(&queryPretty, "pretty", true, "Pretty print output")
	queryMock.register(queryCmd)
}

// readQueryArg returns the query text, reading it from a file when prefixed with @.
func readQueryArg(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	data, err := os.ReadFile(arg[1:])
	if err != nil {
		return "", fmt.Errorf("failed to read query file: %w", err)
	}
	return string(data), nil
}

// loadFixtures reads the fixtures named by flags, or returns nil when none are set.
// A glob pattern merges every matching file.
func loadFixtures(flags *mockFlags) (*mock.Fixtures, error) {
	if flags.fixtures == "" {
		return nil, nil
	}
	load := mock.LoadFixtures
	if strings.ContainsAny(flags.fixtures, "*?[{") {
		load = mock.LoadFixturesGlob
	}
	f, err := load(flags.fixtures)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// newMockServer mocks schema with the fixtures and seed selected by flags.
func newMockServer(cmd *cobra.Command, schema *graphql.Schema, flags *mockFlags, logger *slog.Logger) (*gqltest.MockServer, error) {
	b := gqltest.NewBuilder(schema).WithLogger(logger)

	f, err := loadFixtures(flags)
	if err != nil {
		return nil, err
	}
	if f != nil {
		b.WithFixtures(f)
	}
	if cmd.Flags().Changed("seed") {
		b.WithSeed(flags.seed)
	}

	return b.Build()
}
