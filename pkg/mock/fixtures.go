package mock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
)

// ErrNoFixtureSchema is returned by Fixtures.LoadSchema when neither schema nor
// schemaFile is set.
var ErrNoFixtureSchema = errors.New("fixtures define no schema")

// Fixtures describes mock data in a YAML or JSON file:
//
//	schemaFile: schema.graphql
//	mocks:
//	  String: "fixture"
//	  User:
//	    name: Ada
//	  Query.version: "1.0"
//	resolvers:
//	  Query.user:
//	    - match:
//	        args: {id: "404"}
//	      error:
//	        message: user not found
//	        extensions: {code: NOT_FOUND}
//	    - match:
//	        expr: 'context.role == "admin"'
//	      response: {id: "{{args.id}}", name: Admin}
//	    - response: {id: "{{args.id}}", name: "User {{args.id}}"}
type Fixtures struct {
	// Schema is inline SDL.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// SchemaFile is an SDL file, relative to the fixture file.
	SchemaFile string `json:"schemaFile,omitempty" yaml:"schemaFile,omitempty"`
	// Mocks maps "Type" to a value for that type, or "Type.field" to a value for that field.
	Mocks map[string]interface{} `json:"mocks,omitempty" yaml:"mocks,omitempty"`
	// Resolvers maps "Type.field" to one or more canned responses.
	Resolvers map[string]ResolverList `json:"resolvers,omitempty" yaml:"resolvers,omitempty"`

	dir string
}

// ResolverConfig is a canned field response.
type ResolverConfig struct {
	// Response is the field value. Strings may contain {{args.name}} and {{uuid}}.
	Response interface{} `json:"response,omitempty" yaml:"response,omitempty"`
	// Delay is the simulated latency before responding (e.g., "100ms", "2s").
	Delay string `json:"delay,omitempty" yaml:"delay,omitempty"`
	// Match restricts the response to calls with matching arguments.
	Match *ResolverMatch `json:"match,omitempty" yaml:"match,omitempty"`
	// Error fails the field instead of returning Response.
	Error *ErrorConfig `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResolverMatch specifies matching conditions for a resolver. All conditions must hold.
type ResolverMatch struct {
	// Args specifies argument values that must match for this resolver to apply.
	Args map[string]interface{} `json:"args,omitempty" yaml:"args,omitempty"`
	// Expr is a boolean expr-lang expression over "args" (the field arguments)
	// and "context" (the request context values).
	Expr string `json:"expr,omitempty" yaml:"expr,omitempty"`
}

// ErrorConfig configures a field error.
type ErrorConfig struct {
	// Message is the error message.
	Message string `json:"message" yaml:"message"`
	// Extensions contains additional error metadata.
	Extensions map[string]interface{} `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// ResolverList is one or more ResolverConfigs for a field, tried in order.
// In a fixture file it may be written as a single mapping or as a sequence.
type ResolverList []ResolverConfig

// UnmarshalYAML accepts a single resolver mapping as well as a sequence.
func (l *ResolverList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var list []ResolverConfig
		if err := value.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}

	var single ResolverConfig
	if err := value.Decode(&single); err != nil {
		return err
	}
	*l = ResolverList{single}
	return nil
}

// LoadFixtures reads fixtures from a YAML or JSON file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// LoadFixturesGlob reads every fixtures file matching pattern and merges them.
// Patterns may use ** to match directories recursively. A schema, mock key or
// resolver key may be defined by only one of the files.
func LoadFixturesGlob(pattern string) (*Fixtures, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid fixtures pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no fixtures files match %q", pattern)
	}
	sort.Strings(matches)

	merged := &Fixtures{}
	schemaFrom := ""
	for _, path := range matches {
		f, err := LoadFixtures(path)
		if err != nil {
			return nil, err
		}
		if f.Schema != "" || f.SchemaFile != "" {
			if schemaFrom != "" {
				return nil, fmt.Errorf("%s: schema is already defined in %s", path, schemaFrom)
			}
			schemaFrom = path
			merged.Schema = f.Schema
			merged.SchemaFile = f.SchemaFile
			merged.dir = f.dir
		}
		for key, value := range f.Mocks {
			if _, ok := merged.Mocks[key]; ok {
				return nil, fmt.Errorf("%s: mock %q is defined more than once", path, key)
			}
			if merged.Mocks == nil {
				merged.Mocks = make(map[string]interface{})
			}
			merged.Mocks[key] = value
		}
		for key, list := range f.Resolvers {
			if _, ok := merged.Resolvers[key]; ok {
				return nil, fmt.Errorf("%s: resolver %q is defined more than once", path, key)
			}
			if merged.Resolvers == nil {
				merged.Resolvers = make(map[string]ResolverList)
			}
			merged.Resolvers[key] = list
		}
	}
	return merged, nil
}

// ParseFixtures decodes fixtures from YAML or JSON.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	for path, list := range f.Resolvers {
		for i, cfg := range list {
			if cfg.Delay != "" {
				if _, err := time.ParseDuration(cfg.Delay); err != nil {
					return nil, fmt.Errorf("resolvers[%q][%d]: invalid delay: %w", path, i, err)
				}
			}
			if _, err := cfg.Match.compile(); err != nil {
				return nil, fmt.Errorf("resolvers[%q][%d]: invalid match expression: %w", path, i, err)
			}
		}
	}

	return &f, nil
}

// LoadSchema loads the schema the fixtures name.
func (f *Fixtures) LoadSchema(opts ...graphql.BuildOption) (*graphql.Schema, error) {
	switch {
	case f.Schema != "":
		return graphql.LoadSchema(graphql.SDL(f.Schema), opts...)
	case f.SchemaFile != "":
		path := f.SchemaFile
		if !filepath.IsAbs(path) && f.dir != "" {
			path = filepath.Join(f.dir, path)
		}
		return graphql.LoadSchema(graphql.File(path), opts...)
	default:
		return nil, ErrNoFixtureSchema
	}
}

// BuildMocks converts the fixture mocks. A "Type" key becomes a TypeMock and "Type.field"
// keys of one type are grouped into FieldMocks. A type cannot use both forms.
func (f *Fixtures) BuildMocks() (Mocks, error) {
	mocks := make(Mocks)
	fields := make(map[string]FieldMocks)

	for key, value := range f.Mocks {
		fp := graphql.ParseFieldPath(key)
		if fp.FieldName == "" {
			mocks[fp.TypeName] = staticTypeMock(value)
			continue
		}
		if fields[fp.TypeName] == nil {
			fields[fp.TypeName] = make(FieldMocks)
		}
		fields[fp.TypeName][fp.FieldName] = staticFieldMock(value)
	}

	for typeName, fm := range fields {
		if _, ok := mocks[typeName]; ok {
			return nil, fmt.Errorf("mocks: %q has both a type mock and field mocks", typeName)
		}
		mocks[typeName] = fm
	}

	return mocks, nil
}

func staticTypeMock(value interface{}) TypeMock {
	return func() any {
		return substitute(value, nil)
	}
}

func staticFieldMock(value interface{}) FieldMock {
	return func(args map[string]any) any {
		return substitute(value, args)
	}
}

// BuildResolvers converts the fixture resolvers into StaticResolvers.
func (f *Fixtures) BuildResolvers() (StaticResolvers, error) {
	resolvers := make(StaticResolvers)

	for key, list := range f.Resolvers {
		fp := graphql.ParseFieldPath(key)
		if fp.FieldName == "" {
			return nil, fmt.Errorf("resolvers: %q must be of the form Type.field", key)
		}
		if resolvers[fp.TypeName] == nil {
			resolvers[fp.TypeName] = make(map[string]graphql.FieldResolveFn)
		}
		compiled, err := list.compile()
		if err != nil {
			return nil, fmt.Errorf("resolvers: %q: %w", key, err)
		}
		resolvers[fp.TypeName][fp.FieldName] = compiled.resolver()
	}

	return resolvers, nil
}

// compiledList is a ResolverList with its match expressions compiled.
type compiledList struct {
	configs  ResolverList
	programs []*vm.Program
}

func (l ResolverList) compile() (*compiledList, error) {
	c := &compiledList{configs: l, programs: make([]*vm.Program, len(l))}
	for i := range l {
		program, err := l[i].Match.compile()
		if err != nil {
			return nil, fmt.Errorf("[%d]: invalid match expression: %w", i, err)
		}
		c.programs[i] = program
	}
	return c, nil
}

func (c *compiledList) resolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		cfg := c.find(p.Args, graphql.ContextValues(p.Context))
		if cfg == nil {
			return nil, nil
		}
		return cfg.resolve(p.Context, p.Args)
	}
}

// find returns the first config whose match conditions the arguments and
// context values satisfy.
func (c *compiledList) find(args, values map[string]interface{}) *ResolverConfig {
	for i := range c.configs {
		cfg := &c.configs[i]
		if cfg.Match == nil {
			return cfg
		}
		if !matchArgs(cfg.Match.Args, args) {
			continue
		}
		if c.programs[i] != nil && !matchExpr(c.programs[i], args, values) {
			continue
		}
		return cfg
	}
	return nil
}

// compile returns nil when the match has no expression.
func (m *ResolverMatch) compile() (*vm.Program, error) {
	if m == nil || m.Expr == "" {
		return nil, nil
	}
	return expr.Compile(m.Expr, expr.Env(matchEnv(nil, nil)), expr.AsBool())
}

func matchEnv(args, values map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"args":    args,
		"context": values,
	}
}

// matchExpr reports whether program evaluates to true. Evaluation errors do not match.
func matchExpr(program *vm.Program, args, values map[string]interface{}) bool {
	result, err := expr.Run(program, matchEnv(args, values))
	if err != nil {
		return false
	}
	ok, _ := result.(bool)
	return ok
}

func (c *ResolverConfig) resolve(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if c.Delay != "" {
		if delay, err := time.ParseDuration(c.Delay); err == nil {
			if ctx == nil {
				ctx = context.Background()
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if c.Error != nil {
		return nil, &FieldError{
			Message:    c.Error.Message,
			extensions: c.Error.Extensions,
		}
	}

	return substitute(c.Response, args), nil
}

// FieldError is a resolver error whose extensions appear in the GraphQL response.
type FieldError struct {
	Message    string
	extensions map[string]interface{}
}

func (e *FieldError) Error() string {
	return e.Message
}

// Extensions implements gqlerrors.ExtendedError.
func (e *FieldError) Extensions() map[string]interface{} {
	return e.extensions
}

// matchArgs checks if the resolver match conditions are satisfied by the arguments.
func matchArgs(expected, actual map[string]interface{}) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values for equality.
func valuesEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	// Compare formatted values so int matches int64 and float64.
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// templatePattern matches {{args.name}} and {{uuid}}.
var templatePattern = regexp.MustCompile(`\{\{\s*(?:args\.([a-zA-Z_][a-zA-Z0-9_]*)|(uuid))\s*\}\}`)

// substitute expands templates in every string of data. A string that is a single
// {{args.name}} template takes the argument's value with its original type.
func substitute(data interface{}, args map[string]interface{}) interface{} {
	switch v := data.(type) {
	case string:
		if !strings.Contains(v, "{{") {
			return v
		}
		if m := templatePattern.FindStringSubmatchIndex(v); m != nil && m[0] == 0 && m[1] == len(v) && m[2] >= 0 {
			if val, ok := args[v[m[2]:m[3]]]; ok {
				return val
			}
		}
		return templatePattern.ReplaceAllStringFunc(v, func(match string) string {
			parts := templatePattern.FindStringSubmatch(match)
			if parts[2] != "" {
				return uuid.NewString()
			}
			if val, ok := args[parts[1]]; ok {
				return fmt.Sprintf("%v", val)
			}
			return match
		})

	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			result[key] = substitute(val, args)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = substitute(val, args)
		}
		return result

	default:
		return data
	}
}
