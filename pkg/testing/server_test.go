package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	stdtesting "testing"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
	"github.com/getmockd/gqlfixtures/pkg/mock"
)

const serverTestSchema = `
type Query {
	test(id: ID!): Test
	version: String
	whoami: String
}

type Mutation {
	setName(id: ID!, name: String!): Test
}

type Test {
	id: ID!
	name: String!
}
`

func loadSchema(t stdtesting.TB) *graphql.Schema {
	t.Helper()
	schema, err := graphql.LoadSchema(graphql.SDL(serverTestSchema))
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	return schema
}

func testField(t stdtesting.TB, resp *graphql.GraphQLResponse, field string) any {
	t.Helper()
	test, ok := resp.Data["test"].(map[string]interface{})
	if !ok {
		t.Fatalf("data.test is %T, want object (errors: %v)", resp.Data["test"], resp.Errors)
	}
	return test[field]
}

func echoID(p graphql.ResolveParams) (interface{}, error) {
	return map[string]interface{}{"id": p.Args["id"]}, nil
}

func TestNew_DefaultMocks(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{})

	resp := srv.Query(context.Background(), `{ test(id: "x") { id name } }`, nil)
	AssertNoErrors(t, resp)

	id, ok := testField(t, resp, "id").(string)
	if !ok || id == "" {
		t.Errorf("expected generated string id, got %v", testField(t, resp, "id"))
	}
	if got := testField(t, resp, "name"); got != mock.DefaultString {
		t.Errorf("name = %v, want %q", got, mock.DefaultString)
	}
}

func TestNew_TypeMock(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Mocks: mock.Mocks{
			"ID": mock.TypeMock(func() any { return "123" }),
		},
	})

	resp := srv.Query(context.Background(), `{ test(id: "x") { id } }`, nil)
	AssertNoErrors(t, resp)
	AssertPath(t, resp, "$.test.id", "123")
}

func TestNew_ResolverOverridesMocks(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Mocks: mock.Mocks{
			"ID": mock.TypeMock(func() any { return "123" }),
		},
		Resolvers: mock.StaticResolvers{
			"Query": {"test": echoID},
		},
	})

	resp := srv.Query(context.Background(), `{ test(id: "abc") { id } }`, nil)
	AssertNoErrors(t, resp)
	AssertPath(t, resp, "$.test.id", "abc")
}

func TestNew_ResolverAndMockCompose(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Mocks: mock.Mocks{
			"ID": mock.TypeMock(func() any { return "456" }),
		},
		Resolvers: mock.StaticResolvers{
			"Query": {
				"test": func(graphql.ResolveParams) (interface{}, error) {
					return map[string]interface{}{"name": "from resolver"}, nil
				},
			},
		},
	})

	resp := srv.Query(context.Background(), `{ test(id: "abc") { id name } }`, nil)
	AssertNoErrors(t, resp)
	AssertData(t, resp, `{"test": {"id": "456", "name": "from resolver"}}`)
}

func TestNew_VariablesPassThrough(t *stdtesting.T) {
	spy := NewSpy(echoID)
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"test": spy.Resolve}},
	})

	resp := srv.Query(context.Background(),
		`query Lookup($id: ID!) { test(id: $id) { id } }`,
		map[string]any{"id": "var-1"},
	)
	AssertNoErrors(t, resp)
	AssertPath(t, resp, "$.test.id", "var-1")

	spy.AssertCalledTimes(t, 1)
	spy.AssertCalledWith(t, map[string]any{"id": "var-1"})
}

func TestNew_ExposesConfiguration(t *stdtesting.T) {
	store := mock.NewMemoryStore()
	mocks := mock.Mocks{"ID": mock.TypeMock(func() any { return "1" })}
	resolvers := mock.StaticResolvers{"Query": {"test": echoID}}

	srv := MustNew(t, loadSchema(t), Config{
		Store:     store,
		Mocks:     mocks,
		Resolvers: resolvers,
	})

	if srv.Store != mock.Store(store) {
		t.Error("Store is not the configured store")
	}
	if reflect.ValueOf(srv.Mocks).Pointer() != reflect.ValueOf(mocks).Pointer() {
		t.Error("Mocks is not the configured map")
	}
	if reflect.ValueOf(srv.Resolvers).Pointer() != reflect.ValueOf(resolvers).Pointer() {
		t.Error("Resolvers is not the configured map")
	}
}

func TestNew_ConfigDefaults(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{})

	if srv.Store != nil {
		t.Errorf("Store = %v, want nil", srv.Store)
	}
	if srv.Mocks == nil || len(srv.Mocks) != 0 {
		t.Errorf("Mocks = %v, want empty map", srv.Mocks)
	}
	static, ok := srv.Resolvers.(mock.StaticResolvers)
	if !ok || static == nil || len(static) != 0 {
		t.Errorf("Resolvers = %#v, want empty StaticResolvers", srv.Resolvers)
	}
	if srv.Schema() == nil {
		t.Error("Schema() returned nil")
	}
}

func TestNew_RootAndContext(t *stdtesting.T) {
	spy := NewSpy(func(p graphql.ResolveParams) (interface{}, error) {
		return graphql.ContextValues(p.Context)["user"], nil
	})
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"whoami": spy.Resolve}},
		Context:   map[string]any{"user": "admin"},
		Root:      map[string]any{"version": "root"},
	})

	resp := srv.Query(context.Background(), `query Who { version whoami }`, nil)
	AssertNoErrors(t, resp)
	AssertData(t, resp, map[string]any{"version": "root", "whoami": "admin"})

	call, ok := spy.LastCall()
	if !ok {
		t.Fatal("resolver was not called")
	}
	if root, _ := call.Source.(map[string]interface{}); root["version"] != "root" {
		t.Errorf("Source = %v, want root value", call.Source)
	}
	if call.Context["user"] != "admin" {
		t.Errorf("Context = %v, want user=admin", call.Context)
	}
	if call.ParentType != "Query" || call.FieldName != "whoami" {
		t.Errorf("field = %s.%s, want Query.whoami", call.ParentType, call.FieldName)
	}
	if call.Operation != "query" || call.OperationName != "Who" {
		t.Errorf("operation = %s %s, want query Who", call.Operation, call.OperationName)
	}
}

func TestDo_RequestOverridesRoot(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Root: map[string]any{"version": "configured"},
	})

	resp := srv.Do(context.Background(), &graphql.GraphQLRequest{
		Query: `{ version }`,
		Root:  map[string]interface{}{"version": "per request"},
	})
	AssertPath(t, resp, "$.version", "per request")

	resp = srv.Do(context.Background(), &graphql.GraphQLRequest{Query: `{ version }`})
	AssertPath(t, resp, "$.version", "configured")
}

func TestDo_OperationName(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Root: map[string]any{"version": "v", "whoami": "me"},
	})

	resp := srv.Do(context.Background(), &graphql.GraphQLRequest{
		Query:         `query A { version } query B { whoami }`,
		OperationName: "B",
	})
	AssertNoErrors(t, resp)
	AssertData(t, resp, `{"whoami": "me"}`)
}

func TestQuery_Errors(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{
			"Query": {
				"version": func(graphql.ResolveParams) (interface{}, error) {
					return nil, errors.New("version unavailable")
				},
			},
		},
	})

	resp := srv.Query(context.Background(), `{ missing }`, nil)
	AssertHasErrors(t, resp)

	resp = srv.Query(context.Background(), `{ version`, nil)
	AssertHasErrors(t, resp)

	resp = srv.Query(context.Background(), `{ version }`, nil)
	AssertErrorContains(t, resp, "version unavailable")

	resp = srv.Query(context.Background(), "", nil)
	AssertErrorContains(t, resp, "query is required")
}

func TestNew_InvalidConfiguration(t *stdtesting.T) {
	_, err := New(loadSchema(t), Config{
		Mocks: mock.Mocks{"Missing": mock.TypeMock(func() any { return nil })},
	})
	if !errors.Is(err, mock.ErrUnknownType) {
		t.Errorf("New() error = %v, want ErrUnknownType", err)
	}

	_, err = New(nil, Config{})
	if err == nil {
		t.Error("New(nil) expected error")
	}
}

func TestNew_Seed(t *stdtesting.T) {
	seed := uint64(11)
	schema := loadSchema(t)
	q := `{ test(id: "1") { id name } version }`

	a := MustNew(t, schema, Config{Seed: &seed}).Query(context.Background(), q, nil)
	b := MustNew(t, schema, Config{Seed: &seed}).Query(context.Background(), q, nil)

	AssertNoErrors(t, a)
	AssertData(t, b, a.Data)
}

func TestQuery_ConcurrentVariablesDoNotLeak(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"test": echoID}},
	})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("id-%d", i)
			resp := srv.Query(context.Background(),
				`query($id: ID!) { test(id: $id) { id } }`,
				map[string]any{"id": want},
			)
			test, _ := resp.Data["test"].(map[string]interface{})
			if got := test["id"]; got != want {
				errs <- fmt.Errorf("query %d: id = %v, want %s", i, got, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestQueryAll(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"test": echoID}},
	})

	reqs := make([]*graphql.GraphQLRequest, 10)
	for i := range reqs {
		reqs[i] = &graphql.GraphQLRequest{
			Query:     `query($id: ID!) { test(id: $id) { id } }`,
			Variables: map[string]interface{}{"id": fmt.Sprint(i)},
		}
	}

	responses, err := srv.QueryAll(context.Background(), reqs)
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(responses) != len(reqs) {
		t.Fatalf("got %d responses, want %d", len(responses), len(reqs))
	}
	for i, resp := range responses {
		AssertNoErrors(t, resp)
		AssertPath(t, resp, "$.test.id", fmt.Sprint(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := srv.QueryAll(ctx, reqs); !errors.Is(err, context.Canceled) {
		t.Errorf("QueryAll() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestStartAndStop(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Mocks: mock.Mocks{"ID": mock.TypeMock(func() any { return "http-id" })},
	})

	if srv.URL() != "" {
		t.Errorf("URL() before Start = %q, want empty", srv.URL())
	}

	url := srv.Start(t)
	if !strings.HasPrefix(url, "http://") || !strings.HasSuffix(url, graphql.DefaultPath) {
		t.Fatalf("Start() returned %q", url)
	}
	if srv.Start(t) != url {
		t.Error("second Start() returned a different URL")
	}
	if srv.URL() != url {
		t.Errorf("URL() = %q, want %q", srv.URL(), url)
	}

	body, _ := json.Marshal(map[string]string{"query": `{ test(id: "1") { id } }`})
	resp, err := srv.Client().Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var gqlResp graphql.GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	AssertNoErrors(t, &gqlResp)
	AssertPath(t, &gqlResp, "$.test.id", "http-id")

	srv.Stop()
	srv.Stop()
	if _, err := http.Post(url, "application/json", bytes.NewReader(body)); err == nil {
		t.Error("expected request to stopped server to fail")
	}
}

func TestHandler(t *stdtesting.T) {
	srv := MustNew(t, loadSchema(t), Config{
		Root: map[string]any{"version": "handler"},
	})

	h := srv.Handler()
	if h.Pattern() != graphql.DefaultPath {
		t.Errorf("Pattern() = %q, want %q", h.Pattern(), graphql.DefaultPath)
	}
}
