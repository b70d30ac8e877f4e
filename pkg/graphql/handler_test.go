package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

const handlerTestSchema = `
type Query {
	user(id: ID!): User
	users: [User!]!
	whoami: String
	version: String
}

type Mutation {
	createUser(name: String!, email: String!): User
}

type User {
	id: ID!
	name: String!
	email: String!
}
`

func handlerResolvers() ResolverMap {
	return ResolverMap{
		"Query": {
			"user": func(p ResolveParams) (interface{}, error) {
				return map[string]interface{}{"id": p.Args["id"], "name": "Test User", "email": "test@example.com"}, nil
			},
			"users": func(p ResolveParams) (interface{}, error) {
				return []interface{}{
					map[string]interface{}{"id": "1", "name": "User 1", "email": "user1@example.com"},
					map[string]interface{}{"id": "2", "name": "User 2", "email": "user2@example.com"},
				}, nil
			},
			"whoami": func(p ResolveParams) (interface{}, error) {
				return ContextValues(p.Context)["user"], nil
			},
		},
		"Mutation": {
			"createUser": func(p ResolveParams) (interface{}, error) {
				return map[string]interface{}{"id": "new-123", "name": p.Args["name"], "email": p.Args["email"]}, nil
			},
		},
	}
}

func newTestHandler(t *testing.T, opts ...HandlerOption) *Handler {
	t.Helper()
	schema, err := LoadSchema(SDL(handlerTestSchema), WithResolvers(handlerResolvers()))
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	return NewHandler(NewExecutor(schema, nil), "", opts...)
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, GraphQLResponse) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp GraphQLResponse
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return rr, resp
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandler_ServeHTTP_POST_JSON(t *testing.T) {
	rr, resp := serve(t, newTestHandler(t), postJSON(`{"query": "query { user(id: \"1\") { id name } }"}`))

	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if contentType := rr.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("handler returned wrong content type: got %v want application/json", contentType)
	}
	if len(resp.Errors) > 0 {
		t.Errorf("response contained errors: %v", resp.Errors)
	}

	user, ok := resp.Data["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("user is not a map, got %T", resp.Data["user"])
	}
	if user["id"] != "1" {
		t.Errorf("user.id = %v, want '1'", user["id"])
	}
}

func TestHandler_ServeHTTP_POST_GraphQL(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`query { user(id: "1") { id name } }`))
	req.Header.Set("Content-Type", "application/graphql")

	rr, resp := serve(t, newTestHandler(t), req)
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if len(resp.Errors) > 0 {
		t.Errorf("response contained errors: %v", resp.Errors)
	}
}

func TestHandler_ServeHTTP_GET(t *testing.T) {
	query := url.QueryEscape(`query{users{id}}`)
	req := httptest.NewRequest(http.MethodGet, "/graphql?query="+query, nil)

	rr, resp := serve(t, newTestHandler(t), req)
	if rr.Code != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if users, _ := resp.Data["users"].([]interface{}); len(users) != 2 {
		t.Errorf("users = %v, want 2 items", resp.Data["users"])
	}
}

func TestHandler_ServeHTTP_GET_WithVariables(t *testing.T) {
	params := url.Values{}
	params.Set("query", `query($id: ID!){user(id:$id){id}}`)
	params.Set("variables", `{"id": "42"}`)
	req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)

	_, resp := serve(t, newTestHandler(t), req)
	user, _ := resp.Data["user"].(map[string]interface{})
	if user["id"] != "42" {
		t.Errorf("user.id = %v, want '42'", user["id"])
	}
}

func TestHandler_ServeHTTP_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantError  string
	}{
		{
			name:       "method not allowed",
			req:        httptest.NewRequest(http.MethodPut, "/graphql", strings.NewReader(`{}`)),
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "method not allowed",
		},
		{
			name:       "empty body",
			req:        postJSON(""),
			wantStatus: http.StatusBadRequest,
			wantError:  "empty request body",
		},
		{
			name:       "invalid JSON",
			req:        postJSON("{not json"),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON request body",
		},
		{
			name:       "invalid GET variables",
			req:        httptest.NewRequest(http.MethodGet, "/graphql?query=%7Busers%7Bid%7D%7D&variables=nope", nil),
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid variables JSON",
		},
	}

	handler := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := serve(t, handler, tt.req)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if len(resp.Errors) != 1 || resp.Errors[0].Message != tt.wantError {
				t.Errorf("errors = %v, want %q", resp.Errors, tt.wantError)
			}
		})
	}
}

func TestHandler_ServeHTTP_OPTIONS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	rr, _ := serve(t, newTestHandler(t), req)
	if rr.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHandler_ServeHTTP_QueryErrorsAreOK(t *testing.T) {
	rr, resp := serve(t, newTestHandler(t), postJSON(`{"query": "{ nonexistent }"}`))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if len(resp.Errors) == 0 {
		t.Error("expected GraphQL errors for an unknown field")
	}
}

func TestHandler_ServeHTTP_WithOperationName(t *testing.T) {
	body := `{
		"query": "query A { users { id } } query B { user(id: \"b\") { id } }",
		"operationName": "B"
	}`
	_, resp := serve(t, newTestHandler(t), postJSON(body))

	if len(resp.Errors) > 0 {
		t.Fatalf("response contained errors: %v", resp.Errors)
	}
	if _, ok := resp.Data["users"]; ok {
		t.Error("operation A was executed")
	}
	if user, _ := resp.Data["user"].(map[string]interface{}); user["id"] != "b" {
		t.Errorf("user = %v, want id b", resp.Data["user"])
	}
}

func TestHandler_ServeHTTP_Mutation(t *testing.T) {
	body := `{
		"query": "mutation($name: String!) { createUser(name: $name, email: \"a@b.c\") { id name email } }",
		"variables": {"name": "Ada"}
	}`
	_, resp := serve(t, newTestHandler(t), postJSON(body))

	user, ok := resp.Data["createUser"].(map[string]interface{})
	if !ok {
		t.Fatalf("createUser = %v, errors = %v", resp.Data["createUser"], resp.Errors)
	}
	if user["name"] != "Ada" || user["email"] != "a@b.c" {
		t.Errorf("createUser = %v", user)
	}
}

func TestHandler_ServeHTTP_Introspection(t *testing.T) {
	_, resp := serve(t, newTestHandler(t), postJSON(`{"query": "{ __schema { types { name } } }"}`))

	schema, ok := resp.Data["__schema"].(map[string]interface{})
	if !ok {
		t.Fatalf("__schema = %v, errors = %v", resp.Data["__schema"], resp.Errors)
	}
	found := false
	for _, typ := range schema["types"].([]interface{}) {
		if typ.(map[string]interface{})["name"] == "User" {
			found = true
		}
	}
	if !found {
		t.Error("introspection did not list the User type")
	}
}

func TestHandler_RootAndContextOptions(t *testing.T) {
	handler := newTestHandler(t,
		WithRoot(map[string]interface{}{"version": "2.0"}),
		WithContext(map[string]interface{}{"user": "ada"}),
		WithLogger(nil),
	)

	_, resp := serve(t, handler, postJSON(`{"query": "{ version whoami }"}`))
	if resp.Data["version"] != "2.0" {
		t.Errorf("version = %v, want root value", resp.Data["version"])
	}
	if resp.Data["whoami"] != "ada" {
		t.Errorf("whoami = %v, want context value", resp.Data["whoami"])
	}
}

func TestNewHandler(t *testing.T) {
	if got := newTestHandler(t).Pattern(); got != DefaultPath {
		t.Errorf("Pattern() = %q, want %q", got, DefaultPath)
	}

	schema, err := LoadSchema(SDL(handlerTestSchema))
	if err != nil {
		t.Fatalf("LoadSchema() error = %v", err)
	}
	handler := NewHandler(NewExecutor(schema, nil), "/api/graphql")
	if handler.Pattern() != "/api/graphql" {
		t.Errorf("Pattern() = %q, want /api/graphql", handler.Pattern())
	}

	mux := http.NewServeMux()
	mux.Handle(handler.Pattern(), handler)
	rr, resp := serve(t, mux, httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(`{"query":"{ version }"}`)))
	if rr.Code != http.StatusOK || resp.HasErrors() {
		t.Errorf("mux request status = %d, errors = %v", rr.Code, resp.Errors)
	}
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"{ users { id } }":          "query",
		"query Q { users { id } }":  "query",
		"  mutation { x }":          "mutation",
		"Subscription S { events }": "subscription",
	}
	for query, want := range tests {
		if got := detectOperationType(query); got != want {
			t.Errorf("detectOperationType(%q) = %q, want %q", query, got, want)
		}
	}
}
