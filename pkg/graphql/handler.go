package graphql

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/gqlfixtures/pkg/logging"
)

// MaxRequestBodySize is the maximum allowed request body size (1MB).
const MaxRequestBodySize = 1 << 20 // 1MB

// DefaultPath is the URL path a Handler serves when none is configured.
const DefaultPath = "/graphql"

// Handler serves GraphQL over HTTP using an Executor.
type Handler struct {
	executor *Executor
	path     string
	logger   *slog.Logger
	root     map[string]interface{}
	context  map[string]interface{}
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRoot sets the root value used for every request.
func WithRoot(root map[string]interface{}) HandlerOption {
	return func(h *Handler) {
		h.root = root
	}
}

// WithContext sets the context record exposed to resolvers for every request.
func WithContext(values map[string]interface{}) HandlerOption {
	return func(h *Handler) {
		h.context = values
	}
}

// WithLogger sets the logger requests are logged to.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a new GraphQL HTTP handler. An empty path means DefaultPath.
func NewHandler(executor *Executor, path string, opts ...HandlerOption) *Handler {
	if path == "" {
		path = DefaultPath
	}
	h := &Handler{
		executor: executor,
		path:     path,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Pattern returns the URL pattern this handler serves.
func (h *Handler) Pattern() string {
	return h.path
}

// ServeHTTP handles GET and POST GraphQL requests.
// POST accepts both application/json and application/graphql content types.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req *GraphQLRequest
	var err error
	if r.Method == http.MethodGet {
		req, err = h.parseGetRequest(r)
	} else {
		req, err = h.parsePostRequest(r)
	}
	if err != nil {
		h.logger.Debug("rejected graphql request", "method", r.Method, "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Root = h.root
	req.Context = h.context

	resp := h.executor.Execute(r.Context(), req)
	h.writeResponse(w, resp)

	h.logger.Debug("served graphql request",
		"method", r.Method,
		"operationType", detectOperationType(req.Query),
		"operationName", req.OperationName,
		"errors", len(resp.Errors),
		"duration", time.Since(startTime),
	)
}

// parseGetRequest parses a GraphQL request from GET query parameters.
func (h *Handler) parseGetRequest(r *http.Request) (*GraphQLRequest, error) {
	query := r.URL.Query()

	req := &GraphQLRequest{
		Query:         query.Get("query"),
		OperationName: query.Get("operationName"),
	}

	if varsStr := query.Get("variables"); varsStr != "" {
		var variables map[string]interface{}
		if err := json.Unmarshal([]byte(varsStr), &variables); err != nil {
			return nil, &requestError{message: "invalid variables JSON"}
		}
		req.Variables = variables
	}

	return req, nil
}

// parsePostRequest parses a GraphQL request from a POST body.
func (h *Handler) parsePostRequest(r *http.Request) (*GraphQLRequest, error) {
	contentType := r.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, &requestError{message: "failed to read request body"}
	}
	defer func() { _ = r.Body.Close() }()

	if len(body) == 0 {
		return nil, &requestError{message: "empty request body"}
	}

	if strings.HasPrefix(contentType, "application/graphql") {
		return &GraphQLRequest{Query: string(body)}, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &requestError{message: "invalid JSON request body"}
	}

	return &req, nil
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := &GraphQLResponse{
		Errors: []GraphQLError{{Message: message}},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *GraphQLResponse) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(resp); err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// detectOperationType detects the GraphQL operation type from a query string.
func detectOperationType(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))

	if strings.HasPrefix(query, "mutation") {
		return "mutation"
	}
	if strings.HasPrefix(query, "subscription") {
		return "subscription"
	}
	return "query"
}

// requestError represents a malformed HTTP request.
type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}
