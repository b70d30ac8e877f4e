package testing

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"github.com/graphql-go/graphql/language/ast"

	"github.com/getmockd/gqlfixtures/pkg/graphql"
)

// Call records one resolver invocation.
type Call struct {
	// Source is the parent value.
	Source any
	// Args are the field arguments.
	Args map[string]any
	// Context is the context record of the query.
	Context map[string]any
	// ParentType and FieldName identify the resolved field.
	ParentType string
	FieldName  string
	// Operation is "query", "mutation" or "subscription".
	Operation string
	// OperationName is the name of the executed operation, if any.
	OperationName string
}

// Spy is a resolver that records its calls and delegates to an optional function.
// Install Spy.Resolve in Config.Resolvers.
type Spy struct {
	fn    graphql.FieldResolveFn
	mu    sync.Mutex
	calls []Call
}

// NewSpy creates a spy delegating to fn. With a nil fn the field resolves to null.
func NewSpy(fn graphql.FieldResolveFn) *Spy {
	return &Spy{fn: fn}
}

// Resolve is a graphql.FieldResolveFn.
func (s *Spy) Resolve(p graphql.ResolveParams) (interface{}, error) {
	call := Call{
		Source:    p.Source,
		Args:      p.Args,
		Context:   graphql.ContextValues(p.Context),
		FieldName: p.Info.FieldName,
	}
	if p.Info.ParentType != nil {
		call.ParentType = p.Info.ParentType.Name()
	}
	if op, ok := p.Info.Operation.(*ast.OperationDefinition); ok {
		call.Operation = op.Operation
		if op.Name != nil {
			call.OperationName = op.Name.Value
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	if s.fn == nil {
		return nil, nil
	}
	return s.fn(p)
}

// Calls returns the recorded calls in order.
func (s *Spy) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns the number of recorded calls.
func (s *Spy) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastCall returns the most recent call.
func (s *Spy) LastCall() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// Reset forgets all recorded calls.
func (s *Spy) Reset() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// AssertCalled asserts that the resolver was called at least once.
func (s *Spy) AssertCalled(t testing.TB) {
	t.Helper()

	if s.CallCount() == 0 {
		t.Errorf("expected resolver to be called, but it was not called")
	}
}

// AssertCalledTimes asserts that the resolver was called exactly n times.
func (s *Spy) AssertCalledTimes(t testing.TB, times int) {
	t.Helper()

	if count := s.CallCount(); count != times {
		t.Errorf("expected resolver to be called %d times, but was called %d times", times, count)
	}
}

// AssertNotCalled asserts that the resolver was not called.
func (s *Spy) AssertNotCalled(t testing.TB) {
	t.Helper()

	if count := s.CallCount(); count > 0 {
		t.Errorf("expected resolver to not be called, but it was called %d times", count)
	}
}

// AssertCalledWith asserts that at least one call received args. Values are compared
// after JSON normalisation, so 1 matches 1.0.
func (s *Spy) AssertCalledWith(t testing.TB, args map[string]any) {
	t.Helper()

	want, err := normalizeValue(args)
	if err != nil {
		t.Errorf("failed to normalize expected args: %v", err)
		return
	}

	calls := s.Calls()
	for _, call := range calls {
		got, err := normalizeValue(call.Args)
		if err == nil && reflect.DeepEqual(got, want) {
			return
		}
	}

	expected, _ := json.Marshal(want)
	t.Errorf("expected resolver to be called with %s, but it was called %d times with other arguments",
		expected, len(calls))
}
