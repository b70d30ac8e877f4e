package testing

import (
	"context"
	"fmt"
	stdtesting "testing"

	"github.com/getmockd/gqlfixtures/pkg/mock"
)

// recordingTB captures assertion failures instead of failing the test.
type recordingTB struct {
	stdtesting.TB
	errors []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recordingTB) failed() bool {
	return len(r.errors) > 0
}

func TestSpy_RecordsCalls(t *stdtesting.T) {
	spy := NewSpy(echoID)
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{
			"Query":    {"test": spy.Resolve},
			"Mutation": {"setName": spy.Resolve},
		},
	})

	spy.AssertNotCalled(t)

	srv.Query(context.Background(), `{ a: test(id: "1") { id } b: test(id: "2") { id } }`, nil)
	srv.Query(context.Background(), `mutation Rename { setName(id: "3", name: "x") { id } }`, nil)

	spy.AssertCalled(t)
	spy.AssertCalledTimes(t, 3)
	spy.AssertCalledWith(t, map[string]any{"id": "2"})
	spy.AssertCalledWith(t, map[string]any{"id": "3", "name": "x"})

	last, ok := spy.LastCall()
	if !ok {
		t.Fatal("LastCall() reported no calls")
	}
	if last.Operation != "mutation" || last.OperationName != "Rename" || last.FieldName != "setName" {
		t.Errorf("LastCall() = %+v", last)
	}

	calls := spy.Calls()
	if len(calls) != 3 {
		t.Fatalf("Calls() returned %d calls, want 3", len(calls))
	}
	if calls[0].Operation != "query" || calls[0].OperationName != "" {
		t.Errorf("first call operation = %q %q, want anonymous query", calls[0].Operation, calls[0].OperationName)
	}

	spy.Reset()
	spy.AssertNotCalled(t)
	if _, ok := spy.LastCall(); ok {
		t.Error("LastCall() after Reset reported a call")
	}
}

func TestSpy_NilFuncResolvesNull(t *stdtesting.T) {
	spy := NewSpy(nil)
	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"version": spy.Resolve}},
	})

	resp := srv.Query(context.Background(), `{ version }`, nil)
	AssertNoErrors(t, resp)
	spy.AssertCalledTimes(t, 1)
	if resp.Data["version"] != nil {
		t.Errorf("version = %v, want nil", resp.Data["version"])
	}
}

func TestSpy_AssertionFailures(t *stdtesting.T) {
	spy := NewSpy(nil)

	rec := &recordingTB{TB: t}
	spy.AssertCalled(rec)
	if !rec.failed() {
		t.Error("AssertCalled passed without calls")
	}

	srv := MustNew(t, loadSchema(t), Config{
		Resolvers: mock.StaticResolvers{"Query": {"test": spy.Resolve}},
	})
	srv.Query(context.Background(), `{ test(id: "1") { id } }`, nil)

	rec = &recordingTB{TB: t}
	spy.AssertNotCalled(rec)
	spy.AssertCalledTimes(rec, 2)
	spy.AssertCalledWith(rec, map[string]any{"id": "other"})
	if len(rec.errors) != 3 {
		t.Errorf("expected 3 failures, got %d: %v", len(rec.errors), rec.errors)
	}
}
