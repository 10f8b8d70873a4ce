package command

import (
	"fmt"
	"testing"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
)

type fakeDescriptor struct{}

func (fakeDescriptor) CommandType() string { return "fake" }
func (fakeDescriptor) CommandAttributes() []specdef.AttributeSpec {
	return []specdef.AttributeSpec{
		{Name: "msg", Type: specdef.Scalar{Type: specdef.ScalarString}, Required: true},
	}
}
func (fakeDescriptor) CommandResults() []specdef.ResultSpec {
	return []specdef.ResultSpec{
		specdef.FieldResult{Name: "echo", Type: specdef.Scalar{Type: specdef.ScalarString}, Kind: specdef.Data},
	}
}

type recordingExecutable struct {
	called bool
	fail   error
}

func (r *recordingExecutable) Execute(ctx *store.ExecutionContext, outputPrefix storepath.Path) error {
	r.called = true
	if r.fail != nil {
		return r.fail
	}
	return ctx.Scalars.Insert(outputPrefix.Append("echo"), scalar.String("ok"))
}

func newTestContext() *store.ExecutionContext {
	return store.NewExecutionContext(store.NewGoTemplateRenderer())
}

func TestAvailableAttributesLayersWhen(t *testing.T) {
	attrs := AvailableAttributes(fakeDescriptor{})
	found := false
	for _, a := range attrs {
		if a.Name == WhenAttributeName {
			found = true
		}
	}
	if !found {
		t.Fatal("expected when attribute to be layered in")
	}
	if len(attrs) != 2 {
		t.Errorf("expected 2 attributes (own + when), got %d", len(attrs))
	}
}

func TestAvailableResultsLayersCommon(t *testing.T) {
	results := AvailableResults(fakeDescriptor{})
	if len(results) != 3 {
		t.Errorf("expected 3 results (own + duration_ms + status), got %d", len(results))
	}
}

func TestFactoryValidatesOwnAttributes(t *testing.T) {
	inner := &recordingExecutable{}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	_, err := factory(map[string]scalar.Value{})
	if err == nil {
		t.Fatal("expected validation error for missing required attribute")
	}
}

func TestWrapperRunsInnerAndRecordsSuccess(t *testing.T) {
	inner := &recordingExecutable{}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	exec, err := factory(map[string]scalar.Value{"msg": scalar.String("hi")})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := newTestContext()
	prefix := storepath.MustNew("ns", "cmd")
	if err := exec.Execute(ctx, prefix); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !inner.called {
		t.Error("expected inner command to be called")
	}
	status, _ := ctx.Scalars.Get(prefix.Append(StatusResultName))
	s, _ := status.AsString()
	if s != string(StatusSuccess) {
		t.Errorf("expected status %q, got %q", StatusSuccess, s)
	}
	if _, ok := ctx.Scalars.Get(prefix.Append(DurationResultName)); !ok {
		t.Error("expected duration_ms to be written")
	}
}

func TestWrapperSkipsWhenGuardFalsy(t *testing.T) {
	inner := &recordingExecutable{}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	exec, err := factory(map[string]scalar.Value{"msg": scalar.String("hi"), "when": scalar.String("false")})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := newTestContext()
	prefix := storepath.MustNew("ns", "cmd")
	if err := exec.Execute(ctx, prefix); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if inner.called {
		t.Error("expected inner command not to be called when when-guard is falsy")
	}
	status, _ := ctx.Scalars.Get(prefix.Append(StatusResultName))
	s, _ := status.AsString()
	if s != string(StatusSkipped) {
		t.Errorf("expected status %q, got %q", StatusSkipped, s)
	}
	if _, ok := ctx.Scalars.Get(prefix.Append(DurationResultName)); !ok {
		t.Error("expected duration_ms to be written even when skipped")
	}
}

func TestWrapperRunsWhenGuardTruthy(t *testing.T) {
	inner := &recordingExecutable{}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	exec, err := factory(map[string]scalar.Value{"msg": scalar.String("hi"), "when": scalar.String("true")})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := newTestContext()
	prefix := storepath.MustNew("ns", "cmd")
	if err := exec.Execute(ctx, prefix); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !inner.called {
		t.Error("expected inner command to be called when when-guard is truthy")
	}
}

func TestWrapperRecordsErrorStatusAndPropagates(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	inner := &recordingExecutable{fail: wantErr}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	exec, err := factory(map[string]scalar.Value{"msg": scalar.String("hi")})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := newTestContext()
	prefix := storepath.MustNew("ns", "cmd")
	err = exec.Execute(ctx, prefix)
	if err == nil {
		t.Fatal("expected inner error to propagate")
	}
	status, _ := ctx.Scalars.Get(prefix.Append(StatusResultName))
	s, _ := status.AsString()
	if s != string(StatusError) {
		t.Errorf("expected status %q, got %q", StatusError, s)
	}
	if _, ok := ctx.Scalars.Get(prefix.Append(DurationResultName)); !ok {
		t.Error("expected duration_ms to be written even on error")
	}
}

func TestWrapperPropagatesWhenGuardRenderError(t *testing.T) {
	inner := &recordingExecutable{}
	factory := NewFactory(fakeDescriptor{}.CommandAttributes(), nil, func(attrs map[string]scalar.Value) (Executable, error) {
		return inner, nil
	})
	exec, err := factory(map[string]scalar.Value{"msg": scalar.String("hi"), "when": scalar.String("range $x")})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	ctx := newTestContext()
	prefix := storepath.MustNew("ns", "cmd")
	err = exec.Execute(ctx, prefix)
	if err == nil {
		t.Fatal("expected render error to propagate")
	}
	if inner.called {
		t.Error("expected inner not to be called when when-guard fails to render")
	}
	status, _ := ctx.Scalars.Get(prefix.Append(StatusResultName))
	s, _ := status.AsString()
	if s != string(StatusError) {
		t.Errorf("expected status %q, got %q", StatusError, s)
	}
}
