package validate

import (
	"fmt"
	"testing"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
)

type fakeChecker struct{}

func (fakeChecker) CheckSyntax(s string) error {
	if s == "{{ .unterminated" {
		return fmt.Errorf("bad syntax")
	}
	return nil
}

func TestMissingRequiredAttribute(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "x", Type: specdef.Scalar{Type: specdef.ScalarString}, Required: true},
	}
	err := Attributes(map[string]scalar.Value{}, specs, nil)
	if err == nil {
		t.Fatal("expected error for missing required attribute")
	}
}

func TestOptionalAttributeAbsentOK(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "x", Type: specdef.Scalar{Type: specdef.ScalarString}, Required: false},
	}
	if err := Attributes(map[string]scalar.Value{}, specs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "x", Type: specdef.Scalar{Type: specdef.ScalarNumber}},
	}
	attrs := map[string]scalar.Value{"x": scalar.String("not a number")}
	if err := Attributes(attrs, specs, nil); err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestArrayElementValidation(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "xs", Type: specdef.ArrayOf{Elem: specdef.Scalar{Type: specdef.ScalarNumber}}},
	}
	good := map[string]scalar.Value{"xs": scalar.Array(scalar.Int(1), scalar.Int(2))}
	if err := Attributes(good, specs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := map[string]scalar.Value{"xs": scalar.Array(scalar.Int(1), scalar.String("oops"))}
	if err := Attributes(bad, specs, nil); err == nil {
		t.Fatal("expected error for bad array element")
	}
}

func TestObjectFieldValidation(t *testing.T) {
	fields := []specdef.FieldSpec{
		{Name: "a", Type: specdef.Scalar{Type: specdef.ScalarString}, Required: true},
		{Name: "b", Type: specdef.Scalar{Type: specdef.ScalarNumber}, Required: false},
	}
	specs := []specdef.AttributeSpec{
		{Name: "obj", Type: specdef.ObjectOf{Fields: fields}},
	}
	obj := scalar.NewObject()
	obj.Set("a", scalar.String("hi"))
	if err := Attributes(map[string]scalar.Value{"obj": scalar.ObjectValue(obj)}, specs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	missing := scalar.NewObject()
	if err := Attributes(map[string]scalar.Value{"obj": scalar.ObjectValue(missing)}, specs, nil); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestTabularRejectedAsAttributeValue(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "x", Type: specdef.Tabular{}},
	}
	attrs := map[string]scalar.Value{"x": scalar.String("anything")}
	if err := Attributes(attrs, specs, nil); err == nil {
		t.Fatal("expected error: tabular attribute rejected")
	}
}

func TestTemplateSyntaxCheckedForTemplateKinds(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "expr", Type: specdef.Scalar{Type: specdef.ScalarString}, Kind: specdef.StaticTeraTemplate},
	}
	bad := map[string]scalar.Value{"expr": scalar.String("{{ .unterminated")}
	if err := Attributes(bad, specs, fakeChecker{}); err == nil {
		t.Fatal("expected template syntax error")
	}
}

func TestStorePathSyntaxTightened(t *testing.T) {
	specs := []specdef.AttributeSpec{
		{Name: "source", Type: specdef.Scalar{Type: specdef.ScalarString}, Kind: specdef.StorePath},
	}
	bad := map[string]scalar.Value{"source": scalar.String("a..b")}
	if err := Attributes(bad, specs, nil); err == nil {
		t.Fatal("expected error for malformed store path")
	}
	good := map[string]scalar.Value{"source": scalar.String("a.b.c")}
	if err := Attributes(good, specs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
