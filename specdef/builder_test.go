package specdef

import "testing"

func TestLiteralFieldRefEnablesDerivedResult(t *testing.T) {
	fields, nameTok := NewObjectFields().AddLiteral("name", Scalar{Type: ScalarString}, true, "")
	fields = fields.AddTemplate("op", Scalar{Type: ScalarString}, true, "", StaticTeraTemplate)

	schema, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "aggregations", Type: ArrayOf{Elem: fields.Build()}, Required: true, Kind: Unsupported}).
		DerivedResult("aggregations", nameTok, Scalar{Type: ScalarNumber}, Data).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(schema.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(schema.Results))
	}
}

func TestDerivedResultRejectsNonExistentAttribute(t *testing.T) {
	_, nameTok := NewObjectFields().AddLiteral("name", Scalar{Type: ScalarString}, true, "")
	_, err := NewCommandSchema().
		DerivedResult("missing", nameTok, Scalar{Type: ScalarNumber}, Data).
		Build()
	if err == nil {
		t.Fatal("expected error for missing attribute")
	}
}

func TestDerivedResultRejectsNonArrayOfObjectAttribute(t *testing.T) {
	_, nameTok := NewObjectFields().AddLiteral("name", Scalar{Type: ScalarString}, true, "")
	_, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "x", Type: Scalar{Type: ScalarString}, Kind: Unsupported}).
		DerivedResult("x", nameTok, Scalar{Type: ScalarNumber}, Data).
		Build()
	if err == nil {
		t.Fatal("expected error: x is not ArrayOf(ObjectOf)")
	}
}

func TestDerivedResultRejectsNameFieldNotInAttributeFields(t *testing.T) {
	fields, _ := NewObjectFields().AddLiteral("name", Scalar{Type: ScalarString}, true, "")
	otherFields, otherTok := NewObjectFields().AddLiteral("other_name", Scalar{Type: ScalarString}, true, "")
	_ = otherFields
	_, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "aggregations", Type: ArrayOf{Elem: fields.Build()}, Kind: Unsupported}).
		DerivedResult("aggregations", otherTok, Scalar{Type: ScalarNumber}, Data).
		Build()
	if err == nil {
		t.Fatal("expected error: name_field not present on attribute's fields")
	}
}

func TestNamePolicyRejectsReservedAndInvalidChars(t *testing.T) {
	for _, bad := range []string{"item", "index", "has space", "has.dot", "has-dash", ""} {
		if err := ValidateName(bad); err == nil {
			t.Errorf("ValidateName(%q) expected error", bad)
		}
	}
	for _, good := range []string{"a", "valid_name_1", "CamelCase"} {
		if err := ValidateName(good); err != nil {
			t.Errorf("ValidateName(%q) unexpected error: %v", good, err)
		}
	}
}

func TestAttributeNamePolicyEnforcedAtBuild(t *testing.T) {
	_, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "item", Type: Scalar{Type: ScalarString}, Kind: Unsupported}).
		Build()
	if err == nil {
		t.Fatal("expected error for reserved attribute name")
	}
}

func TestNestedObjectFieldNamePolicyEnforced(t *testing.T) {
	fields := NewObjectFields().AddTemplate("bad name", Scalar{Type: ScalarString}, true, "", Unsupported)
	_, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "x", Type: fields.Build(), Kind: Unsupported}).
		Build()
	if err == nil {
		t.Fatal("expected error for nested field name violation")
	}
}

func TestTabularRejectedAsScalarAttribute(t *testing.T) {
	_, err := NewCommandSchema().
		Attribute(AttributeSpec{Name: "x", Type: Tabular{}, Kind: Unsupported}).
		Build()
	if err == nil {
		t.Fatal("expected error: tabular not valid as scalar attribute")
	}
}
