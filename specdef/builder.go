package specdef

import "fmt"

// ObjectFields is the type-stated builder for an ObjectOf's field list.
// AddLiteral is the only producer of a LiteralFieldRef; AddTemplate
// returns no token. A command schema that wants to derive result names
// from a field must therefore have declared that field via AddLiteral.
type ObjectFields struct {
	fields []FieldSpec
}

// NewObjectFields starts an empty field-list builder.
func NewObjectFields() *ObjectFields {
	return &ObjectFields{}
}

// AddLiteral declares a field whose ReferenceKind is Unsupported (a
// literal, never template-evaluated) and returns a LiteralFieldRef
// token proving it, for use with CommandSchemaBuilder.DerivedResult.
func (b *ObjectFields) AddLiteral(name string, ty TypeDef, required bool, hint string) (*ObjectFields, LiteralFieldRef) {
	b.fields = append(b.fields, FieldSpec{
		Name:     name,
		Type:     ty,
		Required: required,
		Hint:     hint,
		Kind:     Unsupported,
	})
	return b, LiteralFieldRef{name: name}
}

// AddTemplate declares a field with an explicit ReferenceKind (one of
// the template kinds, or StorePath). No token is returned: a template
// field can never source a DerivedResult's names.
func (b *ObjectFields) AddTemplate(name string, ty TypeDef, required bool, hint string, kind ReferenceKind) *ObjectFields {
	b.fields = append(b.fields, FieldSpec{
		Name:     name,
		Type:     ty,
		Required: required,
		Hint:     hint,
		Kind:     kind,
	})
	return b
}

// Build finalizes the field list into an ObjectOf.
func (b *ObjectFields) Build() ObjectOf {
	out := make([]FieldSpec, len(b.fields))
	copy(out, b.fields)
	return ObjectOf{Fields: out}
}

// CommandSchema is the flattened attribute/result schema of a command
// type, as produced by CommandSchemaBuilder.Build.
type CommandSchema struct {
	Attributes []AttributeSpec
	Results    []ResultSpec
}

// CommandSchemaBuilder accumulates a command type's attribute and
// result declarations and validates them at Build time (§4.1): name
// policy, and every DerivedResult's attribute/name_field coherence.
type CommandSchemaBuilder struct {
	attrs   []AttributeSpec
	results []ResultSpec
}

// NewCommandSchema starts an empty command schema builder.
func NewCommandSchema() *CommandSchemaBuilder {
	return &CommandSchemaBuilder{}
}

// Attribute declares a top-level attribute.
func (b *CommandSchemaBuilder) Attribute(spec AttributeSpec) *CommandSchemaBuilder {
	b.attrs = append(b.attrs, spec)
	return b
}

// Result declares a fixed-name result field.
func (b *CommandSchemaBuilder) Result(spec FieldResult) *CommandSchemaBuilder {
	b.results = append(b.results, spec)
	return b
}

// DerivedResult declares a result whose field names are sourced from
// nameField (a LiteralFieldRef obtained from ObjectFields.AddLiteral)
// of the named attribute, which must be an ArrayOf(ObjectOf).
func (b *CommandSchemaBuilder) DerivedResult(attribute string, nameField LiteralFieldRef, ty TypeDef, kind ResultKind) *CommandSchemaBuilder {
	b.results = append(b.results, DerivedResult{
		Attribute: attribute,
		NameField: nameField,
		Type:      ty,
		Kind:      kind,
	})
	return b
}

// Build validates and returns the finished CommandSchema. Violations
// (name policy, a DerivedResult pointing at a non-existent or
// non-ArrayOf(ObjectOf) attribute, a name_field absent from that
// attribute's fields, or a zero-value LiteralFieldRef meaning the
// caller built a DerivedResult by hand) abort construction with a
// plain error describing the violation.
func (b *CommandSchemaBuilder) Build() (CommandSchema, error) {
	attrByName := make(map[string]AttributeSpec, len(b.attrs))
	for _, a := range b.attrs {
		if err := ValidateName(a.Name); err != nil {
			return CommandSchema{}, fmt.Errorf("attribute: %w", err)
		}
		if err := validateTypeNames(a.Type); err != nil {
			return CommandSchema{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		if isTabularScalarPosition(a.Type) {
			return CommandSchema{}, fmt.Errorf("attribute %q: tabular type not valid in a scalar attribute position", a.Name)
		}
		attrByName[a.Name] = a
	}

	for _, r := range b.results {
		switch rs := r.(type) {
		case FieldResult:
			if err := ValidateName(rs.Name); err != nil {
				return CommandSchema{}, fmt.Errorf("result: %w", err)
			}
		case DerivedResult:
			if rs.NameField.IsZero() {
				return CommandSchema{}, fmt.Errorf("derived_result on attribute %q: name_field must come from ObjectFields.AddLiteral", rs.Attribute)
			}
			attr, ok := attrByName[rs.Attribute]
			if !ok {
				return CommandSchema{}, fmt.Errorf("derived_result: attribute %q does not exist", rs.Attribute)
			}
			arr, ok := attr.Type.(ArrayOf)
			if !ok {
				return CommandSchema{}, fmt.Errorf("derived_result: attribute %q must be ArrayOf(ObjectOf), got %T", rs.Attribute, attr.Type)
			}
			obj, ok := arr.Elem.(ObjectOf)
			if !ok {
				return CommandSchema{}, fmt.Errorf("derived_result: attribute %q must be ArrayOf(ObjectOf), element is %T", rs.Attribute, arr.Elem)
			}
			found := false
			for _, f := range obj.Fields {
				if f.Name == rs.NameField.Name() {
					found = true
					break
				}
			}
			if !found {
				return CommandSchema{}, fmt.Errorf("derived_result: name_field %q not present in attribute %q's fields", rs.NameField.Name(), rs.Attribute)
			}
		default:
			return CommandSchema{}, fmt.Errorf("result: unknown ResultSpec type %T", r)
		}
	}

	attrsOut := make([]AttributeSpec, len(b.attrs))
	copy(attrsOut, b.attrs)
	resultsOut := make([]ResultSpec, len(b.results))
	copy(resultsOut, b.results)
	return CommandSchema{Attributes: attrsOut, Results: resultsOut}, nil
}

func isTabularScalarPosition(t TypeDef) bool {
	switch tt := t.(type) {
	case Tabular:
		return true
	case ArrayOf:
		return isTabularScalarPosition(tt.Elem)
	case ObjectOf:
		for _, f := range tt.Fields {
			if isTabularScalarPosition(f.Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func validateTypeNames(t TypeDef) error {
	switch tt := t.(type) {
	case ObjectOf:
		for _, f := range tt.Fields {
			if err := ValidateName(f.Name); err != nil {
				return fmt.Errorf("field: %w", err)
			}
			if err := validateTypeNames(f.Type); err != nil {
				return err
			}
		}
		return nil
	case ArrayOf:
		return validateTypeNames(tt.Elem)
	default:
		return nil
	}
}
