// Package specdef implements the typed attribute/result schema system
// (§4.1): TypeDef trees, AttributeSpec/FieldSpec/ResultSpec, the
// literal-field proof, and the type-stated builder that makes an
// invalid schema unrepresentable.
package specdef

import (
	"fmt"
	"regexp"
)

// ScalarType enumerates the scalar leaf kinds.
type ScalarType int

const (
	ScalarNull ScalarType = iota
	ScalarBool
	ScalarNumber
	ScalarString
	ScalarArray
	ScalarObject
)

func (s ScalarType) String() string {
	names := [...]string{"null", "bool", "number", "string", "array", "object"}
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// TypeDef is a node of the recursive attribute/result type tree.
type TypeDef interface {
	isTypeDef()
}

// Scalar is a leaf typed by ScalarType.
type Scalar struct {
	Type ScalarType
}

func (Scalar) isTypeDef() {}

// Tabular is a leaf denoting a tabular handle. It is accepted only in
// result positions: CommandSchemaBuilder.Build rejects it anywhere in an
// attribute's type, a `source` attribute included, and
// validate.Attributes rejects any value checked against it.
type Tabular struct{}

func (Tabular) isTypeDef() {}

// ArrayOf is a homogeneous array of Elem.
type ArrayOf struct {
	Elem TypeDef
}

func (ArrayOf) isTypeDef() {}

// ObjectOf is a structured object with declared fields.
type ObjectOf struct {
	Fields []FieldSpec
}

func (ObjectOf) isTypeDef() {}

// ReferenceKind classifies how a string-valued scalar contributes to
// dependency extraction and validation (§4.1).
type ReferenceKind int

const (
	// Unsupported marks a literal: no template evaluation, no
	// dependencies extracted.
	Unsupported ReferenceKind = iota
	// StaticTeraTemplate marks a value that may contain inline
	// template syntax; dependencies are the variables it reads.
	StaticTeraTemplate
	// RuntimeTeraTemplate marks a bare expression, wrapped in
	// template delimiters before parsing; dependencies are still
	// extracted.
	RuntimeTeraTemplate
	// StorePath marks a value that is itself a dotted path and is
	// itself a dependency.
	StorePath
)

func (k ReferenceKind) String() string {
	switch k {
	case Unsupported:
		return "unsupported"
	case StaticTeraTemplate:
		return "static_template"
	case RuntimeTeraTemplate:
		return "runtime_template"
	case StorePath:
		return "store_path"
	default:
		return "unknown"
	}
}

// FieldSpec describes one field of an ObjectOf.
type FieldSpec struct {
	Name     string
	Type     TypeDef
	Required bool
	Hint     string
	Kind     ReferenceKind
}

// AttributeSpec describes one top-level attribute of a command.
type AttributeSpec struct {
	Name     string
	Type     TypeDef
	Required bool
	Hint     string
	Kind     ReferenceKind
}

// ResultKind classifies a result field as user-facing data or
// execution metadata.
type ResultKind int

const (
	Data ResultKind = iota
	Meta
)

func (k ResultKind) String() string {
	if k == Meta {
		return "meta"
	}
	return "data"
}

// ResultSpec is one of FieldResult or DerivedResult.
type ResultSpec interface {
	isResultSpec()
}

// FieldResult declares a fixed-name result field.
type FieldResult struct {
	Name string
	Type TypeDef
	Kind ResultKind
	Hint string
}

func (FieldResult) isResultSpec() {}

// DerivedResult declares a result whose field names are taken, at
// runtime, from the NameField of each element of an ArrayOf(ObjectOf)
// attribute. NameField must have been produced by
// ObjectFields.AddLiteral (the literal-field proof, §4.1) on the same
// attribute's field list.
type DerivedResult struct {
	Attribute string
	NameField LiteralFieldRef
	Type      TypeDef
	Kind      ResultKind
}

func (DerivedResult) isResultSpec() {}

// LiteralFieldRef is an opaque token proving a field's ReferenceKind
// is Unsupported (a literal). Its constructor is private to this
// package; the only way to obtain one is ObjectFields.AddLiteral, so a
// schema that tries to derive result names from a template field
// cannot be compiled (spec §4.1, testable property 7).
type LiteralFieldRef struct {
	name string
}

// Name returns the field name the token refers to.
func (r LiteralFieldRef) Name() string { return r.name }

// IsZero reports whether r is the zero value (never produced by
// AddLiteral); used by CommandSchemaBuilder to catch a caller who
// built a DerivedResult by hand instead of via the builder.
func (r LiteralFieldRef) IsZero() bool { return r.name == "" }

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var reservedNames = map[string]struct{}{
	"item":  {},
	"index": {},
}

// ValidateName enforces the name policy from §4.1: the reserved set
// {item, index} and the character class [a-zA-Z0-9_]+.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("specdef: name must not be empty")
	}
	if _, reserved := reservedNames[name]; reserved {
		return fmt.Errorf("specdef: name %q is reserved", name)
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("specdef: name %q violates naming policy (must match [a-zA-Z0-9_]+)", name)
	}
	return nil
}
