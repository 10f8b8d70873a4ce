// Package validate implements recursive structural and reference-syntax
// validation of attribute values against their schema (§4.2). Validation
// is purely structural: it never evaluates templates or resolves store
// paths.
package validate

import (
	"fmt"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
)

// SyntaxChecker parses a template string without executing it. A
// store.GoTemplateRenderer satisfies this via its CheckSyntax method;
// kept as its own minimal interface here so this package does not
// depend on store.
type SyntaxChecker interface {
	CheckSyntax(tmplStr string) error
}

// Attributes validates attrs against specs: presence/required,
// structural type matching, and (for template-kinded strings) template
// syntax via checker. A nil checker skips syntax checks, useful for
// tests that only care about structural validation.
func Attributes(attrs map[string]scalar.Value, specs []specdef.AttributeSpec, checker SyntaxChecker) error {
	for _, spec := range specs {
		v, ok := attrs[spec.Name]
		if !ok {
			if spec.Required {
				return fmt.Errorf("missing required attribute %q", spec.Name)
			}
			continue
		}
		if err := matchType(v, spec.Type); err != nil {
			return fmt.Errorf("attribute %q: %w", spec.Name, err)
		}
		if err := checkLeafSyntaxRecursive(spec.Name, v, spec.Type, spec.Kind, checker); err != nil {
			return err
		}
	}
	return nil
}

// matchType performs exact structural matching: scalar leaves require
// an exact ScalarType match, arrays validate each element, objects
// validate each declared field recursively. A literal tabular-typed
// attribute value is always rejected (§4.2), since specdef's builder
// already refuses Tabular in attribute position — this is a second,
// defence-in-depth check against hand-built TypeDef trees.
func matchType(v scalar.Value, t specdef.TypeDef) error {
	switch tt := t.(type) {
	case specdef.Tabular:
		return fmt.Errorf("tabular type must not appear as a scalar attribute value")
	case specdef.Scalar:
		if err := matchScalarKind(v, tt.Type); err != nil {
			return err
		}
		return nil
	case specdef.ArrayOf:
		arr, ok := v.AsArray()
		if !ok {
			return fmt.Errorf("expected array, got %s", v.Kind())
		}
		for i, elem := range arr {
			if err := matchType(elem, tt.Elem); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	case specdef.ObjectOf:
		obj, ok := v.AsObject()
		if !ok {
			return fmt.Errorf("expected object, got %s", v.Kind())
		}
		for _, f := range tt.Fields {
			fv, ok := obj.Get(f.Name)
			if !ok {
				if f.Required {
					return fmt.Errorf("missing required field %q", f.Name)
				}
				continue
			}
			if err := matchType(fv, f.Type); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown TypeDef %T", t)
	}
}

func matchScalarKind(v scalar.Value, want specdef.ScalarType) error {
	var ok bool
	switch want {
	case specdef.ScalarNull:
		ok = v.IsNull()
	case specdef.ScalarBool:
		_, ok = v.AsBool()
	case specdef.ScalarNumber:
		_, ok = v.AsFloat()
	case specdef.ScalarString:
		_, ok = v.AsString()
	case specdef.ScalarArray:
		_, ok = v.AsArray()
	case specdef.ScalarObject:
		_, ok = v.AsObject()
	default:
		return fmt.Errorf("unknown scalar type %v", want)
	}
	if !ok {
		return fmt.Errorf("expected %s, got %s", want, v.Kind())
	}
	return nil
}

// checkLeafSyntaxRecursive mirrors depscan's walk structure so that
// every leaf actually reached by the value (through arrays/objects)
// gets its reference-syntax checked with its own effective kind.
func checkLeafSyntaxRecursive(path string, v scalar.Value, t specdef.TypeDef, kind specdef.ReferenceKind, checker SyntaxChecker) error {
	switch tt := t.(type) {
	case specdef.Scalar, specdef.Tabular:
		return checkLeafSyntax(path, v, kind, checker)
	case specdef.ArrayOf:
		arr, ok := v.AsArray()
		if !ok {
			return nil
		}
		for i, elem := range arr {
			if err := checkLeafSyntaxRecursive(fmt.Sprintf("%s[%d]", path, i), elem, tt.Elem, kind, checker); err != nil {
				return err
			}
		}
		return nil
	case specdef.ObjectOf:
		obj, ok := v.AsObject()
		if !ok {
			return nil
		}
		for _, f := range tt.Fields {
			fv, ok := obj.Get(f.Name)
			if !ok {
				continue
			}
			if err := checkLeafSyntaxRecursive(path+"."+f.Name, fv, f.Type, f.Kind, checker); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func checkLeafSyntax(path string, v scalar.Value, kind specdef.ReferenceKind, checker SyntaxChecker) error {
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	switch kind {
	case specdef.StaticTeraTemplate:
		if checker == nil {
			return nil
		}
		if err := checker.CheckSyntax(s); err != nil {
			return fmt.Errorf("invalid template syntax in %q: %w", path, err)
		}
	case specdef.RuntimeTeraTemplate:
		if checker == nil {
			return nil
		}
		if err := checker.CheckSyntax("{{ " + s + " }}"); err != nil {
			return fmt.Errorf("invalid template syntax in %q: %w", path, err)
		}
	case specdef.StorePath:
		// Tightened per SPEC_FULL.md §9 (Open Question): a
		// StorePath-kinded string must dotted-parse cleanly, rather
		// than being silently accepted as the original behavior did.
		if _, err := storepath.FromDotted(s); err != nil {
			return fmt.Errorf("invalid store path syntax in %q: %w", path, err)
		}
	case specdef.Unsupported:
		// literal, nothing to check
	}
	return nil
}
