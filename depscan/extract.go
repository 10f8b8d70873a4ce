package depscan

import (
	"fmt"

	"github.com/dolly-parseton/Panopticon/scalar"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
)

// Extract walks attrs in lock-step with specs and returns the union of
// StorePaths referenced, per §4.3: a StaticTeraTemplate string
// contributes the paths of every dotted identifier it reads; a
// RuntimeTeraTemplate string is wrapped in "{{ }}" first; a StorePath
// string is itself one dependency; Unsupported strings contribute
// nothing. ArrayOf recurses per element with the parent's
// ReferenceKind; ObjectOf recurses per field with that field's own
// ReferenceKind.
//
// Malformed dotted strings (StorePath kind) are silently skipped here,
// not reported as an extraction error. Extraction runs when a command
// is added, before validation; the malformed string is reported later,
// when validate.Attributes runs at compile time (SPEC_FULL.md §9).
func Extract(attrs map[string]scalar.Value, specs []specdef.AttributeSpec) (map[string]storepath.Path, error) {
	out := make(map[string]storepath.Path)
	for _, spec := range specs {
		v, ok := attrs[spec.Name]
		if !ok {
			continue
		}
		if err := walk(v, spec.Type, spec.Kind, out); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", spec.Name, err)
		}
	}
	return out, nil
}

func walk(v scalar.Value, t specdef.TypeDef, kind specdef.ReferenceKind, out map[string]storepath.Path) error {
	switch tt := t.(type) {
	case specdef.Scalar, specdef.Tabular:
		return walkLeaf(v, kind, out)
	case specdef.ArrayOf:
		arr, ok := v.AsArray()
		if !ok {
			return nil
		}
		for _, elem := range arr {
			if err := walk(elem, tt.Elem, kind, out); err != nil {
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
			if err := walk(fv, f.Type, f.Kind, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("depscan: unknown TypeDef %T", t)
	}
}

func walkLeaf(v scalar.Value, kind specdef.ReferenceKind, out map[string]storepath.Path) error {
	s, ok := v.AsString()
	if !ok {
		return nil
	}
	switch kind {
	case specdef.Unsupported:
		return nil
	case specdef.StaticTeraTemplate:
		for _, tok := range Tokens(s) {
			addToken(tok, out)
		}
		return nil
	case specdef.RuntimeTeraTemplate:
		for _, tok := range Tokens("{{ " + s + " }}") {
			addToken(tok, out)
		}
		return nil
	case specdef.StorePath:
		p, err := storepath.FromDotted(s)
		if err != nil {
			return nil
		}
		out[p.String()] = p
		return nil
	default:
		return fmt.Errorf("depscan: unknown ReferenceKind %v", kind)
	}
}

func addToken(tok string, out map[string]storepath.Path) {
	p, err := storepath.FromDotted(tok)
	if err != nil {
		return
	}
	out[p.String()] = p
}
