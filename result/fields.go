package result

import (
	"fmt"

	"github.com/dolly-parseton/Panopticon/command"
	"github.com/dolly-parseton/Panopticon/pipeline"
	"github.com/dolly-parseton/Panopticon/specdef"
	"github.com/dolly-parseton/Panopticon/storepath"
	"github.com/dolly-parseton/Panopticon/store"
)

// resolveFields expands cmd's result schema (its own declared results
// plus the common duration_ms/status) into concrete (name, kind, type)
// triples, per §4.10: a Field resolves to itself; a DerivedResult
// resolves to one triple per element of the referenced attribute,
// named from that element's name_field (or, for a bare scalar string
// attribute, the string value itself; falling back to the name_field's
// own name if that attribute is altogether missing).
func resolveFields(cmd pipeline.CommandSpec) ([]resolvedField, error) {
	specs := make([]specdef.ResultSpec, 0, len(cmd.ResultSchema)+2)
	specs = append(specs, cmd.ResultSchema...)
	specs = append(specs, command.CommonResults()...)

	var out []resolvedField
	for _, spec := range specs {
		switch rs := spec.(type) {
		case specdef.FieldResult:
			out = append(out, resolvedField{name: rs.Name, kind: rs.Kind, typ: rs.Type})
		case specdef.DerivedResult:
			fields, err := resolveDerivedResult(cmd, rs)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		default:
			return nil, fmt.Errorf("unknown ResultSpec %T", spec)
		}
	}
	return out, nil
}

func resolveDerivedResult(cmd pipeline.CommandSpec, rs specdef.DerivedResult) ([]resolvedField, error) {
	v, ok := cmd.Attributes[rs.Attribute]
	if !ok {
		return []resolvedField{{name: rs.NameField.Name(), kind: rs.Kind, typ: rs.Type}}, nil
	}

	if s, isString := v.AsString(); isString {
		return []resolvedField{{name: s, kind: rs.Kind, typ: rs.Type}}, nil
	}

	arr, ok := v.AsArray()
	if !ok {
		return []resolvedField{{name: rs.NameField.Name(), kind: rs.Kind, typ: rs.Type}}, nil
	}

	out := make([]resolvedField, 0, len(arr))
	for _, elem := range arr {
		obj, ok := elem.AsObject()
		if !ok {
			continue
		}
		nameVal, ok := obj.Get(rs.NameField.Name())
		if !ok {
			continue
		}
		name, ok := nameVal.AsString()
		if !ok {
			continue
		}
		out = append(out, resolvedField{name: name, kind: rs.Kind, typ: rs.Type})
	}
	return out, nil
}

func projectScalar(ctx *store.ExecutionContext, fieldPath storepath.Path, f resolvedField, rec *CommandResults) {
	v, ok := ctx.Scalars.Get(fieldPath)
	if !ok {
		return
	}
	entry := ScalarEntry{Kind: f.kind, Value: v}
	if f.kind == specdef.Meta {
		rec.Meta[fieldPath.String()] = entry
	} else {
		rec.Data[fieldPath.String()] = entry
	}
}
