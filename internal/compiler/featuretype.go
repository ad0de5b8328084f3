package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// featureTypes resolves the feature type filter. Abstract names expand to
// their concrete top-level subtypes; duplicates keep their first position.
func (a *assembler) featureTypes(names []string) ([]*schema.Type, error) {
	if len(names) == 0 {
		return nil, query.Errorf(query.CodeEmptyFeatureTypeFilter, "no feature type selected").At("featureTypes")
	}

	m := a.env.Mapping
	seen := make(map[*schema.Type]bool)
	var out []*schema.Type
	for i, name := range names {
		field := fmt.Sprintf("featureTypes[%d]", i)

		t, err := a.lookupType(name)
		if err != nil {
			return nil, at(err, field)
		}

		var candidates []*schema.Type
		switch {
		case t.Abstract:
			for _, sub := range m.ConcreteSubtypes(t) {
				if sub.TopLevel {
					candidates = append(candidates, sub)
				}
			}
			if len(candidates) == 0 {
				return nil, query.Errorf(query.CodeUnknownTypeName, "abstract type %s has no top-level feature subtypes", t).At(field)
			}
		case !t.TopLevel:
			return nil, query.Errorf(query.CodeUnknownTypeName, "%s is not a top-level feature type", t).At(field)
		default:
			candidates = []*schema.Type{t}
		}

		for _, c := range candidates {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}

	for _, t := range out[1:] {
		if t.Version != out[0].Version {
			return nil, query.Errorf(query.CodeMixedVersion,
				"%s (version %s) and %s (version %s) belong to different schema versions",
				out[0], out[0].Version, t, t.Version).At("featureTypes")
		}
	}
	return out, nil
}

// lookupType resolves a qualified type name.
func (a *assembler) lookupType(name string) (*schema.Type, error) {
	qn, err := a.ns.Parse(name)
	if err != nil {
		return nil, query.Wrap(query.CodeUnknownTypeName, err, "invalid type name")
	}
	t, ok := a.env.Mapping.Lookup(qn)
	if !ok {
		return nil, query.Errorf(query.CodeUnknownTypeName, "%s", a.env.Mapping.UnresolvedType(qn, strconv.Quote(name)))
	}
	return t, nil
}
