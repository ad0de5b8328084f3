package compiler

import (
	"fmt"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/query"
	"github.com/roach88/cityq/internal/schema"
)

// projection resolves the per-type projections. Properties are looked up on
// the projected type including inherited ones.
func (a *assembler) projection(cfgs []config.TypeProjection) (query.ProjectionFilter, error) {
	var f query.ProjectionFilter
	seen := make(map[*schema.Type]bool)

	for i, cfg := range cfgs {
		tp, err := a.typeProjection(cfg)
		if err != nil {
			return query.ProjectionFilter{}, at(err, fmt.Sprintf("projection[%d]", i))
		}
		if seen[tp.Type] {
			return query.ProjectionFilter{}, query.Errorf(query.CodeInvalidProjection, "duplicate projection of %s", tp.Type).At(fmt.Sprintf("projection[%d]", i))
		}
		seen[tp.Type] = true
		f.Types = append(f.Types, tp)
	}
	return f, nil
}

func (a *assembler) typeProjection(cfg config.TypeProjection) (query.TypeProjection, error) {
	t, err := a.lookupType(cfg.Type)
	if err != nil {
		return query.TypeProjection{}, at(err, "type")
	}
	if t.Abstract {
		return query.TypeProjection{}, query.Errorf(query.CodeAbstractTypeProjection, "cannot project abstract type %s", t).At("type")
	}

	tp := query.TypeProjection{Type: t}
	switch cfg.Mode {
	case "", "keep":
		tp.Mode = query.Keep
	case "remove":
		tp.Mode = query.Remove
	default:
		return query.TypeProjection{}, query.Errorf(query.CodeInvalidProjection, "unknown mode %q (use keep, remove)", cfg.Mode).At("mode")
	}

	for i, name := range cfg.Properties {
		field := fmt.Sprintf("properties[%d]", i)
		qn, err := a.ns.Parse(name)
		if err != nil {
			return query.TypeProjection{}, query.Wrap(query.CodeInvalidSchemaPath, err, "invalid property name").At(field)
		}
		prop, _, ok := a.env.Mapping.Property(t, qn)
		if !ok {
			return query.TypeProjection{}, query.Errorf(query.CodeInvalidSchemaPath, "type %s has no property %s", t, name).At(field)
		}
		if !contains(tp.Properties, prop) {
			tp.Properties = append(tp.Properties, prop)
		}
	}

	for i, g := range cfg.GenericAttributes {
		field := fmt.Sprintf("genericAttributes[%d]", i)
		if g.Name == "" {
			return query.TypeProjection{}, query.Errorf(query.CodeInvalidProjection, "generic attribute without name").At(field)
		}
		attr := query.GenericAttribute{Name: g.Name}
		if g.Type != "" {
			attr.Type, err = query.ParseGenericAttributeType(g.Type)
			if err != nil {
				return query.TypeProjection{}, query.Wrap(query.CodeInvalidProjection, err, "invalid generic attribute").At(field)
			}
		}
		tp.GenericAttributes = append(tp.GenericAttributes, attr)
	}
	return tp, nil
}

func contains(props []*schema.Property, p *schema.Property) bool {
	for _, q := range props {
		if q == p {
			return true
		}
	}
	return false
}
