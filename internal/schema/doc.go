// Package schema maps the typed city-model object model onto relational
// tables.
//
// A Mapping is built once from a Definition (usually loaded from YAML) and is
// immutable afterwards. It is shared by every compilation running in the
// process, so none of its methods mutate state and every Path or Resolution it
// hands out is a fresh value.
//
// TYPES AND TABLES:
//
// Every Type has a numeric object class identifier and lives in exactly one
// table. Subtypes inherit the properties of their supertypes; an inherited
// property is stored in the declaring type's table and is reached through an
// id-to-id join. Tables carry a type discriminator column (objectclass_id by
// default) unless the type is marked untyped.
//
// PATHS:
//
// A Path is rooted at a Type and walks object properties down to a simple or
// geometry property:
//
//	bldg:Building/bldg:consistsOfBuildingPart/bldg:BuildingPart/bldg:measuredHeight
//
// The optional type step after an object property narrows the target to a
// subtype. Path.Parent strips the trailing node and is what the selection
// compiler uses to decide whether two predicates constrain the same object.
//
// RESOLUTION:
//
// Resolve turns a Path into a join chain. Table aliases are derived from the
// position of the table in the path (t0 for the root, t1 for the first object
// step, t0_cityobject for an inherited table at step 0, ...), so two paths
// sharing a prefix always produce the same aliases for that prefix.
package schema
