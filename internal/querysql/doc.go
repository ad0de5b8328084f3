// Package querysql compiles selection predicates into SQL.
//
// COMPILATION
//
// Every predicate node compiles to an SQL context: a SELECT statement that
// projects the row identifier of the matching features, together with the
// column it selects and, for leaf predicates, the schema path it filters on.
// Logical nodes combine child contexts with INTERSECT (AND) or UNION (OR).
// NOT is never rendered as a node of its own; it is pushed into the leaves,
// flipping AND and OR on the way down.
//
// MERGING
//
// When a combinator resolves to INTERSECT, children filtering along a common
// join chain are folded into one SELECT. A child is folded into a parent when
// the path to the object owning the child's filtered property is a prefix of
// the parent's. Joins and conditions are deduplicated by structural key, so
// equal-but-separately-built conditions are recognized.
//
// RENDERING
//
// Statements are rendered with goqu in the dialect named by the
// dialect.Capabilities in use. Rendering is repeatable: a compiled Selection
// or Statement can be rendered any number of times, inline or prepared.
//
// Build wraps a compiled selection into the export statement: feature type
// restriction, LOD and tiling conditions, ordering and the counter window.
package querysql
