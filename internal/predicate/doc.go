// Package predicate defines the selection predicate tree.
//
// Predicate is a sealed interface: only types in this package implement it,
// so the compiler can switch exhaustively over the variants:
//
//   - Comparison: value reference compared against literals
//   - Spatial: value reference related to a geometry operand
//   - Logical: AND / OR over operands, NOT over exactly one operand
//   - Identifier: membership of the feature identifier in a set of ids
//
// SEALED INTERFACES:
//
// Predicate and Value both use the marker-method pattern. Adding a variant
// means adding a case to every switch that dispatches on them; there is no
// open registry.
//
// IMMUTABILITY:
//
// Constructors copy their slice arguments and the exported fields are never
// written after construction. A predicate tree can therefore be shared by the
// Query that owns it and by any number of concurrent compilations.
//
// Validation of operand counts and identifier sets is deferred to the SQL
// compiler, which reports them with the query error taxonomy.
package predicate
