// Package filter defines the boolean tag-filter model ("filter chains") and
// its two evaluation strategies.
//
// A chain is a starting node plus an ordered list of (connector, node) links.
// Each node matches files whose tag set satisfies an all/any predicate over a
// tag-id list; connectors (and / or / and-not) fold the node results strictly
// left to right with no operator precedence.
//
// Evaluate runs a chain against an in-memory membership map and is used for
// aggregation, where the full file→tags relation is already loaded. Compile
// emits a single SQL statement (one CTE per node combined with
// INTERSECT/UNION/EXCEPT) and is used for search, where pulling the whole
// relation into memory would be wasteful. Both strategies are semantically
// equivalent for any membership relation.
package filter
