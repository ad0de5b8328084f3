package querysql

import (
	"slices"
	"sort"
)

// mergeContexts folds the operands of an intersection that filter along a
// common join chain into a single SELECT.
//
// Leaf contexts are visited longest path first. Each becomes a parent and
// absorbs every remaining leaf whose backup path is a prefix of its own.
// Combined contexts never take part. The parents come first in the result,
// followed by the untouched contexts in their original order.
func mergeContexts(contexts []*sqlContext) []*sqlContext {
	var pool, rest []*sqlContext
	for _, ctx := range contexts {
		if _, ok := ctx.stmt.(*selectStmt); ok && ctx.path != nil {
			pool = append(pool, ctx)
		} else {
			rest = append(rest, ctx)
		}
	}
	if len(pool) < 2 {
		return contexts
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].path.Len() > pool[j].path.Len()
	})

	var merged []*sqlContext
	for len(pool) > 0 {
		parent := pool[0]
		group := parent
		var remaining []*sqlContext
		for _, cand := range pool[1:] {
			if parent.backup.HasPrefix(*cand.backup) {
				if folded, ok := fold(group, cand); ok {
					group = folded
					continue
				}
			}
			remaining = append(remaining, cand)
		}
		merged = append(merged, group)
		pool = remaining
	}
	return append(merged, rest...)
}

// fold returns a copy of parent extended by child's joins and conditions.
// Joins are shared by alias; a child whose alias is bound to a different join
// cannot be folded. Conditions already present are skipped unless they test
// the projected identifier.
func fold(parent, child *sqlContext) (*sqlContext, bool) {
	ps, ok := parent.stmt.(*selectStmt)
	if !ok {
		return nil, false
	}
	cs, ok := child.stmt.(*selectStmt)
	if !ok || ps.from != cs.from || ps.target != cs.target {
		return nil, false
	}
	for _, cj := range cs.joins {
		if pj, ok := ps.joinByAlias(cj.table.Alias); ok && pj != cj {
			return nil, false
		}
	}

	out := ps.clone()
	for _, cj := range cs.joins {
		if _, ok := out.joinByAlias(cj.table.Alias); !ok {
			out.joins = append(out.joins, cj)
		}
	}
	for _, cc := range cs.where {
		if cc.refsTarget || !out.hasClause(cc.key) {
			out.where = append(out.where, cc)
		}
	}
	for _, h := range cs.hints {
		if !slices.Contains(out.hints, h) {
			out.hints = append(out.hints, h)
		}
	}
	return &sqlContext{stmt: out, target: parent.target, path: parent.path, backup: parent.backup}, true
}
