package filter

import "rowstore/internal/codec"

// DNF rewrites e into an Or of conjunctive groups (spec.md §4.3's
// `dnf()`). Not is pushed to the leaves via De Morgan's laws before
// And is distributed over Or.
func DNF(e Expr) Expr {
	return flatten(distribute(pushNot(e, false)))
}

// pushNot eliminates Not nodes by pushing negation toward the leaves,
// flipping comparison operators and swapping And/Or as it descends.
// negated tracks whether an odd number of Not ancestors remain.
func pushNot(e Expr, negated bool) Expr {
	switch n := e.(type) {
	case Not:
		return pushNot(n.Term, !negated)
	case And:
		terms := mapExpr(n.Terms, func(t Expr) Expr { return pushNot(t, negated) })
		if negated {
			return Or{Terms: terms}
		}
		return And{Terms: terms}
	case Or:
		terms := mapExpr(n.Terms, func(t Expr) Expr { return pushNot(t, negated) })
		if negated {
			return And{Terms: terms}
		}
		return Or{Terms: terms}
	case ColumnToArg:
		if negated {
			return ColumnToArg{Op: negateOp(n.Op), Column: n.Column, Arg: n.Arg}
		}
		return n
	case ColumnToColumn:
		if negated {
			return ColumnToColumn{Op: negateOp(n.Op), ColumnA: n.ColumnA, ColumnB: n.ColumnB}
		}
		return n
	case InFilter:
		if negated {
			// NOT IN has no dedicated node; represent it as a negated
			// membership test, which the classifier puts in the residual.
			return Not{Term: n}
		}
		return n
	case True:
		if negated {
			return False{}
		}
		return n
	case False:
		if negated {
			return True{}
		}
		return n
	default:
		return e
	}
}

func negateOp(op codec.CompareOp) codec.CompareOp {
	switch op {
	case codec.OpEQ:
		return codec.OpNE
	case codec.OpNE:
		return codec.OpEQ
	case codec.OpLT:
		return codec.OpGE
	case codec.OpLE:
		return codec.OpGT
	case codec.OpGT:
		return codec.OpLE
	case codec.OpGE:
		return codec.OpLT
	default:
		return op
	}
}

// distribute pushes And over Or until the tree is a single Or of
// Ands (or a single And, treated as a one-group Or).
func distribute(e Expr) Expr {
	switch n := e.(type) {
	case And:
		terms := mapExpr(n.Terms, distribute)
		return distributeAnd(terms)
	case Or:
		terms := mapExpr(n.Terms, distribute)
		var out []Expr
		for _, t := range terms {
			if inner, ok := t.(Or); ok {
				out = append(out, inner.Terms...)
				continue
			}
			out = append(out, And{Terms: asGroups(t)})
		}
		return Or{Terms: out}
	default:
		return e
	}
}

// distributeAnd combines a list of (possibly Or) terms into a single
// Or of And groups via cartesian product.
func distributeAnd(terms []Expr) Expr {
	groups := [][]Expr{{}}
	for _, t := range terms {
		var alts []Expr
		if or, ok := t.(Or); ok {
			alts = or.Terms
		} else {
			alts = []Expr{t}
		}
		var next [][]Expr
		for _, g := range groups {
			for _, alt := range alts {
				combined := append(append([]Expr{}, g...), asGroups(alt)...)
				next = append(next, combined)
			}
		}
		groups = next
	}
	var out []Expr
	for _, g := range groups {
		out = append(out, And{Terms: g})
	}
	if len(out) == 1 {
		return out[0]
	}
	return Or{Terms: out}
}

// asGroups flattens a term into the list of leaves an And group
// should contain (unwrapping a nested And, keeping everything else as
// a single-element list).
func asGroups(e Expr) []Expr {
	if a, ok := e.(And); ok {
		return a.Terms
	}
	return []Expr{e}
}

// flatten ensures the result is always an Or of Ands, even when the
// input collapsed to a single group or a single leaf.
func flatten(e Expr) Expr {
	if or, ok := e.(Or); ok {
		return or
	}
	if a, ok := e.(And); ok {
		return Or{Terms: []Expr{a}}
	}
	return Or{Terms: []Expr{And{Terms: []Expr{e}}}}
}

func mapExpr(in []Expr, f func(Expr) Expr) []Expr {
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = f(e)
	}
	return out
}
