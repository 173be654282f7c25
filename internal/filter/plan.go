package filter

// ScanPlan is one index-bound scan the selector emits. When the
// planner produced more than one disjoint group, callers chain the
// resulting plans (spec.md §4.5's `next()`).
type ScanPlan struct {
	Index             string
	Group             Group
	Order             []OrderTerm
	ForUpdateFallback bool
}

// Selector plans scans for a declared filter over a set of candidate
// indexes (spec.md §4.3).
type Selector struct {
	Candidates []IndexCandidate
	Primary    IndexCandidate
}

// Plan normalizes expr to DNF, scores every conjunctive group against
// the candidate indexes, and emits one ScanPlan per group, also when
// several groups pick the same index. When the groups pick more than
// one index and some group has no usable term, it instead emits a
// single plan over one index for the union of all groups.
func (s *Selector) Plan(expr Expr, orderBy []OrderTerm, projection []string, forUpdate bool) []ScanPlan {
	dnf := DNF(expr)
	or, ok := dnf.(Or)
	if !ok {
		or = Or{Terms: []Expr{dnf}}
	}

	groups := make([]Group, 0, len(or.Terms))
	for _, t := range or.Terms {
		and, ok := t.(And)
		if !ok {
			and = And{Terms: []Expr{t}}
		}
		groups = append(groups, ClassifyGroup(and))
	}

	chosen := make([]IndexCandidate, len(groups))
	anyFullScan := false
	for i, g := range groups {
		chosen[i] = BestIndex(s.Candidates, s.Primary, g, projection, orderBy)
		if len(g.Terms) == 0 {
			anyFullScan = true
		}
	}

	distinct := distinctIndexNames(chosen)
	if len(distinct) > 1 && anyFullScan {
		// Abandon multi-index: pick the single best covering full-scan
		// index across the union of all groups (spec.md §4.3).
		merged := Group{}
		for _, g := range groups {
			merged.Terms = append(merged.Terms, g.Terms...)
			merged.Residual = append(merged.Residual, g.Residual...)
		}
		best := BestIndex(s.Candidates, s.Primary, merged, projection, orderBy)
		plan := ScanPlan{Index: best.Name, Group: merged, Order: reduceOrder(best, merged, orderBy)}
		plan.ForUpdateFallback = applyForUpdate(&plan, best, s.Primary, forUpdate)
		return []ScanPlan{plan}
	}

	plans := make([]ScanPlan, 0, len(groups))
	for i, g := range groups {
		idx := chosen[i]
		order := orderBy
		if len(distinct) > 1 {
			// Natural-order shortcut disabled once multiple indexes are
			// finally selected; a sort will be required downstream.
			order = nil
		} else {
			order = reduceOrder(idx, g, orderBy)
		}
		plan := ScanPlan{Index: idx.Name, Group: g, Order: order}
		plan.ForUpdateFallback = applyForUpdate(&plan, idx, s.Primary, forUpdate)
		plans = append(plans, plan)
	}
	return plans
}

func distinctIndexNames(idxs []IndexCandidate) map[string]bool {
	out := map[string]bool{}
	for _, idx := range idxs {
		out[idx.Name] = true
	}
	return out
}

// reduceOrder truncates orderBy once a unique key is fully covered by
// equality terms, and drops any ordering column the group pins via =.
func reduceOrder(idx IndexCandidate, g Group, orderBy []OrderTerm) []OrderTerm {
	pinned := map[string]bool{}
	for _, t := range g.Terms {
		if t.Class == ClassEquality {
			pinned[t.Column] = true
		}
	}
	out := make([]OrderTerm, 0, len(orderBy))
	for _, ot := range orderBy {
		if pinned[ot.Column] {
			continue
		}
		out = append(out, ot)
	}
	allPinned := len(idx.KeyColumns) > 0
	for _, col := range idx.KeyColumns {
		if !pinned[col] {
			allPinned = false
			break
		}
	}
	if allPinned {
		return nil
	}
	return out
}

// applyForUpdate implements the for-update rule: when the transaction
// intent is update and the chosen index is not the primary, fall back
// to the primary to avoid a join, recording that the fallback occurred.
func applyForUpdate(plan *ScanPlan, chosen IndexCandidate, primary IndexCandidate, forUpdate bool) bool {
	if !forUpdate || chosen.IsPrimary {
		return false
	}
	plan.Index = primary.Name
	return true
}
