package filter

// IndexCandidate describes one index the planner may choose between:
// either the primary or a secondary/alternate key.
type IndexCandidate struct {
	Name       string
	KeyColumns []string // declaration order
	Covering   map[string]bool // columns available without a join to the primary
	IsPrimary  bool
}

// OrderTerm is one `ORDER BY` clause entry (spec.md §6).
type OrderTerm struct {
	Column   string
	Desc     bool
	NullsLow bool
}

// score holds the ordered components spec.md §4.3's six scoring rules
// compare, most significant first. Comparison is lexicographic over
// the fields in declaration order; Size is ascending (smaller wins),
// every other field is "bigger wins".
type score struct {
	KeyMatch     int
	Covering     bool
	Availability int
	NaturalOrder bool
	Preference   bool
	Size         int
}

func (s score) better(o score) bool {
	if s.KeyMatch != o.KeyMatch {
		return s.KeyMatch > o.KeyMatch
	}
	if s.Covering != o.Covering {
		return s.Covering
	}
	if s.Availability != o.Availability {
		return s.Availability > o.Availability
	}
	if s.NaturalOrder != o.NaturalOrder {
		return s.NaturalOrder
	}
	if s.Preference != o.Preference {
		return s.Preference
	}
	return s.Size < o.Size
}

// keyMatchScore walks idx's key columns in declaration order, scoring
// each consecutive term that matches a key column by name, stopping
// at the first column the group doesn't constrain.
func keyMatchScore(idx IndexCandidate, g Group, covering bool, orderBy []OrderTerm) int {
	byCol := map[string]ClassifiedTerm{}
	for _, t := range g.Terms {
		if existing, ok := byCol[t.Column]; !ok || t.Class < existing.Class {
			byCol[t.Column] = t
		}
	}
	total := 0
	for i, col := range idx.KeyColumns {
		t, ok := byCol[col]
		if !ok {
			break
		}
		switch t.Class {
		case ClassEquality:
			total += 3
		case ClassFullRange:
			total += 2
		case ClassHalfRange:
			firstOrderBy := len(orderBy) > 0 && orderBy[0].Column == col
			if i != 0 || covering || firstOrderBy {
				total++
			}
		default:
			return total
		}
	}
	return total
}

// filteredColumns returns the distinct column names referenced by the
// group, including its residual (non-ColumnToArg) terms.
func filteredColumns(g Group) map[string]bool {
	cols := map[string]bool{}
	for _, t := range g.Terms {
		cols[t.Column] = true
	}
	for _, r := range g.Residual {
		switch e := r.(type) {
		case ColumnToColumn:
			cols[e.ColumnA] = true
			cols[e.ColumnB] = true
		case InFilter:
			cols[e.Column] = true
		}
	}
	return cols
}

func isCovering(idx IndexCandidate, g Group, projection []string) bool {
	for col := range filteredColumns(g) {
		if !idx.Covering[col] {
			return false
		}
	}
	for _, col := range projection {
		if col != "*" && !idx.Covering[col] {
			return false
		}
	}
	return true
}

func naturalOrderMatch(idx IndexCandidate, orderBy []OrderTerm) bool {
	if len(orderBy) == 0 || len(idx.KeyColumns) < len(orderBy) {
		return false
	}
	for i, ot := range orderBy {
		if idx.KeyColumns[i] != ot.Column {
			return false
		}
	}
	return true
}

func preferenceMatch(idx IndexCandidate, g Group) bool {
	if len(idx.KeyColumns) == 0 {
		return false
	}
	first := idx.KeyColumns[0]
	for _, t := range g.Terms {
		if t.Column == first {
			return true
		}
	}
	return false
}

// scoreCandidate computes idx's score against g, implementing the
// primary-peg special case: a non-primary index whose key columns are
// exactly the primary's, all matched by equality, is scored as if it
// were the primary.
func scoreCandidate(idx IndexCandidate, primary IndexCandidate, g Group, projection []string, orderBy []OrderTerm) score {
	covering := isCovering(idx, g, projection)
	keyMatch := keyMatchScore(idx, g, covering, orderBy)

	if !idx.IsPrimary && sameColumns(idx.KeyColumns, primary.KeyColumns) && allEquality(g, idx.KeyColumns) {
		keyMatch = keyMatchScore(primary, g, isCovering(primary, g, projection), orderBy)
	}

	return score{
		KeyMatch:     keyMatch,
		Covering:     covering,
		Availability: len(intersectColumns(idx, g)),
		NaturalOrder: naturalOrderMatch(idx, orderBy),
		Preference:   preferenceMatch(idx, g),
		Size:         len(idx.KeyColumns),
	}
}

func intersectColumns(idx IndexCandidate, g Group) map[string]bool {
	out := map[string]bool{}
	inIdx := map[string]bool{}
	for _, c := range idx.KeyColumns {
		inIdx[c] = true
	}
	for c := range idx.Covering {
		inIdx[c] = true
	}
	for col := range filteredColumns(g) {
		if inIdx[col] {
			out[col] = true
		}
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allEquality(g Group, cols []string) bool {
	byCol := map[string]ClassifiedTerm{}
	for _, t := range g.Terms {
		byCol[t.Column] = t
	}
	for _, c := range cols {
		t, ok := byCol[c]
		if !ok || t.Class != ClassEquality {
			return false
		}
	}
	return true
}

// BestIndex picks the highest-scoring candidate for group g. primary
// must be present in candidates.
func BestIndex(candidates []IndexCandidate, primary IndexCandidate, g Group, projection []string, orderBy []OrderTerm) IndexCandidate {
	best := candidates[0]
	bestScore := scoreCandidate(best, primary, g, projection, orderBy)
	for _, c := range candidates[1:] {
		s := scoreCandidate(c, primary, g, projection, orderBy)
		if s.better(bestScore) {
			best, bestScore = c, s
		}
	}
	return best
}
