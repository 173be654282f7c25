package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rowstore/internal/codec"
)

func TestBestIndexPrefersEqualityMatchOverCovering(t *testing.T) {
	primary := IndexCandidate{Name: "primary", KeyColumns: []string{"id"}, IsPrimary: true,
		Covering: map[string]bool{"id": true, "name": true, "email": true}}
	byEmail := IndexCandidate{Name: "by_email", KeyColumns: []string{"email"},
		Covering: map[string]bool{"email": true}}

	candidates := []IndexCandidate{primary, byEmail}
	g := ClassifyGroup(And{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 1},
	}})

	best := BestIndex(candidates, primary, g, nil, nil)
	assert.Equal(t, "by_email", best.Name, "an equality match on a secondary's only key column should beat a full scan of the primary")
}

func TestBestIndexFallsBackToPrimaryWithNoUsableTerm(t *testing.T) {
	primary := IndexCandidate{Name: "primary", KeyColumns: []string{"id"}, IsPrimary: true,
		Covering: map[string]bool{"id": true, "name": true}}
	byEmail := IndexCandidate{Name: "by_email", KeyColumns: []string{"email"},
		Covering: map[string]bool{"email": true}}

	candidates := []IndexCandidate{primary, byEmail}
	g := ClassifyGroup(And{Terms: []Expr{
		ColumnToColumn{Op: codec.OpEQ, ColumnA: "name", ColumnB: "nickname"},
	}})

	best := BestIndex(candidates, primary, g, nil, nil)
	assert.Equal(t, "primary", best.Name)
}

func TestPlanIsIdempotent(t *testing.T) {
	primary := IndexCandidate{Name: "primary", KeyColumns: []string{"id"}, IsPrimary: true,
		Covering: map[string]bool{"id": true, "name": true, "age": true}}
	byAge := IndexCandidate{Name: "by_age", KeyColumns: []string{"age"},
		Covering: map[string]bool{"age": true}}

	sel := Selector{Candidates: []IndexCandidate{primary, byAge}, Primary: primary}
	expr := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpGE, Column: "age", Arg: 1},
		ColumnToArg{Op: codec.OpLT, Column: "age", Arg: 2},
	}}

	first := sel.Plan(expr, nil, nil, false)
	second := sel.Plan(expr, nil, nil, false)

	assert.Equal(t, first, second, "planning the same filter twice must choose the same index and residual")
}
