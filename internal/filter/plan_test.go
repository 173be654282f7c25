package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rowstore/internal/codec"
)

func candidatesForPlanTests() (IndexCandidate, []IndexCandidate) {
	primary := IndexCandidate{Name: "primary", KeyColumns: []string{"id"}, IsPrimary: true,
		Covering: map[string]bool{"id": true, "email": true, "age": true}}
	byEmail := IndexCandidate{Name: "by_email", KeyColumns: []string{"email"},
		Covering: map[string]bool{"email": true}}
	return primary, []IndexCandidate{primary, byEmail}
}

func TestPlanSplitsDisjunctionIntoOnePlanPerGroup(t *testing.T) {
	primary, candidates := candidatesForPlanTests()
	sel := Selector{Candidates: candidates, Primary: primary}

	expr := Or{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 1},
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 2},
	}}

	plans := sel.Plan(expr, nil, nil, false)
	assert.Len(t, plans, 2)
	for _, p := range plans {
		assert.Equal(t, "by_email", p.Index)
	}
}

func TestPlanAbandonsMultiIndexOnFullScanGroup(t *testing.T) {
	primary, candidates := candidatesForPlanTests()
	sel := Selector{Candidates: candidates, Primary: primary}

	expr := Or{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 1},
		ColumnToColumn{Op: codec.OpEQ, ColumnA: "age", ColumnB: "other"},
	}}

	plans := sel.Plan(expr, nil, nil, false)
	assert.Len(t, plans, 1, "a disjunct with no usable term forces a single merged full-scan plan")
}

func TestPlanForUpdateFallsBackToPrimary(t *testing.T) {
	primary, candidates := candidatesForPlanTests()
	sel := Selector{Candidates: candidates, Primary: primary}

	expr := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 1},
	}}

	plans := sel.Plan(expr, nil, nil, true)
	assert.Len(t, plans, 1)
	assert.Equal(t, "primary", plans[0].Index)
	assert.True(t, plans[0].ForUpdateFallback)
}

func TestPlanIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	primary, candidates := candidatesForPlanTests()
	sel := Selector{Candidates: candidates, Primary: primary}

	expr := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "email", Arg: 1},
	}}
	order := []OrderTerm{{Column: "age"}}

	first := sel.Plan(expr, order, nil, false)
	second := sel.Plan(expr, order, nil, false)
	assert.Equal(t, first, second)
}
