package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rowstore/internal/codec"
)

func TestClassifyGroupMergesCandidateIntoFullRange(t *testing.T) {
	and := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpGE, Column: "age", Arg: 1},
		ColumnToArg{Op: codec.OpLT, Column: "age", Arg: 2},
	}}
	g := ClassifyGroup(and)

	for _, term := range g.Terms {
		assert.Equal(t, ClassFullRange, term.Class, "both bounds on the same column should merge into a full range")
	}
}

func TestClassifyGroupLeavesUnmatchedCandidateAsHalfRange(t *testing.T) {
	and := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpLE, Column: "age", Arg: 1},
	}}
	g := ClassifyGroup(and)

	assert.Len(t, g.Terms, 1)
	assert.Equal(t, ClassHalfRange, g.Terms[0].Class)
}

func TestClassifyGroupSeparatesResidual(t *testing.T) {
	and := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpEQ, Column: "id", Arg: 1},
		ColumnToColumn{Op: codec.OpEQ, ColumnA: "a", ColumnB: "b"},
		InFilter{Column: "tag", Arg: 2},
	}}
	g := ClassifyGroup(and)

	assert.Len(t, g.Terms, 1)
	assert.Equal(t, ClassEquality, g.Terms[0].Class)
	assert.Len(t, g.Residual, 2)
}

func TestClassifyGroupOrdersEqualityFirst(t *testing.T) {
	and := And{Terms: []Expr{
		ColumnToArg{Op: codec.OpGT, Column: "age", Arg: 1},
		ColumnToArg{Op: codec.OpEQ, Column: "id", Arg: 2},
	}}
	g := ClassifyGroup(and)

	assert.Equal(t, ClassEquality, g.Terms[0].Class)
	assert.Equal(t, ClassHalfRange, g.Terms[1].Class)
}
