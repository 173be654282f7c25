// Package filter implements the boolean filter algebra and index
// selector of spec.md §4.3: DNF normalization, term classification,
// and index scoring over a declared set of candidate indexes.
package filter

import "rowstore/internal/codec"

// Expr is the filter tree the planner consumes. Concrete types are
// And, Or, Not, ColumnToArg, ColumnToColumn, InFilter, True, False.
type Expr interface {
	exprNode()
}

// And is a conjunction of terms.
type And struct{ Terms []Expr }

// Or is a disjunction of terms.
type Or struct{ Terms []Expr }

// Not negates a single term.
type Not struct{ Term Expr }

// ColumnToArg compares a column against a query argument.
type ColumnToArg struct {
	Op     codec.CompareOp
	Column string
	Arg    int // 1-based, matching the query language's ?N
}

// ColumnToColumn compares two columns of the same row.
type ColumnToColumn struct {
	Op      codec.CompareOp
	ColumnA string
	ColumnB string
}

// InFilter tests column membership in the set bound to Arg.
type InFilter struct {
	Column string
	Arg    int
}

// True always passes.
type True struct{}

// False never passes.
type False struct{}

func (And) exprNode()           {}
func (Or) exprNode()            {}
func (Not) exprNode()           {}
func (ColumnToArg) exprNode()   {}
func (ColumnToColumn) exprNode() {}
func (InFilter) exprNode()      {}
func (True) exprNode()          {}
func (False) exprNode()         {}
