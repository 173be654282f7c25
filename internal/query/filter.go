package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"rowstore/internal/codec"
	"rowstore/internal/filter"
	"rowstore/internal/rowerr"
)

var placeholderRe = regexp.MustCompile(`\?(\d+)`)
var argIdentRe = regexp.MustCompile(`^__arg_(\d+)$`)

// ParseFilter parses one filter clause (infix ==, !=, <, <=, >, >=,
// in, &&, ||, !, parentheses, ?N placeholders) into a filter.Expr, by
// rewriting it into a synthetic SELECT statement's WHERE clause and
// walking TiDB's expression AST.
func ParseFilter(clause string) (filter.Expr, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return filter.True{}, nil
	}

	rewritten := placeholderRe.ReplaceAllString(clause, "__arg_${1}")
	sql := "SELECT * FROM t WHERE " + rewritten

	p := parser.New()
	stmtNodes, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: filter clause %q: %v", clause, err)
	}
	if len(stmtNodes) != 1 {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: filter clause %q: expected one statement", clause)
	}
	sel, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok || sel.Where == nil {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: filter clause %q: not a WHERE expression", clause)
	}
	return walkExpr(sel.Where)
}

// operand is either a column reference or a 1-based argument index.
type operand struct {
	isArg   bool
	column  string
	argIdx  int
}

func resolveOperand(n ast.ExprNode) (operand, bool) {
	col, ok := n.(*ast.ColumnNameExpr)
	if !ok {
		return operand{}, false
	}
	name := col.Name.Name.O
	if m := argIdentRe.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return operand{isArg: true, argIdx: idx}, true
	}
	return operand{column: name}, true
}

func walkExpr(n ast.ExprNode) (filter.Expr, error) {
	switch e := n.(type) {
	case *ast.ParenthesesExpr:
		return walkExpr(e.Expr)
	case *ast.BinaryOperationExpr:
		return walkBinary(e)
	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Not {
			return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: unsupported unary operator %v", e.Op)
		}
		inner, err := walkExpr(e.V)
		if err != nil {
			return nil, err
		}
		return filter.Not{Term: inner}, nil
	case *ast.PatternInExpr:
		return walkIn(e)
	default:
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: unsupported expression %T", n)
	}
}

func walkBinary(e *ast.BinaryOperationExpr) (filter.Expr, error) {
	switch e.Op {
	case opcode.LogicAnd:
		l, err := walkExpr(e.L)
		if err != nil {
			return nil, err
		}
		r, err := walkExpr(e.R)
		if err != nil {
			return nil, err
		}
		return filter.And{Terms: []filter.Expr{l, r}}, nil
	case opcode.LogicOr:
		l, err := walkExpr(e.L)
		if err != nil {
			return nil, err
		}
		r, err := walkExpr(e.R)
		if err != nil {
			return nil, err
		}
		return filter.Or{Terms: []filter.Expr{l, r}}, nil
	}

	op, err := compareOp(e.Op)
	if err != nil {
		return nil, err
	}
	lhs, lok := resolveOperand(e.L)
	rhs, rok := resolveOperand(e.R)
	if !lok || !rok {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: comparison operands must be a column or a ?N argument")
	}

	switch {
	case !lhs.isArg && rhs.isArg:
		return filter.ColumnToArg{Op: op, Column: lhs.column, Arg: rhs.argIdx}, nil
	case lhs.isArg && !rhs.isArg:
		return filter.ColumnToArg{Op: reverseOp(op), Column: rhs.column, Arg: lhs.argIdx}, nil
	case !lhs.isArg && !rhs.isArg:
		return filter.ColumnToColumn{Op: op, ColumnA: lhs.column, ColumnB: rhs.column}, nil
	default:
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: comparison between two arguments is not meaningful")
	}
}

func walkIn(e *ast.PatternInExpr) (filter.Expr, error) {
	lhs, ok := resolveOperand(e.Expr)
	if !ok || lhs.isArg {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: `in` requires a column on its left")
	}
	if len(e.List) != 1 {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: `in` takes exactly one ?N argument")
	}
	arg, ok := resolveOperand(e.List[0])
	if !ok || !arg.isArg {
		return nil, rowerr.New(rowerr.KindMalformedEncoding, "query: `in` requires a ?N argument")
	}
	in := filter.InFilter{Column: lhs.column, Arg: arg.argIdx}
	if e.Not {
		return filter.Not{Term: in}, nil
	}
	return in, nil
}

func compareOp(op opcode.Op) (codec.CompareOp, error) {
	switch op {
	case opcode.EQ:
		return codec.OpEQ, nil
	case opcode.NE:
		return codec.OpNE, nil
	case opcode.LT:
		return codec.OpLT, nil
	case opcode.LE:
		return codec.OpLE, nil
	case opcode.GT:
		return codec.OpGT, nil
	case opcode.GE:
		return codec.OpGE, nil
	default:
		return 0, fmt.Errorf("query: unsupported comparison operator %v", op)
	}
}

// reverseOp flips an operator's sides: `?N == col` becomes `col == ?N`.
func reverseOp(op codec.CompareOp) codec.CompareOp {
	switch op {
	case codec.OpLT:
		return codec.OpGT
	case codec.OpLE:
		return codec.OpGE
	case codec.OpGT:
		return codec.OpLT
	case codec.OpGE:
		return codec.OpLE
	default:
		return op
	}
}
