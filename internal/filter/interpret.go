package filter

import (
	"fmt"

	"rowstore/internal/codec"
	"rowstore/internal/rowerr"
)

// Eval is the pure-interpreter verdict for expr against a decoded row
// and argument list — the reference semantics the compiled evaluator
// (internal/evaluate) must agree with (spec.md §8, law 6).
func Eval(expr Expr, row map[string]any, args []any) (bool, error) {
	switch e := expr.(type) {
	case True:
		return true, nil
	case False:
		return false, nil
	case And:
		for _, t := range e.Terms {
			ok, err := Eval(t, row, args)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, t := range e.Terms {
			ok, err := Eval(t, row, args)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Eval(e.Term, row, args)
		return !ok, err
	case ColumnToArg:
		return compareValues(e.Op, row[e.Column], args[e.Arg-1])
	case ColumnToColumn:
		return compareValues(e.Op, row[e.ColumnA], row[e.ColumnB])
	case InFilter:
		set, ok := args[e.Arg-1].([]any)
		if !ok {
			return false, fmt.Errorf("filter: IN argument %d is not a list", e.Arg)
		}
		for _, v := range set {
			eq, err := compareValues(codec.OpEQ, row[e.Column], v)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("filter: unknown expr node %T", expr)
	}
}

func compareValues(op codec.CompareOp, a, b any) (bool, error) {
	if a == nil || b == nil {
		switch op {
		case codec.OpEQ:
			return a == nil && b == nil, nil
		case codec.OpNE:
			return !(a == nil && b == nil), nil
		default:
			return false, nil
		}
	}
	cmp, err := compareAny(a, b)
	if err != nil {
		if (op == codec.OpEQ || op == codec.OpNE) && rowerr.Is(err, rowerr.KindAmbiguousComparison) {
			// Values of different families are never equal.
			return op == codec.OpNE, nil
		}
		return false, err
	}
	switch op {
	case codec.OpEQ:
		return cmp == 0, nil
	case codec.OpNE:
		return cmp != 0, nil
	case codec.OpLT:
		return cmp < 0, nil
	case codec.OpLE:
		return cmp <= 0, nil
	case codec.OpGT:
		return cmp > 0, nil
	case codec.OpGE:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("filter: unsupported operator %v", op)
	}
}

// compareAny implements commonType(op): numeric values compare
// numerically, strings and byte slices compare lexicographically;
// mixing the two families returns an AmbiguousComparison error, which
// compareValues turns into a plain verdict for the exact operators
// == and !=.
func compareAny(a, b any) (int, error) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	as, aok := asString(a)
	bs, bok := asString(b)
	if aok && bok {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0, nil
			case !ab:
				return -1, nil
			default:
				return 1, nil
			}
		}
	}
	return 0, rowerr.New(rowerr.KindAmbiguousComparison, "comparison between %T and %T", a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}
