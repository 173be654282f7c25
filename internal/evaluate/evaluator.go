package evaluate

import (
	"rowstore/internal/codec"
	"rowstore/internal/filter"
	"rowstore/internal/rowerr"
	"rowstore/internal/rowinfo"
)

// StopColumn names the column/argument pair whose first failing
// comparison ends a scan early (spec.md §4.4).
type StopColumn struct {
	Column string
	Arg    int
}

// RowEvaluator evaluates a residual filter against one row's encoded
// key and value, decoding columns lazily and caching what it has
// already located or decoded so repeated references (shared by
// multiple filter terms, or by the projection) do not redecode.
//
// A persistent per-row cache object replaces the source's
// codegen-local variables, so the branch-state reset the source's
// AND/OR codegen performs (stale locals from an untaken branch) has
// no analogue here: the same row's bytes back every branch, so a
// column located while evaluating one branch is valid for any other.
type RowEvaluator struct {
	ri         *rowinfo.RowInfo
	keyCodecs  []codec.Codec
	valueCodecs []codec.Codec
	residual   filter.Expr
	projection []string
	stop       *StopColumn

	cache   *columnCache
	keyBuf  []byte
	valBuf  []byte
	args    []any
}

// New builds a RowEvaluator bound to ri, a residual filter, a
// projection (nil/["*"] means all columns), and an optional stop
// column.
func New(ri *rowinfo.RowInfo, residual filter.Expr, projection []string, stop *StopColumn) *RowEvaluator {
	return &RowEvaluator{
		ri:          ri,
		keyCodecs:   ri.KeyCodecs(),
		valueCodecs: ri.ValueCodecs(),
		residual:    residual,
		projection:  projection,
		stop:        stop,
		cache:       newColumnCache(len(ri.KeyColumns), len(ri.ValueColumns)),
	}
}

// Bind points the evaluator at a new row's encoded key and raw
// (version-prefixed) value and argument list, stripping the
// schema-version prefix before value columns are ever located.
func (e *RowEvaluator) Bind(keyBuf, rawValue []byte, args []any) {
	e.keyBuf = keyBuf
	if e.ri.Version > 0 {
		_, offset := rowinfo.PeekVersion(rawValue)
		e.valBuf = rawValue[offset:]
	} else {
		e.valBuf = rawValue
	}
	e.args = args
	e.cache.resetAll()
}

func (e *RowEvaluator) columnOrdinal(name string) (ordinal int, isKey bool, ok bool) {
	for i, c := range e.ri.KeyColumns {
		if c.Name == name {
			return i, true, true
		}
	}
	for i, c := range e.ri.ValueColumns {
		if c.Name == name {
			return i, false, true
		}
	}
	return 0, false, false
}

// locate ensures the column at ordinal (in the key or value set) has
// at least a byte range, decoding/skipping every preceding column in
// the same set first since variable-width codecs make offsets only
// discoverable sequentially.
func (e *RowEvaluator) locate(isKey bool, ordinal int) error {
	cells := e.cache.value
	codecs := e.valueCodecs
	buf := e.valBuf
	if isKey {
		cells = e.cache.key
		codecs = e.keyCodecs
		buf = e.keyBuf
	}
	start := 0
	for i := 0; i <= ordinal; i++ {
		if cells[i].State != Unlocated {
			start = cells[i].End
			continue
		}
		if i > 0 {
			start = cells[i-1].End
		}
		next, err := codecs[i].DecodeSkip(buf, start)
		if err != nil {
			return err
		}
		cells[i].State = Located
		cells[i].Start = start
		cells[i].End = next
		start = next
	}
	return nil
}

func (e *RowEvaluator) decode(isKey bool, ordinal int) (any, error) {
	cells := e.cache.value
	codecs := e.valueCodecs
	buf := e.valBuf
	if isKey {
		cells = e.cache.key
		codecs = e.keyCodecs
		buf = e.keyBuf
	}
	if cells[ordinal].State == Decoded {
		return cells[ordinal].Value, nil
	}
	if err := e.locate(isKey, ordinal); err != nil {
		return nil, err
	}
	val, _, err := codecs[ordinal].Decode(buf, cells[ordinal].Start)
	if err != nil {
		return nil, err
	}
	cells[ordinal].State = Decoded
	cells[ordinal].Value = val
	cells[ordinal].HasValue = true
	return val, nil
}

// Range locates (without decoding) the named column and returns its
// raw byte span within the bound key or value buffer — the building
// block for the transform maker's binary-copy optimization (C9).
func (e *RowEvaluator) Range(name string) (start, end int, isKey bool, err error) {
	ordinal, isKey, ok := e.columnOrdinal(name)
	if !ok {
		return 0, 0, false, rowerr.New(rowerr.KindConversionException, "evaluate: unknown column %q", name)
	}
	if err := e.locate(isKey, ordinal); err != nil {
		return 0, 0, false, err
	}
	cells := e.cache.value
	if isKey {
		cells = e.cache.key
	}
	return cells[ordinal].Start, cells[ordinal].End, isKey, nil
}

// RawBuf returns the bound key or value buffer backing Range's spans.
func (e *RowEvaluator) RawBuf(isKey bool) []byte {
	if isKey {
		return e.keyBuf
	}
	return e.valBuf
}

// RawKeyBytes returns the bound row's full encoded primary key, used
// by the transform maker to populate an alternate key's value
// (spec.md §3's "Alternate-key secondary").
func (e *RowEvaluator) RawKeyBytes() ([]byte, error) {
	return e.keyBuf, nil
}

// Column decodes and returns one named column's value.
func (e *RowEvaluator) Column(name string) (any, error) {
	ordinal, isKey, ok := e.columnOrdinal(name)
	if !ok {
		return nil, rowerr.New(rowerr.KindConversionException, "evaluate: unknown column %q", name)
	}
	return e.decode(isKey, ordinal)
}

// Row decodes every column named in the projection (or all columns,
// if the projection is nil or "*") into a name→value map.
func (e *RowEvaluator) Row() (map[string]any, error) {
	names := e.projection
	if len(names) == 0 || (len(names) == 1 && names[0] == "*") {
		names = make([]string, 0, len(e.ri.KeyColumns)+len(e.ri.ValueColumns))
		for _, c := range e.ri.KeyColumns {
			names = append(names, c.Name)
		}
		for _, c := range e.ri.ValueColumns {
			names = append(names, c.Name)
		}
	}
	out := make(map[string]any, len(names))
	for _, n := range names {
		v, err := e.Column(n)
		if err != nil {
			return nil, err
		}
		out[n] = v
	}
	return out, nil
}

// Evaluate walks the residual filter against the bound row. The
// second return value reports whether the stop column's comparison
// failed — in place of the source's thrown ScanStopped sentinel, the
// scan controller checks this return explicitly (spec.md §9).
func (e *RowEvaluator) Evaluate() (pass bool, stopped bool, err error) {
	if e.residual == nil {
		return true, false, nil
	}
	return e.visit(e.residual)
}

func (e *RowEvaluator) visit(expr filter.Expr) (bool, bool, error) {
	switch n := expr.(type) {
	case filter.True:
		return true, false, nil
	case filter.False:
		return false, false, nil
	case filter.And:
		for _, t := range n.Terms {
			ok, stopped, err := e.visit(t)
			if err != nil || stopped {
				return false, stopped, err
			}
			if !ok {
				return false, false, nil
			}
		}
		return true, false, nil
	case filter.Or:
		for _, t := range n.Terms {
			ok, stopped, err := e.visit(t)
			if err != nil || stopped {
				return false, stopped, err
			}
			if ok {
				return true, false, nil
			}
		}
		return false, false, nil
	case filter.Not:
		ok, stopped, err := e.visit(n.Term)
		return !ok, stopped, err
	case filter.ColumnToArg:
		return e.visitColumnToArg(n)
	case filter.ColumnToColumn:
		lhs, err := e.Column(n.ColumnA)
		if err != nil {
			return false, false, err
		}
		rhs, err := e.Column(n.ColumnB)
		if err != nil {
			return false, false, err
		}
		ok, err := filter.Eval(filter.ColumnToArg{Op: n.Op, Column: "__lhs", Arg: 1},
			map[string]any{"__lhs": lhs}, []any{rhs})
		return ok, false, err
	case filter.InFilter:
		ok, err := filter.Eval(n, mustRow(e), e.args)
		return ok, false, err
	default:
		return false, false, rowerr.New(rowerr.KindConversionException, "evaluate: unknown expr node %T", expr)
	}
}

func mustRow(e *RowEvaluator) map[string]any {
	row, err := e.Row()
	if err != nil {
		return map[string]any{}
	}
	return row
}

// visitColumnToArg implements the stop-column short circuit and the
// filter_quick_compare fast path.
func (e *RowEvaluator) visitColumnToArg(n filter.ColumnToArg) (bool, bool, error) {
	ordinal, isKey, ok := e.columnOrdinal(n.Column)
	if !ok {
		return false, false, rowerr.New(rowerr.KindConversionException, "evaluate: unknown column %q", n.Column)
	}
	codecs := e.valueCodecs
	if isKey {
		codecs = e.keyCodecs
	}
	if err := e.locate(isKey, ordinal); err != nil {
		return false, false, err
	}
	cells := e.cache.value
	buf := e.valBuf
	if isKey {
		cells = e.cache.key
		buf = e.keyBuf
	}

	arg := e.args[n.Arg-1]
	var pass bool
	quick, err := codecs[ordinal].FilterQuickCompare(buf, cells[ordinal].Start, n.Op, arg)
	if err != nil {
		return false, false, err
	}
	switch quick {
	case codec.QuickPass:
		pass = true
	case codec.QuickFail:
		pass = false
	default:
		lhs, err := e.decode(isKey, ordinal)
		if err != nil {
			return false, false, err
		}
		ok, err := filter.Eval(filter.ColumnToArg{Op: n.Op, Column: "__lhs", Arg: 1},
			map[string]any{"__lhs": lhs}, []any{arg})
		if err != nil {
			return false, false, err
		}
		pass = ok
	}

	if !pass && e.stop != nil && e.stop.Column == n.Column && e.stop.Arg == n.Arg {
		return false, true, nil
	}
	return pass, false, nil
}
