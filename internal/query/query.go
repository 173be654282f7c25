// Package query parses the §6 query-language surface:
//
//	{projection?} filter? orderBy?
//
// into a filter.Expr plus a projection and order-by list the planner
// (internal/filter) and scanner (internal/scan) consume directly. The
// filter clause is parsed by embedding it into a synthetic
// `SELECT * FROM t WHERE <clause>` statement and walking the
// resulting AST (github.com/pingcap/tidb/pkg/parser), grounded on the
// teacher's internal/parser/mysql. The projection and order-by
// clauses have no SQL analogue, so they are hand-parsed.
package query

import (
	"regexp"
	"strings"

	"rowstore/internal/filter"
)

// Query is one parsed query string.
type Query struct {
	Projection []string // nil means "*"
	Filter     filter.Expr
	OrderBy    []filter.OrderTerm
}

var orderTokenRe = regexp.MustCompile(`^[+-]!?[A-Za-z_][A-Za-z0-9_]*$`)

// Parse parses a full query string.
func Parse(query string) (*Query, error) {
	s := strings.TrimSpace(query)

	projection, rest := parseProjection(s)

	filterClause, orderTokens := splitOrderBy(rest)

	expr, err := ParseFilter(filterClause)
	if err != nil {
		return nil, err
	}

	order := make([]filter.OrderTerm, 0, len(orderTokens))
	for _, tok := range orderTokens {
		order = append(order, parseOrderToken(tok))
	}

	return &Query{Projection: projection, Filter: expr, OrderBy: order}, nil
}

// parseProjection consumes a leading `{...}` clause, if present.
// A nil Projection slice means "every column" (`{*}` or no clause).
func parseProjection(s string) ([]string, string) {
	if !strings.HasPrefix(s, "{") {
		return nil, s
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return nil, s
	}
	body := strings.TrimSpace(s[1:end])
	rest := strings.TrimSpace(s[end+1:])
	if body == "*" || body == "" {
		return nil, rest
	}
	parts := strings.Split(body, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.TrimSpace(p))
	}
	return cols, rest
}

// splitOrderBy peels trailing `+col`/`-col`/`+!col`/`-!col` tokens off
// the end of the remaining query string. Tokens are recognized
// right-to-left; the first token that doesn't match the order-by
// shape ends the scan, and everything before it is the filter clause.
func splitOrderBy(s string) (string, []string) {
	fields := strings.Fields(s)
	cut := len(fields)
	for cut > 0 && orderTokenRe.MatchString(fields[cut-1]) {
		cut--
	}
	filterClause := strings.Join(fields[:cut], " ")
	orderTokens := append([]string(nil), fields[cut:]...)
	return filterClause, orderTokens
}

func parseOrderToken(tok string) filter.OrderTerm {
	desc := tok[0] == '-'
	rest := tok[1:]
	nullsLow := false
	if strings.HasPrefix(rest, "!") {
		nullsLow = true
		rest = rest[1:]
	}
	return filter.OrderTerm{Column: rest, Desc: desc, NullsLow: nullsLow}
}
