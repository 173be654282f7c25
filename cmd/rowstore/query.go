package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rowstore/internal/filter"
	"rowstore/internal/query"
	"rowstore/internal/rowinfo"
	"rowstore/internal/schemaconfig"
)

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <schema.toml> <query-string> [args...]",
		Short: "Parse a query string, plan it, and print the chosen scan plan(s)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runQuery(args[0], args[1], args[2:])
		},
	}
}

func runQuery(path, queryString string, rawArgs []string) error {
	schema, err := schemaconfig.NewLoader().LoadFile(path)
	if err != nil {
		return err
	}
	ri := schema.RowInfo

	q, err := query.Parse(queryString)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	sel := filter.Selector{
		Candidates: candidatesFor(ri),
		Primary:    primaryCandidate(ri),
	}
	plans := sel.Plan(q.Filter, q.OrderBy, q.Projection, false)

	fmt.Printf("parsed %d arguments, %d scan plan(s):\n", len(rawArgs), len(plans))
	for i, p := range plans {
		fmt.Printf("  [%d] index=%q terms=%d residual=%d for-update-fallback=%v\n",
			i, p.Index, len(p.Group.Terms), len(p.Group.Residual), p.ForUpdateFallback)
		if len(p.Order) > 0 {
			var cols []string
			for _, ot := range p.Order {
				dir := "+"
				if ot.Desc {
					dir = "-"
				}
				cols = append(cols, dir+ot.Column)
			}
			fmt.Printf("      order: %s\n", strings.Join(cols, " "))
		}
	}
	return nil
}

func columnNames(cols []rowinfo.ColumnDescriptor) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func primaryCandidate(ri *rowinfo.RowInfo) filter.IndexCandidate {
	covering := map[string]bool{}
	for _, c := range ri.ValueColumns {
		covering[c.Name] = true
	}
	for _, c := range ri.KeyColumns {
		covering[c.Name] = true
	}
	return filter.IndexCandidate{Name: "primary", KeyColumns: columnNames(ri.KeyColumns), Covering: covering, IsPrimary: true}
}

func candidatesFor(ri *rowinfo.RowInfo) []filter.IndexCandidate {
	candidates := []filter.IndexCandidate{primaryCandidate(ri)}
	for _, ak := range ri.AlternateKeys {
		candidates = append(candidates, filter.IndexCandidate{
			Name:       ak.Name,
			KeyColumns: columnNames(ak.Columns),
			Covering:   map[string]bool{},
		})
	}
	for _, sec := range ri.SecondaryIndexes {
		covering := map[string]bool{}
		for _, c := range sec.Columns {
			covering[c.Name] = true
		}
		for _, c := range sec.Covering {
			covering[c.Name] = true
		}
		candidates = append(candidates, filter.IndexCandidate{
			Name:       sec.Name,
			KeyColumns: columnNames(sec.Columns),
			Covering:   covering,
		})
	}
	return candidates
}
