package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"rowstore/internal/backfill"
	"rowstore/internal/rowinfo"
	"rowstore/internal/schemaconfig"
	"rowstore/internal/store"
	"rowstore/internal/transform"
)

const demoRowCount = 25

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill <schema.toml> <index-name>",
		Short: "Run an online backfill against the in-memory store and report phase transitions",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runBackfill(args[0], args[1])
		},
	}
}

func targetInfoFor(ri *rowinfo.RowInfo, name string) (transform.TargetInfo, bool) {
	for _, ak := range ri.AlternateKeys {
		if ak.Name == name {
			return transform.TargetInfo{Name: name, KeyColumns: toColumnTargets(ak.Columns), Unique: true}, true
		}
	}
	for _, sec := range ri.SecondaryIndexes {
		if sec.Name == name {
			return transform.TargetInfo{
				Name:         name,
				KeyColumns:   toColumnTargets(sec.Columns),
				ValueColumns: toColumnTargets(sec.Covering),
			}, true
		}
	}
	return transform.TargetInfo{}, false
}

func toColumnTargets(cols []rowinfo.ColumnDescriptor) []transform.ColumnTarget {
	out := make([]transform.ColumnTarget, len(cols))
	for i, c := range cols {
		out[i] = transform.ColumnTarget{Column: c, SourceName: c.Name}
	}
	return out
}

func seedPrimary(ri *rowinfo.RowInfo, primary *store.MemIndex, n int) error {
	txn := store.NewTxn(-1)
	for i := 1; i <= n; i++ {
		values := make(map[string]any, len(ri.KeyColumns)+len(ri.ValueColumns))
		for _, c := range ri.KeyColumns {
			values[c.Name] = sampleValue(c, i)
		}
		for _, c := range ri.ValueColumns {
			values[c.Name] = sampleValue(c, i)
		}
		key, err := rowinfo.EncodeKey(ri.KeyColumns, values)
		if err != nil {
			return err
		}
		value, err := rowinfo.EncodeValue(ri, values)
		if err != nil {
			return err
		}
		if err := primary.Store(txn, key, value); err != nil {
			return err
		}
	}
	return nil
}

func runBackfill(path, indexName string) error {
	schema, err := schemaconfig.NewLoader().LoadFile(path)
	if err != nil {
		return err
	}
	ri := schema.RowInfo

	info, ok := targetInfoFor(ri, indexName)
	if !ok {
		return fmt.Errorf("backfill: %q names no alternate key or secondary index of row type %q", indexName, ri.RowType)
	}

	st := store.NewMemStore()
	primary, err := st.CreateIndex("primary")
	if err != nil {
		return err
	}
	if err := seedPrimary(ri, primary, demoRowCount); err != nil {
		return err
	}
	live, err := st.CreateIndex(indexName)
	if err != nil {
		return err
	}

	maker := transform.NewMaker(ri)
	targetID, err := maker.AddTarget(info)
	if err != nil {
		return err
	}

	bf, err := backfill.New(st, live, st.NewSorter())
	if err != nil {
		return err
	}

	ctx := context.Background()
	fmt.Printf("phase %d: bulk sort\n", backfill.PhaseBulkSort)
	ok, err = bf.BulkSort(ctx, primary, maker, targetID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("stopped during bulk sort")
		return nil
	}

	fmt.Printf("phase %d: finalize\n", backfill.PhaseFinalize)
	ok, err = bf.Finalize(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("stopped before finalize")
		return nil
	}

	fmt.Printf("phase %d: reconcile\n", backfill.PhaseReconcile)
	txn := store.NewTxn(-1)
	txn.SetLockMode(store.UpgradableRead)
	if err := bf.Reconcile(txn); err != nil {
		return err
	}

	fmt.Printf("phase %d: swap\n", backfill.PhaseSwap)
	bf.Swap()

	fmt.Printf("backfill of %q complete: %d rows migrated\n", indexName, demoRowCount)
	return nil
}
