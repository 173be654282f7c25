package main

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"rowstore/internal/keygen"
	"rowstore/internal/rowinfo"
	"rowstore/internal/schemaconfig"
	"rowstore/internal/store"
)

func genkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey <schema.toml> <min> <max> <count>",
		Short: "Exercise the auto key generator concurrently and report the allocated set",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			min, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("genkey: invalid min: %w", err)
			}
			max, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("genkey: invalid max: %w", err)
			}
			count, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("genkey: invalid count: %w", err)
			}
			return runGenkey(args[0], min, max, count)
		},
	}
}

func runGenkey(path string, min, max int64, count int) error {
	schema, err := schemaconfig.NewLoader().LoadFile(path)
	if err != nil {
		return err
	}
	ri := schema.RowInfo
	if schema.AutoKey == nil {
		return fmt.Errorf("genkey: row type %q declares no auto_key column", ri.RowType)
	}

	tailCol, ok := ri.ColumnByName(schema.AutoKey.Column)
	if !ok || !ri.IsKeyColumn(schema.AutoKey.Column) {
		return fmt.Errorf("genkey: auto_key column %q is not a key column", schema.AutoKey.Column)
	}

	prefixCols := make([]rowinfo.ColumnDescriptor, 0, len(ri.KeyColumns)-1)
	for _, c := range ri.KeyColumns {
		if c.Name != tailCol.Name {
			prefixCols = append(prefixCols, c)
		}
	}
	prefixValues := make(map[string]any, len(prefixCols))
	for _, c := range prefixCols {
		prefixValues[c.Name] = sampleValue(c, 0)
	}
	prefix, err := rowinfo.EncodeKey(prefixCols, prefixValues)
	if err != nil {
		return err
	}

	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	if err != nil {
		return err
	}
	gen := keygen.New(idx, prefix, tailCol.Spec(), min, max)

	results := make([][]byte, count)
	errs := make([]error, count)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txn := store.NewTxn(int64(1_000_000_000))
			results[i], errs[i] = gen.Generate(txn, []byte("v"))
		}(i)
	}
	wg.Wait()

	ok2 := 0
	for i := 0; i < count; i++ {
		if errs[i] != nil {
			fmt.Printf("[%d] failed: %v\n", i, errs[i])
			continue
		}
		ok2++
		fmt.Printf("[%d] allocated key: % x\n", i, results[i])
	}
	fmt.Printf("%d/%d generated successfully\n", ok2, count)
	return nil
}
