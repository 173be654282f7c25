package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rowstore/internal/codec"
	"rowstore/internal/rowinfo"
	"rowstore/internal/schemaconfig"
)

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <schema.toml>",
		Short: "Load a row type and print its codec layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDescribe(args[0])
		},
	}
}

func runDescribe(path string) error {
	schema, err := schemaconfig.NewLoader().LoadFile(path)
	if err != nil {
		return err
	}
	ri := schema.RowInfo

	fmt.Printf("row type %q, schema version %d\n", ri.RowType, ri.Version)
	fmt.Println("key columns:")
	for _, c := range ri.KeyColumns {
		printColumn(c)
	}
	fmt.Println("value columns:")
	for _, c := range ri.ValueColumns {
		printColumn(c)
	}
	for _, ak := range ri.AlternateKeys {
		fmt.Printf("alternate key %q:\n", ak.Name)
		for _, c := range ak.Columns {
			printColumn(c)
		}
	}
	for _, sec := range ri.SecondaryIndexes {
		fmt.Printf("secondary index %q:\n", sec.Name)
		for _, c := range sec.Columns {
			printColumn(c)
		}
		if len(sec.Covering) > 0 {
			fmt.Print("  covering:")
			for _, c := range sec.Covering {
				fmt.Printf(" %s", c.Name)
			}
			fmt.Println()
		}
	}
	if ak := schema.AutoKey; ak != nil {
		fmt.Printf("auto key: column %q, range [%d, %d]\n", ak.Column, ak.Min, ak.Max)
	}
	return nil
}

func printColumn(c rowinfo.ColumnDescriptor) {
	nullable := ""
	if c.Nullable {
		nullable = ", nullable"
	}
	dir := "asc"
	if c.Direction == codec.Descending {
		dir = "desc"
	}
	fmt.Printf("  %-20s %-12s %s%s\n", c.Name, typeName(c.Type), dir, nullable)
}

func typeName(t codec.TypeCode) string {
	switch t {
	case codec.TypeBool:
		return "bool"
	case codec.TypeUint8:
		return "uint8"
	case codec.TypeUint16:
		return "uint16"
	case codec.TypeUint32:
		return "uint32"
	case codec.TypeUint64:
		return "uint64"
	case codec.TypeInt8:
		return "int8"
	case codec.TypeInt16:
		return "int16"
	case codec.TypeInt32:
		return "int32"
	case codec.TypeInt64:
		return "int64"
	case codec.TypeFloat32:
		return "float32"
	case codec.TypeFloat64:
		return "float64"
	case codec.TypeBigInt:
		return "bigint"
	case codec.TypeBigDecimal:
		return "decimal"
	case codec.TypeString:
		return "string"
	case codec.TypeChar:
		return "char"
	case codec.TypeBytes:
		return "bytes"
	case codec.TypeArray:
		return "array"
	default:
		return "unknown"
	}
}
