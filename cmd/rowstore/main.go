// Package main contains the cli implementation of the tool. It uses
// the cobra package for cli tool implementation.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"rowstore/internal/rtlog"
)

var log = rtlog.For("cmd")

func main() {
	rootCmd := &cobra.Command{
		Use:   "rowstore",
		Short: "Relational table layer over an ordered key-value store",
	}

	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(genkeyCmd())

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
