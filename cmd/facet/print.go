package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"facet/internal/driver"
	"facet/internal/mir"
)

var printCmd = &cobra.Command{
	Use:   "print [flags] <snapshot>",
	Short: "Print a module snapshot as readable MIR",
	Args:  cobra.ExactArgs(1),
	RunE:  printExecution,
}

func init() {
	printCmd.Flags().String("func", "", "print only the named function")
}

func printExecution(cmd *cobra.Command, args []string) error {
	funcName, err := cmd.Flags().GetString("func")
	if err != nil {
		return err
	}

	m, typesIn, err := driver.ReadSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if funcName == "" {
		return mir.DumpModule(out, m, typesIn)
	}
	f := m.FuncByName(funcName)
	if f == nil {
		return fmt.Errorf("no function %q in %s", funcName, args[0])
	}
	return mir.DumpFunc(out, f, typesIn)
}
