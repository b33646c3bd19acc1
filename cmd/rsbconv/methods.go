package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchantrell/rsbconv/internal/workspace"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the registered conversion methods",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := buildTable(newConverter(), cfg.TargetPlatform(), workspace.New(cfg.WorkDir), nil)
		if err != nil {
			return fmt.Errorf("building command table: %w", err)
		}

		fmt.Println("Available methods:")
		for _, m := range table.Methods() {
			modes := make([]string, len(m.Modes))
			for i, mode := range m.Modes {
				modes[i] = mode.String()
			}
			fmt.Printf("  %s [%s]\n      %s\n", m.ID, strings.Join(modes, ", "), m.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}
