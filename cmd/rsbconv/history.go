package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jchantrell/rsbconv/internal/history"
	"github.com/jchantrell/rsbconv/internal/utils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.History == "" {
			return fmt.Errorf("conversion history is disabled")
		}

		journal, err := history.Open(cmd.Context(), history.DefaultOptions(cfg.History))
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer journal.Close()

		entries, err := journal.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No conversions recorded")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-9s  %-7s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Status, e.Target, e.Source)
			if e.Status == history.StatusFailed {
				fmt.Printf("    error: %s\n", e.Error)
				continue
			}
			fmt.Printf("    -> %s (%d packets, %s)\n", e.Output, e.Packets, utils.Duration(e.Duration))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show, 0 for all")
}
