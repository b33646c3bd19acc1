package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/rsbconv/internal/converter"
	"github.com/jchantrell/rsbconv/internal/executor"
	"github.com/jchantrell/rsbconv/internal/history"
	"github.com/jchantrell/rsbconv/internal/report"
	"github.com/jchantrell/rsbconv/internal/session"
	"github.com/jchantrell/rsbconv/internal/utils"
	"github.com/jchantrell/rsbconv/internal/workspace"
)

var (
	directory string
	showDiff  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [bundle...]",
	Short: "Convert bundles to the target platform",
	Long: `Convert rewrites each bundle for the target platform and writes the result
next to the source as <name>.main.rsb (iOS) or <name>.main.obb (Android).

A single bundle is converted directly. Several bundles are converted in
parallel, --jobs at a time. With --directory every .obb and .rsb file in the
directory is converted in name order.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if directory == "" && len(args) == 0 {
			return fmt.Errorf("requires at least one bundle or --directory")
		}
		if directory != "" && len(args) > 0 {
			return fmt.Errorf("--directory cannot be combined with bundle arguments")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		target := cfg.TargetPlatform()
		ws := workspace.New(cfg.WorkDir)

		var journal *history.History
		if cfg.History != "" {
			var err error
			journal, err = history.Open(ctx, history.DefaultOptions(cfg.History))
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer journal.Close()
		}

		var (
			mu      sync.Mutex
			results []*converter.Result
			failed  int
		)
		done := func(s *session.Session, job executor.Job, result *converter.Result, err error) {
			entry := history.Entry{
				Source: job.Source,
				Target: target.String(),
				Status: history.StatusSucceeded,
			}
			if err != nil {
				entry.Status = history.StatusFailed
				entry.Error = err.Error()
			}
			if result != nil {
				entry.Output = result.Output
				entry.Packets = len(result.Packets)
				entry.Duration = result.Duration
				for _, p := range result.Packets {
					if p.Renamed != "" {
						entry.Renamed = p.Renamed
					}
				}
			}

			if journal != nil {
				if _, herr := journal.Record(ctx, entry); herr != nil {
					s.Logger.Warn("Failed to record conversion", "error", herr)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			results = append(results, result)

			diff, derr := report.ResultDiff(result)
			if derr != nil {
				s.Logger.Warn("Failed to diff packet lists", "error", derr)
				return
			}
			s.Logger.Debug("Packet list changes", "diff", diff)
			if showDiff {
				fmt.Print(diff)
			}
		}

		table, err := buildTable(newConverter(), target, ws, done)
		if err != nil {
			return fmt.Errorf("building command table: %w", err)
		}

		progress := utils.NewProgress(!(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))
		sess := session.New(slog.Default(), session.WithProgress(progress.Update))

		mode, arg := invocation(ws, args)
		slog.Info("Starting conversion", "target", target.String(), "mode", mode.String(), "work_root", ws.Root())

		start := time.Now()
		runErr := table.Run(sess, converter.MethodID, mode, arg)
		progress.Finish()

		for _, r := range results {
			fmt.Printf("%s -> %s (%s, %s)\n", r.Source, r.Output, report.Summary(r), utils.Duration(r.Duration))
		}
		fmt.Printf("Bundles converted: %s\n", utils.Number(int64(len(results))))
		fmt.Printf("Bundles failed: %s\n", utils.Number(int64(failed)))
		fmt.Printf("Total duration: %s\n", utils.Duration(time.Since(start)))
		if journal != nil {
			fmt.Println("Try running: rsbconv history")
		}

		return runErr
	},
}

// invocation picks the mode for the command line: a directory is a batch,
// one bundle runs directly and several run in parallel.
func invocation(ws *workspace.Workspace, args []string) (executor.Mode, executor.Argument) {
	if directory != "" {
		return executor.Batch, executor.Argument{Directory: directory}
	}
	if len(args) == 1 {
		return executor.Direct, executor.Argument{Job: executor.Job{Source: args[0]}}
	}

	// the same bundle named twice would share a work directory
	seen := make(map[string]bool, len(args))
	var jobs []executor.Job
	for _, source := range args {
		dir := ws.DirFor(source)
		if seen[dir] {
			slog.Warn("Skipping duplicate bundle", "source", source)
			continue
		}
		seen[dir] = true
		jobs = append(jobs, executor.Job{Source: source})
	}
	return executor.Parallel, executor.Argument{Jobs: jobs}
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&directory, "directory", "d", "", "convert every bundle in a directory")
	convertCmd.Flags().BoolVar(&showDiff, "show-diff", false, "print the packet list changes of each bundle")
}
