package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jchantrell/rsbconv/internal/session"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
)

// DirectVariant runs a single job.
type DirectVariant struct {
	Fn JobFunc
}

func (DirectVariant) Mode() Mode { return Direct }
func (DirectVariant) variant()   {}

func (v DirectVariant) Run(s *session.Session, arg Argument) error {
	if arg.Job.Source == "" {
		return fmt.Errorf("direct invocation requires a source")
	}
	return v.Fn(s, arg.Job)
}

// BatchVariant runs a job for every regular file in a directory, in name
// order, one at a time.
type BatchVariant struct {
	Fn JobFunc

	// Filter selects files; nil accepts every regular file.
	Filter func(path string) bool

	// ContinueOnError keeps going after a failed job and returns every
	// error at the end.
	ContinueOnError bool
}

func (BatchVariant) Mode() Mode { return Batch }
func (BatchVariant) variant()   {}

func (v BatchVariant) Run(s *session.Session, arg Argument) error {
	sources, err := listSources(arg.Directory, v.Filter)
	if err != nil {
		return err
	}

	var errs error
	count := 0
	for i, source := range sources {
		s.Progress(i+1, len(sources), filepath.Base(source))

		if err := v.Fn(s.Child("source", source), Job{Source: source}); err != nil {
			err = fmt.Errorf("%s: %w", source, err)
			if !v.ContinueOnError {
				return err
			}
			s.Logger.Error("Job failed", "source", source, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		count++
	}

	s.Logger.Info("Processed files", "count", count, "failed", len(multierr.Errors(errs)))
	return errs
}

// ParallelVariant runs jobs concurrently on a bounded pool. Jobs must not
// share a destination.
type ParallelVariant struct {
	Fn      JobFunc
	Workers int

	// ContinueOnError keeps starting jobs after a failure. Without it, jobs
	// not yet started when the first one fails are skipped.
	ContinueOnError bool
}

func (ParallelVariant) Mode() Mode { return Parallel }
func (ParallelVariant) variant()   {}

func (v ParallelVariant) Run(s *session.Session, arg Argument) error {
	if err := checkDestinations(arg.Jobs); err != nil {
		return err
	}

	workers := v.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		errs    error
		done    int
		failed  int
		skipped int
	)

	p := pool.New().WithMaxGoroutines(workers)
	for _, job := range arg.Jobs {
		p.Go(func() {
			if ctx.Err() != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				return
			}

			err := v.Fn(s.Child("source", job.Source), job)

			mu.Lock()
			defer mu.Unlock()
			done++
			s.Progress(done, len(arg.Jobs), filepath.Base(job.Source))
			if err != nil {
				s.Logger.Error("Job failed", "source", job.Source, "error", err)
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Source, err))
				failed++
				if !v.ContinueOnError {
					cancel()
				}
			}
		})
	}
	p.Wait()

	s.Logger.Info("Processed files", "count", done-failed, "failed", failed, "skipped", skipped)
	return errs
}

func listSources(dir string, filter func(string) bool) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("batch invocation requires a directory")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var sources []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if filter != nil && !filter(path) {
			continue
		}
		sources = append(sources, path)
	}
	sort.Strings(sources)
	return sources, nil
}

func checkDestinations(jobs []Job) error {
	seen := make(map[string]string, len(jobs))
	for _, job := range jobs {
		if job.Destination == "" {
			continue
		}
		dest := filepath.Clean(job.Destination)
		if other, ok := seen[dest]; ok {
			return fmt.Errorf("jobs %s and %s share destination %s", other, job.Source, dest)
		}
		seen[dest] = job.Source
	}
	return nil
}
