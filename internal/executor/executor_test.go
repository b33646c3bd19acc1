package executor

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jchantrell/rsbconv/internal/session"
	"go.uber.org/multierr"
)

type recorder struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (r *recorder) run(s *session.Session, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, filepath.Base(job.Source))
	if r.fail[filepath.Base(job.Source)] {
		return fmt.Errorf("broken bundle")
	}
	return nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestTableRegister(t *testing.T) {
	table := NewTable()
	r := &recorder{}

	if err := table.Register("rsb.convert", "convert", DirectVariant{Fn: r.run}); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("Duplicate", func(t *testing.T) {
		err := table.Register("rsb.convert", "again", DirectVariant{Fn: r.run})
		if !errors.Is(err, ErrDuplicateMethod) {
			t.Errorf("expected ErrDuplicateMethod, got %v", err)
		}
	})

	t.Run("DuplicateMode", func(t *testing.T) {
		err := table.Register("x", "", DirectVariant{Fn: r.run}, DirectVariant{Fn: r.run})
		if err == nil {
			t.Error("expected error for repeated mode")
		}
	})

	t.Run("NoVariants", func(t *testing.T) {
		if err := table.Register("y", ""); err == nil {
			t.Error("expected error for method without variants")
		}
	})

	t.Run("Sealed", func(t *testing.T) {
		table.Seal()
		err := table.Register("z", "", DirectVariant{Fn: r.run})
		if !errors.Is(err, ErrSealed) {
			t.Errorf("expected ErrSealed, got %v", err)
		}
	})

	t.Run("Methods", func(t *testing.T) {
		methods := table.Methods()
		if len(methods) != 1 || methods[0].ID != "rsb.convert" || methods[0].Modes[0] != Direct {
			t.Errorf("unexpected methods: %+v", methods)
		}
	})
}

func TestTableRun(t *testing.T) {
	r := &recorder{}
	table := NewTable()
	if err := table.Register("m", "", DirectVariant{Fn: r.run}); err != nil {
		t.Fatalf("register: %v", err)
	}
	table.Seal()

	var logs bytes.Buffer
	s := session.New(slog.New(slog.NewTextHandler(&logs, nil)))

	t.Run("Direct", func(t *testing.T) {
		if err := table.Run(s, "m", Direct, Argument{Job: Job{Source: "a.obb"}}); err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(r.seen) != 1 || r.seen[0] != "a.obb" {
			t.Errorf("seen: %v", r.seen)
		}
		if !strings.Contains(logs.String(), "Execution time") {
			t.Errorf("execution time not logged: %s", logs.String())
		}
	})

	t.Run("MissingSource", func(t *testing.T) {
		if err := table.Run(s, "m", Direct, Argument{}); err == nil {
			t.Error("expected error without a source")
		}
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		if err := table.Run(s, "nope", Direct, Argument{}); !errors.Is(err, ErrUnknownMethod) {
			t.Errorf("expected ErrUnknownMethod, got %v", err)
		}
	})

	t.Run("UnsupportedMode", func(t *testing.T) {
		if err := table.Run(s, "m", Parallel, Argument{}); !errors.Is(err, ErrUnsupportedMode) {
			t.Errorf("expected ErrUnsupportedMode, got %v", err)
		}
	})
}

func TestBatchVariant(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "c.obb", "a.obb", "b.obb", "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "sub.obb"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	onlyBundles := func(path string) bool { return filepath.Ext(path) == ".obb" }

	t.Run("ContinueOnError", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"a.obb": true, "c.obb": true}}
		var progress []int
		s := session.New(nil, session.WithProgress(func(current, total int, _ string) {
			progress = append(progress, current)
			if total != 3 {
				t.Errorf("total: got %d, want 3", total)
			}
		}))

		v := BatchVariant{Fn: r.run, Filter: onlyBundles, ContinueOnError: true}
		err := v.Run(s, Argument{Directory: dir})
		if got := len(multierr.Errors(err)); got != 2 {
			t.Errorf("errors: got %d (%v), want 2", got, err)
		}
		if strings.Join(r.seen, ",") != "a.obb,b.obb,c.obb" {
			t.Errorf("order: got %v", r.seen)
		}
		if len(progress) != 3 {
			t.Errorf("progress calls: got %v", progress)
		}
	})

	t.Run("StopOnError", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"a.obb": true}}
		v := BatchVariant{Fn: r.run, Filter: onlyBundles}
		if err := v.Run(session.New(nil), Argument{Directory: dir}); err == nil {
			t.Fatal("expected error")
		}
		if len(r.seen) != 1 {
			t.Errorf("batch should stop at the first failure, saw %v", r.seen)
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		v := BatchVariant{Fn: (&recorder{}).run}
		if err := v.Run(session.New(nil), Argument{Directory: filepath.Join(dir, "missing")}); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestParallelVariant(t *testing.T) {
	t.Run("RunsEveryJob", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"3.obb": true}}
		var jobs []Job
		for i := range 8 {
			jobs = append(jobs, Job{Source: fmt.Sprintf("%d.obb", i), Destination: fmt.Sprintf("work/%d", i)})
		}

		v := ParallelVariant{Fn: r.run, Workers: 3, ContinueOnError: true}
		err := v.Run(session.New(nil), Argument{Jobs: jobs})
		if got := len(multierr.Errors(err)); got != 1 {
			t.Errorf("errors: got %d (%v), want 1", got, err)
		}
		if len(r.seen) != len(jobs) {
			t.Errorf("ran %d jobs, want %d", len(r.seen), len(jobs))
		}
	})

	t.Run("CountsEveryFailure", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"a.obb": true, "b.obb": true, "c.obb": true}}
		jobs := []Job{{Source: "a.obb"}, {Source: "b.obb"}, {Source: "c.obb"}}

		var logs bytes.Buffer
		s := session.New(slog.New(slog.NewTextHandler(&logs, nil)))

		v := ParallelVariant{Fn: r.run, Workers: 2, ContinueOnError: true}
		err := v.Run(s, Argument{Jobs: jobs})
		if got := len(multierr.Errors(err)); got != 3 {
			t.Errorf("errors: got %d (%v), want 3", got, err)
		}
		if !strings.Contains(logs.String(), "count=0 failed=3 skipped=0") {
			t.Errorf("wrong totals logged:\n%s", logs.String())
		}
	})

	t.Run("StopOnError", func(t *testing.T) {
		r := &recorder{fail: map[string]bool{"0.obb": true}}
		var jobs []Job
		for i := range 5 {
			jobs = append(jobs, Job{Source: fmt.Sprintf("%d.obb", i)})
		}

		var logs bytes.Buffer
		s := session.New(slog.New(slog.NewTextHandler(&logs, nil)))

		v := ParallelVariant{Fn: r.run, Workers: 1}
		err := v.Run(s, Argument{Jobs: jobs})
		if got := len(multierr.Errors(err)); got != 1 {
			t.Errorf("errors: got %d (%v), want 1", got, err)
		}
		if len(r.seen) != 1 {
			t.Errorf("jobs after the failure should be skipped, saw %v", r.seen)
		}
		if !strings.Contains(logs.String(), "count=0 failed=1 skipped=4") {
			t.Errorf("wrong totals logged:\n%s", logs.String())
		}
	})

	t.Run("SharedDestination", func(t *testing.T) {
		jobs := []Job{
			{Source: "a.obb", Destination: "work/x"},
			{Source: "b.obb", Destination: "work/x/"},
		}
		v := ParallelVariant{Fn: (&recorder{}).run, Workers: 2}
		if err := v.Run(session.New(nil), Argument{Jobs: jobs}); err == nil {
			t.Error("expected error for shared destination")
		}
	})
}
