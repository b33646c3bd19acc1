// Package executor holds the command table: every method is registered once
// at start-up under an id, with the invocation modes it supports.
package executor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jchantrell/rsbconv/internal/session"
	"github.com/jchantrell/rsbconv/internal/utils"
)

// Errors returned by the command table.
var (
	ErrUnknownMethod   = errors.New("method not found")
	ErrDuplicateMethod = errors.New("method already registered")
	ErrUnsupportedMode = errors.New("method does not support mode")
	ErrSealed          = errors.New("command table is sealed")
)

// Mode selects how a method is invoked.
type Mode int

const (
	Direct Mode = iota
	Batch
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Batch:
		return "batch"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Job is a single unit of work.
type Job struct {
	Source      string
	Destination string
}

// Argument is passed to a variant. Direct reads Job, Batch reads Directory
// and Parallel reads Jobs.
type Argument struct {
	Job       Job
	Directory string
	Jobs      []Job
}

// JobFunc processes one job.
type JobFunc func(s *session.Session, job Job) error

// Variant is one way of invoking a method. The set of implementations is
// closed: DirectVariant, BatchVariant and ParallelVariant.
type Variant interface {
	Mode() Mode
	Run(s *session.Session, arg Argument) error
	variant()
}

// MethodInfo describes a registered method.
type MethodInfo struct {
	ID          string
	Description string
	Modes       []Mode
}

type method struct {
	description string
	variants    map[Mode]Variant
}

// Table maps method ids to their variants. Register everything, then Seal;
// after that the table is only read and is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	methods map[string]*method
	sealed  bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{methods: make(map[string]*method)}
}

// Register adds a method. Each mode may be given at most once.
func (t *Table) Register(id, description string, variants ...Variant) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrSealed, id)
	}
	if id == "" {
		return fmt.Errorf("method id cannot be empty")
	}
	if _, ok := t.methods[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, id)
	}
	if len(variants) == 0 {
		return fmt.Errorf("method %s has no variants", id)
	}

	m := &method{description: description, variants: make(map[Mode]Variant, len(variants))}
	for _, v := range variants {
		if _, ok := m.variants[v.Mode()]; ok {
			return fmt.Errorf("method %s registers %s twice", id, v.Mode())
		}
		m.variants[v.Mode()] = v
	}
	t.methods[id] = m
	return nil
}

// Seal stops further registration.
func (t *Table) Seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

// Methods lists the registered methods sorted by id.
func (t *Table) Methods() []MethodInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	infos := make([]MethodInfo, 0, len(t.methods))
	for id, m := range t.methods {
		info := MethodInfo{ID: id, Description: m.description}
		for mode := range m.variants {
			info.Modes = append(info.Modes, mode)
		}
		sort.Slice(info.Modes, func(i, j int) bool { return info.Modes[i] < info.Modes[j] })
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Run invokes a method in the given mode and logs how long it took.
func (t *Table) Run(s *session.Session, id string, mode Mode, arg Argument) error {
	t.mu.RLock()
	m, ok := t.methods[id]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}

	v, ok := m.variants[mode]
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrUnsupportedMode, id, mode)
	}

	s.Logger.Info("Method loaded", "method", id, "mode", mode.String())
	s.Start()
	err := v.Run(s, arg)
	elapsed := s.Stop()
	s.Logger.Info("Execution time", "method", id, "duration", utils.Duration(elapsed), "seconds", fmt.Sprintf("%.3f", elapsed.Seconds()))
	return err
}
