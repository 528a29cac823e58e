// Package deps tracks which pages depend on which includes and
// layouts, for incremental-rebuild targeting.
package deps

import (
	"sync"

	"github.com/dompile/cli/internal/util/sets"
)

// EdgeKind classifies the relationship between a page and a dependency.
type EdgeKind string

const (
	KindInclude EdgeKind = "include"
	KindLayout  EdgeKind = "layout"
)

// Edge is one recorded (page, dependency, kind) triple.
type Edge struct {
	Page       string
	Dependency string
	Kind       EdgeKind
}

// Tracker holds forward (page -> deps) and reverse (dep -> pages)
// indices. The resolver records an edge from the top-level page at
// every recursion depth, so the reverse index already contains the
// full transitive closure and invalidation never needs a graph walk.
//
// Tracker instances persist across incremental-build cycles and are
// safe for concurrent use by page-resolution workers.
type Tracker struct {
	mu      sync.RWMutex
	forward map[string]map[string]EdgeKind
	reverse map[string]sets.Set[string]
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		forward: make(map[string]map[string]EdgeKind),
		reverse: make(map[string]sets.Set[string]),
	}
}

// RecordEdge records page -> dependency. Recording the same edge twice
// has no additional effect.
func (t *Tracker) RecordEdge(page, dependency string, kind EdgeKind) {
	if page == "" || dependency == "" || page == dependency {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fwd, ok := t.forward[page]
	if !ok {
		fwd = make(map[string]EdgeKind)
		t.forward[page] = fwd
	}
	fwd[dependency] = kind

	rev, ok := t.reverse[dependency]
	if !ok {
		rev = sets.New[string]()
		t.reverse[dependency] = rev
	}
	rev.Add(page)
}

// ClearPage removes all forward edges previously recorded for page,
// including their reverse-index entries. Called before a page is
// reprocessed so edges from since-removed directives do not linger.
func (t *Tracker) ClearPage(page string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for dep := range t.forward[page] {
		if rev, ok := t.reverse[dep]; ok {
			rev.Delete(page)
			if rev.Len() == 0 {
				delete(t.reverse, dep)
			}
		}
	}
	delete(t.forward, page)
}

// DependentsOf returns the pages that (transitively) depend on the
// given file, in lexical order.
func (t *Tracker) DependentsOf(dependency string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sets.SortedStrings(t.reverse[dependency])
}

// DependenciesOf returns the dependencies recorded for page, in
// lexical order. Used for diagnostics and tests.
func (t *Tracker) DependenciesOf(page string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := sets.New[string]()
	for dep := range t.forward[page] {
		out.Add(dep)
	}
	return sets.SortedStrings(out)
}

// EdgesOf returns the edges recorded for one page, sorted by
// dependency path.
func (t *Tracker) EdgesOf(page string) []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()

	deps := sets.New[string]()
	for dep := range t.forward[page] {
		deps.Add(dep)
	}
	out := make([]Edge, 0, deps.Len())
	for _, dep := range sets.SortedStrings(deps) {
		out = append(out, Edge{Page: page, Dependency: dep, Kind: t.forward[page][dep]})
	}
	return out
}

// Edges returns a snapshot of every recorded edge. Ordering is not
// specified.
func (t *Tracker) Edges() []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Edge
	for page, fwd := range t.forward {
		for dep, kind := range fwd {
			out = append(out, Edge{Page: page, Dependency: dep, Kind: kind})
		}
	}
	return out
}
