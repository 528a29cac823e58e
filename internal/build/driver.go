// Package build drives full and incremental site builds: it scans the
// source tree, resolves pages through the resolve pipeline in parallel
// workers, copies referenced assets, and emits the sitemap.
package build

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dompile/cli/internal/assets"
	"github.com/dompile/cli/internal/config"
	"github.com/dompile/cli/internal/deps"
	dmerrors "github.com/dompile/cli/internal/errors"
	"github.com/dompile/cli/internal/metrics"
	"github.com/dompile/cli/internal/resolve"
	"github.com/dompile/cli/internal/state"
	"github.com/dompile/cli/internal/util/sets"
)

// Driver owns the long-lived trackers of an incremental-build session
// and runs build cycles against them.
type Driver struct {
	cfg      *config.Config
	roots    *config.Roots
	resolver *resolve.Resolver
	tracker  *deps.Tracker
	assets   *assets.Tracker
	store    *state.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewDriver creates a driver for the project rooted at projectDir.
func NewDriver(cfg *config.Config, projectDir string) (*Driver, error) {
	roots, err := cfg.ResolveRoots(projectDir)
	if err != nil {
		return nil, err
	}

	tracker := deps.NewTracker()
	d := &Driver{
		cfg:     cfg,
		roots:   roots,
		tracker: tracker,
		assets:  assets.NewTracker(roots.Source, nil),
		logger:  slog.Default(),
		resolver: resolve.New(resolve.Options{
			SourceRoot:    roots.Source,
			LayoutsRoot:   roots.Layouts,
			DefaultLayout: cfg.DefaultLayout,
		}, tracker),
	}
	return d, nil
}

// WithLogger sets a custom logger.
func (d *Driver) WithLogger(logger *slog.Logger) *Driver {
	d.logger = logger
	return d
}

// WithMetrics attaches a metrics registry.
func (d *Driver) WithMetrics(m *metrics.Metrics) *Driver {
	d.metrics = m
	return d
}

// WithStore attaches the persistent signature store and seeds the
// dependency tracker from its saved edges, so the first incremental
// build of a new process already knows the graph.
func (d *Driver) WithStore(store *state.Store) *Driver {
	d.store = store
	edges, err := store.LoadEdges()
	if err != nil {
		d.logger.Warn("failed to load cached dependency edges", "error", err)
		return d
	}
	for _, e := range edges {
		d.tracker.RecordEdge(e.Page, e.Dependency, deps.EdgeKind(e.Kind))
	}
	return d
}

// Roots exposes the resolved directory roots.
func (d *Driver) Roots() *config.Roots { return d.roots }

// Tracker exposes the dependency tracker (watch mode targeting).
func (d *Driver) Tracker() *deps.Tracker { return d.tracker }

// Result summarizes one build cycle.
type Result struct {
	BuildID      string
	Duration     time.Duration
	Pages        int
	PagesSkipped int
	AssetsCopied int
	Warnings     []*dmerrors.BuildError
	Failures     []PageFailure
}

// PageFailure is a page whose root content file could not be processed
// at all. Sub-directive failures are Warnings, not Failures.
type PageFailure struct {
	Page string
	Err  error
}

// OK reports whether the build had no page-fatal errors.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

// Build runs a full build cycle.
func (d *Driver) Build(ctx context.Context) (*Result, error) {
	return d.run(ctx, nil, false)
}

// BuildIncremental runs a full scan but skips pages whose own file and
// entire recorded dependency set are unchanged since the stored
// signatures. Requires an attached store; without one it degrades to a
// full build.
func (d *Driver) BuildIncremental(ctx context.Context) (*Result, error) {
	return d.run(ctx, nil, d.store != nil)
}

// Rebuild processes only the pages affected by the given changed
// source paths: the changed pages themselves plus every recorded
// dependent. Asset changes re-run the copy pass via the scan.
func (d *Driver) Rebuild(ctx context.Context, changed []string) (*Result, error) {
	targets := sets.New[string]()
	for _, path := range changed {
		targets.Add(path)
		for _, page := range d.tracker.DependentsOf(path) {
			targets.Add(page)
		}
	}
	return d.run(ctx, targets, false)
}

// run is the single build loop. When only is non-nil, pages outside it
// are skipped (their previous output is left in place).
func (d *Driver) run(ctx context.Context, only sets.Set[string], incremental bool) (*Result, error) {
	start := time.Now()
	result := &Result{BuildID: uuid.NewString()}
	logger := d.logger.With("build_id", result.BuildID)

	srcs, err := d.scan()
	if err != nil {
		return nil, err
	}

	var toBuild []string
	for _, page := range srcs.Pages {
		switch {
		case only != nil && !only.Has(page):
			continue
		case incremental && d.unchangedWithDeps(page):
			result.PagesSkipped++
			continue
		}
		toBuild = append(toBuild, page)
	}

	logger.Info("build started",
		"pages", len(toBuild),
		"skipped", result.PagesSkipped,
		"assets", len(srcs.Assets))

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	workers := d.cfg.Workers
	if workers > len(toBuild) && len(toBuild) > 0 {
		workers = len(toBuild)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				warnings, err := d.buildPage(page)
				mu.Lock()
				result.Warnings = append(result.Warnings, warnings...)
				if err != nil {
					result.Failures = append(result.Failures, PageFailure{Page: page, Err: err})
				} else {
					result.Pages++
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, page := range toBuild {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- page:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		// a superseded watch rebuild simply discards in-flight work
		return result, err
	}

	// The copy pass must not start until every page resolution has
	// registered its references.
	copied, err := d.copyAssets(srcs.Assets)
	if err != nil {
		return result, err
	}
	result.AssetsCopied = copied

	if d.cfg.Site.BaseURL != "" {
		if err := d.writeSitemap(srcs.Pages); err != nil {
			logger.Warn("sitemap generation failed", "error", err)
		}
	}

	if d.store != nil {
		d.persistState(result.BuildID, srcs, toBuild, logger)
	}

	result.Duration = time.Since(start)
	if d.metrics != nil {
		d.metrics.ObserveBuild(result.Pages, result.AssetsCopied, len(result.Warnings), result.Duration, !result.OK())
	}
	for _, w := range result.Warnings {
		logger.Warn("resolution warning", "category", w.Category, "message", w.Message)
	}
	logger.Info("build finished",
		"pages", result.Pages,
		"assets_copied", result.AssetsCopied,
		"warnings", len(result.Warnings),
		"failures", len(result.Failures),
		"duration", result.Duration)
	return result, nil
}

// unchangedWithDeps reports whether page and everything it depends on
// match their stored signatures. A dependency that was absent at the
// last build and is still absent counts as unchanged.
func (d *Driver) unchangedWithDeps(page string) bool {
	if !d.store.Unchanged(page) {
		return false
	}
	for _, dep := range d.tracker.DependenciesOf(page) {
		if d.store.Unchanged(dep) || d.stillAbsent(dep) {
			continue
		}
		return false
	}
	return true
}

// stillAbsent reports a dependency with no stored signature and no
// file on disk: referenced but never present, such as a layout that
// was missing when its page last resolved.
func (d *Driver) stillAbsent(dep string) bool {
	if _, ok, err := d.store.Get(dep); err != nil || ok {
		return false
	}
	_, err := os.Stat(dep)
	return os.IsNotExist(err)
}

// persistState stores signatures for every scanned source file and the
// rebuilt pages' edges.
func (d *Driver) persistState(buildID string, srcs *sourceSet, builtPages []string, logger *slog.Logger) {
	var sigs []state.Signature
	for _, path := range srcs.All() {
		sig, err := state.FileSignature(path)
		if err != nil {
			continue
		}
		sigs = append(sigs, sig)
	}
	if err := d.store.PutAll(buildID, sigs); err != nil {
		logger.Warn("failed to persist signatures", "error", err)
	}

	for _, page := range builtPages {
		var records []state.EdgeRecord
		for _, e := range d.tracker.EdgesOf(page) {
			records = append(records, state.EdgeRecord{Page: e.Page, Dependency: e.Dependency, Kind: string(e.Kind)})
		}
		if err := d.store.ReplaceEdges(page, records); err != nil {
			logger.Warn("failed to persist edges", "page", page, "error", err)
		}
	}
}
