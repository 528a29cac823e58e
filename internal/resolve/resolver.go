package resolve

import (
	"os"

	"github.com/dompile/cli/internal/deps"
	dmerrors "github.com/dompile/cli/internal/errors"
)

// MaxIncludeDepth bounds include recursion and layout chains.
const MaxIncludeDepth = 10

// FileReader is the file-system dependency of the resolver. The core
// performs no writes.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// OSFileReader reads straight from the operating system.
var OSFileReader FileReader = osFileReader{}

// Options configures a Resolver. All roots must be absolute.
type Options struct {
	SourceRoot  string
	LayoutsRoot string
	// DefaultLayout is a layout reference applied to pages that do not
	// declare one. Empty disables the default and such pages get the
	// synthesized HTML shell.
	DefaultLayout string
	MaxDepth      int        // zero means MaxIncludeDepth
	Reader        FileReader // nil means OSFileReader
}

// Resolver resolves content files against a fixed set of roots. It is
// immutable after construction and shared across page workers.
type Resolver struct {
	opts    Options
	tracker *deps.Tracker
}

// New creates a Resolver recording dependency edges into tracker.
func New(opts Options, tracker *deps.Tracker) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = MaxIncludeDepth
	}
	if opts.Reader == nil {
		opts.Reader = OSFileReader
	}
	return &Resolver{opts: opts, tracker: tracker}
}

// Begin starts a resolution traversal for one content file. The
// returned Resolution is single-use and not safe for concurrent use:
// the active ancestor set is per-resolution state and interleaving
// sub-resolutions of the same page would corrupt cycle detection.
func (r *Resolver) Begin(page string) *Resolution {
	return &Resolution{r: r, page: page}
}

// Resolution is one page's resolution pass: include expansion followed
// by layout application, collecting warnings along the way.
type Resolution struct {
	r        *Resolver
	page     string
	warnings []*dmerrors.BuildError
}

// Page returns the absolute path of the root content file.
func (res *Resolution) Page() string { return res.page }

// Warnings returns the structured warnings collected so far. Per-site
// failures degrade output but never fail the page.
func (res *Resolution) Warnings() []*dmerrors.BuildError { return res.warnings }

func (res *Resolution) warn(err *dmerrors.BuildError) {
	res.warnings = append(res.warnings, err.WithContext("page", res.page))
}

func (res *Resolution) recordEdge(target string, kind deps.EdgeKind) {
	if res.r.tracker != nil {
		res.r.tracker.RecordEdge(res.page, target, kind)
	}
}
