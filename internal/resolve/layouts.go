package resolve

import (
	"fmt"
	"html"

	"github.com/dompile/cli/internal/deps"
	dmerrors "github.com/dompile/cli/internal/errors"
	"github.com/dompile/cli/internal/util/sets"
)

// ApplyLayout resolves the page's template chain and merges slot
// content with child-wins precedence. explicit is a layout reference
// supplied outside the markup (markdown frontmatter); markup wins over
// it, and the configured default layout applies when neither declares
// one. title feeds the "title" slot (unless the markup fills it) and
// the fallback shell.
func (res *Resolution) ApplyLayout(content, explicit, title string) string {
	slots, body, layoutRef := extractSlots(content)
	if _, ok := slots[DefaultSlot]; !ok && body != "" {
		slots[DefaultSlot] = body
	}
	if _, ok := slots[TitleSlot]; !ok && title != "" {
		slots[TitleSlot] = title
	}

	implicit := false
	if layoutRef == "" {
		layoutRef = explicit
	}
	if layoutRef == "" {
		layoutRef = res.r.opts.DefaultLayout
		implicit = true
	}
	if layoutRef == "" {
		return res.shell(body, title)
	}
	return res.ascend(layoutRef, slots, body, title, implicit)
}

// ascend walks the extends chain from the page's immediate layout up
// to a root layout, substituting each layer's slot elements against
// the merged (descendant-wins) slot map so no <slot> markup survives
// into the output.
func (res *Resolution) ascend(ref string, slots SlotMap, pageBody, title string, implicit bool) string {
	ancestors := sets.New[string]()
	rendered := ""

	for depth := 0; ; depth++ {
		target, err := ResolveLayoutReference(ref, res.r.opts.SourceRoot, res.r.opts.LayoutsRoot)
		if err != nil {
			res.warn(asBuildError(err))
			if depth == 0 {
				return res.shell(pageBody, title)
			}
			return rendered + "\n" + markerSecurity(ref)
		}

		// The edge is recorded as soon as the reference resolves, not
		// after a successful read: a page waiting on a missing layout
		// must already be its dependent so that creating the file
		// later triggers a rebuild.
		res.recordEdge(target, deps.KindLayout)

		if ancestors.Has(target) {
			res.warn(dmerrors.NewCircularDependencyError(target))
			return rendered + "\n" + markerLayoutCycle(ref)
		}

		raw, err := res.r.opts.Reader.ReadFile(target)
		if err != nil {
			// The explicit contract: an unresolvable immediate layout
			// falls back to the generic shell, not a page failure. A
			// missing configured default is not even warned about, so
			// layout-less sites build quietly.
			if depth == 0 {
				if !implicit {
					res.warn(dmerrors.NewNotFoundError(ref, err))
				}
				return res.shell(pageBody, title)
			}
			res.warn(dmerrors.NewNotFoundError(ref, err))
			return rendered + "\n" + markerNotFound(ref)
		}

		ancestors.Add(target)

		// Layouts may themselves contain include directives.
		content := res.expand(string(raw), target, sets.New(target), 0)

		layerSlots, layerBody, parentRef := extractSlots(content)
		rendered = applySlots(layerBody, slots)

		if parentRef == "" {
			return rendered
		}
		if depth+1 >= res.r.opts.MaxDepth {
			res.warn(dmerrors.NewDepthExceededError(parentRef, res.r.opts.MaxDepth))
			return rendered + "\n" + markerLayoutDepth(parentRef)
		}

		// Ascend: this layer's named contributions fill parent slots
		// unless a descendant already did, and its rendered body
		// becomes the default content offered to the parent.
		for name, fragment := range layerSlots {
			if _, ok := slots[name]; !ok {
				slots[name] = fragment
			}
		}
		slots[DefaultSlot] = rendered
		ref = parentRef
	}
}

// shell wraps content in a minimal generic HTML document. This is the
// fallback when no layout is configured or resolvable.
func (res *Resolution) shell(content, title string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`, html.EscapeString(title), content)
}
