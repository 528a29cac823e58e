package resolve

import (
	"regexp"
	"strings"
)

// SlotMap maps slot name to content fragment. The reserved key
// DefaultSlot holds the unnamed slot.
type SlotMap map[string]string

const (
	// DefaultSlot is the reserved key for the unnamed slot.
	DefaultSlot = "default"
	// TitleSlot receives the page title when the markup leaves it open.
	TitleSlot = "title"
)

var (
	templateTagRe = regexp.MustCompile(`(?i)</?template\b[^>]*>`)
	attrRe        = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9-]*)\s*=\s*"([^"]*)"`)
	dataLayoutRe  = regexp.MustCompile(`(?i)\s*data-layout\s*=\s*"([^"]*)"`)
	slotRe        = regexp.MustCompile(`(?is)<slot\b([^>]*?)(/>|>(.*?)</slot\s*>)`)
)

// templateElem is one top-level <template>...</template> element.
type templateElem struct {
	start, end int
	attrs      map[string]string
	inner      string
}

// scanTemplates returns the top-level template elements of content.
// Nesting is tracked by tag balance so a wrapper template containing
// slot-content templates is matched to its own closing tag, not a
// nested one. Unbalanced markup yields no element for the dangling
// open tag.
func scanTemplates(content string) []templateElem {
	var out []templateElem
	depth := 0
	var openStart, openEnd int
	var openTag string

	for _, loc := range templateTagRe.FindAllStringIndex(content, -1) {
		tag := content[loc[0]:loc[1]]
		if strings.HasPrefix(tag, "</") {
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, templateElem{
					start: openStart,
					end:   loc[1],
					attrs: parseAttrs(openTag),
					inner: content[openEnd:loc[0]],
				})
			}
			continue
		}
		if depth == 0 {
			openStart, openEnd = loc[0], loc[1]
			openTag = tag
		}
		depth++
	}
	return out
}

// slotElemName returns the slot a template element fills, preferring
// data-slot over the legacy target attribute.
func slotElemName(el templateElem) string {
	if name := el.attrs["data-slot"]; name != "" {
		return name
	}
	return el.attrs["target"]
}

func parseAttrs(tag string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
		attrs[strings.ToLower(m[1])] = m[2]
	}
	return attrs
}

// extractSlots scans content for layout selection and slot content:
//
//   - a <template extends="..."> wrapper is replaced by its inner
//     markup and supplies the layout reference
//   - any element's data-layout attribute supplies the reference and
//     is stripped
//   - <template data-slot="X"> / <template target="X"> elements are
//     removed and recorded as named slot content
//   - whatever markup remains becomes the default slot
//
// Returns the slot map, the remaining markup, and the layout
// reference (empty when none is declared).
func extractSlots(content string) (SlotMap, string, string) {
	slots := SlotMap{}
	layoutRef := ""

	// unwrap a top-level extends wrapper first: its inner markup may
	// itself contain the named-slot templates
	for _, el := range scanTemplates(content) {
		if ref, ok := el.attrs["extends"]; ok {
			layoutRef = ref
			content = content[:el.start] + el.inner + content[el.end:]
			break
		}
	}

	// named slot content; collect in document order so the first
	// definition wins within one level, then remove the spans back to
	// front to keep offsets valid
	elems := scanTemplates(content)
	for _, el := range elems {
		name := slotElemName(el)
		if name == "" {
			continue
		}
		if _, exists := slots[name]; !exists {
			slots[name] = strings.TrimSpace(el.inner)
		}
	}
	for i := len(elems) - 1; i >= 0; i-- {
		if slotElemName(elems[i]) == "" {
			continue
		}
		content = content[:elems[i].start] + content[elems[i].end:]
	}

	if layoutRef == "" {
		if m := dataLayoutRe.FindStringSubmatch(content); m != nil {
			layoutRef = m[1]
			content = strings.Replace(content, m[0], "", 1)
		}
	}

	return slots, strings.TrimSpace(content), layoutRef
}

// applySlots substitutes every <slot> element in content: a named slot
// takes slots[name] when present, the unnamed slot takes
// slots[DefaultSlot]; an unresolved slot keeps its own inline default
// (empty for self-closing slots).
func applySlots(content string, slots SlotMap) string {
	if !strings.Contains(strings.ToLower(content), "<slot") {
		return content
	}
	return slotRe.ReplaceAllStringFunc(content, func(match string) string {
		m := slotRe.FindStringSubmatch(match)
		attrs := parseAttrs(m[1])
		name := attrs["name"]
		if name == "" {
			name = DefaultSlot
		}
		if v, ok := slots[name]; ok {
			return v
		}
		return m[3] // inline default; empty for self-closing
	})
}
