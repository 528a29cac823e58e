package resolve

import "fmt"

// Inline markers substituted at failed expansion sites. They are HTML
// comments so a degraded page still renders; the build driver surfaces
// the matching structured warnings separately.

func markerSecurity(ref string) string {
	return fmt.Sprintf("<!-- dompile: security error: %q is outside the allowed root -->", ref)
}

func markerNotFound(ref string) string {
	return fmt.Sprintf("<!-- dompile: include not found: %q -->", ref)
}

func markerCircular(ref string) string {
	return fmt.Sprintf("<!-- dompile: circular dependency: %q -->", ref)
}

func markerDepthExceeded(ref string) string {
	return fmt.Sprintf("<!-- dompile: include depth limit exceeded at %q -->", ref)
}

func markerMalformed() string {
	return "<!-- dompile: malformed include directive -->"
}

func markerUnsupportedType(ref string) string {
	return fmt.Sprintf("<!-- dompile: unsupported include type: %q -->", ref)
}

func markerLayoutCycle(ref string) string {
	return fmt.Sprintf("<!-- dompile: circular layout chain: %q -->", ref)
}

func markerLayoutDepth(ref string) string {
	return fmt.Sprintf("<!-- dompile: layout chain too deep at %q -->", ref)
}
