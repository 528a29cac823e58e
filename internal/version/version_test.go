package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if !strings.HasPrefix(String(), "dompile ") {
		t.Errorf("unexpected version line: %q", String())
	}
	if !strings.Contains(String(), Version) {
		t.Errorf("version line %q missing version %q", String(), Version)
	}
}
