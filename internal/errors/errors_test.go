package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildErrorFormatting(t *testing.T) {
	err := NewNotFoundError("/src/nav.html", fs.ErrNotExist)
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "/src/nav.html")
	assert.Contains(t, err.Error(), string(SeverityWarning))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fs.ErrNotExist
	err := NewNotFoundError("missing.html", cause)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCategoryOf(t *testing.T) {
	sec := NewSecurityError("../../etc/passwd", "/src")
	assert.Equal(t, CategorySecurity, CategoryOf(sec))

	wrapped := fmt.Errorf("outer: %w", sec)
	assert.Equal(t, CategorySecurity, CategoryOf(wrapped))

	assert.Equal(t, CategoryInternal, CategoryOf(errors.New("plain")))
}

func TestIsCategory(t *testing.T) {
	err := NewCircularDependencyError("/src/a.html")
	assert.True(t, IsCategory(err, CategoryCircular))
	assert.False(t, IsCategory(err, CategoryDepth))
	assert.False(t, IsCategory(errors.New("plain"), CategoryCircular))
}

func TestWithContext(t *testing.T) {
	err := WrapError(errors.New("disk full"), CategoryFileSystem, "write failed").
		WithContext("path", "/out/index.html")
	assert.Equal(t, "/out/index.html", err.Context["path"])
	assert.Equal(t, SeverityError, err.Severity)
}
