package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestExpandSourcesCommaList(t *testing.T) {
	got, err := ExpandSources(" a.md, https://example.com/x?y=1 ,, b.pdf,a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "https://example.com/x?y=1", "b.pdf"}, got)
}

func TestExpandSourcesGlob(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.pdf"))
	touch(t, filepath.Join(dir, "nested", "c.pdf"))
	touch(t, filepath.Join(dir, "notes.md"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.pdf"), 0o755))

	got, err := ExpandSources(filepath.Join(dir, "*.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf")}, got)

	got, err = ExpandSources(filepath.Join(dir, "**", "*.pdf") + "," + filepath.Join(dir, "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested", "c.pdf"),
		filepath.Join(dir, "notes.md"),
	}, got)
}

func TestExpandSourcesEmpty(t *testing.T) {
	_, err := ExpandSources("")
	assert.Equal(t, ErrNoSources, err)

	_, err = ExpandSources(filepath.Join(t.TempDir(), "*.pdf"))
	assert.Equal(t, ErrNoSources, err)
}

func TestExpandSourcesMissingLiteralIsKept(t *testing.T) {
	got, err := ExpandSources("missing.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"missing.pdf"}, got)
}
