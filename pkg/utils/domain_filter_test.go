package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainFilter_IsAllowed(t *testing.T) {
	tmpDir := t.TempDir()
	domainsFile := filepath.Join(tmpDir, "domains.txt")

	content := `docs.python.org
https://go.dev/doc
# comment
*.readthedocs.io
`
	require.NoError(t, os.WriteFile(domainsFile, []byte(content), 0o644))

	filter, err := LoadDomainFilter(domainsFile)
	require.NoError(t, err)

	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"exact host", "https://docs.python.org/3/tutorial/", true},
		{"host from url entry", "https://go.dev/blog", true},
		{"glob match", "https://requests.readthedocs.io/en/latest/", true},
		{"glob does not cross dots", "https://a.b.readthedocs.io/", false},
		{"subdomain not implied", "https://www.go.dev/", false},
		{"blocked", "https://example.com/post", false},
		{"localhost always allowed", "http://localhost:8080/page", true},
		{"loopback ip", "http://127.0.0.1:9000", true},
		{"ipv6 loopback", "http://[::1]:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := filter.IsAllowed(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowed)
		})
	}
}

func TestDomainFilter_Empty(t *testing.T) {
	filter := NewDomainFilter(nil)
	assert.True(t, filter.IsEmpty())

	allowed, err := filter.IsAllowed("https://anything.example/page")
	require.NoError(t, err)
	assert.True(t, allowed)

	var nilFilter *DomainFilter
	assert.True(t, nilFilter.IsEmpty())
}

func TestDomainFilter_Entries(t *testing.T) {
	filter := NewDomainFilter([]string{"B.example.com", "*.a.example.com", "  ", "c.example.com/path"})
	assert.Equal(t, []string{"*.a.example.com", "b.example.com", "c.example.com"}, filter.Entries())
}

func TestLoadDomainFilter_MissingFile(t *testing.T) {
	_, err := LoadDomainFilter(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDomainFilter_InvalidURL(t *testing.T) {
	filter := NewDomainFilter([]string{"example.com"})
	_, err := filter.IsAllowed("http://[::1")
	assert.Error(t, err)
}
