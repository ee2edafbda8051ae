package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFromContentStream(t *testing.T) {
	stream := "BT\n/F1 12 Tf\n72 712 Td\n(INTRODUCTION) Tj\n0 -14 Td\n(This guide explains things.) Tj\n0 -14 Td\n[(Hello) -250 (World)] TJ\nET"
	assert.Equal(t, "INTRODUCTION\nThis guide explains things.\nHello World", textFromContentStream([]byte(stream)))
}

func TestTextFromContentStream_SingleLine(t *testing.T) {
	stream := "BT /F1 12 Tf 72 712 Td (First) Tj 0 -14 Td (Second) Tj ET"
	assert.Equal(t, "First\nSecond", textFromContentStream([]byte(stream)))
}

func TestTextFromContentStream_Operators(t *testing.T) {
	tests := []struct {
		name     string
		stream   string
		expected string
	}{
		{"escapes", `BT (a\(b\)) Tj ET`, "a(b)"},
		{"octal", `BT (\101BC) Tj ET`, "ABC"},
		{"nested parens", `BT (f(x)) Tj ET`, "f(x)"},
		{"hex string", `BT <48656C6C6F> Tj ET`, "Hello"},
		{"quote operator", `BT (one) Tj (two) ' ET`, "one\ntwo"},
		{"next line", `BT (one) Tj T* (two) Tj ET`, "one\ntwo"},
		{"horizontal move", `BT (one) Tj 20 0 Td (two) Tj ET`, "one two"},
		{"small kerning", `BT [(Wo) -20 (rd)] TJ ET`, "Word"},
		{"comment", "% comment (ignored) Tj\nBT (kept) Tj ET", "kept"},
		{"non text operand", `/GS1 gs (x) Tj`, "x"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textFromContentStream([]byte(tt.stream)))
		})
	}
}

func TestExtractPDFPages_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := extractPDFPages(path)
	assert.Error(t, err)
}
