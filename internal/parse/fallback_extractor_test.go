// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"compress/zlib"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMinimalPDF(t *testing.T, compressed bool) string {
	t.Helper()
	content := []byte(`BT /F1 12 Tf (Hello world) Tj ET`)

	var streamBody []byte
	if compressed {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		streamBody = buf.Bytes()
	} else {
		streamBody = content
	}

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4\n")
	pdf.WriteString("4 0 obj\n<< /Length 10 >>\nstream\n")
	pdf.Write(streamBody)
	pdf.WriteString("\nendstream\nendobj\n")
	pdf.WriteString("%%EOF")

	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(path, pdf.Bytes(), 0o644))
	return path
}

func TestFallbackExtractor_PlainTextStream(t *testing.T) {
	path := buildMinimalPDF(t, false)
	var e FallbackExtractor
	text, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello world")
}

func TestFallbackExtractor_FlateCompressedStream(t *testing.T) {
	path := buildMinimalPDF(t, true)
	var e FallbackExtractor
	text, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello world")
}
