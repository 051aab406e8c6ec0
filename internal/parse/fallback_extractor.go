// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"os"
	"regexp"
	"strings"
)

// streamPattern isolates the raw bytes of each PDF stream object: most
// content streams (including text-showing operators) live inside
// "stream\n...\nendstream" blocks, optionally FlateDecode-compressed.
var streamPattern = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)

// showTextPattern matches the two text-showing operators this extractor
// understands: "(...) Tj" for a single string and "[(...)(...)...] TJ"
// for an array of strings with inter-glyph kerning adjustments (the
// numeric adjustments between strings are ignored).
var showTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj|\[((?:[^\[\]]|\\.)*)\]\s*TJ`)

var literalStringPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)

// FallbackExtractor reads a PDF's literal text-showing operators directly,
// without a text-layout-aware engine. It recovers unstructured but
// reasonably complete text for PDFs the primary extractor cannot handle,
// at the cost of losing layout (columns, tables) and rarely mis-ordering
// lines within a stream.
type FallbackExtractor struct{}

func (FallbackExtractor) Name() string { return "fallback:text-stream" }

func (FallbackExtractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, m := range streamPattern.FindAllSubmatch(data, -1) {
		raw := m[1]
		decoded := tryInflate(raw)
		extractShownText(decoded, &out)
	}
	return out.String(), nil
}

func tryInflate(raw []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw // not FlateDecode, or already plain text
	}
	defer r.Close()
	decoded, err := io.ReadAll(r)
	if err != nil || len(decoded) == 0 {
		return raw
	}
	return decoded
}

func extractShownText(stream []byte, out *strings.Builder) {
	for _, m := range showTextPattern.FindAllSubmatch(stream, -1) {
		switch {
		case len(m[1]) > 0:
			out.WriteString(unescapePDFString(m[1]))
			out.WriteByte('\n')
		case len(m[2]) > 0:
			for _, s := range literalStringPattern.FindAllSubmatch(m[2], -1) {
				out.WriteString(unescapePDFString(s[1]))
			}
			out.WriteByte('\n')
		}
	}
}

var pdfEscapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

// unescapePDFString resolves the small set of backslash escapes PDF
// literal strings use; octal escapes and balanced-paren nesting beyond
// this are left as-is, which is an acceptable loss for a fallback path.
func unescapePDFString(s []byte) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			if repl, ok := pdfEscapes[s[i+1]]; ok {
				out.WriteByte(repl)
				i++
				continue
			}
		}
		out.WriteByte(s[i])
	}
	return out.String()
}
