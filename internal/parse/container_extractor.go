// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/meshintel/geo-engine/internal/container"
)

// textExtractionImage is the container image used to pull text out of a
// PDF's text layer. Unlike the teacher's markitdown image (which targets
// Markdown conversion for LLM prompting), this one is expected to emit
// plain text suitable for section-heading regex matching.
const textExtractionImage = "pdftext:latest"

// ContainerExtractor runs a PDF through a containerized text-extraction
// tool via a container.Runtime (docker or podman), the same dependency
// injection shape as the teacher's MarkitdownConverter.
type ContainerExtractor struct {
	runtime container.Runtime
}

// NewContainerExtractor verifies the extraction image is available before
// returning, mirroring NewMarkitdownConverter's fail-fast construction.
func NewContainerExtractor(rt container.Runtime) (*ContainerExtractor, error) {
	if err := rt.ImageExists(textExtractionImage); err != nil {
		return nil, fmt.Errorf("text extraction image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerExtractor{runtime: rt}, nil
}

func (c *ContainerExtractor) Name() string { return "container:" + textExtractionImage }

// ExtractText pipes the PDF's bytes through the container and returns its
// stdout as plain text.
func (c *ContainerExtractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.Run(textExtractionImage, f, &out); err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", pdfPath, err)
	}
	return out.String(), nil
}
