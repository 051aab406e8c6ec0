// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse implements the PDF Parser (C5 in SPEC_FULL.md §4.5): a
// primary, container-shelled-out text extractor is tried first; if it
// yields too little recognizable structure, a pure-Go fallback extractor
// runs instead. Section attribution by heading regex is adapted from the
// teacher's internal/extract.chunkByHeadings, generalized from Markdown
// headings to the section-name vocabulary in pkg/types.
package parse

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/geo-engine/pkg/types"
)

// minCharsForPrimary is the character-count floor below which the primary
// extractor's output is considered too thin to trust, triggering fallback.
const minCharsForPrimary = 200

// sectionHeadingPattern matches a recognized section header at the start
// of a line, case-insensitively, per SPEC_FULL.md §4.5.
var sectionHeadingPattern = regexp.MustCompile(`(?i)^(abstract|introduction|methods|materials and methods|results|discussion|conclusion)\b`)

var headingToSection = map[string]types.SectionName{
	"abstract":              types.SectionAbstract,
	"introduction":          types.SectionIntroduction,
	"methods":               types.SectionMethods,
	"materials and methods": types.SectionMethods,
	"results":               types.SectionResults,
	"discussion":            types.SectionDiscussion,
	"conclusion":            types.SectionConclusion,
}

// Extractor converts a PDF's raw bytes into plain text. Both the primary
// (container-backed) and fallback (pure Go) extractors implement it.
type Extractor interface {
	Name() string
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Parser dispatches to a primary extractor, falling back to a secondary
// one when the primary's output is too thin or unstructured. Never
// returns an error to the caller: a total extraction failure yields a
// zero-quality ExtractedContent, matching §4.5's "never raise to the
// coordinator".
type Parser struct {
	primary  Extractor
	fallback Extractor
}

// New builds a Parser. primary may be nil (e.g. no container runtime
// detected), in which case fallback alone is used.
func New(primary, fallback Extractor) *Parser {
	return &Parser{primary: primary, fallback: fallback}
}

// Parse extracts and section-attributes the text of the PDF at pdfPath.
func (p *Parser) Parse(ctx context.Context, pubID types.PublicationID, pdfSHA256, pdfPath string) types.ExtractedContent {
	text, extractorUsed := p.extractText(ctx, pdfPath)

	sections := attributeSections(text)
	quality := qualityScore(sections)

	return types.ExtractedContent{
		PublicationID:     pubID,
		PDFSHA256:         pdfSHA256,
		Sections:          sections,
		ExtractorUsed:     extractorUsed,
		ExtractionQuality: quality,
		ExtractedAt:       time.Now(),
	}
}

func (p *Parser) extractText(ctx context.Context, pdfPath string) (string, string) {
	if p.primary != nil {
		text, err := p.primary.ExtractText(ctx, pdfPath)
		if err == nil && (len(countHeadings(text)) > 0 || len(text) >= minCharsForPrimary) {
			return text, p.primary.Name()
		}
	}
	if p.fallback != nil {
		text, err := p.fallback.ExtractText(ctx, pdfPath)
		if err == nil {
			return text, p.fallback.Name()
		}
	}
	return "", "none"
}

func countHeadings(text string) []string {
	var found []string
	for _, line := range strings.Split(text, "\n") {
		if sectionHeadingPattern.MatchString(strings.TrimSpace(line)) {
			found = append(found, line)
		}
	}
	return found
}

// attributeSections splits text on recognized section headers, assigning
// all text before the first header to front_matter.
func attributeSections(text string) map[types.SectionName]string {
	sections := make(map[types.SectionName]string)
	if strings.TrimSpace(text) == "" {
		return sections
	}

	lines := strings.Split(text, "\n")
	current := types.SectionFrontMatter
	var body []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(body, "\n"))
		if joined == "" {
			return
		}
		if existing, ok := sections[current]; ok {
			sections[current] = existing + "\n\n" + joined
		} else {
			sections[current] = joined
		}
		body = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := sectionHeadingPattern.FindString(trimmed); m != "" {
			flush()
			key := strings.ToLower(m)
			if sec, ok := headingToSection[key]; ok {
				current = sec
			}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// qualityScore is the fraction of {abstract, methods, results, discussion}
// found, per SPEC_FULL.md §4.5.
func qualityScore(sections map[types.SectionName]string) float64 {
	expected := []types.SectionName{
		types.SectionAbstract, types.SectionMethods, types.SectionResults, types.SectionDiscussion,
	}
	found := 0
	for _, s := range expected {
		if strings.TrimSpace(sections[s]) != "" {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}
