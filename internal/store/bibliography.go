// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/geo-engine/pkg/types"
)

// CSLItem is one bibliographic entry in CSL (Citation Style Language)
// format. Field names follow the CSL-JSON/CSL-YAML schema so the output
// is directly consumable by reference managers and Pandoc-style tooling.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	Note     string    `yaml:"note,omitempty"`
}

// CSLName is a person's name in CSL format. Author strings that don't
// split cleanly into family/given are emitted as a literal.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate holds a CSL date-parts array; only the year is known for
// publications sourced from GEO/PubMed metadata.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslBibliography wraps the item list so the YAML document has a
// single top-level "references" key, matching CSL-YAML convention.
type cslBibliography struct {
	References []CSLItem `yaml:"references"`
}

// ExportCSL writes the bibliography of every publication linked to
// datasetID as a CSL-YAML document to w, ordered origin-then-citing
// then by publication ID. Role is recorded in each item's note field
// since CSL has no native "role in this dataset's bibliography" field.
func (s *Store) ExportCSL(ctx context.Context, datasetID types.DatasetID, w io.Writer) error {
	data, err := s.GetCompleteGEOData(ctx, datasetID)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", datasetID, err)
	}

	// GetCompleteGEOData orders by publication ID; a stable sort keeps that
	// order within each role.
	sort.SliceStable(data.Publications, func(i, j int) bool {
		return data.Publications[i].Role == types.RoleOrigin && data.Publications[j].Role != types.RoleOrigin
	})

	bib := cslBibliography{References: make([]CSLItem, 0, len(data.Publications))}
	for _, v := range data.Publications {
		bib.References = append(bib.References, toCSLItem(v.Publication, v.Role))
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(bib); err != nil {
		return fmt.Errorf("encoding CSL bibliography for dataset %s: %w", datasetID, err)
	}
	return nil
}

func toCSLItem(p types.Publication, role types.Role) CSLItem {
	item := CSLItem{
		ID:       string(p.ID),
		Type:     "article-journal",
		Title:    p.Title,
		Abstract: p.Abstract,
		DOI:      p.CanonicalDOI,
		Note:     string(role),
	}
	if p.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{p.Year}}}
	}
	for _, a := range p.Authors {
		item.Author = append(item.Author, toCSLName(a))
	}
	return item
}

// toCSLName splits "Family Given" author strings into family/given;
// names that don't split into exactly two tokens are kept literal.
func toCSLName(author string) CSLName {
	parts := strings.Fields(author)
	if len(parts) == 2 {
		return CSLName{Family: parts[0], Given: parts[1]}
	}
	return CSLName{Literal: author}
}
