// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation implements Citation Discovery (C10 in SPEC_FULL.md
// §4.10): for a dataset's original publications, find papers that cite
// them (Strategy A, via a citation-graph API) and papers that merely
// mention the dataset's accession string (Strategy B, via PubMed
// free-text search), deduplicated by PMID then DOI. The dedup-by-
// identifier-then-normalized-title shape and richer-metadata-wins merge
// are adapted from the teacher's internal/search.deduplicate/mergeInto.
package citation

import (
	"context"
	"strings"
	"unicode"

	"github.com/meshintel/geo-engine/pkg/types"
)

// GraphSource looks up publications citing a given PMID, capped at limit
// results. OpenAlex and Semantic Scholar both implement this.
type GraphSource interface {
	Name() string
	CitingPublications(ctx context.Context, pmid types.PublicationID, limit int) ([]types.Publication, error)
}

// MentionSource free-text searches for an accession string, returning
// publications that mention it (PubMed E-utilities ESearch+EFetch).
type MentionSource interface {
	SearchMentions(ctx context.Context, accession types.DatasetID) ([]types.Publication, error)
}

// Result is the outcome of FindRelated: publications partitioned into
// origin (the dataset's own publications, role forced regardless of
// strategy) and citing (everything else discovered).
type Result struct {
	Original []types.Publication
	Citing   []types.Publication
}

// FindRelated implements the find_related(dataset_id, original_pmids)
// contract: Strategy A fans out graph-source lookups per original PMID
// (capped at maxCitingPerDataset total), Strategy B searches PubMed for
// the accession string, and results are deduplicated with original_pmids
// always winning the origin role.
func FindRelated(ctx context.Context, datasetID types.DatasetID, original []types.Publication, graphSources []GraphSource, mention MentionSource, maxCitingPerDataset int) Result {
	originalIDs := make(map[types.PublicationID]struct{}, len(original))
	for _, p := range original {
		originalIDs[p.ID] = struct{}{}
	}

	var candidates []types.Publication
	for _, src := range graphSources {
		for _, orig := range original {
			if orig.ID == "" {
				continue
			}
			found, err := src.CitingPublications(ctx, orig.ID, maxCitingPerDataset)
			if err != nil {
				continue
			}
			candidates = append(candidates, found...)
		}
	}

	if mention != nil {
		if found, err := mention.SearchMentions(ctx, datasetID); err == nil {
			candidates = append(candidates, found...)
		}
	}

	citing := dedupeCiting(candidates, originalIDs, maxCitingPerDataset)

	return Result{Original: original, Citing: citing}
}

// dedupeCiting merges candidates by PMID (preferred) then normalized
// title, drops anything whose PMID is in originalIDs (forced to origin
// regardless of strategy), and truncates to the cap.
func dedupeCiting(candidates []types.Publication, originalIDs map[types.PublicationID]struct{}, cap int) []types.Publication {
	seen := make(map[string]int)
	var deduped []types.Publication

	for _, c := range candidates {
		if _, isOriginal := originalIDs[c.ID]; isOriginal {
			continue
		}

		key := dedupKey(c)
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], c)
			continue
		}

		titleKey := "title:" + normalizeTitle(c.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], c)
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, c)
		if key != "" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}

	if cap > 0 && len(deduped) > cap {
		deduped = deduped[:cap]
	}
	return deduped
}

func dedupKey(p types.Publication) string {
	if p.ID != "" {
		return "pmid:" + string(p.ID)
	}
	if p.CanonicalDOI != "" {
		return "doi:" + p.CanonicalDOI
	}
	return ""
}

// mergeInto fills empty fields of dst from src, preferring the richer
// (more populated) metadata, matching §4.10's "prefer the richer
// metadata" merge rule.
func mergeInto(dst *types.Publication, src types.Publication) {
	if dst.CanonicalDOI == "" && src.CanonicalDOI != "" {
		dst.CanonicalDOI = src.CanonicalDOI
	}
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Journal == "" && src.Journal != "" {
		dst.Journal = src.Journal
	}
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
}

func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
