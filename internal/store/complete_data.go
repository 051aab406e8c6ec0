// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meshintel/geo-engine/pkg/types"
)

// PublicationView is one publication's row in a CompleteGEOData result,
// denormalized with its current acquisition/extraction substatus.
type PublicationView struct {
	Publication     types.Publication
	Role            types.Role
	URLCount        int
	PDFStatus       types.AcquisitionStatus
	HasExtraction   bool
	ExtractionScore float64
}

// CompleteGEOData is the JOIN-assembled result of get_complete_geo_data:
// a dataset plus its publications and their discovery/acquisition/
// extraction status, the shape required by API reads (§4.7).
type CompleteGEOData struct {
	Dataset      types.Dataset
	Publications []PublicationView
}

// GetCompleteGEOData assembles the denormalized view for datasetID in a
// single read, joining dataset_publication, url_discovery,
// pdf_acquisition, and content_extraction.
func (s *Store) GetCompleteGEOData(ctx context.Context, datasetID types.DatasetID) (CompleteGEOData, error) {
	var result CompleteGEOData

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, organism, platform, sample_count, first_seen_at, summary
		 FROM geo_datasets WHERE id = ?`, string(datasetID))

	var firstSeenAt string
	if err := row.Scan(&result.Dataset.ID, &result.Dataset.Title, &result.Dataset.Organism,
		&result.Dataset.Platform, &result.Dataset.SampleCount, &firstSeenAt, &result.Dataset.Summary); err != nil {
		if err == sql.ErrNoRows {
			return CompleteGEOData{}, fmt.Errorf("dataset %s not found", datasetID)
		}
		return CompleteGEOData{}, fmt.Errorf("reading dataset %s: %w", datasetID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, firstSeenAt); err == nil {
		result.Dataset.FirstSeenAt = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.canonical_doi, p.title, p.authors, p.journal, p.year, p.abstract, dp.role,
			(SELECT count(*) FROM url_discovery u WHERE u.publication_id = p.id) AS url_count,
			COALESCE((SELECT status FROM pdf_acquisition pa WHERE pa.publication_id = p.id
				AND pa.redundant = 0 ORDER BY pa.downloaded_at DESC LIMIT 1), '') AS pdf_status,
			(SELECT count(*) FROM content_extraction ce WHERE ce.publication_id = p.id) AS has_extraction,
			COALESCE((SELECT extraction_quality FROM content_extraction ce WHERE ce.publication_id = p.id), 0) AS extraction_quality
		 FROM dataset_publication dp
		 JOIN publications p ON p.id = dp.publication_id
		 WHERE dp.dataset_id = ?
		 ORDER BY p.id`, string(datasetID))
	if err != nil {
		return CompleteGEOData{}, fmt.Errorf("querying publications for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v PublicationView
		var pdfStatus string
		var hasExtraction int
		var authorsJSON sql.NullString
		if err := rows.Scan(&v.Publication.ID, &v.Publication.CanonicalDOI, &v.Publication.Title,
			&authorsJSON, &v.Publication.Journal, &v.Publication.Year, &v.Publication.Abstract, &v.Role,
			&v.URLCount, &pdfStatus, &hasExtraction, &v.ExtractionScore); err != nil {
			return CompleteGEOData{}, fmt.Errorf("scanning publication row: %w", err)
		}
		if authorsJSON.Valid {
			_ = json.Unmarshal([]byte(authorsJSON.String), &v.Publication.Authors)
		}
		v.PDFStatus = types.AcquisitionStatus(pdfStatus)
		v.HasExtraction = hasExtraction > 0
		result.Publications = append(result.Publications, v)
	}
	if err := rows.Err(); err != nil {
		return CompleteGEOData{}, fmt.Errorf("iterating publications: %w", err)
	}

	return result, nil
}
