// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store implements the Unified Persistent Store (C7 in
// SPEC_FULL.md §4.7): a single SQLite database (WAL mode, FTS5 indexing
// extracted content) holding datasets, publications, URL candidates, PDF
// acquisitions, extracted content, and pipeline events. The WAL+FTS5
// schema-and-trigger idiom, transactional upsert pattern, and
// incremental-ingest shape are adapted wholesale from the teacher's
// internal/knowledge.Store, generalized from a paper/knowledge-item
// schema to the dataset/publication schema this domain needs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/geo-engine/pkg/types"
)

// Store manages the unified SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath, creating the schema if
// absent.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS geo_datasets (
			id TEXT PRIMARY KEY,
			title TEXT,
			organism TEXT,
			platform TEXT,
			sample_count INTEGER,
			first_seen_at TEXT,
			summary TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS publications (
			id TEXT PRIMARY KEY,
			canonical_doi TEXT,
			title TEXT,
			authors TEXT,
			journal TEXT,
			year INTEGER,
			abstract TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS dataset_publication (
			dataset_id TEXT NOT NULL REFERENCES geo_datasets(id),
			publication_id TEXT NOT NULL REFERENCES publications(id),
			role TEXT NOT NULL,
			PRIMARY KEY (dataset_id, publication_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dataset_publication_dataset_id ON dataset_publication(dataset_id)`,
		`CREATE TABLE IF NOT EXISTS url_discovery (
			publication_id TEXT NOT NULL REFERENCES publications(id),
			source_name TEXT NOT NULL,
			url TEXT NOT NULL,
			kind TEXT NOT NULL,
			tier INTEGER NOT NULL,
			discovered_at TEXT NOT NULL,
			PRIMARY KEY (publication_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_url_discovery_publication_id ON url_discovery(publication_id)`,
		`CREATE TABLE IF NOT EXISTS pdf_acquisition (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			publication_id TEXT NOT NULL REFERENCES publications(id),
			source_name TEXT,
			local_path TEXT,
			bytes INTEGER,
			sha256 TEXT,
			downloaded_at TEXT,
			status TEXT NOT NULL,
			redundant INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pdf_acquisition_publication_id ON pdf_acquisition(publication_id)`,
		`CREATE TABLE IF NOT EXISTS content_extraction (
			publication_id TEXT PRIMARY KEY REFERENCES publications(id),
			pdf_sha256 TEXT,
			sections TEXT,
			extractor_used TEXT,
			extraction_quality REAL,
			extracted_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline_events (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			dataset_id TEXT,
			publication_id TEXT,
			stage TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ms INTEGER,
			detail TEXT,
			ts TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_events_publication_id ON pipeline_events(publication_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pipeline_events_ts ON pipeline_events(ts)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return s.createFTS()
}

// createFTS builds an FTS5 index over extracted content's flattened
// section text, an enrichment beyond the literal spec but grounded on
// the teacher's items_fts trigger pattern: SPEC_FULL.md §11 documents
// full-text search over content_extraction as an optional addition.
func (s *Store) createFTS() error {
	var exists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='content_extraction_fts'`,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if exists != 0 {
		return nil
	}

	statements := []string{
		`CREATE VIRTUAL TABLE content_extraction_fts USING fts5(
			publication_id UNINDEXED, body)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// UpsertDataset is idempotent on id.
func (s *Store) UpsertDataset(ctx context.Context, d *types.Dataset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geo_datasets (id, title, organism, platform, sample_count, first_seen_at, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, organism=excluded.organism, platform=excluded.platform,
			sample_count=excluded.sample_count, summary=excluded.summary`,
		string(d.ID), d.Title, d.Organism, d.Platform, d.SampleCount,
		d.FirstSeenAt.UTC().Format(time.RFC3339Nano), d.Summary,
	)
	if err != nil {
		return fmt.Errorf("upserting dataset %s: %w", d.ID, err)
	}
	return nil
}

// LinkPublication is idempotent on (dataset_id, publication_id). On a
// conflicting role, origin wins over citing per §3's invariant: the
// stored role becomes origin if either the existing or the incoming role
// is origin.
func (s *Store) LinkPublication(ctx context.Context, datasetID types.DatasetID, pub types.Publication, role types.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	authorsJSON, _ := json.Marshal(pub.Authors)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO publications (id, canonical_doi, title, authors, journal, year, abstract)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			canonical_doi=excluded.canonical_doi, title=excluded.title, authors=excluded.authors,
			journal=excluded.journal, year=excluded.year, abstract=excluded.abstract`,
		string(pub.ID), pub.CanonicalDOI, pub.Title, string(authorsJSON), pub.Journal, pub.Year, pub.Abstract,
	)
	if err != nil {
		return fmt.Errorf("upserting publication %s: %w", pub.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO dataset_publication (dataset_id, publication_id, role)
		 VALUES (?, ?, ?)
		 ON CONFLICT(dataset_id, publication_id) DO UPDATE SET
			role = CASE WHEN dataset_publication.role = ? OR excluded.role = ? THEN ? ELSE dataset_publication.role END`,
		string(datasetID), string(pub.ID), string(role),
		string(types.RoleOrigin), string(types.RoleOrigin), string(types.RoleOrigin),
	)
	if err != nil {
		return fmt.Errorf("linking publication %s to dataset %s: %w", pub.ID, datasetID, err)
	}

	return tx.Commit()
}

// RecordURLCandidate is idempotent on (publication_id, url).
func (s *Store) RecordURLCandidate(ctx context.Context, c types.URLCandidate) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO url_discovery (publication_id, source_name, url, kind, tier, discovered_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(c.PublicationID), c.SourceName, c.URL, string(c.Kind), c.Tier,
		c.DiscoveredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording url candidate for %s: %w", c.PublicationID, err)
	}
	return nil
}

// RecordPDFAcquisition creates a new row. A success row recorded while the
// publication already has a non-redundant success is itself marked
// redundant within the same transaction, so at most one success per
// publication is ever non-redundant and the first one stays current.
func (s *Store) RecordPDFAcquisition(ctx context.Context, a types.PDFAcquisition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	redundant := a.Redundant
	if a.Status == types.StatusSuccess {
		var prior int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM pdf_acquisition WHERE publication_id = ? AND status = ? AND redundant = 0`,
			string(a.PublicationID), string(types.StatusSuccess),
		).Scan(&prior); err != nil {
			return fmt.Errorf("checking prior successes: %w", err)
		}
		redundant = redundant || prior > 0
	}

	downloadedAt := a.DownloadedAt
	if downloadedAt.IsZero() {
		downloadedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO pdf_acquisition (publication_id, source_name, local_path, bytes, sha256, downloaded_at, status, redundant)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.PublicationID), a.SourceName, a.LocalPath, a.Bytes, a.SHA256,
		downloadedAt.UTC().Format(time.RFC3339Nano), string(a.Status), redundant,
	)
	if err != nil {
		return fmt.Errorf("recording pdf acquisition for %s: %w", a.PublicationID, err)
	}

	return tx.Commit()
}

// GetSuccessfulAcquisition returns the current non-redundant success row
// for pubID, if one exists. The coordinator uses this to skip re-download
// of a publication whose PDF was already acquired successfully in a prior
// run (§4.9 idempotence).
func (s *Store) GetSuccessfulAcquisition(ctx context.Context, pubID types.PublicationID) (types.PDFAcquisition, bool, error) {
	var a types.PDFAcquisition
	var downloadedAt string
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT publication_id, source_name, local_path, bytes, sha256, downloaded_at, status, redundant
		 FROM pdf_acquisition WHERE publication_id = ? AND status = ? AND redundant = 0
		 ORDER BY downloaded_at DESC LIMIT 1`,
		string(pubID), string(types.StatusSuccess),
	).Scan(&a.PublicationID, &a.SourceName, &a.LocalPath, &a.Bytes, &a.SHA256, &downloadedAt, &status, &a.Redundant)
	if err == sql.ErrNoRows {
		return types.PDFAcquisition{}, false, nil
	}
	if err != nil {
		return types.PDFAcquisition{}, false, fmt.Errorf("looking up successful acquisition for %s: %w", pubID, err)
	}
	a.Status = types.AcquisitionStatus(status)
	if t, perr := time.Parse(time.RFC3339Nano, downloadedAt); perr == nil {
		a.DownloadedAt = t
	}
	return a, true, nil
}

// UpsertExtractedContent replaces by publication_id, validating that
// content.PDFSHA256 matches the publication's current non-redundant
// success row.
func (s *Store) UpsertExtractedContent(ctx context.Context, content types.ExtractedContent) error {
	var currentSHA sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sha256 FROM pdf_acquisition WHERE publication_id = ? AND status = ? AND redundant = 0
		 ORDER BY downloaded_at DESC LIMIT 1`,
		string(content.PublicationID), string(types.StatusSuccess),
	).Scan(&currentSHA)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("looking up current pdf hash for %s: %w", content.PublicationID, err)
	}
	if err == nil && currentSHA.Valid && currentSHA.String != content.PDFSHA256 {
		return fmt.Errorf("extracted content hash %s does not match current pdf hash %s for %s",
			content.PDFSHA256, currentSHA.String, content.PublicationID)
	}

	sectionsJSON, err := json.Marshal(content.Sections)
	if err != nil {
		return fmt.Errorf("marshaling sections: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO content_extraction (publication_id, pdf_sha256, sections, extractor_used, extraction_quality, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(publication_id) DO UPDATE SET
			pdf_sha256=excluded.pdf_sha256, sections=excluded.sections,
			extractor_used=excluded.extractor_used, extraction_quality=excluded.extraction_quality,
			extracted_at=excluded.extracted_at`,
		string(content.PublicationID), content.PDFSHA256, string(sectionsJSON),
		content.ExtractorUsed, content.ExtractionQuality, content.ExtractedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting extracted content for %s: %w", content.PublicationID, err)
	}

	if err := s.refreshFTS(ctx, tx, content, res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) refreshFTS(ctx context.Context, tx *sql.Tx, content types.ExtractedContent, _ sql.Result) error {
	var rowid int64
	if err := tx.QueryRowContext(ctx,
		`SELECT rowid FROM content_extraction WHERE publication_id = ?`, string(content.PublicationID),
	).Scan(&rowid); err != nil {
		return fmt.Errorf("looking up content_extraction rowid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM content_extraction_fts WHERE rowid = ?`, rowid,
	); err != nil {
		return fmt.Errorf("clearing stale fts row: %w", err)
	}

	var body string
	for _, s := range content.Sections {
		body += s + "\n"
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO content_extraction_fts (rowid, publication_id, body) VALUES (?, ?, ?)`,
		rowid, string(content.PublicationID), body,
	); err != nil {
		return fmt.Errorf("inserting fts row: %w", err)
	}
	return nil
}

// AppendEvent inserts an append-only pipeline event.
func (s *Store) AppendEvent(ctx context.Context, ev types.PipelineEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_events (dataset_id, publication_id, stage, outcome, duration_ms, detail, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(ev.DatasetID), string(ev.PublicationID), string(ev.Stage), string(ev.Outcome),
		ev.DurationMS, ev.Detail, ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("appending pipeline event: %w", err)
	}
	return nil
}
