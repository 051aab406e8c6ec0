// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DatasetID is an opaque GEO accession string, e.g. "GSE12345". Globally
// unique and immutable once assigned.
type DatasetID string

// PublicationID is the stable identifier for a publication: a PubMed ID
// when available, else a DOI, else an assigned UUID. Exactly one canonical
// form is tracked per publication.
type PublicationID string

// Role describes how a publication relates to a dataset. The role is an
// attribute of the (dataset, publication) edge, not of the publication
// itself — the same publication can be origin for one dataset and citing
// for another.
type Role string

const (
	RoleOrigin  Role = "origin"
	RoleCiting  Role = "citing"
)

// Dataset is a GEO series and the publication identifiers associated with
// it. original_pmids and citing_pmids are disjoint by construction: a
// publication present in both is forced to RoleOrigin (origin wins).
type Dataset struct {
	ID           DatasetID
	Title        string
	Organism     string
	Platform     string
	SampleCount  int
	FirstSeenAt  time.Time
	Summary      string
	OriginalIDs  map[PublicationID]struct{}
	CitingIDs    map[PublicationID]struct{}
}

// NewDataset returns a Dataset with initialized id sets.
func NewDataset(id DatasetID) *Dataset {
	return &Dataset{
		ID:          id,
		FirstSeenAt: time.Now(),
		OriginalIDs: make(map[PublicationID]struct{}),
		CitingIDs:   make(map[PublicationID]struct{}),
	}
}

// Publication is bibliographic metadata for a paper. Role is carried here
// only as a convenience for call sites that resolved a single dataset
// context; the store's authoritative role lives on the dataset-publication
// edge.
type Publication struct {
	ID            PublicationID
	CanonicalDOI  string
	Title         string
	Authors       []string
	Journal       string
	Year          int
	Abstract      string
	RoleForDataset Role
}

// URLCandidateKind distinguishes a direct PDF link from an HTML landing
// page that may itself link to a PDF.
type URLCandidateKind string

const (
	KindPDF         URLCandidateKind = "pdf"
	KindLandingHTML URLCandidateKind = "landing_html"
)

// URLCandidate is one discovered location for a publication's full text.
// Unique on (PublicationID, URL); Tier is copied from the resolving
// source's configured priority at discovery time, so later re-tiering of
// a source does not retroactively change historical candidates.
type URLCandidate struct {
	PublicationID PublicationID
	SourceName    string
	URL           string
	Kind          URLCandidateKind
	Tier          int
	DiscoveredAt  time.Time
}

// AcquisitionStatus is the terminal (or in-flight) state of one PDF
// download attempt for a publication.
type AcquisitionStatus string

const (
	StatusInFlight      AcquisitionStatus = "in-flight"
	StatusSuccess       AcquisitionStatus = "success"
	StatusFailed        AcquisitionStatus = "failed"
	StatusPaywalled     AcquisitionStatus = "paywalled"
	StatusInvalidContent AcquisitionStatus = "invalid_content"
)

// PDFAcquisition records one attempt (successful or not) to acquire the
// full-text PDF for a publication. At most one row per publication may
// carry Status=success and Redundant=false; later successes are recorded
// with Redundant=true and kept for audit rather than suppressed.
type PDFAcquisition struct {
	PublicationID PublicationID
	SourceName    string
	LocalPath     string
	Bytes         int64
	SHA256        string
	DownloadedAt  time.Time
	Status        AcquisitionStatus
	Redundant     bool
}

// SectionName identifies a recognized region of a paper's body text.
type SectionName string

const (
	SectionFrontMatter  SectionName = "front_matter"
	SectionAbstract     SectionName = "abstract"
	SectionIntroduction SectionName = "introduction"
	SectionMethods      SectionName = "methods"
	SectionResults      SectionName = "results"
	SectionDiscussion   SectionName = "discussion"
	SectionConclusion   SectionName = "conclusion"
)

// ExtractedContent is the parsed, section-attributed text of one
// publication's PDF. Replaced wholesale (never appended) whenever
// PDFSHA256 changes relative to the stored row.
type ExtractedContent struct {
	PublicationID     PublicationID
	PDFSHA256         string
	Sections          map[SectionName]string
	ExtractorUsed     string
	ExtractionQuality float64
	ExtractedAt       time.Time
}

// Stage identifies which pipeline stage produced a PipelineEvent.
type Stage string

const (
	StageSearch       Stage = "search"
	StageCitation     Stage = "citation"
	StageURLDiscovery Stage = "url_discovery"
	StageDownload     Stage = "download"
	StageParse        Stage = "parse"
	StageStore        Stage = "store"
)

// Outcome is the result recorded for a PipelineEvent.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// PipelineEvent is one append-only log entry describing the outcome of a
// pipeline stage for a dataset and/or publication.
type PipelineEvent struct {
	DatasetID     DatasetID
	PublicationID PublicationID
	Stage         Stage
	Outcome       Outcome
	DurationMS    int64
	Detail        string
	Timestamp     time.Time
}

// DatasetStatus summarizes the completeness of a dataset's enrichment as
// reported to the RunResult.
type DatasetStatus string

const (
	DatasetComplete DatasetStatus = "complete"
	DatasetPartial  DatasetStatus = "partial"
	DatasetFailed   DatasetStatus = "failed"
)

// PublicationSubstatus summarizes how far one publication progressed
// through discover -> acquire -> parse.
type PublicationSubstatus string

const (
	SubstatusMetadataOnly  PublicationSubstatus = "metadata_only"
	SubstatusPDFDownloaded PublicationSubstatus = "pdf_downloaded"
	SubstatusParsed        PublicationSubstatus = "parsed"
)
