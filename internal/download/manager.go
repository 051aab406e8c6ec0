// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download implements the PDF Download Manager (C4 in
// SPEC_FULL.md §4.4): given a publication and an ordered stream of URL
// candidates, it tries each in turn via the shared Fetcher and produces a
// single PDFAcquisition. The atomic-write-then-rename idiom and the
// candidate-by-candidate retry loop are adapted from the teacher's
// internal/acquire.AcquirePaper/downloadFile.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/internal/fetch"
	"github.com/meshintel/geo-engine/pkg/types"
)

// Manager downloads a publication's PDF given discovered candidates,
// coalescing concurrent requests for the same publication and bounding
// total in-flight downloads with a worker-pool semaphore.
type Manager struct {
	fetcher   *fetch.Fetcher
	pdfRoot   string
	minBytes  int64
	maxBytes  int64
	sem       chan struct{}
	inflight  sync.Map // publication_id -> *sync.Once-backed result
}

type inflightEntry struct {
	once   sync.Once
	result types.PDFAcquisition
}

// New builds a Manager. maxConcurrent bounds the worker-pool semaphore
// (default 3 per SPEC_FULL.md §4.4); minBytes/maxBytes are the PDF
// validation bounds the Manager passes to fetch.ValidatePDF after each
// download.
func New(fetcher *fetch.Fetcher, pdfRoot string, maxConcurrent int, minBytes, maxBytes int64) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Manager{
		fetcher:  fetcher,
		pdfRoot:  pdfRoot,
		minBytes: minBytes,
		maxBytes: maxBytes,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// Acquire consumes candidates in order, downloading the first that
// succeeds, and returns the resulting PDFAcquisition. Concurrent calls for
// the same pub.ID coalesce onto a single download, even when they come
// from different datasets.
func (m *Manager) Acquire(ctx context.Context, datasetID types.DatasetID, role types.Role, pub types.Publication, candidates []types.URLCandidate) types.PDFAcquisition {
	key := string(pub.ID)
	entryI, _ := m.inflight.LoadOrStore(key, &inflightEntry{})
	entry := entryI.(*inflightEntry)

	entry.once.Do(func() {
		select {
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
		case <-ctx.Done():
			entry.result = types.PDFAcquisition{
				PublicationID: pub.ID, Status: types.StatusFailed,
			}
			return
		}
		entry.result = m.acquireOnce(ctx, datasetID, role, pub, candidates)
	})

	m.inflight.Delete(key)
	return entry.result
}

func (m *Manager) acquireOnce(ctx context.Context, datasetID types.DatasetID, role types.Role, pub types.Publication, candidates []types.URLCandidate) types.PDFAcquisition {
	var lastErr error
	sawInvalidContent := false
	sawOtherFailure := false

	for _, cand := range candidates {
		if cand.Kind != types.KindPDF {
			lastErr = fmt.Errorf("%s: landing_html candidate, PDF required", cand.SourceName)
			sawOtherFailure = true
			continue
		}

		acq, err := m.tryDownload(ctx, datasetID, role, pub, cand)
		if err == nil {
			return acq
		}
		lastErr = err
		if errs.KindOf(err) == errs.InvalidContent {
			sawInvalidContent = true
		} else {
			sawOtherFailure = true
		}
	}

	detail := "no candidates yielded a PDF"
	if lastErr != nil {
		detail = lastErr.Error()
	}
	// A candidate stream exhausted entirely by invalid_content failures is
	// still classified invalid_content rather than paywalled, since the
	// content was reachable but malformed, not access-restricted.
	status := types.StatusPaywalled
	if sawInvalidContent && !sawOtherFailure {
		status = types.StatusInvalidContent
	}
	return types.PDFAcquisition{
		PublicationID: pub.ID,
		Status:        status,
		SourceName:    detail,
	}
}

func (m *Manager) tryDownload(ctx context.Context, datasetID types.DatasetID, role types.Role, pub types.Publication, cand types.URLCandidate) (types.PDFAcquisition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cand.URL, nil)
	if err != nil {
		return types.PDFAcquisition{}, errs.E(errs.ConfigurationError, "download.tryDownload", err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := m.fetcher.Do(ctx, req)
	if err != nil {
		return types.PDFAcquisition{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PDFAcquisition{}, errs.E(errs.SourceUnavailable, "download.tryDownload",
			fmt.Errorf("%s: HTTP %d", cand.SourceName, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return types.PDFAcquisition{}, errs.E(errs.SourceUnavailable, "download.tryDownload", err)
	}

	if err := fetch.ValidatePDF(body, m.minBytes, m.maxBytes); err != nil {
		return types.PDFAcquisition{}, errs.E(errs.InvalidContent, "download.tryDownload", err)
	}

	destDir := filepath.Join(m.pdfRoot, string(datasetID), string(role))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return types.PDFAcquisition{}, errs.E(errs.StorageFailure, "download.tryDownload", err)
	}
	destPath := filepath.Join(destDir, string(pub.ID)+".pdf")

	if err := writeAtomic(destDir, destPath, body); err != nil {
		return types.PDFAcquisition{}, errs.E(errs.StorageFailure, "download.tryDownload", err)
	}

	sum := sha256.Sum256(body)
	return types.PDFAcquisition{
		PublicationID: pub.ID,
		SourceName:    cand.SourceName,
		LocalPath:     destPath,
		Bytes:         int64(len(body)),
		SHA256:        hex.EncodeToString(sum[:]),
		Status:        types.StatusSuccess,
	}, nil
}

func writeAtomic(dir, destPath string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".download-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
