package ingestion_engine

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lexin-ta/lexin-api/internal/core"
	"github.com/lexin-ta/lexin-api/internal/models"
)

// manifestFilename is the fixed name of the metadata manifest inside the archive.
const manifestFilename = "metadata.json"

const reasonNoMetadata = "no metadata detected"

var _ Ingestor = (*ArchiveIngestor)(nil)

// ArchiveIngestor orchestrates archive unpacking, metadata/file correlation,
// per-document parallel extraction + upload + indexing, and partial-failure
// accounting with compensating deletes.
type ArchiveIngestor struct {
	obj       core.ObjectClient
	search    core.SearchClient
	extractor core.TextExtractor

	index   string
	bucket  string
	folder  string
	workers int
}

func NewArchiveIngestor(
	obj core.ObjectClient,
	search core.SearchClient,
	extractor core.TextExtractor,
	index, bucket, folder string,
	workers int,
) *ArchiveIngestor {
	if workers < 1 {
		workers = 1
	}
	return &ArchiveIngestor{
		obj:       obj,
		search:    search,
		extractor: extractor,
		index:     index,
		bucket:    bucket,
		folder:    folder,
		workers:   workers,
	}
}

// documentOutcome is the per-document result slot filled by a worker. Exactly
// one of the two fields is set.
type documentOutcome struct {
	success *models.DocumentUploadResult
	failure *models.FailedUpload
}

// IngestArchive processes every manifest record in parallel on a bounded
// worker pool and returns the full succeeded/failed partition. A failure in
// one document never aborts the batch; only a rejected archive (not a zip,
// no manifest, unparseable manifest) returns an error.
func (ing *ArchiveIngestor) IngestArchive(ctx context.Context, zipBytes []byte, declaredContentType string) (*models.IngestArchiveResult, error) {
	start := time.Now()

	if declaredContentType != "application/zip" && declaredContentType != "application/x-zip-compressed" {
		return nil, core.ErrUnsupportedMediaType
	}

	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnsupportedMediaType, err)
	}

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		members[f.Name] = f
	}

	manifest, err := readManifest(members)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(ing.workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	// One slot per manifest record; each worker writes only its own slot, so
	// no accumulator is shared between in-flight tasks.
	outcomes := make([]documentOutcome, len(manifest))
	var wg sync.WaitGroup
	for i := range manifest {
		wg.Add(1)
		i := i
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = ing.processDocument(ctx, members, &manifest[i])
		}); submitErr != nil {
			wg.Done()
			outcomes[i] = failedOutcome(manifest[i].ID, fmt.Sprintf("submit worker: %v", submitErr))
		}
	}
	wg.Wait()

	result := &models.IngestArchiveResult{}
	referenced := map[string]bool{manifestFilename: true}
	for _, meta := range manifest {
		for _, name := range meta.Filenames {
			referenced[name] = true
		}
	}
	for _, out := range outcomes {
		if out.success != nil {
			result.Succeeded = append(result.Succeeded, *out.success)
		} else if out.failure != nil {
			result.Failed = append(result.Failed, *out.failure)
		}
	}

	// Archive members no manifest record ever claimed.
	var orphans []string
	for name := range members {
		if !referenced[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		result.Failed = append(result.Failed, models.FailedUpload{Ref: name, Reason: reasonNoMetadata})
	}

	result.ElapsedSeconds = time.Since(start).Seconds()
	logrus.WithFields(logrus.Fields{
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"elapsed":   result.ElapsedSeconds,
	}).Info("archive ingestion finished")

	return result, nil
}

// readManifest locates and decodes the metadata.json entry.
func readManifest(members map[string]*zip.File) ([]models.LegalDocumentMetadata, error) {
	entry, ok := members[manifestFilename]
	if !ok {
		return nil, core.ErrMissingManifest
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", manifestFilename, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", manifestFilename, err)
	}

	var manifest []models.LegalDocumentMetadata
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, &models.ValidationError{Field: manifestFilename, Reason: err.Error()}
	}
	return manifest, nil
}

// parsedFile is the outcome of stage (a) for one archive member.
type parsedFile struct {
	data  []byte
	types []string
	texts []string
}

// processDocument runs the three stages for one manifest record: parallel
// per-file extraction, parallel per-file upload, then idempotent indexing.
// Output arrays stay aligned to the manifest's filename order because every
// stage writes into the slot of the filename it was started for, regardless
// of completion order.
func (ing *ArchiveIngestor) processDocument(ctx context.Context, members map[string]*zip.File, meta *models.LegalDocumentMetadata) documentOutcome {
	n := len(meta.Filenames)
	if n == 0 {
		return failedOutcome(meta.ID, "no filenames declared in metadata")
	}

	// Stage a: extract text and read raw bytes, one task per file. A plain
	// errgroup (no shared cancellation) lets sibling tasks run to completion
	// even when one fails; the first error decides the document's fate.
	parsed := make([]parsedFile, n)
	var extractGroup errgroup.Group
	for i, name := range meta.Filenames {
		i, name := i, name
		extractGroup.Go(func() error {
			member, ok := members[name]
			if !ok {
				return fmt.Errorf("%s: not found in archive", name)
			}
			rc, err := member.Open()
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}

			types, texts, err := ing.extractor.Extract(data)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}

			parsed[i] = parsedFile{data: data, types: types, texts: texts}
			return nil
		})
	}
	if err := extractGroup.Wait(); err != nil {
		// Nothing was uploaded for this document yet; fail it outright.
		return failedOutcome(meta.ID, err.Error())
	}

	// Stage b: upload every file, one task per file.
	urls := make([]string, n)
	keys := make([]string, n)
	var uploadGroup errgroup.Group
	for i, name := range meta.Filenames {
		i, name := i, name
		uploadGroup.Go(func() error {
			key := path.Join(ing.folder, name)
			url, err := ing.obj.UploadFile(ctx, ing.bucket, key, parsed[i].data, "application/pdf")
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			urls[i] = url
			keys[i] = key
			return nil
		})
	}
	if err := uploadGroup.Wait(); err != nil {
		ing.compensate(ctx, meta.ID, keys)
		return failedOutcome(meta.ID, err.Error())
	}

	// Stage c: assemble the payload and index it under the slug id.
	doc := &models.LegalDocument{
		LegalDocumentMetadata: *meta,
		ResourceURLs:          urls,
		ContentType:           make([][]string, n),
		ContentText:           make([][]string, n),
	}
	for i := range parsed {
		doc.ContentType[i] = parsed[i].types
		doc.ContentText[i] = parsed[i].texts
	}

	if err := ing.indexOne(ctx, doc); err != nil {
		// A duplicate id means nothing new was committed to the index, so
		// there is nothing to compensate.
		if !errors.Is(err, core.ErrDuplicateDocument) {
			ing.compensate(ctx, meta.ID, keys)
		}
		return failedOutcome(meta.ID, err.Error())
	}

	return documentOutcome{success: &models.DocumentUploadResult{
		ID:           doc.ID,
		Filenames:    doc.Filenames,
		ResourceURLs: doc.ResourceURLs,
	}}
}

// indexOne schema-validates the document, then writes it under its slug id.
// The exists pre-check is only a fast-path rejection; the create conflict
// returned by the index write itself is the authoritative duplicate signal.
func (ing *ArchiveIngestor) indexOne(ctx context.Context, doc *models.LegalDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	exists, err := ing.search.DocumentExists(ctx, ing.index, doc.ID)
	if err != nil {
		return err
	}
	if exists {
		return core.ErrDuplicateDocument
	}

	return ing.search.IndexDocument(ctx, ing.index, doc.ID, doc)
}

// compensate deletes every blob that was uploaded for a document whose later
// stage failed. Best-effort: delete failures are logged and ignored so the
// root-cause failure stays visible.
func (ing *ArchiveIngestor) compensate(ctx context.Context, docID string, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := ing.obj.DeleteFile(ctx, ing.bucket, key); err != nil {
			logrus.Warnf("compensating delete for %s: %s: %v", docID, key, err)
		}
	}
}

func failedOutcome(ref, reason string) documentOutcome {
	return documentOutcome{failure: &models.FailedUpload{Ref: ref, Reason: reason}}
}
