package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"kvitto/internal/config"
	"kvitto/internal/domain"
	"kvitto/internal/imaging"
	"kvitto/internal/port"
	"kvitto/internal/reconcile"
	"kvitto/internal/taxonomy"
)

// ExtractInput is the DTO for one pipeline invocation.
type ExtractInput struct {
	ImageBytes  []byte
	ContentType string
	Locale      string

	// Preprocessed signals the image was already cropped and oriented
	// upstream; orientation and geometry correction are skipped verbatim.
	Preprocessed bool
}

// ExtractionService defines the image-to-structured-data pipeline contract.
type ExtractionService interface {
	Extract(ctx context.Context, input *ExtractInput) (*domain.ExtractionResult, error)
	Reconcile(draft domain.DraftReceipt) domain.ReconciledReceipt
}

type extractionService struct {
	normalizer *imaging.Normalizer
	parser     port.DocumentParser
	cache      port.Cache
	storage    port.ObjectStorage   // optional: nil means inline images only
	geometry   port.GeometryService // optional microservice, may be nil
	engine     *reconcile.Engine
	cfg        *config.Config
}

// NewExtractionService creates the pipeline orchestrator. storage and geometry
// may be nil; the pipeline then sends images inline and skips the microservice.
func NewExtractionService(
	normalizer *imaging.Normalizer,
	docParser port.DocumentParser,
	cache port.Cache,
	storage port.ObjectStorage,
	geometrySvc port.GeometryService,
	engine *reconcile.Engine,
	cfg *config.Config,
) ExtractionService {
	return &extractionService{
		normalizer: normalizer,
		parser:     docParser,
		cache:      cache,
		storage:    storage,
		geometry:   geometrySvc,
		engine:     engine,
		cfg:        cfg,
	}
}

func (s *extractionService) Extract(ctx context.Context, input *ExtractInput) (*domain.ExtractionResult, error) {
	if len(input.ImageBytes) == 0 {
		return nil, domain.NewExtractionError("validate", "empty image", domain.ErrEmptyImage)
	}
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, domain.NewExtractionError("validate",
			fmt.Sprintf("content type %s not supported", input.ContentType), domain.ErrUnsupportedFileType)
	}
	if max := s.cfg.S3.MaxFileSizeMB * 1024 * 1024; max > 0 && int64(len(input.ImageBytes)) > max {
		return nil, domain.NewExtractionError("validate",
			fmt.Sprintf("image exceeds %dMB limit", s.cfg.S3.MaxFileSizeMB), domain.ErrFileTooLarge)
	}

	if timeout := s.cfg.Pipeline.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	processed, contentType := s.normalize(input)

	hash := contentHash(processed)
	key := cacheKey(input.Locale, hash)

	if cached, ok := s.cacheGet(ctx, key); ok {
		return &domain.ExtractionResult{
			Receipt:     cached,
			ContentHash: hash,
			Cached:      true,
		}, nil
	}

	imageURL := s.publishImage(ctx, processed, contentType, hash)

	out, err := s.parser.Parse(ctx, port.ParseInput{
		ImageBytes:  processed,
		ImageURL:    imageURL,
		ContentType: contentType,
		Locale:      input.Locale,
	})
	if err != nil {
		return nil, domain.NewExtractionError("parse", err.Error(), err)
	}

	draft, err := decodeDraft(out.Draft)
	if err != nil {
		return nil, domain.NewExtractionError("convert", err.Error(), err)
	}

	normalizeDraft(draft)
	receipt := s.engine.Reconcile(*draft)

	s.cacheSet(ctx, key, &receipt)

	return &domain.ExtractionResult{
		Receipt:     &receipt,
		ContentHash: hash,
		ModelUsed:   out.ModelUsed,
	}, nil
}

func (s *extractionService) Reconcile(draft domain.DraftReceipt) domain.ReconciledReceipt {
	d := draft
	normalizeDraft(&d)
	return s.engine.Reconcile(d)
}

// normalize runs orientation and geometry correction unless bypassed. Geometry
// failure degrades to the original bytes, never an error.
func (s *extractionService) normalize(input *ExtractInput) ([]byte, string) {
	if input.Preprocessed || s.cfg.Geometry.Disabled {
		return input.ImageBytes, input.ContentType
	}

	processed, meta, err := s.normalizer.Normalize(input.ImageBytes)
	if err != nil {
		log.Printf("extractionService.normalize: falling back to original bytes: %v", err)
		return input.ImageBytes, input.ContentType
	}

	contentType := input.ContentType
	switch meta.Format {
	case "png":
		contentType = "image/png"
	case "jpeg":
		contentType = "image/jpeg"
	}
	return processed, contentType
}

// publishImage uploads the processed bytes and returns a presigned URL for the
// extractor, preferred over inline encoding to keep request payloads small.
// Returns the empty string when object storage is not configured or upload
// fails; the caller then sends the image inline.
func (s *extractionService) publishImage(ctx context.Context, data []byte, contentType, hash string) string {
	if s.storage == nil || s.cfg.S3.Bucket == "" {
		return ""
	}

	key := "receipts/" + hash + extensionFor(contentType)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		log.Printf("extractionService.publishImage: upload failed, sending inline: %v", err)
		return ""
	}

	// The geometry microservice can refine the uploaded object out of process.
	// Any failure here keeps the in-process result.
	if s.geometry != nil {
		if result, err := s.geometry.ProcessReceipt(ctx, key); err != nil {
			log.Printf("extractionService.publishImage: geometry service skipped: %v", err)
		} else if result.Processed && result.ProcessedPath != "" {
			key = result.ProcessedPath
		}
	}

	url, err := s.storage.GetPresignedURL(ctx, s.cfg.S3.Bucket, key, s.cfg.S3.PresignExpiry)
	if err != nil {
		log.Printf("extractionService.publishImage: presign failed, sending inline: %v", err)
		return ""
	}
	return url
}

// cacheGet is best-effort: cache unavailability degrades to recompute.
func (s *extractionService) cacheGet(ctx context.Context, key string) (*domain.ReconciledReceipt, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("extractionService.cacheGet: %v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var receipt domain.ReconciledReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		log.Printf("extractionService.cacheGet: discarding corrupt entry %s: %v", key, err)
		return nil, false
	}
	return &receipt, true
}

func (s *extractionService) cacheSet(ctx context.Context, key string, receipt *domain.ReconciledReceipt) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(receipt)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.Cache.TTL()); err != nil {
		log.Printf("extractionService.cacheSet: %v", err)
	}
}

// decodeDraft is the fallible conversion from the extractor's loosely-typed
// output to the internal representation. Unknown fields are tolerated.
func decodeDraft(raw json.RawMessage) (*domain.DraftReceipt, error) {
	var draft domain.DraftReceipt
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDraft, err)
	}
	return &draft, nil
}

// normalizeDraft maps categories to the internal taxonomy and strips tax-rate
// entries with zero rate or zero amount.
func normalizeDraft(draft *domain.DraftReceipt) {
	for i := range draft.Items {
		cat, _ := taxonomy.Canonicalize(draft.Items[i].Category)
		draft.Items[i].Category = string(cat)
	}

	kept := draft.VATInfo[:0]
	for _, entry := range draft.VATInfo {
		if entry.Rate != 0 && entry.Amount != 0 {
			kept = append(kept, entry)
		}
	}
	if len(kept) == 0 {
		draft.VATInfo = nil
	} else {
		draft.VATInfo = kept
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func cacheKey(locale, hash string) string {
	if locale == "" {
		locale = "default"
	}
	return fmt.Sprintf("ai:receipt:image:%s:%s", locale, hash)
}

func extensionFor(contentType string) string {
	if ft, ok := domain.AllowedContentTypes[contentType]; ok {
		return "." + string(ft)
	}
	return ".jpg"
}
