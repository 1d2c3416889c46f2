package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/contentstore"
	"github.com/quantumtrust/trustcore/internal/did"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// storePutRetries bounds the retry budget for content-store writes.
const storePutRetries = 3

// didResolver is the read-only slice of the DID Manager the Pipeline consumes.
type didResolver interface {
	Resolve(ctx context.Context, didID string) (*did.Record, error)
}

// keyKeeper is the key-custody collaborator. The Pipeline records handles;
// key bytes never land in a Document record.
type keyKeeper interface {
	NewKey() (string, error)
	Key(handle string) ([]byte, error)
}

// FeatureExtractor is the advisory feature-extraction collaborator (OCR,
// classification). Its output annotates verification metadata and is never
// authoritative for the PENDING→VERIFIED transition.
type FeatureExtractor interface {
	Extract(ctx context.Context, docType string, plaintext []byte) (string, error)
}

// Pipeline runs the document integrity flow.
type Pipeline struct {
	repo     Repository
	store    contentstore.Store
	keys     keyKeeper
	router   *ledger.Router
	dids     didResolver
	features FeatureExtractor // may be nil
	logger   *zap.Logger
}

// NewPipeline creates a Pipeline. features may be nil.
func NewPipeline(repo Repository, store contentstore.Store, keys keyKeeper, router *ledger.Router, dids didResolver, features FeatureExtractor, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		repo:     repo,
		store:    store,
		keys:     keys,
		router:   router,
		dids:     dids,
		features: features,
		logger:   logger,
	}
}

// Upload runs hash → encrypt → store → anchor and persists a PENDING record.
// The content hash is computed here, once, over the plaintext. An anchor
// failure degrades to an unanchored PENDING document; a content-store
// failure past the retry budget aborts the upload.
func (p *Pipeline) Upload(ctx context.Context, owner uuid.UUID, didID, docType string, plaintext []byte) (*Document, error) {
	didRec, err := p.dids.Resolve(ctx, didID)
	if err != nil {
		return nil, fmt.Errorf("resolve document did %s: %w", didID, err)
	}

	contentHash := hashContent(plaintext)

	handle, err := p.keys.NewKey()
	if err != nil {
		return nil, fmt.Errorf("mint document key: %w", err)
	}
	key, err := p.keys.Key(handle)
	if err != nil {
		return nil, fmt.Errorf("derive document key: %w", err)
	}
	sealed, err := encrypt(key, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt document: %w", err)
	}

	address, err := p.putWithRetry(ctx, sealed)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:             uuid.New(),
		Owner:          owner,
		DID:            didID,
		Type:           docType,
		ContentHash:    contentHash,
		ContentAddress: address,
		KeyHandle:      handle,
		Cipher:         cipherAESGCM,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	anchor, err := p.router.Anchor(ctx, didRec.Backend, contentHash, map[string]string{
		"document_id":     doc.ID.String(),
		"content_address": address,
		"did":             didID,
	})
	if err != nil {
		p.logger.Warn("document stored without ledger anchor",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
	} else {
		doc.AnchorTxID = anchor.Ref.TxID
		doc.AnchorSource = anchor.Source
	}

	if err := p.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	p.logger.Info("document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("did", didID),
		zap.String("type", docType),
		zap.Bool("anchored", doc.Anchored()),
	)
	return doc, nil
}

func (p *Pipeline) putWithRetry(ctx context.Context, sealed []byte) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= storePutRetries; attempt++ {
		address, err := p.store.Put(ctx, sealed)
		if err == nil {
			return address, nil
		}
		lastErr = err
		if !errors.Is(err, contentstore.ErrUnavailable) {
			return "", fmt.Errorf("store document: %w", err)
		}
		p.logger.Warn("content store put failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, lastErr)
}

// Get returns the document record, or ErrNotFound.
func (p *Pipeline) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return p.repo.Get(ctx, id)
}

// ListByDID returns all documents bound to a DID.
func (p *Pipeline) ListByDID(ctx context.Context, didID string) ([]*Document, error) {
	return p.repo.ListByDID(ctx, didID)
}

// Verify re-fetches the ciphertext, decrypts it, recomputes the plaintext
// hash, and cross-checks the ledger anchor. On success the document becomes
// VERIFIED; any mismatch transitions it to REJECTED and returns
// ErrIntegrityViolation. A missing blob is ErrNotFound, not a violation.
func (p *Pipeline) Verify(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := p.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != StatusPending {
		return nil, fmt.Errorf("document %s is %s: %w", id, doc.Status, ErrAlreadyFinal)
	}

	sealed, err := p.store.Get(ctx, doc.ContentAddress)
	if err != nil {
		if errors.Is(err, contentstore.ErrNotFound) {
			return nil, fmt.Errorf("content at %s: %w", doc.ContentAddress, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch document content: %w", err)
	}

	key, err := p.keys.Key(doc.KeyHandle)
	if err != nil {
		return nil, fmt.Errorf("derive document key: %w", err)
	}
	plaintext, err := decrypt(key, sealed)
	if err != nil {
		return p.reject(ctx, doc, fmt.Sprintf("decrypt failed: %v", err))
	}

	if got := hashContent(plaintext); got != doc.ContentHash {
		return p.reject(ctx, doc, fmt.Sprintf("hash mismatch: stored %s, recomputed %s", doc.ContentHash, got))
	}

	note, err := p.crossCheckAnchor(ctx, doc)
	if err != nil {
		return p.reject(ctx, doc, err.Error())
	}

	if p.features != nil {
		if signal, ferr := p.features.Extract(ctx, doc.Type, plaintext); ferr != nil {
			p.logger.Warn("feature extraction failed", zap.String("document_id", id.String()), zap.Error(ferr))
		} else if signal != "" {
			// Advisory only: annotate, never gate the transition.
			note = appendNote(note, "features: "+signal)
		}
	}

	verified, err := p.repo.TransitionStatus(ctx, id, StatusPending, StatusVerified, note)
	if err != nil {
		return nil, err
	}
	p.logger.Info("document verified", zap.String("document_id", id.String()))
	return verified, nil
}

// crossCheckAnchor confirms the ledger anchor still records this document's
// content hash. Only a LIVE query result is authoritative; a simulated or
// unavailable backend leaves the anchor unconfirmed rather than failing
// verification on fabricated data.
func (p *Pipeline) crossCheckAnchor(ctx context.Context, doc *Document) (string, error) {
	if !doc.Anchored() {
		return "anchor: none recorded", nil
	}
	if doc.AnchorSource != ledger.SourceLive {
		return "anchor: simulated, not cross-checked", nil
	}

	didRec, err := p.dids.Resolve(ctx, doc.DID)
	if err != nil {
		return "", fmt.Errorf("resolve did for anchor check: %v: %w", err, ErrIntegrityViolation)
	}

	res, err := p.router.Query(ctx, didRec.Backend, "getAnchor", map[string]string{"tx_id": doc.AnchorTxID})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", fmt.Errorf("anchor %s not on ledger: %w", doc.AnchorTxID, ErrIntegrityViolation)
		}
		return "anchor: ledger unreachable, not cross-checked", nil
	}
	if res.Source != ledger.SourceLive {
		return "anchor: simulated response, not cross-checked", nil
	}
	if res.Payload["subject"] != doc.ContentHash {
		return "", fmt.Errorf("anchor %s records %q, expected content hash %q: %w",
			doc.AnchorTxID, res.Payload["subject"], doc.ContentHash, ErrIntegrityViolation)
	}
	return "anchor: confirmed " + doc.AnchorTxID, nil
}

func (p *Pipeline) reject(ctx context.Context, doc *Document, reason string) (*Document, error) {
	if _, terr := p.repo.TransitionStatus(ctx, doc.ID, StatusPending, StatusRejected, reason); terr != nil {
		p.logger.Error("failed to mark document rejected",
			zap.String("document_id", doc.ID.String()),
			zap.Error(terr),
		)
	}
	p.logger.Warn("document integrity violation",
		zap.String("document_id", doc.ID.String()),
		zap.String("reason", reason),
	)
	return nil, fmt.Errorf("document %s: %s: %w", doc.ID, reason, ErrIntegrityViolation)
}

// Reject is the explicit reviewer action: PENDING → REJECTED.
func (p *Pipeline) Reject(ctx context.Context, id uuid.UUID, reason string) (*Document, error) {
	doc, err := p.repo.TransitionStatus(ctx, id, StatusPending, StatusRejected, reason)
	if err != nil {
		return nil, err
	}
	p.logger.Info("document rejected",
		zap.String("document_id", id.String()),
		zap.String("reason", reason),
	)
	return doc, nil
}

// Delete removes the document record and its stored ciphertext.
func (p *Pipeline) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := p.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.store.Delete(ctx, doc.ContentAddress); err != nil {
		p.logger.Warn("delete document blob",
			zap.String("document_id", id.String()),
			zap.Error(err),
		)
	}
	return p.repo.Delete(ctx, id)
}

func appendNote(base, extra string) string {
	if base == "" {
		return extra
	}
	return base + "; " + extra
}
