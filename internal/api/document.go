package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/document"
	"go.uber.org/zap"
)

// DocumentHandler handles HTTP requests for the document integrity pipeline.
type DocumentHandler struct {
	svc    *document.Pipeline
	logger *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc *document.Pipeline, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, logger: logger}
}

// Register mounts the document routes on the given router group.
func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.Upload)
		docs.GET("", h.ListByDID)
		docs.GET("/:id", h.Get)
		docs.POST("/:id/verify", h.Verify)
		docs.POST("/:id/reject", h.Reject)
		docs.DELETE("/:id", h.Delete)
	}
}

type uploadRequest struct {
	OwnerID uuid.UUID `json:"owner_id" binding:"required"`
	DID     string    `json:"did" binding:"required"`
	Type    string    `json:"type" binding:"required"`
	Content string    `json:"content" binding:"required"` // base64
}

// Upload handles POST /documents — hash, encrypt, store, anchor.
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content must be base64"})
		return
	}

	doc, err := h.svc.Upload(c.Request.Context(), req.OwnerID, req.DID, req.Type, plaintext)
	if err != nil {
		if errors.Is(err, document.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "content store unavailable"})
			return
		}
		h.logger.Error("upload document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc, "anchor_source": doc.AnchorSource})
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document " + id.String() + " not found"})
			return
		}
		h.logger.Error("get document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// Verify handles POST /documents/:id/verify — PENDING → VERIFIED or REJECTED.
func (h *DocumentHandler) Verify(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	doc, err := h.svc.Verify(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, document.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "document " + id.String() + " not found"})
		case errors.Is(err, document.ErrAlreadyFinal):
			c.JSON(http.StatusConflict, gin.H{"error": "document " + id.String() + " already in a terminal state"})
		case errors.Is(err, document.ErrIntegrityViolation):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": document.StatusRejected})
		default:
			h.logger.Error("verify document", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "document verification failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject handles POST /documents/:id/reject — the explicit reviewer action.
func (h *DocumentHandler) Reject(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.svc.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document " + id.String() + " not found"})
			return
		}
		if errors.Is(err, document.ErrAlreadyFinal) {
			c.JSON(http.StatusConflict, gin.H{"error": "document " + id.String() + " already in a terminal state"})
			return
		}
		h.logger.Error("reject document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document rejection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

// Delete handles DELETE /documents/:id — removes the record and its blob.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, document.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document " + id.String() + " not found"})
			return
		}
		h.logger.Error("delete document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document deletion failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListByDID handles GET /documents?did=<did>.
func (h *DocumentHandler) ListByDID(c *gin.Context) {
	didID := c.Query("did")
	if didID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "did query parameter is required"})
		return
	}

	docs, err := h.svc.ListByDID(c.Request.Context(), didID)
	if err != nil {
		h.logger.Error("list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}
	if docs == nil {
		docs = []*document.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

func documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
