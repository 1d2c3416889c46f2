// Package api exposes the trust core over HTTP. Handlers translate between
// JSON requests and the service layer; every error response names the entity
// and the violated invariant rather than a generic code.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/did"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// DIDHandler handles HTTP requests for the DID lifecycle.
type DIDHandler struct {
	svc    *did.Manager
	logger *zap.Logger
}

// NewDIDHandler creates a new DIDHandler.
func NewDIDHandler(svc *did.Manager, logger *zap.Logger) *DIDHandler {
	return &DIDHandler{svc: svc, logger: logger}
}

// Register mounts the DID routes on the given router group.
func (h *DIDHandler) Register(rg *gin.RouterGroup) {
	dids := rg.Group("/dids")
	{
		dids.POST("", h.Create)
		dids.GET("/:did", h.Resolve)
		dids.GET("/:did/document", h.ResolveDocument)
		dids.POST("/:did/revoke", h.Revoke)
	}
	rg.GET("/principals/:id/dids", h.ListByPrincipal)
}

type createDIDRequest struct {
	PrincipalID uuid.UUID  `json:"principal_id" binding:"required"`
	Method      string     `json:"method" binding:"required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Create handles POST /dids — registers a new DID for a principal.
func (h *DIDHandler) Create(c *gin.Context) {
	var req createDIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), req.PrincipalID, req.Method, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, did.ErrPrincipalNotFound) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "principal " + req.PrincipalID.String() + " not found"})
			return
		}
		if errors.Is(err, ledger.ErrUnknownMethod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create did", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "did creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"did": rec, "source": rec.Source})
}

// Resolve handles GET /dids/:did — returns the DID record, revoked or not.
func (h *DIDHandler) Resolve(c *gin.Context) {
	rec, err := h.svc.Resolve(c.Request.Context(), c.Param("did"))
	if err != nil {
		if errors.Is(err, did.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "did " + c.Param("did") + " not found"})
			return
		}
		h.logger.Error("resolve did", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "did resolution failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"did": rec, "source": rec.Source})
}

// ResolveDocument handles GET /dids/:did/document — returns the W3C DID document.
func (h *DIDHandler) ResolveDocument(c *gin.Context) {
	doc, err := h.svc.ResolveDocument(c.Request.Context(), c.Param("did"))
	if err != nil {
		if errors.Is(err, did.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "did " + c.Param("did") + " not found"})
			return
		}
		h.logger.Error("resolve did document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "did document resolution failed"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Revoke handles POST /dids/:did/revoke — ACTIVE → REVOKED, once.
func (h *DIDHandler) Revoke(c *gin.Context) {
	rec, err := h.svc.Revoke(c.Request.Context(), c.Param("did"))
	if err != nil {
		if errors.Is(err, did.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "did " + c.Param("did") + " not found"})
			return
		}
		if errors.Is(err, did.ErrAlreadyRevoked) {
			c.JSON(http.StatusConflict, gin.H{"error": "did " + c.Param("did") + " already revoked"})
			return
		}
		h.logger.Error("revoke did", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "did revocation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"did": rec})
}

// ListByPrincipal handles GET /principals/:id/dids.
func (h *DIDHandler) ListByPrincipal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "principal id must be a UUID"})
		return
	}

	recs, err := h.svc.ListByPrincipal(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list dids", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list dids"})
		return
	}
	if recs == nil {
		recs = []*did.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"dids": recs, "count": len(recs)})
}
