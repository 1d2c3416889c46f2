package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quantumtrust/trustcore/internal/credential"
	"github.com/quantumtrust/trustcore/internal/did"
	"go.uber.org/zap"
)

// CredentialHandler handles HTTP requests for the credential lifecycle.
type CredentialHandler struct {
	svc    *credential.Engine
	keys   did.Keystore
	logger *zap.Logger
}

// NewCredentialHandler creates a new CredentialHandler. keys is consulted for
// the issuer's signing key when exporting a credential as a JWT.
func NewCredentialHandler(svc *credential.Engine, keys did.Keystore, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{svc: svc, keys: keys, logger: logger}
}

// Register mounts the credential routes on the given router group.
func (h *CredentialHandler) Register(rg *gin.RouterGroup) {
	creds := rg.Group("/credentials")
	{
		creds.POST("", h.Issue)
		creds.GET("", h.ListByHolder)
		creds.GET("/:id", h.Get)
		creds.GET("/:id/verify", h.Verify)
		creds.GET("/:id/jwt", h.ExportJWT)
		creds.POST("/:id/revoke", h.Revoke)
		creds.POST("/reconcile", h.Reconcile)
	}
}

type issueRequest struct {
	Issuer    string         `json:"issuer" binding:"required"`
	Holder    string         `json:"holder" binding:"required"`
	Type      string         `json:"type" binding:"required"`
	Claims    map[string]any `json:"claims" binding:"required"`
	ExpiresAt *time.Time     `json:"expires_at"`
}

// Issue handles POST /credentials.
func (h *CredentialHandler) Issue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cred, err := h.svc.Issue(c.Request.Context(), req.Issuer, req.Holder, req.Type, req.Claims, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrIssuerNotFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "issuer did " + req.Issuer + " not found"})
		case errors.Is(err, credential.ErrHolderNotFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "holder did " + req.Holder + " not found"})
		case errors.Is(err, credential.ErrNotActive):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logger.Error("issue credential", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "credential issuance failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"credential": cred, "anchor_source": cred.AnchorSource})
}

// Get handles GET /credentials/:id.
func (h *CredentialHandler) Get(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	cred, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential " + id.String() + " not found"})
			return
		}
		h.logger.Error("get credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credential": cred})
}

// Verify handles GET /credentials/:id/verify. Verification failure is a
// false result, not an HTTP error.
func (h *CredentialHandler) Verify(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	valid, err := h.svc.Verify(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential " + id.String() + " not found"})
			return
		}
		h.logger.Error("verify credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credential_id": id, "valid": valid})
}

// ExportJWT handles GET /credentials/:id/jwt — returns the credential as a
// compact EdDSA-signed JWT, signed with the issuer's locally held key.
func (h *CredentialHandler) ExportJWT(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	cred, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential " + id.String() + " not found"})
			return
		}
		h.logger.Error("get credential for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential lookup failed"})
		return
	}

	key, err := h.keys.Get(cred.Issuer)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no local signing key for issuer " + cred.Issuer})
		return
	}

	token, err := h.svc.ExportJWT(cred, key)
	if err != nil {
		h.logger.Error("export credential jwt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt export failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credential_id": id, "jwt": token})
}

// Revoke handles POST /credentials/:id/revoke — ACTIVE → REVOKED, once.
func (h *CredentialHandler) Revoke(c *gin.Context) {
	id, ok := credentialID(c)
	if !ok {
		return
	}

	cred, err := h.svc.Revoke(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "credential " + id.String() + " not found"})
			return
		}
		if errors.Is(err, credential.ErrAlreadyRevoked) {
			c.JSON(http.StatusConflict, gin.H{"error": "credential " + id.String() + " already revoked"})
			return
		}
		h.logger.Error("revoke credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential revocation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"credential": cred})
}

// ListByHolder handles GET /credentials?holder=<did>.
func (h *CredentialHandler) ListByHolder(c *gin.Context) {
	holder := c.Query("holder")
	if holder == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "holder query parameter is required"})
		return
	}

	creds, err := h.svc.ListByHolder(c.Request.Context(), holder)
	if err != nil {
		h.logger.Error("list credentials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list credentials"})
		return
	}
	if creds == nil {
		creds = []*credential.Credential{}
	}
	c.JSON(http.StatusOK, gin.H{"credentials": creds, "count": len(creds)})
}

// Reconcile handles POST /credentials/reconcile — runs the sweep that flags
// active credentials whose issuer or holder DID has been revoked.
func (h *CredentialHandler) Reconcile(c *gin.Context) {
	flagged, err := h.svc.ReconcileRevokedDIDs(c.Request.Context())
	if err != nil {
		h.logger.Error("reconcile credentials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flagged": flagged})
}

func credentialID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
