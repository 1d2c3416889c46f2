package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quantumtrust/trustcore/internal/proof"
	"go.uber.org/zap"
)

// ProofHandler handles HTTP requests for predicate proofs.
type ProofHandler struct {
	backend proof.Backend
	logger  *zap.Logger
}

// NewProofHandler creates a new ProofHandler.
func NewProofHandler(backend proof.Backend, logger *zap.Logger) *ProofHandler {
	return &ProofHandler{backend: backend, logger: logger}
}

// Register mounts the proof routes on the given router group.
func (h *ProofHandler) Register(rg *gin.RouterGroup) {
	proofs := rg.Group("/proofs")
	{
		proofs.POST("", h.Prove)
		proofs.POST("/verify", h.Verify)
	}
}

type proveRequest struct {
	Secret string       `json:"secret" binding:"required"`
	Params proof.Params `json:"params" binding:"required"`
}

// Prove handles POST /proofs. The secret is consumed here and never echoed
// back; the response carries only the commitment, public inputs, and result.
func (h *ProofHandler) Prove(c *gin.Context) {
	var req proveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	commitment, err := h.backend.Prove(c.Request.Context(), req.Secret, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, proof.ErrUnknownPredicate),
			errors.Is(err, proof.ErrInvalidParams),
			errors.Is(err, proof.ErrInvalidSecret):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, proof.ErrNoCredentialVerifier):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logger.Error("generate proof", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "proof generation failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proof": commitment})
}

type verifyProofRequest struct {
	Commitment   string             `json:"commitment" binding:"required"`
	PublicInputs proof.PublicInputs `json:"public_inputs" binding:"required"`
	Satisfied    bool               `json:"satisfied"`
}

// Verify handles POST /proofs/verify — structural validation of a commitment
// and its public inputs against the asserted result.
func (h *ProofHandler) Verify(c *gin.Context) {
	var req verifyProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid, err := h.backend.Verify(c.Request.Context(), req.Commitment, req.PublicInputs, req.Satisfied)
	if err != nil {
		h.logger.Error("verify proof", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "proof verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid, "satisfied": req.Satisfied})
}
