package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quantumtrust/trustcore/internal/anchorchain"
	"github.com/quantumtrust/trustcore/internal/ledger"
	"go.uber.org/zap"
)

// LedgerHandler exposes read-only endpoints for the local anchor chain and
// for routed backend queries.
type LedgerHandler struct {
	chain  anchorchain.Chain
	router *ledger.Router
	logger *zap.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(chain anchorchain.Chain, router *ledger.Router, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{chain: chain, router: router, logger: logger}
}

// Register mounts the ledger routes on the given router group.
func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/ledger")
	{
		l.GET("", h.Overview)
		l.GET("/verify", h.Verify)
		l.GET("/entries/:idx", h.GetEntry)
		l.GET("/query/:backend/:function", h.Query)
	}
}

// Overview handles GET /ledger — chain length and current root hash.
func (h *LedgerHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.chain.Len(ctx)
	if err != nil {
		h.logger.Error("anchor chain Len", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query anchor chain"})
		return
	}

	root, err := h.chain.Root(ctx)
	if err != nil {
		h.logger.Error("anchor chain Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query anchor chain root"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": count, "root": root})
}

// Verify handles GET /ledger/verify — walks the chain and reports integrity.
func (h *LedgerHandler) Verify(c *gin.Context) {
	if err := h.chain.Verify(c.Request.Context()); err != nil {
		h.logger.Warn("anchor chain integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// GetEntry handles GET /ledger/entries/:idx.
func (h *LedgerHandler) GetEntry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}

	entry, err := h.chain.Get(c.Request.Context(), idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no anchor chain entry at index " + strconv.Itoa(idx)})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Query handles GET /ledger/query/:backend/:function — a routed read against
// one backend, with query parameters passed through as arguments. The
// response carries the LIVE/SIMULATED source tag.
func (h *LedgerHandler) Query(c *gin.Context) {
	backend := ledger.Backend(c.Param("backend"))

	args := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			args[key] = values[0]
		}
	}

	res, err := h.router.Query(c.Request.Context(), backend, c.Param("function"), args)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no result on backend " + string(backend)})
			return
		}
		if errors.Is(err, ledger.ErrBackendUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backend " + string(backend) + " unavailable"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res.Payload, "source": res.Source})
}
