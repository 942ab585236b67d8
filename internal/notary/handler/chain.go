package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/starnotary/internal/chain"
	"github.com/jmerrifield20/starnotary/internal/notary/service"
	"go.uber.org/zap"
)

// ChainHandler exposes the chain read endpoints and the privileged append.
type ChainHandler struct {
	svc             *service.NotaryService
	adminSecretHash []byte // bcrypt; empty = privileged append disabled
	logger          *zap.Logger
}

// NewChainHandler creates a new ChainHandler.
func NewChainHandler(svc *service.NotaryService, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{svc: svc, logger: logger}
}

// SetAdminSecretHash enables POST /blocks for callers presenting the secret
// whose bcrypt hash is given. It must be called before Register.
func (h *ChainHandler) SetAdminSecretHash(hash string) {
	h.adminSecretHash = []byte(hash)
}

// Register mounts the chain routes on the given router group.
func (h *ChainHandler) Register(rg *gin.RouterGroup) {
	c := rg.Group("/chain")
	{
		c.GET("", h.Overview)
		c.GET("/validate", h.Validate)
	}

	b := rg.Group("/blocks")
	{
		b.GET("/height/:height", h.GetByHeight)
		b.GET("/hash/:hash", h.GetByHash)
		b.POST("", RequireAdmin(h.adminSecretHash), h.AppendData)
	}
}

// blockResponse decorates a block with its decoded claim, when it has one.
type blockResponse struct {
	*chain.Block
	BodyDecoded *chain.Claim `json:"body_decoded,omitempty"`
}

func newBlockResponse(b *chain.Block) blockResponse {
	resp := blockResponse{Block: b}
	if c, ok := chain.DecodeClaim(b.Body); ok {
		resp.BodyDecoded = &c
	}
	return resp
}

// Overview handles GET /chain: returns the height and tip hash.
func (h *ChainHandler) Overview(c *gin.Context) {
	o := h.svc.Overview()
	SetChainHeight(o.Height)
	c.JSON(http.StatusOK, o)
}

// Validate handles GET /chain/validate: walks the full chain and reports
// every invalid block.
func (h *ChainHandler) Validate(c *gin.Context) {
	violations := h.svc.ValidateChain()
	RecordValidation(len(violations) == 0)

	if len(violations) > 0 {
		h.logger.Warn("chain integrity check failed", zap.Int("violations", len(violations)))
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      len(violations) == 0,
		"violations": violationsOrEmpty(violations),
	})
}

func violationsOrEmpty(vs []chain.Violation) []chain.Violation {
	if vs == nil {
		return []chain.Violation{}
	}
	return vs
}

// GetByHeight handles GET /blocks/height/:height.
func (h *ChainHandler) GetByHeight(c *gin.Context) {
	height, err := strconv.ParseInt(c.Param("height"), 10, 64)
	if err != nil || height < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "height must be a non-negative integer"})
		return
	}

	b := h.svc.BlockByHeight(height)
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(b))
}

// GetByHash handles GET /blocks/hash/:hash.
func (h *ChainHandler) GetByHash(c *gin.Context) {
	b, err := h.svc.BlockByHash(c.Param("hash"))
	if err != nil {
		if errors.Is(err, chain.ErrBlockNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
			return
		}
		h.logger.Error("block by hash", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query chain"})
		return
	}
	c.JSON(http.StatusOK, newBlockResponse(b))
}

type appendDataRequest struct {
	Data any `json:"data" binding:"required"`
}

// AppendData handles POST /blocks, the privileged append of an arbitrary payload.
func (h *ChainHandler) AppendData(c *gin.Context) {
	var req appendDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.svc.AppendData(c.Request.Context(), req.Data)
	if err != nil {
		writeLedgerError(c, h.logger, err)
		return
	}
	RecordBlockAppended(b.Height)
	c.JSON(http.StatusCreated, newBlockResponse(b))
}

// writeLedgerError maps an append failure to a response.
func writeLedgerError(c *gin.Context, logger *zap.Logger, err error) {
	if errors.Is(err, chain.ErrChainCorrupted) {
		logger.Error("append refused: chain corrupted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": chain.ErrChainCorrupted.Error()})
		return
	}
	logger.Error("append failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to append block"})
}
