package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/starnotary/internal/notary/service"
	"go.uber.org/zap"
)

// StarHandler handles the challenge/claim flow and owner lookups.
type StarHandler struct {
	svc    *service.NotaryService
	logger *zap.Logger
}

// NewStarHandler creates a new StarHandler.
func NewStarHandler(svc *service.NotaryService, logger *zap.Logger) *StarHandler {
	return &StarHandler{svc: svc, logger: logger}
}

// Register mounts the star routes on the given router group.
func (h *StarHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/challenges", h.RequestChallenge)
	rg.POST("/claims", h.SubmitClaim)
	rg.GET("/owners/:address/stars", h.StarsByOwner)
}

type challengeRequest struct {
	Address string `json:"address" binding:"required"`
}

// RequestChallenge handles POST /challenges: returns the message to sign.
func (h *StarHandler) RequestChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ch, err := h.svc.RequestChallenge(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("request challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue challenge"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

// SubmitClaim handles POST /claims: verifies the signed challenge and
// registers the star.
func (h *StarHandler) SubmitClaim(c *gin.Context) {
	var req service.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Address == "" || req.Message == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address, message and signature are required"})
		return
	}

	b, err := h.svc.SubmitClaim(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeExpired):
			RecordClaim("expired")
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSignatureInvalid):
			RecordClaim("bad_signature")
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMalformedChallenge),
			errors.Is(err, service.ErrInvalidStar),
			errors.Is(err, service.ErrInvalidAddress):
			RecordClaim("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			RecordClaim("error")
			writeLedgerError(c, h.logger, err)
		}
		return
	}

	RecordClaim("accepted")
	RecordBlockAppended(b.Height)
	c.JSON(http.StatusCreated, newBlockResponse(b))
}

// StarsByOwner handles GET /owners/:address/stars.
func (h *StarHandler) StarsByOwner(c *gin.Context) {
	address := c.Param("address")
	stars := h.svc.StarsByOwner(address)
	c.JSON(http.StatusOK, gin.H{
		"owner": address,
		"stars": stars,
	})
}
