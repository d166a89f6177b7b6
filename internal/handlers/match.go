package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/services"
	"github.com/gtead/marketplace-backend/internal/types"
)

// MatchHandler fronts the AI-assisted discovery endpoints.
type MatchHandler struct {
	log       *logger.Logger
	aiService services.AIService
}

func NewMatchHandler(log *logger.Logger, aiService services.AIService) *MatchHandler {
	return &MatchHandler{
		log:       log.With("handler", "MatchHandler"),
		aiService: aiService,
	}
}

func (h *MatchHandler) Match(c *gin.Context) {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Query is required"))
		return
	}
	matches, err := h.aiService.Match(c.Request.Context(), body.Query)
	if err != nil {
		h.log.Error("Match failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}

func (h *MatchHandler) CapabilitySearch(c *gin.Context) {
	var body struct {
		Requirement string `json:"requirement"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Requirement) == "" {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Requirement is required"))
		return
	}
	matches, err := h.aiService.CapabilitySearch(c.Request.Context(), body.Requirement)
	if err != nil {
		h.log.Error("Capability search failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}

func (h *MatchHandler) SubmissionTips(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		ChallengeType string `json:"challengeType"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || !types.ValidChallengeType(body.ChallengeType) {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("A valid challengeType is required"))
		return
	}
	tips, err := h.aiService.SubmissionTips(c.Request.Context(), body.ChallengeType, rd.User)
	if err != nil {
		h.log.Error("Submission tips failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tips": tips})
}

func (h *MatchHandler) FeedbackAnalysis(c *gin.Context) {
	solutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid solution id"))
		return
	}
	analysis, err := h.aiService.AnalyzeFeedback(c.Request.Context(), solutionID)
	if err != nil {
		h.log.Error("Feedback analysis failed", "solution_id", solutionID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, analysis)
}
