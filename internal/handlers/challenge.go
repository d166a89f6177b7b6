package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

type ChallengeHandler struct {
	log        *logger.Logger
	challenges repos.ChallengeRepo
}

func NewChallengeHandler(log *logger.Logger, challenges repos.ChallengeRepo) *ChallengeHandler {
	return &ChallengeHandler{
		log:        log.With("handler", "ChallengeHandler"),
		challenges: challenges,
	}
}

func (h *ChallengeHandler) List(c *gin.Context) {
	filter := repos.ChallengeFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
	}
	challenges, err := h.challenges.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Challenge list failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, challenges)
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid challenge id"))
		return
	}
	challenge, err := h.challenges.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, challenge)
}

type createChallengeBody struct {
	Title                   string                         `json:"title" binding:"required"`
	Description             string                         `json:"description" binding:"required"`
	Type                    string                         `json:"type" binding:"required"`
	Status                  string                         `json:"status"`
	Phases                  []types.ChallengePhase         `json:"phases"`
	PrizePool               string                         `json:"prizePool"`
	ApplicationDeadline     *time.Time                     `json:"applicationDeadline"`
	FinalsDate              *time.Time                     `json:"finalsDate"`
	EligibilityRequirements *types.EligibilityRequirements `json:"eligibilityRequirements"`
	FocusAreas              []string                       `json:"focusAreas"`
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	var body createChallengeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Title, description and type are required"))
		return
	}
	if !types.ValidChallengeType(body.Type) {
		RespondError(c, http.StatusBadRequest, "invalid_type", errors.New("Invalid challenge type"))
		return
	}
	challenge := &types.Challenge{
		Title:               body.Title,
		Description:         body.Description,
		Type:                body.Type,
		Status:              body.Status,
		Phases:              datatypes.NewJSONSlice(body.Phases),
		PrizePool:           body.PrizePool,
		ApplicationDeadline: body.ApplicationDeadline,
		FinalsDate:          body.FinalsDate,
		FocusAreas:          datatypes.NewJSONSlice(body.FocusAreas),
	}
	if body.EligibilityRequirements != nil {
		challenge.EligibilityRequirements = datatypes.NewJSONType(*body.EligibilityRequirements)
	}
	created, err := h.challenges.Create(c.Request.Context(), challenge)
	if err != nil {
		h.log.Error("Challenge create failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}
