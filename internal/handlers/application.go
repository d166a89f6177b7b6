package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/types"
)

type ApplicationHandler struct {
	log          *logger.Logger
	applications repos.ApplicationRepo
	challenges   repos.ChallengeRepo
}

func NewApplicationHandler(log *logger.Logger, applications repos.ApplicationRepo, challenges repos.ChallengeRepo) *ApplicationHandler {
	return &ApplicationHandler{
		log:          log.With("handler", "ApplicationHandler"),
		applications: applications,
		challenges:   challenges,
	}
}

// List shows vendors their own applications; government-class users and
// admins see everything, narrowed by the filters.
func (h *ApplicationHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	filter := repos.ApplicationFilter{Status: c.Query("status")}
	if v := c.Query("challengeId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_filter", errors.New("Invalid challengeId filter"))
			return
		}
		filter.ChallengeID = &id
	}
	if rd.User.Role == types.RoleVendor {
		filter.VendorID = &rd.User.ID
	}

	applications, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Application list failed", "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, applications)
}

type createApplicationBody struct {
	ChallengeID    uuid.UUID      `json:"challengeId" binding:"required"`
	SolutionID     *uuid.UUID     `json:"solutionId"`
	WhitePaperURL  string         `json:"whitePaperUrl"`
	VideoURL       string         `json:"videoUrl"`
	SubmissionData map[string]any `json:"submissionData"`
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body createApplicationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("challengeId is required"))
		return
	}

	challenge, err := h.challenges.GetByID(c.Request.Context(), body.ChallengeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if challenge.Status == types.ChallengeStatusClosed {
		RespondError(c, http.StatusBadRequest, "challenge_closed", errors.New("This challenge is closed to new applications"))
		return
	}

	application := &types.Application{
		ChallengeID:   challenge.ID,
		VendorID:      rd.User.ID,
		SolutionID:    body.SolutionID,
		WhitePaperURL: body.WhitePaperURL,
		VideoURL:      body.VideoURL,
	}
	if body.SubmissionData != nil {
		application.SubmissionData = datatypes.JSONMap(body.SubmissionData)
	}
	created, err := h.applications.Create(c.Request.Context(), application)
	if err != nil {
		h.log.Error("Application create failed", "challenge_id", challenge.ID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}
