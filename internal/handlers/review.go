package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/requestdata"
	"github.com/gtead/marketplace-backend/internal/types"
)

type ReviewHandler struct {
	log       *logger.Logger
	reviews   repos.ReviewRepo
	solutions repos.SolutionRepo
}

func NewReviewHandler(log *logger.Logger, reviews repos.ReviewRepo, solutions repos.SolutionRepo) *ReviewHandler {
	return &ReviewHandler{
		log:       log.With("handler", "ReviewHandler"),
		reviews:   reviews,
		solutions: solutions,
	}
}

func (h *ReviewHandler) ListBySolution(c *gin.Context) {
	solutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid solution id"))
		return
	}
	reviews, err := h.reviews.ListBySolution(c.Request.Context(), solutionID)
	if err != nil {
		h.log.Error("Review list failed", "solution_id", solutionID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondOK(c, reviews)
}

type createReviewBody struct {
	Rating                int        `json:"rating" binding:"required"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	ReadinessScore        int        `json:"readinessScore"`
	InteroperabilityScore int        `json:"interoperabilityScore"`
	SupportScore          int        `json:"supportScore"`
	FieldTested           bool       `json:"fieldTested"`
	TestDate              *time.Time `json:"testDate"`
}

func (h *ReviewHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	solutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("Invalid solution id"))
		return
	}
	var body createReviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("Rating is required"))
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		RespondError(c, http.StatusBadRequest, "invalid_rating", errors.New("Rating must be between 1 and 5"))
		return
	}

	// The review must target an existing solution.
	if _, err := h.solutions.GetByID(c.Request.Context(), solutionID); err != nil {
		respondServiceError(c, err)
		return
	}

	review := &types.Review{
		SolutionID:            solutionID,
		ReviewerID:            rd.User.ID,
		Rating:                body.Rating,
		Title:                 body.Title,
		Description:           body.Description,
		ReadinessScore:        body.ReadinessScore,
		InteroperabilityScore: body.InteroperabilityScore,
		SupportScore:          body.SupportScore,
		FieldTested:           body.FieldTested,
		TestDate:              body.TestDate,
	}
	created, err := h.reviews.Create(c.Request.Context(), review)
	if err != nil {
		h.log.Error("Review create failed", "solution_id", solutionID, "error", err)
		respondServiceError(c, err)
		return
	}
	RespondCreated(c, created)
}
