package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

// Aggregate contract value is not tracked yet; the landing page shows a
// static figure until award data lands in the model.
const contractsAwardedPlaceholder = "$284M"

type StatsHandler struct {
	log        *logger.Logger
	solutions  repos.SolutionRepo
	challenges repos.ChallengeRepo
}

func NewStatsHandler(log *logger.Logger, solutions repos.SolutionRepo, challenges repos.ChallengeRepo) *StatsHandler {
	return &StatsHandler{
		log:        log.With("handler", "StatsHandler"),
		solutions:  solutions,
		challenges: challenges,
	}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	solutions, err := h.solutions.List(ctx, repos.SolutionFilter{})
	if err != nil {
		h.log.Error("Stats solution load failed", "error", err)
		respondServiceError(c, err)
		return
	}
	openChallenges, err := h.challenges.List(ctx, repos.ChallengeFilter{Status: types.ChallengeStatusOpen})
	if err != nil {
		h.log.Error("Stats challenge load failed", "error", err)
		respondServiceError(c, err)
		return
	}

	vendors := map[uuid.UUID]bool{}
	for _, s := range solutions {
		vendors[s.VendorID] = true
	}

	RespondOK(c, gin.H{
		"vendors":          len(vendors),
		"solutions":        len(solutions),
		"openChallenges":   len(openChallenges),
		"contractsAwarded": contractsAwardedPlaceholder,
	})
}
